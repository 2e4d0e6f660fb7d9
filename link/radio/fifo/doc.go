// Package fifo implements a link.Radio over named pipes, so the two
// halves of the keyboard can run as separate processes on one host.
//
// All radios on a bus share a directory. Each radio creates a FIFO named
// after its address (node-48-27-e2-0d-73-70) and reads frames from it;
// sending opens the destination's FIFO and writes one frame:
//
//	[src address (6)] [payload length (2, little-endian)] [payload]
//
// Frames are smaller than PIPE_BUF, so concurrent writers never
// interleave. Reads and writes never block: an empty FIFO reports
// pkg.ErrNoFrame and a full or absent peer drops the frame, matching the
// best-effort radio the link is modeled on.
//
// This package uses syscall.Mkfifo and is only supported on Unix-like
// systems.
package fifo
