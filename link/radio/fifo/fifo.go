package fifo

import (
	"encoding/binary"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"github.com/google/uuid"

	"github.com/ardnew/softkb/link"
	"github.com/ardnew/softkb/pkg"
)

// Frame header: source address (6) + payload length (2, little-endian).
const headerSize = link.AddrLen + 2

// maxFrame stays below PIPE_BUF so every frame is written atomically and
// frames from different senders never interleave.
const maxFrame = headerSize + link.MaxPayload

const nodePrefix = "node-"

// NewBusDir creates a fresh, uniquely named bus directory under parent
// (os.TempDir() if empty) and returns its path.
func NewBusDir(parent string) (string, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	dir := filepath.Join(parent, "softkb-bus-"+uuid.NewString())
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create bus dir: %w", err)
	}
	return dir, nil
}

// Radio implements link.Radio over named pipes in a shared bus directory.
// Each radio owns one FIFO named after its address; senders write whole
// frames into the destination's FIFO.
type Radio struct {
	busDir string
	addr   link.Addr
	path   string

	mutex   sync.Mutex
	read    *os.File
	writers map[link.Addr]*os.File
	closed  bool

	pending []byte
	rbuf    [maxFrame * 4]byte
	wbuf    [maxFrame]byte
}

// Open creates the FIFO for addr in busDir and opens it for reading.
func Open(busDir string, addr link.Addr) (*Radio, error) {
	if addr.IsBroadcast() {
		return nil, fmt.Errorf("%w: cannot open as broadcast", pkg.ErrInvalidParameter)
	}
	if err := os.MkdirAll(busDir, 0o755); err != nil {
		return nil, fmt.Errorf("create bus dir: %w", err)
	}

	r := &Radio{
		busDir:  busDir,
		addr:    addr,
		path:    nodePath(busDir, addr),
		writers: make(map[link.Addr]*os.File),
	}

	// Remove existing file if any
	os.Remove(r.path)
	if err := syscall.Mkfifo(r.path, 0o666); err != nil {
		return nil, fmt.Errorf("mkfifo %s: %w", r.path, err)
	}

	// O_RDWR keeps the FIFO open for writers even when no other process
	// holds it, so opens never block and reads never see EOF.
	f, err := os.OpenFile(r.path, os.O_RDWR|syscall.O_NONBLOCK, 0)
	if err != nil {
		os.Remove(r.path)
		return nil, fmt.Errorf("open %s: %w", r.path, err)
	}
	r.read = f

	pkg.LogDebug(pkg.ComponentLink, "fifo radio open", "addr", addr.String(), "path", r.path)
	return r, nil
}

// Addr returns the radio's address.
func (r *Radio) Addr() link.Addr {
	return r.addr
}

// Send implements link.Radio. Sending to an address with no FIFO on the
// bus, or whose FIFO is full, silently drops the frame.
func (r *Radio) Send(dst link.Addr, payload []byte) error {
	if len(payload) > link.MaxPayload {
		return fmt.Errorf("%w: %d byte payload", pkg.ErrFrameLength, len(payload))
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		return pkg.ErrClosed
	}

	copy(r.wbuf[:link.AddrLen], r.addr[:])
	binary.LittleEndian.PutUint16(r.wbuf[link.AddrLen:headerSize], uint16(len(payload)))
	n := copy(r.wbuf[headerSize:], payload)
	frame := r.wbuf[:headerSize+n]

	if !dst.IsBroadcast() {
		return r.sendTo(dst, frame)
	}
	peers, err := r.peers()
	if err != nil {
		return err
	}
	for _, p := range peers {
		if err := r.sendTo(p, frame); err != nil {
			return err
		}
	}
	return nil
}

// Receive implements link.Radio.
func (r *Radio) Receive(buf []byte) (link.Addr, int, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		return link.Addr{}, 0, pkg.ErrClosed
	}

	if !r.framePending() {
		n, err := rawRead(r.read, r.rbuf[:])
		if err != nil {
			return link.Addr{}, 0, fmt.Errorf("read %s: %w", r.path, err)
		}
		r.pending = append(r.pending, r.rbuf[:n]...)
		if !r.framePending() {
			return link.Addr{}, 0, pkg.ErrNoFrame
		}
	}

	var src link.Addr
	copy(src[:], r.pending[:link.AddrLen])
	size := int(binary.LittleEndian.Uint16(r.pending[link.AddrLen:headerSize]))
	payload := r.pending[headerSize : headerSize+size]
	r.pending = r.pending[headerSize+size:]

	if size > len(buf) {
		return src, 0, fmt.Errorf("%w: %d byte frame, %d byte buffer", pkg.ErrFrameLength, size, len(buf))
	}
	return src, copy(buf, payload), nil
}

// Close closes every FIFO handle and removes this radio's FIFO.
func (r *Radio) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	for addr, f := range r.writers {
		errs = append(errs, f.Close())
		delete(r.writers, addr)
	}
	if r.read != nil {
		errs = append(errs, r.read.Close())
		r.read = nil
	}
	if err := os.Remove(r.path); err != nil && !os.IsNotExist(err) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (r *Radio) framePending() bool {
	if len(r.pending) < headerSize {
		return false
	}
	size := int(binary.LittleEndian.Uint16(r.pending[link.AddrLen:headerSize]))
	return len(r.pending) >= headerSize+size
}

func (r *Radio) sendTo(dst link.Addr, frame []byte) error {
	f, ok := r.writers[dst]
	if !ok {
		var err error
		f, err = os.OpenFile(nodePath(r.busDir, dst), os.O_WRONLY|syscall.O_NONBLOCK, 0)
		if err != nil {
			if os.IsNotExist(err) || errors.Is(err, syscall.ENXIO) {
				// nobody listening
				return nil
			}
			return fmt.Errorf("open peer %s: %w", dst, err)
		}
		r.writers[dst] = f
	}

	n, err := rawWrite(f, frame)
	switch {
	case errors.Is(err, syscall.EAGAIN):
		pkg.LogDebug(pkg.ComponentLink, "peer fifo full, frame dropped", "dst", dst.String())
		return nil
	case errors.Is(err, syscall.EPIPE):
		f.Close()
		delete(r.writers, dst)
		return nil
	case err != nil:
		return fmt.Errorf("write peer %s: %w", dst, err)
	case n != len(frame):
		return fmt.Errorf("write peer %s: short write %d of %d", dst, n, len(frame))
	}
	return nil
}

func (r *Radio) peers() ([]link.Addr, error) {
	entries, err := os.ReadDir(r.busDir)
	if err != nil {
		return nil, fmt.Errorf("read bus dir: %w", err)
	}
	var addrs []link.Addr
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, nodePrefix) {
			continue
		}
		addr, err := link.ParseAddr(strings.TrimPrefix(name, nodePrefix))
		if err != nil || addr == r.addr {
			continue
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func nodePath(busDir string, addr link.Addr) string {
	return filepath.Join(busDir, nodePrefix+strings.ReplaceAll(addr.String(), ":", "-"))
}

// rawRead reads without parking on the runtime poller; an empty pipe
// returns 0 bytes.
func rawRead(f *os.File, buf []byte) (int, error) {
	rc, err := f.SyscallConn()
	if err != nil {
		return 0, err
	}
	var n int
	var rerr error
	err = rc.Read(func(fd uintptr) bool {
		n, rerr = syscall.Read(int(fd), buf)
		return true
	})
	if err != nil {
		return 0, err
	}
	if errors.Is(rerr, syscall.EAGAIN) {
		return 0, nil
	}
	if n < 0 {
		n = 0
	}
	return n, rerr
}

// rawWrite writes without parking on the runtime poller, so a full pipe
// returns EAGAIN instead of blocking.
func rawWrite(f *os.File, data []byte) (int, error) {
	rc, err := f.SyscallConn()
	if err != nil {
		return 0, err
	}
	var n int
	var werr error
	err = rc.Write(func(fd uintptr) bool {
		n, werr = syscall.Write(int(fd), data)
		return true
	})
	if err != nil {
		return 0, err
	}
	return n, werr
}
