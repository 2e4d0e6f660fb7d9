// Package pkg provides shared utilities for the softkb firmware.
//
// This package contains common functionality used by every pipeline stage,
// including:
//
//   - Structured logging via Go's standard [log/slog] package
//   - Sentinel errors for pin, wire, and HID sink failures
//   - The [Fault] type that replaces unconditional halts
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps [log/slog] with component context:
//
//	pkg.SetLogLevel(slog.LevelDebug)
//	pkg.LogInfo(pkg.ComponentLink, "peer registered", "addr", addr)
//
// # Errors
//
// Failures are defined as sentinel values and wrapped with context:
//
//	if errors.Is(err, pkg.ErrPinIO) {
//	    // Handle a matrix pin failure
//	}
//
// Benign HID sink results ([ErrWouldBlock], [ErrDuplicate]) are absorbed by
// the report stage; everything else reaches the supervisor as a [Fault].
package pkg
