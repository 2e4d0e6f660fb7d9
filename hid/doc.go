// Package hid defines the boot-protocol keyboard and wheel mouse reports
// the firmware produces, the keycodes that fill them, and the Sink
// contract of the USB side that consumes them.
//
// # Reports
//
// KeyboardReport and MouseReport marshal into caller-provided buffers
// with MarshalTo, so the per-cycle path does not allocate:
//
//	var buf [hid.KeyboardReportSize]byte
//	n := report.MarshalTo(buf[:])
//
// KeyboardReportDescriptor and MouseReportDescriptor describe those
// layouts for a USB stack's configuration descriptor.
//
// # Handoff
//
// The firmware loop and the code servicing USB run in different contexts.
// Handoff connects them with one-slot mailboxes, one per report kind.
// The loop writes through the Sink methods and never blocks; the USB side
// drains with Poll from an interrupt-style callback or with Serve from its
// own goroutine:
//
//	handoff := hid.NewHandoff()
//	go handoff.Serve(ctx, stack) // stack implements EndpointWriter
//
//	err := handoff.WriteKeyboard(&report) // pkg.ErrWouldBlock if still pending
package hid
