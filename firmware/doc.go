// Package firmware runs the per-cycle pipelines of both halves of a split
// keyboard and supervises their faults.
//
// A secondary half scans its matrix and transmits the packed report to
// the primary half each cycle. The primary half ticks its layouts, scans
// its own matrix when it has one, polls the radio once, feeds every
// peer's last received matrix through that peer's debouncer and layout,
// reads the wheel, then fuses everything into HID reports.
//
// Build assembles either pipeline from a config.Board and the half's
// hardware. Run drives a pipeline at a fixed period and hands every fault
// to a Policy:
//
//	p, err := firmware.Build(board, "core", hw)
//	if err != nil {
//	    return err
//	}
//	return firmware.Run(ctx, p, firmware.WithPeriod(board.Cycle()))
//
// The default policy resets on pin faults and retries sink faults up to
// DefaultSinkRetries consecutive cycles. Radio faults are retried up to
// DefaultRadioRetries consecutive cycles before the primary drops to
// local-only operation; a primary with no matrix of its own resets
// instead.
//
// With a board's stale_cycles set, a peer that has not been heard from for
// that many cycles has its keys released until it transmits again.
package firmware
