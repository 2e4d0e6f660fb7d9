package firmware

import (
	"context"
	"errors"
	"time"

	"github.com/ardnew/softkb/pkg"
)

// RunOption configures Run.
type RunOption func(*runner)

type runner struct {
	period time.Duration
	policy Policy
	limit  uint64
	before func(cycle uint64) error
	after  func(cycle uint64)
}

// WithPeriod sets the cycle period. Zero runs cycles back to back.
func WithPeriod(d time.Duration) RunOption {
	return func(r *runner) {
		r.period = d
	}
}

// WithPolicy sets the fault policy. The default is DefaultPolicy().
func WithPolicy(p Policy) RunOption {
	return func(r *runner) {
		r.policy = p
	}
}

// WithCycles stops Run after n cycles. Zero runs until ctx is done.
func WithCycles(n uint64) RunOption {
	return func(r *runner) {
		r.limit = n
	}
}

// WithBeforeCycle calls fn before each cycle with the cycle's number,
// starting at 1. An error from fn stops Run and is returned.
func WithBeforeCycle(fn func(cycle uint64) error) RunOption {
	return func(r *runner) {
		r.before = fn
	}
}

// WithAfterCycle calls fn after each cycle, including cycles that
// faulted and were retried.
func WithAfterCycle(fn func(cycle uint64)) RunOption {
	return func(r *runner) {
		r.after = fn
	}
}

// Run runs p at a fixed period until ctx is done, the cycle limit is
// reached or the policy decides to reset.
//
// Run returns nil when the cycle limit is reached, ctx.Err() when ctx is
// done and the *pkg.Fault that caused a reset otherwise. A Degrade
// decision that p cannot honour is a reset.
func Run(ctx context.Context, p Pipeline, opts ...RunOption) error {
	r := &runner{policy: DefaultPolicy()}
	for _, opt := range opts {
		opt(r)
	}

	var tick <-chan time.Time
	if r.period > 0 {
		ticker := time.NewTicker(r.period)
		defer ticker.Stop()
		tick = ticker.C
	}

	pkg.LogDebug(pkg.ComponentFirmware, "pipeline started", "period", r.period, "cycles", r.limit)

	for n := uint64(1); r.limit == 0 || n <= r.limit; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if r.before != nil {
			if err := r.before(n); err != nil {
				return err
			}
		}

		err := p.Cycle()
		if r.after != nil {
			r.after(n)
		}
		if err != nil {
			if stop := r.handle(p, err); stop != nil {
				return stop
			}
		}

		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		}
	}

	pkg.LogDebug(pkg.ComponentFirmware, "pipeline stopped", "cycles", p.Cycles())
	return nil
}

func (r *runner) handle(p Pipeline, err error) error {
	var fault *pkg.Fault
	if !errors.As(err, &fault) {
		fault = pkg.NewFault(pkg.FaultNone, p.Cycles(), err)
	}

	decision := r.policy.Decide(fault)
	pkg.LogWarn(pkg.ComponentFirmware, "cycle fault",
		"kind", fault.Kind.String(),
		"cycle", fault.Cycle,
		"decision", decision.String(),
		"error", fault.Err)

	switch decision {
	case Retry:
		return nil
	case Degrade:
		if p.Degrade() {
			return nil
		}
		pkg.LogError(pkg.ComponentFirmware, "pipeline reset, nothing left to run", "fault", fault.Error())
		return fault
	default:
		pkg.LogError(pkg.ComponentFirmware, "pipeline reset", "fault", fault.Error())
		return fault
	}
}
