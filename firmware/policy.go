package firmware

import "github.com/ardnew/softkb/pkg"

// Decision is a Policy's response to a fault.
type Decision uint8

// Fault decisions.
const (
	Retry   Decision = iota // Run the next cycle as usual
	Degrade                 // Drop the wireless half and keep running
	Reset                   // Stop; Run returns the fault
)

// String returns a string representation of the decision.
func (d Decision) String() string {
	switch d {
	case Retry:
		return "retry"
	case Degrade:
		return "degrade"
	case Reset:
		return "reset"
	default:
		return "unknown"
	}
}

// Policy decides how Run reacts to a fault.
type Policy interface {
	Decide(f *pkg.Fault) Decision
}

// PolicyFunc adapts an ordinary function to the Policy interface.
type PolicyFunc func(f *pkg.Fault) Decision

// Decide calls fn(f).
func (fn PolicyFunc) Decide(f *pkg.Fault) Decision {
	return fn(f)
}

// DefaultSinkRetries is the number of consecutive sink faults the default
// policy retries before resetting.
const DefaultSinkRetries = 3

// DefaultRadioRetries is the number of consecutive radio faults the
// default policy retries before degrading.
const DefaultRadioRetries = 3

// DefaultPolicy resets on pin and geometry faults. It retries up to
// DefaultSinkRetries consecutive sink faults, then resets, and up to
// DefaultRadioRetries consecutive radio faults, then degrades.
func DefaultPolicy() Policy {
	return &defaultPolicy{
		sink:  streak{limit: DefaultSinkRetries},
		radio: streak{limit: DefaultRadioRetries},
	}
}

// streak counts faults of one kind on consecutive cycles.
type streak struct {
	limit int
	run   int
	last  uint64
}

// exceeded records a fault at cycle and reports whether the run of
// consecutive faults is now longer than the limit.
func (s *streak) exceeded(cycle uint64) bool {
	if s.run > 0 && cycle == s.last+1 {
		s.run++
	} else {
		s.run = 1
	}
	s.last = cycle
	return s.run > s.limit
}

type defaultPolicy struct {
	sink  streak
	radio streak
}

func (p *defaultPolicy) Decide(f *pkg.Fault) Decision {
	switch f.Kind {
	case pkg.FaultSink:
		if p.sink.exceeded(f.Cycle) {
			return Reset
		}
		return Retry
	case pkg.FaultRadio:
		if p.radio.exceeded(f.Cycle) {
			return Degrade
		}
		return Retry
	default:
		return Reset
	}
}
