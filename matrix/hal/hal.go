package hal

import "time"

// Pin is the minimal GPIO capability used by the matrix scanner and the
// wheel encoder. Levels are electrical: true is logic-high.
//
// tinygo.org/x/drivers/mcp23017.Pin satisfies this interface directly, and
// a machine.Pin is adapted with a two-line wrapper on TinyGo targets.
type Pin interface {
	// Get samples the pin level.
	Get() (bool, error)

	// Set drives the pin level. Input-only pins may return an error.
	Set(level bool) error
}

// Delayer blocks for a short, bounded electrical settle time.
type Delayer interface {
	Delay(d time.Duration)
}

// DelayFunc adapts an ordinary function to the Delayer interface.
type DelayFunc func(d time.Duration)

// Delay calls f(d).
func (f DelayFunc) Delay(d time.Duration) {
	f(d)
}

// SleepDelayer delays using time.Sleep. On TinyGo targets time.Sleep
// busy-waits for microsecond durations, which matches the settle contract.
var SleepDelayer Delayer = DelayFunc(time.Sleep)

// NoDelay is a Delayer that returns immediately, for simulated pins that
// settle instantly.
var NoDelay Delayer = DelayFunc(func(time.Duration) {})
