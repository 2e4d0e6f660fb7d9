// Package hal defines the hardware abstraction used by the matrix scanner
// and the wheel encoder.
//
// The firmware core never touches a concrete pin type. Platform code hands
// it homogeneous slices of [Pin] values, each exposing a level read and a
// level write:
//
//	type Pin interface {
//	    Get() (bool, error)
//	    Set(level bool) error
//	}
//
// Subpackages provide implementations:
//
//   - sim: simulated switch grids and phase lines for tests and the host simulator
//   - expander: pins on an MCP23017 I²C port expander
//
// Pin errors are never fatal inside the core; they are returned to the
// caller, which decides how to react.
package hal
