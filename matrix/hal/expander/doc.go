// Package expander drives a keyboard matrix through an MCP23017 16-bit
// I²C GPIO expander using tinygo.org/x/drivers.
//
// The package depends only on the drivers.I2C bus interface, so it builds
// for both TinyGo targets (machine.I2C satisfies it) and the host, where
// tests substitute a register-level model of the chip.
package expander
