// Package sim provides simulated pins for running the scanner and wheel
// decoder without hardware.
//
// A Grid models a switch matrix with pulled-up inputs, so it reproduces
// the electrical behavior the scanner relies on: inputs only read low
// while a connected output is driven low. Faults can be injected per pin
// to exercise error paths.
package sim
