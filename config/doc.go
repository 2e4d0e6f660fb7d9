// Package config describes a split keyboard at build time.
//
// A board is a YAML document naming each half, its role, its radio
// address, its switch geometry and the keymap the primary half resolves
// for it. The default board is embedded in the binary, so a device has no
// runtime configuration surface:
//
//	board, err := config.Default()
//	if err != nil {
//	    return err
//	}
//	_, primary := board.Primary()
//
// Validate fills in defaults (tolerance 1, settle 5us, cycle 300us) and
// rejects boards that could not run: a missing or repeated primary,
// shared addresses, keymaps that do not match their geometry, secondary
// reports that do not fit in a radio frame and unparsable actions.
package config
