// Package matrix scans a keyboard switch grid and converts between grid
// snapshots and their bit-packed wire form.
//
// # Geometry and bit order
//
// A grid has Outputs driven lines and Inputs sensed lines. Cell (o, i)
// occupies bit index o*Inputs+i of a packed report, stored in byte
// index/8 at bit index%8 (least-significant bit first). A report is
// ceil(Outputs*Inputs/8) bytes long and its pad bits are zero.
//
// Both halves of a split keyboard rely on this order: the secondary half
// transmits the packed report unmodified and the primary half unpacks it
// with the same geometry. There is no transpose anywhere in the pipeline;
// keymaps are indexed [layer][output][input].
//
// # Scanning
//
//	scanner, err := matrix.NewScanner(inputs, outputs)
//	if err != nil {
//	    return err
//	}
//	buf := make([]byte, scanner.ByteLen())
//	if err := scanner.Scan(buf); err != nil {
//	    // errors.Is(err, pkg.ErrPinIO)
//	}
//
// Construction drives every output high. Each scan drives one output low
// at a time, waits DefaultSettle, samples every input (low means closed)
// and restores the output.
package matrix
