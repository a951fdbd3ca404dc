package round

import (
	"encoding/binary"
	"io"
)

// Number is the index of a round, starting at 1.
// The output and abort rounds use 0.
type Number uint16

// WriteTo writes the number as 2 big-endian bytes.
func (i Number) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(binary.BigEndian.AppendUint16(nil, uint16(i)))
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (Number) Domain() string {
	return "Round Number"
}
