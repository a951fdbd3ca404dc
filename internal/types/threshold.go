package types

import (
	"encoding/binary"
	"io"
)

// Threshold is the threshold t of a sharing, hashed with its own domain so that
// it cannot be confused with a party count or a round number in a transcript.
type Threshold uint32

// WriteTo writes t as 4 big-endian bytes.
func (t Threshold) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(binary.BigEndian.AppendUint32(nil, uint32(t)))
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (Threshold) Domain() string { return "Threshold" }
