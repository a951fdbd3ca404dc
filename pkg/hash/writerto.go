package hash

import (
	"encoding/binary"
	"io"
)

// WriterToWithDomain is implemented by every value written to a transcript.
// The domain distinguishes values of different types with the same encoding.
type WriterToWithDomain interface {
	io.WriterTo

	// Domain returns a context string, which should be unique for each implementor
	Domain() string
}

// writeWithDomain writes "(" ‖ len(domain) ‖ domain ‖ data ‖ ")", with the length as 4 big-endian bytes.
// The framing keeps the items of a transcript from running into each other.
func writeWithDomain(w io.Writer, object WriterToWithDomain) error {
	domain := object.Domain()
	header := make([]byte, 0, 5+len(domain))
	header = append(header, '(')
	header = binary.BigEndian.AppendUint32(header, uint32(len(domain)))
	header = append(header, domain...)
	if _, err := w.Write(header); err != nil {
		return err
	}
	if _, err := object.WriteTo(w); err != nil {
		return err
	}
	_, err := w.Write([]byte{')'})
	return err
}

// BytesWithDomain annotates raw bytes with a domain.
type BytesWithDomain struct {
	TheDomain string
	Bytes     []byte
}

// WriteTo implements io.WriterTo, prefixing the data with its length.
func (b BytesWithDomain) WriteTo(w io.Writer) (int64, error) {
	if err := writeUint32(w, uint32(len(b.Bytes))); err != nil {
		return 0, err
	}
	n, err := w.Write(b.Bytes)
	return int64(n) + 4, err
}

// Domain implements WriterToWithDomain.
func (b BytesWithDomain) Domain() string {
	return b.TheDomain
}
