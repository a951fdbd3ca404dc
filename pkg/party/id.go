package party

import (
	"encoding/binary"
	"errors"
	"io"
	"strconv"

	"github.com/cronokirby/saferith"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
)

// ByteSize is the number of bytes required to store an ID.
const ByteSize = 2

// MAX is the largest ID, and therefore the largest number of parties.
const MAX = (1 << (ByteSize * 8)) - 1

// ID is the index of a party in a protocol run.
// Valid IDs are in [1, n], 0 is reserved for "all parties" in message routing.
type ID uint16

// Scalar returns the corresponding curve.Scalar, used as the evaluation point
// of the party's Shamir share.
func (id ID) Scalar(group curve.Curve) curve.Scalar {
	return group.NewScalar().SetNat(new(saferith.Nat).SetUint64(uint64(id)))
}

// Bytes returns a []byte slice of length party.ByteSize.
func (id ID) Bytes() []byte {
	bytes := make([]byte, ByteSize)
	binary.BigEndian.PutUint16(bytes, uint16(id))
	return bytes
}

// String returns a base 10 representation of ID.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// WriteTo implements io.WriterTo.
func (id ID) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(id.Bytes())
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (ID) Domain() string {
	return "ID"
}

// IDFromString reads a base 10 string and attempts to generate a non-zero ID from it.
func IDFromString(str string) (ID, error) {
	p, err := strconv.ParseUint(str, 10, 16)
	if err != nil {
		return 0, err
	}
	if p == 0 {
		return 0, errors.New("party: ID must be non-zero")
	}
	return ID(p), nil
}
