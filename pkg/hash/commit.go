package hash

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"
	"io"

	"github.com/mpcwallet/hdtss/internal/params"
)

type (
	// Commitment is the digest h(data, decommitment), published before the data.
	Commitment []byte
	// Decommitment is the random nonce revealed along with the data.
	Decommitment []byte
)

func (c Commitment) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(c)
	return int64(n), err
}

func (Commitment) Domain() string { return "Commitment" }

// Validate checks that c has the length of a digest.
func (c Commitment) Validate() error {
	if len(c) != DigestLengthBytes {
		return fmt.Errorf("commitment: incorrect length (got %d, expected %d)", len(c), DigestLengthBytes)
	}
	return nil
}

func (d Decommitment) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(d)
	return int64(n), err
}

func (Decommitment) Domain() string { return "Decommitment" }

// Validate checks that d has params.SecBytes bytes.
func (d Decommitment) Validate() error {
	if len(d) != params.SecBytes {
		return fmt.Errorf("decommitment: incorrect length (got %d, expected %d)", len(d), params.SecBytes)
	}
	return nil
}

// Commit returns a commitment to data under the current hash state, and the decommitment to open it.
func (hash *Hash) Commit(data ...interface{}) (Commitment, Decommitment, error) {
	d := Decommitment(make([]byte, params.SecBytes))
	if _, err := rand.Read(d); err != nil {
		return nil, nil, fmt.Errorf("hash.Commit: failed to generate decommitment: %w", err)
	}
	c, err := hash.commitment(d, data)
	if err != nil {
		return nil, nil, fmt.Errorf("hash.Commit: %w", err)
	}
	return c, d, nil
}

// Decommit returns true if c is the commitment to data with decommitment d, under the current hash state.
func (hash *Hash) Decommit(c Commitment, d Decommitment, data ...interface{}) bool {
	if c.Validate() != nil || d.Validate() != nil {
		return false
	}
	expected, err := hash.commitment(d, data)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare(expected, c) == 1
}

func (hash *Hash) commitment(d Decommitment, data []interface{}) (Commitment, error) {
	h := hash.Clone()
	for _, item := range data {
		if err := h.WriteAny(item); err != nil {
			return nil, err
		}
	}
	if err := h.WriteAny(d); err != nil {
		return nil, err
	}
	return h.Sum(), nil
}
