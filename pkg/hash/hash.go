package hash

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/mpcwallet/hdtss/internal/params"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/zeebo/blake3"
)

const DigestLengthBytes = params.SecBytes * 2 // 64

// Hash is the hash function we use for generating commitments, Fiat-Shamir challenges
// and session identifiers.
//
// Internally, this is a wrapper around blake3, whose extendable output lets
// callers read as many bytes as they need.
type Hash struct {
	h *blake3.Hasher
}

// New creates a Hash with the given initial data written to it.
func New(initialData ...WriterToWithDomain) *Hash {
	hash := &Hash{h: blake3.New()}
	for _, data := range initialData {
		_ = hash.WriteAny(data)
	}
	return hash
}

// Digest returns a reader for the current output of the function.
//
// This finalizes the current state of the hash, and returns what's
// essentially a stream of random bytes.
func (hash *Hash) Digest() io.Reader {
	return hash.h.Digest()
}

// Sum returns a slice of length DigestLengthBytes resulting from the current hash state.
// If a different length is required, use io.ReadFull(hash.Digest(), out) instead.
func (hash *Hash) Sum() []byte {
	out := make([]byte, DigestLengthBytes)
	if _, err := io.ReadFull(hash.Digest(), out); err != nil {
		panic(fmt.Sprintf("hash.Sum: internal hash failure: %v", err))
	}
	return out
}

// WriteAny takes many different data types and writes them to the hash state.
//
// Currently supported types:
//
//   - []byte
//   - *saferith.Nat
//   - *saferith.Int
//   - *saferith.Modulus
//   - curve.Scalar
//   - curve.Point
//   - hash.WriterToWithDomain
//
// This function will apply its own domain separation for the built-in types.
// WriterToWithDomain already suggests which domain to use, and this function respects it.
func (hash *Hash) WriteAny(data ...interface{}) error {
	var toBeWritten WriterToWithDomain
	for _, d := range data {
		switch t := d.(type) {
		case []byte:
			toBeWritten = &BytesWithDomain{"[]byte", t}
		case *saferith.Nat:
			if t == nil {
				return fmt.Errorf("hash.Hash: write *saferith.Nat: nil")
			}
			// the minimal encoding does not depend on the announced length of t
			toBeWritten = &BytesWithDomain{"saferith.Nat", t.Big().Bytes()}
		case *saferith.Int:
			if t == nil {
				return fmt.Errorf("hash.Hash: write *saferith.Int: nil")
			}
			bytes := append([]byte{byte(t.IsNegative())}, t.Abs().Big().Bytes()...)
			toBeWritten = &BytesWithDomain{"saferith.Int", bytes}
		case *saferith.Modulus:
			if t == nil {
				return fmt.Errorf("hash.Hash: write *saferith.Modulus: nil")
			}
			toBeWritten = &BytesWithDomain{"saferith.Modulus", t.Bytes()}
		case curve.Scalar:
			bytes, err := t.MarshalBinary()
			if err != nil {
				return fmt.Errorf("hash.Hash: write curve.Scalar: %w", err)
			}
			toBeWritten = &BytesWithDomain{"curve.Scalar", bytes}
		case curve.Point:
			bytes, err := t.MarshalBinary()
			if err != nil {
				return fmt.Errorf("hash.Hash: write curve.Point: %w", err)
			}
			toBeWritten = &BytesWithDomain{"curve.Point", bytes}
		case WriterToWithDomain:
			toBeWritten = t
		default:
			panic(fmt.Sprintf("hash.Hash: unsupported type %T", d))
		}
		if err := writeWithDomain(hash.h, toBeWritten); err != nil {
			return fmt.Errorf("hash.Hash: write %s: %w", toBeWritten.Domain(), err)
		}
	}
	return nil
}

// Clone returns a copy of the Hash in its current state.
func (hash *Hash) Clone() *Hash {
	return &Hash{h: hash.h.Clone()}
}

// Fork clones the hash and writes data to the clone.
func (hash *Hash) Fork(data ...interface{}) *Hash {
	newHash := hash.Clone()
	_ = newHash.WriteAny(data...)
	return newHash
}

// writeUint32 writes a length prefix, used to make concatenations unambiguous.
func writeUint32(w io.Writer, x uint32) error {
	return binary.Write(w, binary.BigEndian, x)
}
