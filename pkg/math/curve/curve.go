package curve

import (
	"encoding"
	"fmt"

	"github.com/cronokirby/saferith"
)

// Curve is a prime order group with its scalar field. Only Secp256k1 is implemented.
type Curve interface {
	// NewPoint returns the identity.
	NewPoint() Point
	NewBasePoint() Point
	// NewScalar returns 0.
	NewScalar() Scalar
	Name() string
	ScalarBits() int
	// SafeScalarBytes is the number of random bytes reduced mod q for a negligible sampling bias.
	SafeScalarBytes() int
	Order() *saferith.Modulus
}

// Scalar is an element of ℤ_q. Arithmetic methods update the receiver and return it.
type Scalar interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	Curve() Curve
	Add(Scalar) Scalar
	Sub(Scalar) Scalar
	Mul(Scalar) Scalar
	Invert() Scalar
	Negate() Scalar
	Equal(Scalar) bool
	IsZero() bool
	Set(Scalar) Scalar
	// SetNat reduces x mod q.
	SetNat(*saferith.Nat) Scalar
	// Act returns s⋅P as a new point.
	Act(Point) Point
	// ActOnBase returns s⋅G as a new point.
	ActOnBase() Point
}

// Point is a group element. Apart from Set, methods leave the receiver untouched.
type Point interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
	Curve() Curve
	Add(Point) Point
	Sub(Point) Point
	Set(Point) Point
	Negate() Point
	Equal(Point) bool
	IsIdentity() bool
}

func scalarBytes(s Scalar) []byte {
	data, err := s.MarshalBinary()
	if err != nil {
		panic(err)
	}
	return data
}

// MakeInt returns s as an integer in [0, q).
func MakeInt(s Scalar) *saferith.Int {
	return new(saferith.Int).SetBytes(scalarBytes(s))
}

// MakeNat returns s as a natural number in [0, q).
func MakeNat(s Scalar) *saferith.Nat {
	return new(saferith.Nat).SetBytes(scalarBytes(s))
}

// FromName returns the curve whose Name is name.
func FromName(name string) (Curve, error) {
	if name == (Secp256k1{}).Name() {
		return Secp256k1{}, nil
	}
	return nil, fmt.Errorf("curve: unknown curve %q", name)
}
