package polynomial

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
)

// Exponent represents a polynomial F(X) whose coefficients belong to a group 𝔾.
// It is the public commitment to a Polynomial f, with F(X) = f(X)⋅G.
type Exponent struct {
	group curve.Curve
	// IsConstant indicates that the constant coefficient is the identity.
	// When set, the identity is implicit and coefficients holds a₁, …, aₜ.
	IsConstant   bool
	coefficients []curve.Point
}

// NewPolynomialExponent generates an Exponent polynomial F(X) = [secret + a₁•X + … + aₜ•Xᵗ]•G,
// with coefficients in 𝔾, and degree t.
func NewPolynomialExponent(polynomial *Polynomial) *Exponent {
	p := &Exponent{
		group:        polynomial.group,
		IsConstant:   polynomial.coefficients[0].IsZero(),
		coefficients: make([]curve.Point, 0, len(polynomial.coefficients)),
	}

	for i, c := range polynomial.coefficients {
		if p.IsConstant && i == 0 {
			continue
		}
		p.coefficients = append(p.coefficients, c.ActOnBase())
	}

	return p
}

// Evaluate returns F(x) = [f(x)]•G.
func (p *Exponent) Evaluate(x curve.Scalar) curve.Point {
	result := p.group.NewPoint()

	for i := len(p.coefficients) - 1; i >= 0; i-- {
		// B_n-1 = [x]B_n  + A_n-1
		if !result.IsIdentity() {
			result = x.Act(result)
		}
		result = result.Add(p.coefficients[i])
	}

	if p.IsConstant && !result.IsIdentity() {
		// result is B₁, we need to multiply by x to obtain F(x)
		result = x.Act(result)
	}

	return result
}

// Degree returns the degree t of the polynomial.
func (p *Exponent) Degree() int {
	if p.IsConstant {
		return len(p.coefficients)
	}
	return len(p.coefficients) - 1
}

func (p *Exponent) add(q *Exponent) error {
	if len(p.coefficients) != len(q.coefficients) {
		return errors.New("q is not the same length as p")
	}

	if p.IsConstant != q.IsConstant {
		return errors.New("p and q differ in 'IsConstant'")
	}

	for i := 0; i < len(p.coefficients); i++ {
		p.coefficients[i] = p.coefficients[i].Add(q.coefficients[i])
	}

	return nil
}

// Sum creates a new Polynomial in the Exponent, by summing a slice of existing ones.
func Sum(polynomials []*Exponent) (*Exponent, error) {
	if len(polynomials) == 0 {
		return nil, errors.New("polynomial.Sum: no polynomials given")
	}
	summed := polynomials[0].Copy()

	// we assume all polynomials have the same degree as the first
	for j := 1; j < len(polynomials); j++ {
		if err := summed.add(polynomials[j]); err != nil {
			return nil, err
		}
	}
	return summed, nil
}

// Copy returns a deep copy of p.
func (p *Exponent) Copy() *Exponent {
	q := &Exponent{
		group:        p.group,
		IsConstant:   p.IsConstant,
		coefficients: make([]curve.Point, len(p.coefficients)),
	}
	for i := 0; i < len(p.coefficients); i++ {
		q.coefficients[i] = p.group.NewPoint().Set(p.coefficients[i])
	}
	return q
}

// Equal returns true if p and other have the same coefficients.
func (p *Exponent) Equal(other *Exponent) bool {
	if p.IsConstant != other.IsConstant {
		return false
	}
	if len(p.coefficients) != len(other.coefficients) {
		return false
	}
	for i := 0; i < len(p.coefficients); i++ {
		if !p.coefficients[i].Equal(other.coefficients[i]) {
			return false
		}
	}
	return true
}

// Constant returns the constant coefficient F(0) of the polynomial 'in the exponent'.
func (p *Exponent) Constant() curve.Point {
	c := p.group.NewPoint()
	if p.IsConstant {
		return c
	}
	return c.Set(p.coefficients[0])
}

// AddConstant returns a new Exponent F'(X) = F(X) + c.
//
// Every evaluation F'(x) is shifted by c, including F'(0).
func (p *Exponent) AddConstant(c curve.Point) *Exponent {
	q := p.Copy()
	if q.IsConstant {
		q.IsConstant = false
		q.coefficients = append([]curve.Point{p.group.NewPoint()}, q.coefficients...)
	}
	q.coefficients[0] = q.coefficients[0].Add(c)
	return q
}

// Group returns the curve over which the coefficients are defined.
func (p *Exponent) Group() curve.Curve {
	return p.group
}

// WriteTo implements io.WriterTo and should be used within the hash.Hash function.
func (p *Exponent) WriteTo(w io.Writer) (int64, error) {
	if p == nil {
		return 0, io.ErrUnexpectedEOF
	}
	total := int64(0)
	// write the number of coefficients, negated when the constant is implicit
	count := uint32(len(p.coefficients))
	if p.IsConstant {
		count |= 1 << 31
	}
	if err := binary.Write(w, binary.BigEndian, count); err != nil {
		return 0, err
	}
	total += 4

	for _, c := range p.coefficients {
		data, err := c.MarshalBinary()
		if err != nil {
			return total, err
		}
		n, err := w.Write(data)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// Domain implements hash.WriterToWithDomain.
func (*Exponent) Domain() string {
	return "Exponent"
}

type exponentMarshal struct {
	Group        string
	IsConstant   bool
	Coefficients [][]byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (p *Exponent) MarshalBinary() ([]byte, error) {
	coefficients := make([][]byte, 0, len(p.coefficients))
	for _, c := range p.coefficients {
		data, err := c.MarshalBinary()
		if err != nil {
			return nil, err
		}
		coefficients = append(coefficients, data)
	}
	return cbor.Marshal(exponentMarshal{
		Group:        p.group.Name(),
		IsConstant:   p.IsConstant,
		Coefficients: coefficients,
	})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (p *Exponent) UnmarshalBinary(data []byte) error {
	var m exponentMarshal
	if err := cbor.Unmarshal(data, &m); err != nil {
		return err
	}
	group, err := curve.FromName(m.Group)
	if err != nil {
		return err
	}
	if len(m.Coefficients) == 0 {
		return errors.New("polynomial.Exponent: no coefficients")
	}
	p.group = group
	p.IsConstant = m.IsConstant
	p.coefficients = make([]curve.Point, len(m.Coefficients))
	for i, c := range m.Coefficients {
		p.coefficients[i] = group.NewPoint()
		if err = p.coefficients[i].UnmarshalBinary(c); err != nil {
			return fmt.Errorf("polynomial.Exponent: coefficient %d: %w", i, err)
		}
	}
	return nil
}
