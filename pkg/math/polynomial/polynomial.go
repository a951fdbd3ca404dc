package polynomial

import (
	"crypto/rand"

	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/math/sample"
)

// Polynomial is a Shamir sharing polynomial f(X) = a₀ + a₁⋅X + … + aₜ⋅Xᵗ over the curve's scalar field.
type Polynomial struct {
	group        curve.Curve
	coefficients []curve.Scalar
}

// NewPolynomial returns a random polynomial of the given degree with f(0) = constant.
// A nil constant is taken to be 0.
func NewPolynomial(group curve.Curve, degree int, constant curve.Scalar) *Polynomial {
	coefficients := make([]curve.Scalar, 0, degree+1)
	a0 := group.NewScalar()
	if constant != nil {
		a0.Set(constant)
	}
	coefficients = append(coefficients, a0)
	for len(coefficients) <= degree {
		coefficients = append(coefficients, sample.Scalar(rand.Reader, group))
	}
	return &Polynomial{group: group, coefficients: coefficients}
}

// Evaluate returns f(x) using Horner's rule. It panics on x = 0, which would reveal the secret.
func (p *Polynomial) Evaluate(x curve.Scalar) curve.Scalar {
	if x.IsZero() {
		panic("polynomial: evaluation at 0")
	}
	result := p.group.NewScalar()
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		result.Mul(x).Add(p.coefficients[i])
	}
	return result
}

// Constant returns a copy of f(0).
func (p *Polynomial) Constant() curve.Scalar {
	return p.group.NewScalar().Set(p.coefficients[0])
}

func (p *Polynomial) Degree() uint32 {
	return uint32(len(p.coefficients) - 1)
}
