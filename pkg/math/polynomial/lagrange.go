package polynomial

import (
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/party"
)

// Lagrange returns the Lagrange coefficients at 0 for all parties in the interpolation domain.
// For shares sⱼ = f(j), the secret is f(0) = ∑ⱼ λⱼ⋅sⱼ.
func Lagrange(group curve.Curve, interpolationDomain []party.ID) map[party.ID]curve.Scalar {
	return LagrangeFor(group, interpolationDomain, interpolationDomain...)
}

// LagrangeFor returns the Lagrange coefficients at 0 of the parties in subset,
// with respect to the whole interpolation domain.
func LagrangeFor(group curve.Curve, interpolationDomain []party.ID, subset ...party.ID) map[party.ID]curve.Scalar {
	xs := make(map[party.ID]curve.Scalar, len(interpolationDomain))
	for _, id := range interpolationDomain {
		xs[id] = id.Scalar(group)
	}

	coefficients := make(map[party.ID]curve.Scalar, len(subset))
	for _, j := range subset {
		coefficients[j] = lagrangeAtZero(group, xs, j)
	}
	return coefficients
}

// LagrangeSingle returns the Lagrange coefficient at 0 of party j.
func LagrangeSingle(group curve.Curve, interpolationDomain []party.ID, j party.ID) curve.Scalar {
	return LagrangeFor(group, interpolationDomain, j)[j]
}

// lagrangeAtZero returns λⱼ = ∏_{i ≠ j} xᵢ / (xᵢ - xⱼ).
func lagrangeAtZero(group curve.Curve, xs map[party.ID]curve.Scalar, j party.ID) curve.Scalar {
	xJ := xs[j]
	numerator := party.ID(1).Scalar(group)
	denominator := party.ID(1).Scalar(group)
	diff := group.NewScalar()
	for i, xI := range xs {
		if i == j {
			continue
		}
		numerator.Mul(xI)
		diff.Set(xI).Sub(xJ)
		denominator.Mul(diff)
	}
	return denominator.Invert().Mul(numerator)
}
