package polynomial

import (
	"crypto/rand"
	mrand "math/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/math/sample"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scalarFromUint(group curve.Curve, x uint64) curve.Scalar {
	return group.NewScalar().SetNat(new(saferith.Nat).SetUint64(x))
}

func TestPolynomial_Constant(t *testing.T) {
	group := curve.Secp256k1{}
	secret := sample.Scalar(rand.Reader, group)
	poly := NewPolynomial(group, 10, secret)
	require.True(t, poly.Constant().Equal(secret))
	require.EqualValues(t, 10, poly.Degree())
}

func TestPolynomial_Evaluate(t *testing.T) {
	group := curve.Secp256k1{}
	polynomial := &Polynomial{group, []curve.Scalar{
		scalarFromUint(group, 1),
		scalarFromUint(group, 0),
		scalarFromUint(group, 1),
	}}

	for index := 0; index < 100; index++ {
		x := uint64(mrand.Uint32())
		expected := new(saferith.Nat).SetUint64(x)
		expected.Mul(expected, expected, -1)
		expected.Add(expected, new(saferith.Nat).SetUint64(1), -1)
		computedResult := polynomial.Evaluate(scalarFromUint(group, x))
		assert.True(t, group.NewScalar().SetNat(expected).Equal(computedResult))
	}
}

func TestExponent_Evaluate(t *testing.T) {
	group := curve.Secp256k1{}
	for x := 0; x < 5; x++ {
		var secret curve.Scalar
		if x%2 == 0 {
			secret = sample.Scalar(rand.Reader, group)
		}
		poly := NewPolynomial(group, 20, secret)
		polyExp := NewPolynomialExponent(poly)
		randomIndex := sample.ScalarUnit(rand.Reader, group)

		lhs := poly.Evaluate(randomIndex).ActOnBase()
		assert.Truef(t, lhs.Equal(polyExp.Evaluate(randomIndex)), "base eval differs from exponent eval %d", x)
		assert.Equal(t, 20, polyExp.Degree())
	}
}

func TestSum(t *testing.T) {
	group := curve.Secp256k1{}
	N, deg := 5, 3
	index := sample.ScalarUnit(rand.Reader, group)

	expected := group.NewScalar()
	exponents := make([]*Exponent, N)
	for i := range exponents {
		poly := NewPolynomial(group, deg, sample.Scalar(rand.Reader, group))
		expected.Add(poly.Evaluate(index))
		exponents[i] = NewPolynomialExponent(poly)
	}
	summed, err := Sum(exponents)
	require.NoError(t, err)
	assert.True(t, expected.ActOnBase().Equal(summed.Evaluate(index)))

	_, err = Sum(nil)
	assert.Error(t, err)
}

func TestExponent_AddConstant(t *testing.T) {
	group := curve.Secp256k1{}
	delta := sample.Scalar(rand.Reader, group)
	for _, secret := range []curve.Scalar{nil, sample.Scalar(rand.Reader, group)} {
		poly := NewPolynomial(group, 2, secret)
		F := NewPolynomialExponent(poly)
		shifted := F.AddConstant(delta.ActOnBase())
		for _, id := range party.Indices(4) {
			x := id.Scalar(group)
			expected := poly.Evaluate(x).Add(delta).ActOnBase()
			assert.True(t, expected.Equal(shifted.Evaluate(x)))
		}
		assert.True(t, poly.Constant().Add(delta).ActOnBase().Equal(shifted.Constant()))
		assert.False(t, shifted.Equal(F), "original must be left untouched")
	}
}

func TestExponent_Marshal(t *testing.T) {
	group := curve.Secp256k1{}
	for _, secret := range []curve.Scalar{nil, sample.Scalar(rand.Reader, group)} {
		F := NewPolynomialExponent(NewPolynomial(group, 3, secret))
		data, err := cbor.Marshal(F)
		require.NoError(t, err)
		G := new(Exponent)
		require.NoError(t, cbor.Unmarshal(data, G))
		assert.True(t, F.Equal(G))
	}
}

func TestLagrange(t *testing.T) {
	group := curve.Secp256k1{}
	secret := sample.Scalar(rand.Reader, group)
	poly := NewPolynomial(group, 2, secret)
	allIDs := party.Indices(5)

	for _, quorum := range []party.IDSlice{{1, 2, 3}, {2, 4, 5}, {1, 3, 5}, allIDs} {
		coefs := Lagrange(group, quorum)
		sum := group.NewScalar()
		reconstructed := group.NewScalar()
		for _, id := range quorum {
			sum.Add(coefs[id])
			share := poly.Evaluate(id.Scalar(group))
			reconstructed.Add(share.Mul(coefs[id]))
		}
		assert.True(t, sum.Equal(scalarFromUint(group, 1)), "coefficients should sum to 1")
		assert.True(t, reconstructed.Equal(secret))
		assert.True(t, LagrangeSingle(group, quorum, quorum[0]).Equal(coefs[quorum[0]]))
	}
}
