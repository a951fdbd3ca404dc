package zkmod

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/internal/test"
	"github.com/mpcwallet/hdtss/pkg/hash"
	"github.com/mpcwallet/hdtss/pkg/math/sample"
	"github.com/mpcwallet/hdtss/pkg/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMod(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	sk := test.PaillierSecretKey(0)
	public := Public{N: sk.N()}
	proof := NewProof(hash.New(), Private{
		P:   sk.P(),
		Q:   sk.Q(),
		Phi: sk.Phi(),
	}, public, pl)
	assert.True(t, proof.Verify(public, hash.New(), pl), "failed to verify proof")

	out, err := cbor.Marshal(proof)
	require.NoError(t, err, "failed to marshal proof")
	proof2 := &Proof{}
	require.NoError(t, cbor.Unmarshal(out, proof2), "failed to unmarshal proof")
	assert.True(t, proof2.Verify(public, hash.New(), pl), "failed to verify decoded proof")

	assert.False(t, proof.Verify(public, hash.New().Fork([]byte("other")), pl), "proof should be bound to the hash state")

	other := Public{N: test.PaillierSecretKey(1).N()}
	assert.False(t, proof.Verify(other, hash.New(), pl), "proof should not verify for another modulus")

	proof.W = new(saferith.Nat).SetUint64(0)
	for idx := range proof.Responses {
		proof.Responses[idx].X = new(saferith.Nat).SetUint64(0)
	}
	assert.False(t, proof.Verify(public, hash.New(), pl), "proof should have failed")
	assert.False(t, (*Proof)(nil).Verify(public, hash.New(), pl))
}

func TestFourthRoot(t *testing.T) {
	var p, q uint64 = 311, 331
	factors := newBlum(new(saferith.Nat).SetUint64(p), new(saferith.Nat).SetUint64(q))
	n := saferith.ModulusFromUint64(p * q)
	phi := new(saferith.Nat).SetUint64((p - 1) * (q - 1))
	w := sample.QNR(rand.Reader, n)
	e := fourthRootExponent(phi)

	for _, v := range []uint64{502, 2, 77, 1000} {
		y := new(saferith.Nat).SetUint64(v)
		a, b, yPrime := factors.quadraticResidue(y, w, n)
		assert.True(t, factors.isQR(yPrime))

		if a {
			y.ModNeg(y, n)
		}
		if b {
			y.ModMul(y, w, n)
		}
		assert.Equal(t, 1, int(yPrime.Eq(y)), "y' = (-1)ᵃ⋅wᵇ⋅y")

		root := new(saferith.Nat).Exp(yPrime, e, n)
		root.Exp(root, new(saferith.Nat).SetUint64(4), n)
		assert.Equal(t, 1, int(root.Eq(yPrime)), "root⁴ should be y'")
	}
}
