package zksch

import (
	"crypto/rand"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/pkg/hash"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/math/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchnorr(t *testing.T) {
	group := curve.Secp256k1{}

	x, X := sample.ScalarPointPair(rand.Reader, group)
	proof := NewProof(hash.New(), X, x)
	assert.True(t, proof.Verify(hash.New(), X), "failed to verify proof")

	data, err := cbor.Marshal(proof)
	require.NoError(t, err)
	decoded := EmptyProof(group)
	require.NoError(t, cbor.Unmarshal(data, decoded))
	assert.True(t, decoded.Verify(hash.New(), X), "failed to verify decoded proof")

	assert.False(t, proof.Verify(hash.New().Fork([]byte("other")), X), "proof should be bound to the hash state")

	_, Y := sample.ScalarPointPair(rand.Reader, group)
	assert.False(t, proof.Verify(hash.New(), Y), "proof should fail for another public key")

	assert.False(t, proof.Verify(hash.New(), group.NewPoint()), "identity public key should fail")
	assert.False(t, EmptyProof(group).Verify(hash.New(), X), "empty proof should fail")
	assert.False(t, (*Proof)(nil).Verify(hash.New(), X))
}
