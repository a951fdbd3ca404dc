package gg20

import (
	"context"
	"testing"

	"github.com/mpcwallet/hdtss/internal/bip32"
	"github.com/mpcwallet/hdtss/internal/test"
	"github.com/mpcwallet/hdtss/pkg/hd"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/paillier"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/protocol"
	"github.com/mpcwallet/hdtss/protocols/gg20/keygen"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixtureKeys(n int) map[party.ID]*paillier.SecretKey {
	keys := make(map[party.ID]*paillier.SecretKey, n)
	for i, id := range party.Indices(n) {
		keys[id] = test.PaillierSecretKey(i)
	}
	return keys
}

func TestLocalKeygen(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := protocol.NewMetrics(reg)
	require.NoError(t, err)

	params := ThresholdParams{Threshold: 1, ShareCount: 3}
	shares, err := LocalKeygen(context.Background(), params, []byte("local keygen"), nil, fixtureKeys(3),
		protocol.WithMetrics(metrics))
	require.NoError(t, err)
	require.Len(t, shares, 3)

	group := curve.Secp256k1{}
	for id, share := range shares {
		require.NoError(t, share.Validate())
		assert.Equal(t, id, share.ID)
		assert.Equal(t, params, share.Params())
		assert.True(t, shares[1].PublicKey.Equal(share.PublicKey))
	}
	x := test.Reconstruct(group, shares, []party.ID{2, 3})
	assert.True(t, x.ActOnBase().Equal(shares[1].PublicKey))

	finished, err := testutil.GatherAndCount(reg, "hdtss_protocol_finished_total")
	require.NoError(t, err)
	assert.Equal(t, 1, finished)
}

func TestLocalKeygen_Config(t *testing.T) {
	_, err := LocalKeygen(context.Background(), ThresholdParams{Threshold: 2, ShareCount: 2}, nil, nil, nil)
	assert.ErrorIs(t, err, keygen.ErrConfig)
}

func TestRunLocal_StartError(t *testing.T) {
	partyIDs := party.Indices(2)
	keys := fixtureKeys(2)
	starts := map[party.ID]protocol.StartFunc{
		1: Keygen(1, partyIDs, 1, nil, keygen.WithPaillierKey(keys[1])),
		// party 2 believes it is party 3
		2: Keygen(3, partyIDs, 1, nil, keygen.WithPaillierKey(keys[2])),
	}
	_, err := RunLocal(context.Background(), starts, []byte("start error"))
	require.Error(t, err)
	assert.ErrorIs(t, err, keygen.ErrConfig)
}

func TestLocalKeygen_HDTweak(t *testing.T) {
	shares, err := LocalKeygen(context.Background(), ThresholdParams{Threshold: 1, ShareCount: 3},
		[]byte("local keygen hd"), nil, fixtureKeys(3))
	require.NoError(t, err)

	var chainCode hd.ChainCode
	for i := range chainCode {
		chainCode[i] = byte(i)
	}
	path, err := bip32.ParsePath("m/44/0/0/0")
	require.NoError(t, err)

	group := curve.Secp256k1{}
	d := test.Reconstruct(group, shares, []party.ID{1, 2})

	tweaked := make(map[party.ID]*LocalKeyShare, len(shares))
	var child curve.Point
	var delta curve.Scalar
	for id, share := range shares {
		derivation, err := hd.Derive(share.PublicKey, chainCode, path)
		require.NoError(t, err)
		if child == nil {
			child, delta = derivation.PublicKey, derivation.Delta
		}
		assert.True(t, child.Equal(derivation.PublicKey), "party %s derived another child", id)

		tweaked[id], err = hd.ApplyTweak(share, derivation)
		require.NoError(t, err)
	}

	expected := group.NewScalar().Set(d).Add(delta)
	assert.True(t, expected.ActOnBase().Equal(child), "(d+Δ)⋅G is the child key")
	for _, quorum := range [][]party.ID{{1, 2}, {1, 3}, {2, 3}} {
		assert.True(t, test.Reconstruct(group, tweaked, quorum).Equal(expected), "quorum %v", quorum)
	}
}
