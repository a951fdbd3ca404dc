package config_test

import (
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/internal/test"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/protocols/gg20/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		params config.ThresholdParams
		valid  bool
	}{
		{"1 of 2", config.ThresholdParams{Threshold: 1, ShareCount: 2}, true},
		{"2 of 3", config.ThresholdParams{Threshold: 2, ShareCount: 3}, true},
		{"max", config.ThresholdParams{Threshold: 1, ShareCount: party.MAX}, true},
		{"single party", config.ThresholdParams{Threshold: 0, ShareCount: 1}, false},
		{"zero threshold", config.ThresholdParams{Threshold: 0, ShareCount: 3}, false},
		{"threshold equals n", config.ThresholdParams{Threshold: 3, ShareCount: 3}, false},
		{"too many parties", config.ThresholdParams{Threshold: 1, ShareCount: party.MAX + 1}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLocalKeyShare_Validate(t *testing.T) {
	group := curve.Secp256k1{}
	shares, secret := test.GenerateShares(group, 1, 3)

	for _, share := range shares {
		require.NoError(t, share.Validate())
		assert.True(t, share.PublicPoint().Equal(secret.ActOnBase()))
		assert.Equal(t, config.ThresholdParams{Threshold: 1, ShareCount: 3}, share.Params())
	}

	share := shares[1]

	wrongSecret := share.Clone()
	wrongSecret.ECDSA = group.NewScalar().Set(shares[2].ECDSA)
	assert.Error(t, wrongSecret.Validate(), "secret share of another party")

	wrongPublic := share.Clone()
	wrongPublic.Public[3].ECDSA = wrongPublic.Public[3].ECDSA.Add(group.NewBasePoint())
	assert.Error(t, wrongPublic.Validate(), "public share outside of VSS")

	wrongKey := share.Clone()
	wrongKey.PublicKey = wrongKey.PublicKey.Add(group.NewBasePoint())
	assert.Error(t, wrongKey.Validate(), "public key not matching VSS")

	missingSelf := share.Clone()
	delete(missingSelf.Public, share.ID)
	assert.Error(t, missingSelf.Validate())

	wrongPaillier := share.Clone()
	wrongPaillier.Paillier = shares[2].Paillier
	assert.Error(t, wrongPaillier.Validate())

	wrongThreshold := share.Clone()
	wrongThreshold.Threshold = 2
	assert.Error(t, wrongThreshold.Validate())

	empty := share.Clone()
	empty.VSS = nil
	assert.Error(t, empty.Validate())
}

func TestLocalKeyShare_Clone(t *testing.T) {
	group := curve.Secp256k1{}
	shares, _ := test.GenerateShares(group, 1, 2)
	share := shares[1]

	cloned := share.Clone()
	cloned.ECDSA.Set(shares[2].ECDSA)
	cloned.Public[2].ECDSA = group.NewPoint()
	cloned.PublicKey = group.NewPoint()

	require.NoError(t, share.Validate(), "original should not be modified")
}

func TestLocalKeyShare_CanSign(t *testing.T) {
	group := curve.Secp256k1{}
	shares, _ := test.GenerateShares(group, 1, 3)
	share := shares[2]

	assert.True(t, share.CanSign(party.IDSlice{1, 2}))
	assert.True(t, share.CanSign(party.IDSlice{2, 3}))
	assert.True(t, share.CanSign(party.IDSlice{1, 2, 3}))
	assert.False(t, share.CanSign(party.IDSlice{2}), "too few signers")
	assert.False(t, share.CanSign(party.IDSlice{1, 3}), "self not included")
	assert.False(t, share.CanSign(party.IDSlice{2, 4}), "unknown signer")
	assert.False(t, share.CanSign(party.IDSlice{2, 2}), "duplicate signer")
	assert.False(t, share.CanSign(party.IDSlice{3, 2}), "unsorted signers")
}

func TestLocalKeyShare_Marshal(t *testing.T) {
	group := curve.Secp256k1{}
	shares, _ := test.GenerateShares(group, 2, 3)

	for _, share := range shares {
		data, err := cbor.Marshal(share)
		require.NoError(t, err)

		decoded := &config.LocalKeyShare{}
		require.NoError(t, cbor.Unmarshal(data, decoded))
		require.NoError(t, decoded.Validate())

		assert.Equal(t, share.ID, decoded.ID)
		assert.Equal(t, share.Threshold, decoded.Threshold)
		assert.True(t, share.ECDSA.Equal(decoded.ECDSA))
		assert.True(t, share.PublicKey.Equal(decoded.PublicKey))
		assert.True(t, share.VSS.Equal(decoded.VSS))
		assert.Equal(t, share.PartyIDs(), decoded.PartyIDs())
		for j, publicJ := range share.Public {
			assert.True(t, publicJ.ECDSA.Equal(decoded.Public[j].ECDSA))
			assert.True(t, publicJ.Paillier.Equal(decoded.Public[j].Paillier))
		}
		assert.Equal(t, saferith.Choice(1), share.Paillier.Phi().Eq(decoded.Paillier.Phi()))
	}

	// a tampered share is rejected
	share := shares[1].Clone()
	share.PublicKey = share.PublicKey.Add(group.NewBasePoint())
	data, err := share.MarshalBinary()
	require.NoError(t, err)
	assert.Error(t, (&config.LocalKeyShare{}).UnmarshalBinary(data))
}
