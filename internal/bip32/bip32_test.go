package bip32

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/math/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHex(t *testing.T, s string) []byte {
	b, err := hex.DecodeString(s)
	require.NoError(t, err)
	return b
}

func mustPoint(t *testing.T, b []byte) curve.Point {
	p := curve.Secp256k1{}.NewPoint()
	require.NoError(t, p.UnmarshalBinary(b))
	return p
}

// Test vector 2 of BIP32, chain m/0.
func TestDeriveChild_Vector(t *testing.T) {
	masterPub := mustPoint(t, mustHex(t, "03cbcaa9c98c877a26977d00825c956a238e8dddfbd322cce4f74b0b5bd6ace4a7"))
	masterChainCode := mustHex(t, "60499f801b896d83179a4374aeb7822aaeaceaa0db1f85ee3e904c4defbd9689")

	tweak, childPub, childChainCode, err := DeriveChild(masterPub, masterChainCode, 0)
	require.NoError(t, err)

	assert.Equal(t, "f0909affaa7ee7abe5dd4e100598d4dc53cd709d5a5c2cac40e7412f232f7c9c", hex.EncodeToString(childChainCode))
	childBytes, err := childPub.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, "02fc9e5af0ac8d9b3cecfe2a888e2117ba3d089d8585886c9c826b6b22a98d12ea", hex.EncodeToString(childBytes))
	assert.True(t, tweak.ActOnBase().Add(masterPub).Equal(childPub))
}

func TestDeriveChild_Hdkeychain(t *testing.T) {
	seed := mustHex(t, "000102030405060708090a0b0c0d0e0f")
	master, err := hdkeychain.NewMaster(seed, &chaincfg.MainNetParams)
	require.NoError(t, err)
	masterPub, err := master.Neuter()
	require.NoError(t, err)
	masterKey, err := masterPub.ECPubKey()
	require.NoError(t, err)

	pub := mustPoint(t, masterKey.SerializeCompressed())
	chainCode := masterPub.ChainCode()
	expected := masterPub
	for _, index := range []uint32{44, 0, 7, 1, 12345} {
		expected, err = expected.Derive(index)
		require.NoError(t, err)

		_, pub, chainCode, err = DeriveChild(pub, chainCode, index)
		require.NoError(t, err)

		expectedKey, err := expected.ECPubKey()
		require.NoError(t, err)
		actual, err := pub.MarshalBinary()
		require.NoError(t, err)
		assert.Equal(t, expectedKey.SerializeCompressed(), actual, "index %d", index)
		assert.Equal(t, expected.ChainCode(), chainCode, "index %d", index)
	}
}

func TestDeriveChild_Tweak(t *testing.T) {
	group := curve.Secp256k1{}
	secret := sample.Scalar(rand.Reader, group)
	pub := secret.ActOnBase()
	chainCode := make([]byte, 32)
	_, _ = rand.Read(chainCode)

	tweak, childPub, _, err := DeriveChild(pub, chainCode, 3)
	require.NoError(t, err)
	childSecret := group.NewScalar().Set(secret).Add(tweak)
	assert.True(t, childSecret.ActOnBase().Equal(childPub))

	again, _, _, err := DeriveChild(pub, chainCode, 3)
	require.NoError(t, err)
	assert.True(t, again.Equal(tweak), "derivation must be deterministic")

	other, _, _, err := DeriveChild(pub, chainCode, 4)
	require.NoError(t, err)
	assert.False(t, other.Equal(tweak))
}

func TestDeriveChild_Errors(t *testing.T) {
	group := curve.Secp256k1{}
	pub := sample.Scalar(rand.Reader, group).ActOnBase()
	chainCode := make([]byte, 32)

	_, _, _, err := DeriveChild(pub, chainCode, HardenedKeyStart)
	assert.ErrorIs(t, err, ErrHardenedIndex)
	_, _, _, err = DeriveChild(pub, chainCode, HardenedKeyStart+44)
	assert.ErrorIs(t, err, ErrHardenedIndex)

	_, _, _, err = DeriveChild(pub, chainCode[:31], 0)
	assert.Error(t, err)

	_, _, _, err = DeriveChild(group.NewPoint(), chainCode, 0)
	assert.Error(t, err)
}

func TestParsePath(t *testing.T) {
	tests := []struct {
		in      string
		want    Path
		wantErr bool
	}{
		{"m/44/0/0/0", Path{44, 0, 0, 0}, false},
		{"44/0/7", Path{44, 0, 7}, false},
		{"m", Path{}, false},
		{"", Path{}, false},
		{"m/2147483647", Path{HardenedKeyStart - 1}, false},
		{"m/2147483648", nil, true},
		{"m/44'/0/0", nil, true},
		{"m/44h/0/0", nil, true},
		{"m/44//0", nil, true},
		{"m/-1", nil, true},
		{"m/abc", nil, true},
		{"m/4294967296", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePath(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParsePath("m/44'/0")
	assert.ErrorIs(t, err, ErrHardenedIndex)
	_, err = ParsePath("m/2147483648")
	assert.ErrorIs(t, err, ErrHardenedIndex)
}

func TestPath_String(t *testing.T) {
	assert.Equal(t, "m", Path{}.String())
	assert.Equal(t, "m/44/0/0/0", Path{44, 0, 0, 0}.String())

	p, err := ParsePath(Path{1, 2, 3}.String())
	require.NoError(t, err)
	assert.Equal(t, Path{1, 2, 3}, p)
}
