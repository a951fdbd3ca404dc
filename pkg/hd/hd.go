// Package hd applies non-hardened BIP32 derivation to threshold key shares.
//
// Since child keys are obtained by adding a public tweak Δ to the parent secret,
// each party can derive its share of the child key locally, without interaction.
package hd

import (
	"crypto/sha512"
	"errors"
	"fmt"
	"math"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/hdkeychain"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/mpcwallet/hdtss/internal/bip32"
	"github.com/mpcwallet/hdtss/internal/params"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/protocols/gg20/config"
)

// ErrDerivationMismatch is returned by ApplyTweak when the derivation does not start
// from the public key of the share.
var ErrDerivationMismatch = errors.New("hd: derivation does not start from the share's public key")

// ChainCode is the extra entropy mixed into every BIP32 derivation step.
type ChainCode [params.ChainCodeBytes]byte

// ChainCodeFromPublicKey returns the first half of SHA-512 over the uncompressed encoding of y.
// All parties obtain the same chain code from the group public key, without an extra round.
func ChainCodeFromPublicKey(y curve.Point) (ChainCode, error) {
	var chainCode ChainCode
	if y == nil || y.IsIdentity() {
		return chainCode, errors.New("hd: public key is the identity")
	}
	compressed, err := y.MarshalBinary()
	if err != nil {
		return chainCode, err
	}
	pub, err := btcec.ParsePubKey(compressed)
	if err != nil {
		return chainCode, fmt.Errorf("hd: %w", err)
	}
	digest := sha512.Sum512(pub.SerializeUncompressed())
	copy(chainCode[:], digest[:params.ChainCodeBytes])
	return chainCode, nil
}

// Derivation is the result of deriving a child key along a path.
type Derivation struct {
	// Delta = ∑ₖ tweakₖ, so that PublicKey = Y + Delta⋅G for the root key Y.
	Delta curve.Scalar
	// PublicKey is the child public key.
	PublicKey curve.Point
	// ChainCode is the chain code of the child.
	ChainCode ChainCode
	// ParentPublicKey is the public key one level above the child, nil for the empty path.
	ParentPublicKey curve.Point
	// Depth is the length of the path.
	Depth uint8
	// ChildIndex is the last index of the path.
	ChildIndex uint32
	// Path is the path from the root key.
	Path bip32.Path
}

// Derive follows path from the public key pub with the given chain code.
//
// An error is returned if the path is hardened or some index yields an invalid child,
// in which case the caller should use another index.
func Derive(pub curve.Point, chainCode ChainCode, path bip32.Path) (*Derivation, error) {
	if pub == nil || pub.IsIdentity() {
		return nil, errors.New("hd: public key is the identity")
	}
	if len(path) > math.MaxUint8 {
		return nil, fmt.Errorf("hd: path depth %d exceeds %d", len(path), math.MaxUint8)
	}
	group := pub.Curve()

	delta := group.NewScalar()
	current := group.NewPoint().Set(pub)
	code := chainCode[:]
	var parent curve.Point
	for _, index := range path {
		tweak, child, childCode, err := bip32.DeriveChild(current, code, index)
		if err != nil {
			return nil, fmt.Errorf("hd: derive %s: %w", path, err)
		}
		delta.Add(tweak)
		parent, current, code = current, child, childCode
	}

	d := &Derivation{
		Delta:           delta,
		PublicKey:       current,
		ParentPublicKey: parent,
		Depth:           uint8(len(path)),
		Path:            append(bip32.Path{}, path...),
	}
	copy(d.ChainCode[:], code)
	if len(path) > 0 {
		d.ChildIndex = path[len(path)-1]
	}
	return d, nil
}

// ApplyTweak returns a new share of the child key described by d.
//
// The secret share becomes xᵢ + Δ, every public share becomes Xⱼ + Δ⋅G,
// and the constant coefficient of the VSS commitment is shifted by Δ⋅G, so the result
// is a valid share of the child key for the same quorum.
// The input share is not modified.
//
// d must have been derived from share.PublicKey, otherwise ErrDerivationMismatch is returned.
// In particular, applying d a second time to the returned share fails instead of adding Δ again.
// To move further down the tree, derive again from the tweaked share's public key,
// which yields a share of a different key.
func ApplyTweak(share *config.LocalKeyShare, d *Derivation) (*config.LocalKeyShare, error) {
	if share == nil || d == nil || d.Delta == nil || d.PublicKey == nil {
		return nil, errors.New("hd: nil share or derivation")
	}
	group := share.Group
	deltaG := d.Delta.ActOnBase()
	if !share.PublicKey.Add(deltaG).Equal(d.PublicKey) {
		return nil, ErrDerivationMismatch
	}

	tweaked := share.Clone()
	tweaked.ECDSA.Add(d.Delta)
	for _, public := range tweaked.Public {
		public.ECDSA = public.ECDSA.Add(deltaG)
	}
	tweaked.VSS = share.VSS.AddConstant(deltaG)
	tweaked.PublicKey = group.NewPoint().Set(d.PublicKey)

	if err := tweaked.Validate(); err != nil {
		return nil, fmt.Errorf("hd: tweaked share: %w", err)
	}
	return tweaked, nil
}

// ExtendedPublicKey returns the base58 serialization of the child key, as used by watch-only wallets.
// The net parameters select the version bytes (xpub for mainnet, tpub for testnet).
func (d *Derivation) ExtendedPublicKey(net *chaincfg.Params) (string, error) {
	key, err := d.PublicKey.MarshalBinary()
	if err != nil {
		return "", err
	}
	fingerprint := make([]byte, 4)
	if d.ParentPublicKey != nil {
		parent, err := d.ParentPublicKey.MarshalBinary()
		if err != nil {
			return "", err
		}
		copy(fingerprint, btcutil.Hash160(parent)[:4])
	}
	chainCode := d.ChainCode
	xpub := hdkeychain.NewExtendedKey(net.HDPublicKeyID[:], key, chainCode[:], fingerprint, d.Depth, d.ChildIndex, false)
	return xpub.String(), nil
}
