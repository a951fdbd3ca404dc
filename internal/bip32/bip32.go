package bip32

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/mpcwallet/hdtss/internal/params"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
)

// HardenedKeyStart is the first hardened child index, 2³¹.
const HardenedKeyStart uint32 = 1 << 31

var (
	// ErrHardenedIndex is returned when a hardened index is used. Hardened derivation
	// needs the private key, which no single party holds.
	ErrHardenedIndex = errors.New("bip32: hardened derivation is not supported")
	// ErrInvalidChild is returned when an index produces an unusable child.
	// The next index should be used instead.
	ErrInvalidChild = errors.New("bip32: invalid child, use the next index")
)

// DeriveChild computes the non-hardened child of the public key pub with the given chain code.
//
// The returned tweak satisfies childPub = pub + tweak⋅G, so that a holder of a secret x with x⋅G = pub
// obtains the child secret as x + tweak.
//
// See: https://github.com/bitcoin/bips/blob/master/bip-0032.mediawiki#public-parent-key--public-child-key
func DeriveChild(pub curve.Point, chainCode []byte, index uint32) (tweak curve.Scalar, childPub curve.Point, childChainCode []byte, err error) {
	if index >= HardenedKeyStart {
		return nil, nil, nil, fmt.Errorf("%w: index %d", ErrHardenedIndex, index)
	}
	if len(chainCode) != params.ChainCodeBytes {
		return nil, nil, nil, fmt.Errorf("bip32: chain code must be %d bytes, got %d", params.ChainCodeBytes, len(chainCode))
	}
	if pub == nil || pub.IsIdentity() {
		return nil, nil, nil, errors.New("bip32: parent public key is the identity")
	}
	compressed, err := pub.MarshalBinary()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("bip32: %w", err)
	}

	mac := hmac.New(sha512.New, chainCode)
	_, _ = mac.Write(compressed)
	var indexBytes [4]byte
	binary.BigEndian.PutUint32(indexBytes[:], index)
	_, _ = mac.Write(indexBytes[:])
	out := mac.Sum(nil)
	il, ir := out[:32], out[32:]

	group := pub.Curve()
	ilNat := new(saferith.Nat).SetBytes(il)
	if _, _, lt := ilNat.CmpMod(group.Order()); lt != 1 {
		return nil, nil, nil, fmt.Errorf("%w: IL ≥ q at index %d", ErrInvalidChild, index)
	}
	tweak = group.NewScalar().SetNat(ilNat)

	childPub = tweak.ActOnBase().Add(pub)
	if childPub.IsIdentity() {
		return nil, nil, nil, fmt.Errorf("%w: identity child at index %d", ErrInvalidChild, index)
	}
	return tweak, childPub, ir, nil
}
