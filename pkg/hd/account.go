package hd

import (
	"errors"
	"fmt"

	"github.com/mpcwallet/hdtss/internal/bip32"
	"github.com/mpcwallet/hdtss/protocols/gg20/config"
)

// Usage is the fourth level of a BIP44 path.
type Usage uint32

const (
	// Receive is the external chain, for addresses given out to receive payments.
	Receive Usage = 0
	// Change is the internal chain.
	Change Usage = 1
)

func (u Usage) String() string {
	switch u {
	case Receive:
		return "receive"
	case Change:
		return "change"
	default:
		return fmt.Sprintf("usage(%d)", uint32(u))
	}
}

// ParseUsage accepts "receive", "change", "0" or "1".
func ParseUsage(s string) (Usage, error) {
	switch s {
	case "receive", "0":
		return Receive, nil
	case "change", "1":
		return Change, nil
	default:
		return 0, fmt.Errorf("hd: unknown usage %q", s)
	}
}

// AccountPath returns m/44/coin/account/usage.
// The address index is left to the caller.
// All levels are non-hardened, since no party can perform hardened derivation.
func AccountPath(coin, account uint32, usage Usage) string {
	return fmt.Sprintf("m/44/%d/%d/%d", coin, account, uint32(usage))
}

// Account is a threshold share of a BIP44 account key.
type Account struct {
	// Share is the tweaked share of the account key.
	Share *config.LocalKeyShare
	// ChainCode is the chain code of the account key m/44/coin/account/usage, not the root's.
	// It is the one to pass to Derive together with Share.PublicKey for address keys.
	ChainCode ChainCode
	// Path is the path from the root key.
	Path bip32.Path

	Coin    uint32
	Index   uint32
	Usage   Usage
	Derived *Derivation
}

// NewAccount derives the share of the account m/44/coin/account/usage from a root share.
func NewAccount(raw *RawShare, coin, account uint32, usage Usage) (*Account, error) {
	if raw == nil || raw.Share == nil {
		return nil, errors.New("hd: nil share")
	}
	if usage != Receive && usage != Change {
		return nil, fmt.Errorf("hd: invalid usage %d", uint32(usage))
	}
	path, err := bip32.ParsePath(AccountPath(coin, account, usage))
	if err != nil {
		return nil, err
	}
	d, err := Derive(raw.Share.PublicKey, raw.ChainCode, path)
	if err != nil {
		return nil, err
	}
	share, err := ApplyTweak(raw.Share, d)
	if err != nil {
		return nil, err
	}
	return &Account{
		Share:     share,
		ChainCode: d.ChainCode,
		Path:      d.Path,
		Coin:      coin,
		Index:     account,
		Usage:     usage,
		Derived:   d,
	}, nil
}

// Address derives the share of the key at the given address index below the account.
// The returned Derivation is relative to the account key, but its Path and Depth are those from the root.
func (a *Account) Address(index uint32) (*config.LocalKeyShare, *Derivation, error) {
	d, err := Derive(a.Share.PublicKey, a.ChainCode, bip32.Path{index})
	if err != nil {
		return nil, nil, err
	}
	d.Path = append(append(bip32.Path{}, a.Path...), index)
	d.Depth = uint8(len(d.Path))
	share, err := ApplyTweak(a.Share, d)
	if err != nil {
		return nil, nil, err
	}
	return share, d, nil
}
