package hd

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/protocols/gg20/config"
)

// RawShare is the root share together with the chain code of the root key.
// It is the record persisted after key generation and handed to signing.
type RawShare struct {
	Share     *config.LocalKeyShare
	ChainCode ChainCode
}

// NewRawShare attaches the chain code derived from the group public key to share.
func NewRawShare(share *config.LocalKeyShare) (*RawShare, error) {
	if share == nil {
		return nil, errors.New("hd: nil share")
	}
	chainCode, err := ChainCodeFromPublicKey(share.PublicKey)
	if err != nil {
		return nil, err
	}
	return &RawShare{Share: share, ChainCode: chainCode}, nil
}

type rawShareMarshal struct {
	Share     []byte
	ChainCode []byte
}

func (r *RawShare) MarshalBinary() ([]byte, error) {
	if r.Share == nil {
		return nil, errors.New("hd: nil share")
	}
	share, err := r.Share.MarshalBinary()
	if err != nil {
		return nil, err
	}
	return cbor.Marshal(&rawShareMarshal{
		Share:     share,
		ChainCode: r.ChainCode[:],
	})
}

// UnmarshalBinary decodes and validates a RawShare.
func (r *RawShare) UnmarshalBinary(data []byte) error {
	var m rawShareMarshal
	if err := cbor.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("hd: %w", err)
	}
	if len(m.ChainCode) != len(r.ChainCode) {
		return fmt.Errorf("hd: chain code must be %d bytes, got %d", len(r.ChainCode), len(m.ChainCode))
	}
	share := new(config.LocalKeyShare)
	if err := share.UnmarshalBinary(m.Share); err != nil {
		return err
	}
	r.Share = share
	copy(r.ChainCode[:], m.ChainCode)
	return nil
}
