package config

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/math/polynomial"
	"github.com/mpcwallet/hdtss/pkg/paillier"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/pedersen"
)

type shareMarshal struct {
	Group     string
	ID        party.ID
	Threshold int
	ECDSA     curve.Scalar
	Paillier  *paillier.SecretKey
	Pedersen  *pedersen.Secret
	VSS       *polynomial.Exponent
	PublicKey curve.Point
	Public    []cbor.RawMessage
}

type publicMarshal struct {
	ID       party.ID
	ECDSA    curve.Point
	Paillier *paillier.PublicKey
	Pedersen *pedersen.Parameters
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (c *LocalKeyShare) MarshalBinary() ([]byte, error) {
	ps := make([]cbor.RawMessage, 0, len(c.Public))
	for _, id := range c.PartyIDs() {
		p := c.Public[id]
		data, err := cbor.Marshal(&publicMarshal{
			ID:       id,
			ECDSA:    p.ECDSA,
			Paillier: p.Paillier,
			Pedersen: p.Pedersen,
		})
		if err != nil {
			return nil, err
		}
		ps = append(ps, data)
	}
	return cbor.Marshal(&shareMarshal{
		Group:     c.Group.Name(),
		ID:        c.ID,
		Threshold: c.Threshold,
		ECDSA:     c.ECDSA,
		Paillier:  c.Paillier,
		Pedersen:  c.Pedersen,
		VSS:       c.VSS,
		PublicKey: c.PublicKey,
		Public:    ps,
	})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
// The decoded share is validated.
func (c *LocalKeyShare) UnmarshalBinary(data []byte) error {
	var header struct{ Group string }
	if err := cbor.Unmarshal(data, &header); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	group, err := curve.FromName(header.Group)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	cm := &shareMarshal{
		ECDSA:     group.NewScalar(),
		PublicKey: group.NewPoint(),
	}
	if err = cbor.Unmarshal(data, cm); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if cm.Paillier == nil || cm.Pedersen == nil || cm.VSS == nil {
		return errors.New("config: one or more field is empty")
	}

	ps := make(map[party.ID]*Public, len(cm.Public))
	for _, raw := range cm.Public {
		p := &publicMarshal{ECDSA: group.NewPoint()}
		if err = cbor.Unmarshal(raw, p); err != nil {
			return fmt.Errorf("config: party %s: %w", p.ID, err)
		}
		if _, ok := ps[p.ID]; ok {
			return fmt.Errorf("config: party %s: duplicate entry", p.ID)
		}
		ps[p.ID] = &Public{
			ECDSA:    p.ECDSA,
			Paillier: p.Paillier,
			Pedersen: p.Pedersen,
		}
	}

	share := &LocalKeyShare{
		Group:     group,
		ID:        cm.ID,
		Threshold: cm.Threshold,
		Paillier:  cm.Paillier,
		Pedersen:  cm.Pedersen,
		ECDSA:     cm.ECDSA,
		VSS:       cm.VSS,
		Public:    ps,
		PublicKey: cm.PublicKey,
	}
	if err = share.Validate(); err != nil {
		return err
	}
	*c = *share
	return nil
}
