package keygen

import (
	"errors"

	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/math/polynomial"
	"github.com/mpcwallet/hdtss/pkg/party"
	zksch "github.com/mpcwallet/hdtss/pkg/zk/sch"
	"github.com/mpcwallet/hdtss/protocols/gg20/config"
)

var _ round.BroadcastRound = (*round5)(nil)

type round5 struct {
	*round4

	// ecdsa = xᵢ
	ecdsa curve.Scalar
	// vss = F(X)
	vss *polynomial.Exponent
	// publicShares[j] = Xⱼ = xⱼ⋅G
	publicShares map[party.ID]curve.Point
}

type broadcast5 struct {
	// PublicShare = Xᵢ = xᵢ⋅G
	PublicShare curve.Point
	// Schnorr proves knowledge of xᵢ
	Schnorr *zksch.Proof
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - check Xⱼ = F(j)
// - verify the Schnorr proof of knowledge of xⱼ.
func (r *round5) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast5)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}

	if body.PublicShare == nil || body.Schnorr == nil {
		return errors.New("keygen: broadcast5: missing field")
	}
	if !body.PublicShare.Equal(r.vss.Evaluate(from.Scalar(r.Group()))) {
		return errors.New("keygen: broadcast5: public share does not match VSS polynomial")
	}
	if !body.Schnorr.Verify(r.HashForID(from), body.PublicShare) {
		return errors.New("keygen: broadcast5: failed to verify Schnorr proof")
	}

	r.publicShares[from] = body.PublicShare
	return nil
}

// VerifyMessage implements round.Round.
func (round5) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (round5) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - set y = ∑ⱼ yⱼ and check y = F(0)
// - output the LocalKeyShare.
func (r *round5) Finalize(chan<- *round.Message) (round.Session, error) {
	publicKey := r.Group().NewPoint()
	for _, j := range r.PartyIDs() {
		publicKey = publicKey.Add(r.contributions[j])
	}
	if !publicKey.Equal(r.vss.Constant()) {
		return r.AbortRound(errors.New("keygen: sum of contributions does not match VSS constant")), nil
	}

	public := make(map[party.ID]*config.Public, r.N())
	for _, j := range r.PartyIDs() {
		public[j] = &config.Public{
			ECDSA:    r.publicShares[j],
			Paillier: r.paillierPublic[j],
			Pedersen: r.pedersenPublic[j],
		}
	}

	share := &config.LocalKeyShare{
		Group:     r.Group(),
		ID:        r.SelfID(),
		Threshold: r.Threshold(),
		Paillier:  r.paillierSecret,
		Pedersen:  r.pedersenSecret,
		ECDSA:     r.ecdsa,
		VSS:       r.vss,
		Public:    public,
		PublicKey: publicKey,
	}
	if err := share.Validate(); err != nil {
		return r.AbortRound(err), nil
	}
	return r.ResultRound(share), nil
}

// RoundNumber implements round.Content.
func (broadcast5) RoundNumber() round.Number { return 5 }

// BroadcastContent implements round.BroadcastRound.
func (r *round5) BroadcastContent() round.Content {
	return &broadcast5{
		PublicShare: r.Group().NewPoint(),
		Schnorr:     zksch.EmptyProof(r.Group()),
	}
}

// MessageContent implements round.Round.
func (round5) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round5) Number() round.Number { return 5 }

// Expensive implements round.Round.
func (round5) Expensive() bool { return true }
