package keygen

import (
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/mpcwallet/hdtss/internal/params"
	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/mpcwallet/hdtss/pkg/hash"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/math/polynomial"
	"github.com/mpcwallet/hdtss/pkg/party"
	zkfac "github.com/mpcwallet/hdtss/pkg/zk/fac"
	zkmod "github.com/mpcwallet/hdtss/pkg/zk/mod"
	zkprm "github.com/mpcwallet/hdtss/pkg/zk/prm"
)

var _ round.BroadcastRound = (*round3)(nil)

type round3 struct {
	*round2
}

type broadcast3 struct {
	// PublicContribution = yᵢ = uᵢ⋅G
	PublicContribution curve.Point
	// Decommitment opens the commitment of broadcast2
	Decommitment hash.Decommitment
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - open the commitment to yⱼ.
func (r *round3) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast3)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}

	if body.PublicContribution == nil || body.PublicContribution.IsIdentity() {
		return errors.New("keygen: broadcast3: public contribution is identity")
	}
	if err := body.Decommitment.Validate(); err != nil {
		return err
	}
	if !r.HashForID(from).Decommit(r.commitments[from], body.Decommitment, body.PublicContribution) {
		return errors.New("keygen: broadcast3: failed to decommit")
	}

	r.contributions[from] = body.PublicContribution
	return nil
}

// Finalize implements round.Round
//
// - verify the zkmod and zkprm proofs of every party
// - sample fᵢ(X) of degree t with fᵢ(0) = uᵢ, and set Fᵢ(X) = fᵢ(X)⋅G
// - send Encⱼ(fᵢ(j)) to every party j, with a proof that Nᵢ has no small factor under j's setup.
func (r *round3) Finalize(out chan<- *round.Message) (round.Session, error) {
	for _, j := range r.OtherPartyIDs() {
		ped := r.pedersenPublic[j]
		if !r.modProofs[j].Verify(zkmod.Public{N: ped.N()}, r.HashForID(j), r.Pool()) {
			return r.AbortRound(fmt.Errorf("keygen: party %s: failed to verify zkmod proof", j), j), nil
		}
		if !r.prmProofs[j].Verify(zkprm.Public{N: ped.N(), S: ped.S(), T: ped.T()}, r.HashForID(j), r.Pool()) {
			return r.AbortRound(fmt.Errorf("keygen: party %s: failed to verify zkprm proof", j), j), nil
		}
	}

	vssSecret := polynomial.NewPolynomial(r.Group(), r.Threshold(), r.secret)
	vss := polynomial.NewPolynomialExponent(vssSecret)

	statement := zkfac.Statement{
		N0:      r.paillierSecret.N(),
		L:       params.L,
		Epsilon: params.Epsilon,
	}
	witness := zkfac.Witness{
		P: r.paillierSecret.P(),
		Q: r.paillierSecret.Q(),
	}

	for _, j := range r.OtherPartyIDs() {
		share := vssSecret.Evaluate(j.Scalar(r.Group()))
		ciphertext, _ := r.paillierPublic[j].Enc(curve.MakeInt(share))

		fac, err := zkfac.Prove(rand.Reader, r.pedersenPublic[j], statement, witness)
		if err != nil {
			return r, err
		}

		if err = r.SendMessage(out, &message4{
			VSS:   vss,
			Share: ciphertext,
			Fac:   fac,
		}, j); err != nil {
			return r, err
		}
	}

	return &round4{
		round3:         r,
		vssPolynomials: map[party.ID]*polynomial.Exponent{r.SelfID(): vss},
		shares:         map[party.ID]curve.Scalar{r.SelfID(): vssSecret.Evaluate(r.SelfID().Scalar(r.Group()))},
	}, nil
}

// RoundNumber implements round.Content.
func (broadcast3) RoundNumber() round.Number { return 3 }

// BroadcastContent implements round.BroadcastRound.
func (r *round3) BroadcastContent() round.Content {
	return &broadcast3{
		PublicContribution: r.Group().NewPoint(),
	}
}

// Number implements round.Round.
func (round3) Number() round.Number { return 3 }

// Expensive implements round.Round.
func (round3) Expensive() bool { return true }
