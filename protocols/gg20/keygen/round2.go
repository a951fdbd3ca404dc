package keygen

import (
	"errors"
	"fmt"

	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/mpcwallet/hdtss/pkg/hash"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/paillier"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/pedersen"
	zkmod "github.com/mpcwallet/hdtss/pkg/zk/mod"
	zkprm "github.com/mpcwallet/hdtss/pkg/zk/prm"
)

var _ round.BroadcastRound = (*round2)(nil)

type round2 struct {
	*round1

	// paillierSecret = (pᵢ, qᵢ)
	paillierSecret *paillier.SecretKey
	// pedersenSecret = (λᵢ, ϕ(Nᵢ)) with sᵢ = tᵢ^λᵢ
	pedersenSecret *pedersen.Secret

	// secret = uᵢ
	secret curve.Scalar
	// decommitment opens commitments[i]
	decommitment hash.Decommitment

	// commitments[j] = H(yⱼ, decommitmentⱼ)
	commitments map[party.ID]hash.Commitment
	// paillierPublic[j] = Nⱼ
	paillierPublic map[party.ID]*paillier.PublicKey
	// pedersenPublic[j] = (Nⱼ, sⱼ, tⱼ)
	pedersenPublic map[party.ID]*pedersen.Parameters
	// modProofs[j] and prmProofs[j] are verified once the commitments are opened
	modProofs map[party.ID]*zkmod.Proof
	prmProofs map[party.ID]*zkprm.Proof

	// contributions[j] = yⱼ, only our own until the next round
	contributions map[party.ID]curve.Point
}

type broadcast2 struct {
	// Commitment = H(yᵢ, decommitmentᵢ)
	Commitment hash.Commitment
	// Pedersen = (Nᵢ, sᵢ, tᵢ), where Nᵢ is also the Paillier modulus
	Pedersen *pedersen.Parameters
	// Mod proves Nᵢ is a Paillier-Blum modulus
	Mod *zkmod.Proof
	// Prm proves sᵢ ∈ ⟨tᵢ⟩
	Prm *zkprm.Proof
}

// StoreBroadcastMessage implements round.BroadcastRound.
//
// - check the commitment and the Paillier modulus
// - store the proofs.
func (r *round2) StoreBroadcastMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*broadcast2)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}

	if err := body.Commitment.Validate(); err != nil {
		return err
	}
	if body.Pedersen == nil || body.Mod == nil || body.Prm == nil {
		return errors.New("keygen: broadcast2: missing field")
	}
	if err := paillier.ValidateN(body.Pedersen.N()); err != nil {
		return fmt.Errorf("keygen: broadcast2: %w", err)
	}
	if !body.Prm.IsValid(zkprm.Public{N: body.Pedersen.N(), S: body.Pedersen.S(), T: body.Pedersen.T()}) {
		return errors.New("keygen: broadcast2: invalid zkprm proof")
	}

	r.commitments[from] = body.Commitment
	r.paillierPublic[from] = paillier.NewPublicKey(body.Pedersen.N())
	r.pedersenPublic[from] = body.Pedersen
	r.modProofs[from] = body.Mod
	r.prmProofs[from] = body.Prm
	return nil
}

// Finalize implements round.Round
//
// - open the commitment to yᵢ.
func (r *round2) Finalize(out chan<- *round.Message) (round.Session, error) {
	if err := r.BroadcastMessage(out, &broadcast3{
		PublicContribution: r.contributions[r.SelfID()],
		Decommitment:       r.decommitment,
	}); err != nil {
		return r, err
	}
	return &round3{round2: r}, nil
}

// RoundNumber implements round.Content.
func (broadcast2) RoundNumber() round.Number { return 2 }

// BroadcastContent implements round.BroadcastRound.
func (round2) BroadcastContent() round.Content { return &broadcast2{} }

// Number implements round.Round.
func (round2) Number() round.Number { return 2 }

// Expensive implements round.Round.
func (round2) Expensive() bool { return false }
