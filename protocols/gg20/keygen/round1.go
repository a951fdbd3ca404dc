package keygen

import (
	"crypto/rand"
	"fmt"

	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/mpcwallet/hdtss/pkg/hash"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/math/sample"
	"github.com/mpcwallet/hdtss/pkg/paillier"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/pedersen"
	zkmod "github.com/mpcwallet/hdtss/pkg/zk/mod"
	zkprm "github.com/mpcwallet/hdtss/pkg/zk/prm"
)

var _ round.Round = (*round1)(nil)

type round1 struct {
	*round.Helper

	// paillier is set when the key was provided with WithPaillierKey.
	paillier *paillier.SecretKey
}

// VerifyMessage implements round.Round.
func (r *round1) VerifyMessage(round.Message) error { return nil }

// StoreMessage implements round.Round.
func (r *round1) StoreMessage(round.Message) error { return nil }

// Finalize implements round.Round
//
// - sample Paillier (pᵢ, qᵢ) and derive the Pedersen setup (Nᵢ, sᵢ, tᵢ)
// - sample uᵢ <- 𝔽, set yᵢ = uᵢ⋅G
// - commit to yᵢ
// - prove Nᵢ is Paillier-Blum, and that sᵢ, tᵢ are correct.
func (r *round1) Finalize(out chan<- *round.Message) (round.Session, error) {
	paillierSecret := r.paillier
	if paillierSecret == nil {
		paillierSecret = paillier.NewSecretKey(rand.Reader, r.Pool())
	}
	pedersenPublic, pedersenSecret := paillierSecret.GeneratePedersen(rand.Reader)

	u := sample.ScalarUnit(rand.Reader, r.Group())
	y := u.ActOnBase()

	commitment, decommitment, err := r.HashForID(r.SelfID()).Commit(y)
	if err != nil {
		return r, fmt.Errorf("keygen: failed to commit: %w", err)
	}

	mod := zkmod.NewProof(r.HashForID(r.SelfID()), zkmod.Private{
		P:   paillierSecret.P(),
		Q:   paillierSecret.Q(),
		Phi: paillierSecret.Phi(),
	}, zkmod.Public{N: paillierSecret.N()}, r.Pool())

	prm := zkprm.NewProof(zkprm.Private{
		Lambda: pedersenSecret.Lambda,
		Phi:    pedersenSecret.Phi,
		P:      paillierSecret.P(),
		Q:      paillierSecret.Q(),
	}, r.HashForID(r.SelfID()), zkprm.Public{
		N: pedersenPublic.N(),
		S: pedersenPublic.S(),
		T: pedersenPublic.T(),
	}, r.Pool())

	if err = r.BroadcastMessage(out, &broadcast2{
		Commitment: commitment,
		Pedersen:   pedersenPublic,
		Mod:        mod,
		Prm:        prm,
	}); err != nil {
		return r, err
	}

	return &round2{
		round1:         r,
		paillierSecret: paillierSecret,
		pedersenSecret: pedersenSecret,
		secret:         u,
		decommitment:   decommitment,
		commitments:    map[party.ID]hash.Commitment{r.SelfID(): commitment},
		paillierPublic: map[party.ID]*paillier.PublicKey{r.SelfID(): paillierSecret.PublicKey},
		pedersenPublic: map[party.ID]*pedersen.Parameters{r.SelfID(): pedersenPublic},
		modProofs:      map[party.ID]*zkmod.Proof{},
		prmProofs:      map[party.ID]*zkprm.Proof{},
		contributions:  map[party.ID]curve.Point{r.SelfID(): y},
	}, nil
}

// MessageContent implements round.Round.
func (round1) MessageContent() round.Content { return nil }

// Number implements round.Round.
func (round1) Number() round.Number { return 1 }

// Expensive implements round.Round.
func (round1) Expensive() bool { return true }
