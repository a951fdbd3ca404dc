package keygen

import (
	"errors"
	"fmt"

	"github.com/mpcwallet/hdtss/internal/params"
	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/math/polynomial"
	"github.com/mpcwallet/hdtss/pkg/paillier"
	"github.com/mpcwallet/hdtss/pkg/party"
	zkfac "github.com/mpcwallet/hdtss/pkg/zk/fac"
	zksch "github.com/mpcwallet/hdtss/pkg/zk/sch"
)

var _ round.Round = (*round4)(nil)

type round4 struct {
	*round3

	// vssPolynomials[j] = Fⱼ(X) = fⱼ(X)⋅G
	vssPolynomials map[party.ID]*polynomial.Exponent
	// shares[j] = fⱼ(i), the share of uⱼ sent to us by party j
	shares map[party.ID]curve.Scalar
}

type message4 struct {
	// VSS = Fᵢ(X)
	VSS *polynomial.Exponent
	// Share = Encⱼ(fᵢ(j))
	Share *paillier.Ciphertext
	// Fac proves that Nᵢ has no small factor, under the Pedersen setup of the receiver
	Fac *zkfac.Proof
}

// VerifyMessage implements round.Round.
//
// - check Fⱼ(X) has degree t and Fⱼ(0) = yⱼ
// - verify that Nⱼ has no small factor.
func (r *round4) VerifyMessage(msg round.Message) error {
	from := msg.From
	body, ok := msg.Content.(*message4)
	if !ok || body == nil {
		return round.ErrInvalidContent
	}
	if body.VSS == nil || body.Share == nil || body.Fac == nil {
		return errors.New("keygen: message4: missing field")
	}

	if body.VSS.IsConstant || body.VSS.Degree() != r.Threshold() {
		return fmt.Errorf("keygen: message4: VSS polynomial has degree %d, expected %d", body.VSS.Degree(), r.Threshold())
	}
	if !body.VSS.Constant().Equal(r.contributions[from]) {
		return errors.New("keygen: message4: VSS constant is not the committed contribution")
	}

	if !r.paillierSecret.ValidateCiphertexts(body.Share) {
		return errors.New("keygen: message4: invalid ciphertext")
	}

	statement := zkfac.Statement{
		N0:      r.paillierPublic[from].N(),
		L:       params.L,
		Epsilon: params.Epsilon,
	}
	if !body.Fac.Verify(r.pedersenPublic[r.SelfID()], statement) {
		return errors.New("keygen: message4: failed to verify no small factor proof")
	}
	return nil
}

// StoreMessage implements round.Round.
//
// - decrypt the share m = fⱼ(i), check 0 ⩽ m < q and m⋅G = Fⱼ(i).
func (r *round4) StoreMessage(msg round.Message) error {
	from := msg.From
	body := msg.Content.(*message4)

	m, err := r.paillierSecret.Dec(body.Share)
	if err != nil {
		return fmt.Errorf("keygen: message4: %w", err)
	}
	if m.IsNegative() == 1 {
		return errors.New("keygen: message4: decrypted share is negative")
	}
	if _, _, lt := m.Abs().CmpMod(r.Group().Order()); lt != 1 {
		return errors.New("keygen: message4: decrypted share is not less than the group order")
	}
	share := r.Group().NewScalar().SetNat(m.Abs())

	if !share.ActOnBase().Equal(body.VSS.Evaluate(r.SelfID().Scalar(r.Group()))) {
		return errors.New("keygen: message4: share does not match VSS polynomial")
	}

	r.vssPolynomials[from] = body.VSS
	r.shares[from] = share
	return nil
}

// Finalize implements round.Round
//
// - set xᵢ = ∑ⱼ fⱼ(i) and F(X) = ∑ⱼ Fⱼ(X)
// - broadcast Xᵢ = xᵢ⋅G with a Schnorr proof of knowledge of xᵢ.
func (r *round4) Finalize(out chan<- *round.Message) (round.Session, error) {
	secret := r.Group().NewScalar()
	vssPolynomials := make([]*polynomial.Exponent, 0, r.N())
	for _, j := range r.PartyIDs() {
		secret.Add(r.shares[j])
		vssPolynomials = append(vssPolynomials, r.vssPolynomials[j])
	}
	vss, err := polynomial.Sum(vssPolynomials)
	if err != nil {
		return r, err
	}

	public := secret.ActOnBase()
	if !public.Equal(vss.Evaluate(r.SelfID().Scalar(r.Group()))) {
		return r.AbortRound(errors.New("keygen: computed share does not match VSS polynomial")), nil
	}

	proof := zksch.NewProof(r.HashForID(r.SelfID()), public, secret)
	if err = r.BroadcastMessage(out, &broadcast5{
		PublicShare: public,
		Schnorr:     proof,
	}); err != nil {
		return r, err
	}

	return &round5{
		round4:       r,
		ecdsa:        secret,
		vss:          vss,
		publicShares: map[party.ID]curve.Point{r.SelfID(): public},
	}, nil
}

// RoundNumber implements round.Content.
func (message4) RoundNumber() round.Number { return 4 }

// MessageContent implements round.Round.
func (round4) MessageContent() round.Content { return &message4{} }

// Number implements round.Round.
func (round4) Number() round.Number { return 4 }

// Expensive implements round.Round.
func (round4) Expensive() bool { return true }
