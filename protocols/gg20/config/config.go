package config

import (
	"errors"
	"fmt"
	"io"

	"github.com/mpcwallet/hdtss/internal/types"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/math/polynomial"
	"github.com/mpcwallet/hdtss/pkg/paillier"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/pedersen"
)

// ThresholdParams describes a t-out-of-n sharing: any Threshold+1 of the ShareCount parties can sign,
// and no coalition of Threshold parties learns the key.
type ThresholdParams struct {
	Threshold  int
	ShareCount int
}

// Validate checks 1 ⩽ t < n ⩽ party.MAX.
func (p ThresholdParams) Validate() error {
	if p.ShareCount < 2 {
		return fmt.Errorf("config: need at least 2 parties, got %d", p.ShareCount)
	}
	if p.ShareCount > party.MAX {
		return fmt.Errorf("config: too many parties (%d > %d)", p.ShareCount, party.MAX)
	}
	if p.Threshold < 1 || p.Threshold >= p.ShareCount {
		return fmt.Errorf("config: threshold %d is invalid for %d parties", p.Threshold, p.ShareCount)
	}
	return nil
}

// Public holds the public information of a party.
type Public struct {
	// ECDSA = xⱼ⋅G, the public key share of party j
	ECDSA curve.Point
	// Paillier is the encryption key of party j
	Paillier *paillier.PublicKey
	// Pedersen = (Nⱼ, sⱼ, tⱼ), the ring-Pedersen setup party j verifies proofs under
	Pedersen *pedersen.Parameters
}

// LocalKeyShare is the output of the key generation for one party.
// It is immutable once created: derived shares are new values.
type LocalKeyShare struct {
	Group curve.Curve

	ID party.ID

	// Threshold is the integer t which defines the maximum number of corruptions tolerated for this share.
	// Threshold + 1 is the minimum number of parties' shares required to sign.
	Threshold int

	// Paillier is this party's Paillier decryption key.
	Paillier *paillier.SecretKey
	// Pedersen is the trapdoor of this party's Pedersen setup.
	Pedersen *pedersen.Secret

	// ECDSA is this party's share xᵢ of the secret key x.
	ECDSA curve.Scalar

	// VSS = F(X) = ∑ⱼ Fⱼ(X), the commitment to the polynomial sharing x.
	VSS *polynomial.Exponent

	// Public maps party.ID to party. It contains all public information associated to a party.
	Public map[party.ID]*Public

	// PublicKey = ∑ⱼ yⱼ = x⋅G
	PublicKey curve.Point
}

// Params returns the threshold parameters of the share.
func (c *LocalKeyShare) Params() ThresholdParams {
	return ThresholdParams{Threshold: c.Threshold, ShareCount: len(c.Public)}
}

// PartyIDs returns a sorted slice of party IDs.
func (c *LocalKeyShare) PartyIDs() party.IDSlice {
	ids := make([]party.ID, 0, len(c.Public))
	for j := range c.Public {
		ids = append(ids, j)
	}
	return party.NewIDSlice(ids)
}

// Quorum returns the first Threshold+1 parties, sorted.
func (c *LocalKeyShare) Quorum() party.IDSlice {
	ids := c.PartyIDs()
	if len(ids) > c.Threshold+1 {
		ids = ids[:c.Threshold+1]
	}
	return ids
}

// PublicPoint returns the group's public key, interpolated from the public shares of a quorum.
// For a valid share it equals PublicKey.
func (c *LocalKeyShare) PublicPoint() curve.Point {
	quorum := c.Quorum()
	l := polynomial.Lagrange(c.Group, quorum)
	sum := c.Group.NewPoint()
	for _, j := range quorum {
		sum = sum.Add(l[j].Act(c.Public[j].ECDSA))
	}
	return sum
}

// CanSign returns true if the given _sorted_ list of signers is
// a valid subset of the original parties of size > t,
// and includes self.
func (c *LocalKeyShare) CanSign(signers party.IDSlice) bool {
	if len(signers) <= c.Threshold || len(signers) > len(c.Public) {
		return false
	}

	// check for duplicates
	if !signers.Valid() {
		return false
	}

	if !signers.Contains(c.ID) {
		return false
	}

	for _, j := range signers {
		if _, ok := c.Public[j]; !ok {
			return false
		}
	}
	return true
}

// Validate ensures that the data is consistent. In particular it verifies:
// - 1 ⩽ threshold < n
// - all public data is present and valid
// - the secret share corresponds to the public share of this party
// - the VSS commitment agrees with every public share and with the public key
// - a quorum of public shares interpolates to the public key.
func (c *LocalKeyShare) Validate() error {
	if c == nil || c.Group == nil || c.ECDSA == nil || c.Paillier == nil || c.Pedersen == nil ||
		c.VSS == nil || c.PublicKey == nil {
		return errors.New("config: one or more field is empty")
	}

	if err := c.Params().Validate(); err != nil {
		return err
	}

	if c.PublicKey.IsIdentity() {
		return errors.New("config: public key is identity")
	}

	for j, publicJ := range c.Public {
		if err := publicJ.validate(); err != nil {
			return fmt.Errorf("config: party %s: %w", j, err)
		}
	}

	// verify our ID is present
	public := c.Public[c.ID]
	if public == nil {
		return errors.New("config: no public data for secret")
	}

	if !c.ECDSA.ActOnBase().Equal(public.ECDSA) {
		return errors.New("config: ECDSA secret key share does not correspond to public share")
	}

	if !c.Paillier.PublicKey.Equal(public.Paillier) {
		return errors.New("config: Paillier secret key does not correspond to public key")
	}

	if c.VSS.Degree() != c.Threshold {
		return fmt.Errorf("config: VSS degree %d is not the threshold %d", c.VSS.Degree(), c.Threshold)
	}
	for j, publicJ := range c.Public {
		if !c.VSS.Evaluate(j.Scalar(c.Group)).Equal(publicJ.ECDSA) {
			return fmt.Errorf("config: party %s: public share does not match VSS", j)
		}
	}
	if !c.VSS.Constant().Equal(c.PublicKey) {
		return errors.New("config: VSS constant does not match public key")
	}

	if !c.PublicPoint().Equal(c.PublicKey) {
		return errors.New("config: public shares do not interpolate to the public key")
	}
	return nil
}

// validate returns an error if Public is invalid. Otherwise return nil.
func (p *Public) validate() error {
	if p == nil || p.ECDSA == nil || p.Paillier == nil || p.Pedersen == nil {
		return errors.New("public: one or more field is empty")
	}

	if p.ECDSA.IsIdentity() {
		return errors.New("public: ECDSA public key share is identity")
	}

	if err := paillier.ValidateN(p.Paillier.N()); err != nil {
		return fmt.Errorf("public: %w", err)
	}

	if err := pedersen.ValidateParameters(p.Pedersen.N(), p.Pedersen.S(), p.Pedersen.T()); err != nil {
		return fmt.Errorf("public: %w", err)
	}
	return nil
}

// Clone returns a deep copy of the public data, where the group elements are copied.
// The Paillier and Pedersen keys are immutable and shared.
func (p *Public) Clone(group curve.Curve) *Public {
	return &Public{
		ECDSA:    group.NewPoint().Set(p.ECDSA),
		Paillier: p.Paillier,
		Pedersen: p.Pedersen,
	}
}

// Clone returns a copy of c which can be modified without affecting c.
func (c *LocalKeyShare) Clone() *LocalKeyShare {
	public := make(map[party.ID]*Public, len(c.Public))
	for j, publicJ := range c.Public {
		public[j] = publicJ.Clone(c.Group)
	}
	return &LocalKeyShare{
		Group:     c.Group,
		ID:        c.ID,
		Threshold: c.Threshold,
		Paillier:  c.Paillier,
		Pedersen:  c.Pedersen,
		ECDSA:     c.Group.NewScalar().Set(c.ECDSA),
		VSS:       c.VSS.Copy(),
		Public:    public,
		PublicKey: c.Group.NewPoint().Set(c.PublicKey),
	}
}

// WriteTo implements io.WriterTo interface.
func (c *LocalKeyShare) WriteTo(w io.Writer) (total int64, err error) {
	if c == nil {
		return 0, io.ErrUnexpectedEOF
	}
	var n int64

	n, err = types.Threshold(c.Threshold).WriteTo(w)
	total += n
	if err != nil {
		return
	}

	partyIDs := c.PartyIDs()
	n, err = partyIDs.WriteTo(w)
	total += n
	if err != nil {
		return
	}

	n, err = c.VSS.WriteTo(w)
	total += n
	if err != nil {
		return
	}

	for _, j := range partyIDs {
		n, err = c.Public[j].WriteTo(w)
		total += n
		if err != nil {
			return
		}
	}
	return
}

// Domain implements hash.WriterToWithDomain.
func (*LocalKeyShare) Domain() string {
	return "GG20 Local Key Share"
}

// WriteTo implements io.WriterTo interface.
func (p *Public) WriteTo(w io.Writer) (total int64, err error) {
	if p == nil {
		return 0, io.ErrUnexpectedEOF
	}
	data, err := p.ECDSA.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	total += int64(n)
	if err != nil {
		return
	}

	var m int64
	m, err = p.Paillier.WriteTo(w)
	total += m
	if err != nil {
		return
	}

	m, err = p.Pedersen.WriteTo(w)
	total += m
	return
}

// Domain implements hash.WriterToWithDomain.
func (*Public) Domain() string {
	return "Public Data"
}
