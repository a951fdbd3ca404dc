package zksch

import (
	"crypto/rand"

	"github.com/mpcwallet/hdtss/pkg/hash"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/math/sample"
)

// Proof is a non-interactive proof of knowledge of x such that X = x⋅G.
type Proof struct {
	// C = a⋅G
	C curve.Point
	// Z = a + e⋅x
	Z curve.Scalar
}

// EmptyProof returns a Proof with its fields initialized, so that it can be unmarshalled into.
func EmptyProof(group curve.Curve) *Proof {
	return &Proof{
		C: group.NewPoint(),
		Z: group.NewScalar(),
	}
}

func challenge(hash *hash.Hash, group curve.Curve, commitment, public curve.Point) curve.Scalar {
	_ = hash.WriteAny(commitment, public, group.NewBasePoint())
	return sample.Scalar(hash.Digest(), group)
}

// NewProof generates a Schnorr proof of knowledge of private such that public = private⋅G.
func NewProof(hash *hash.Hash, public curve.Point, private curve.Scalar) *Proof {
	group := private.Curve()

	a, C := sample.ScalarPointPair(rand.Reader, group)
	e := challenge(hash, group, C, public)

	// z = a + e⋅x
	z := e.Mul(private).Add(a)
	return &Proof{
		C: C,
		Z: z,
	}
}

// IsValid checks that the proof is fully populated and not trivial.
func (p *Proof) IsValid() bool {
	if p == nil || p.C == nil || p.Z == nil {
		return false
	}
	if p.Z.IsZero() || p.C.IsIdentity() {
		return false
	}
	return true
}

// Verify checks that z⋅G = C + e⋅X.
func (p *Proof) Verify(hash *hash.Hash, public curve.Point) bool {
	if !p.IsValid() || public == nil || public.IsIdentity() {
		return false
	}
	group := public.Curve()

	e := challenge(hash, group, p.C, public)

	lhs := p.Z.ActOnBase()
	rhs := e.Act(public).Add(p.C)

	return lhs.Equal(rhs)
}
