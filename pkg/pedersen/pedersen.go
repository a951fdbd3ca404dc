// Package pedersen implements ring-Pedersen commitments over an RSA modulus,
// used as the auxiliary setup of the range and factorization proofs.
package pedersen

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/internal/params"
	"github.com/mpcwallet/hdtss/pkg/math/arith"
)

var (
	ErrNilFields    = errors.New("pedersen: contains nil field")
	ErrSEqualT      = errors.New("pedersen: s and t are equal")
	ErrNotValidModN = errors.New("pedersen: s and t must be units of ℤₙ")
)

// Parameters is a ring-Pedersen setup (N, s, t) with s, t ∈ ℤₙˣ and s ∈ ⟨t⟩.
type Parameters struct {
	n    *arith.Modulus
	s, t *saferith.Nat
}

// New wraps (n, s, t) without checking them, callers validate with ValidateParameters first.
func New(n *arith.Modulus, s, t *saferith.Nat) *Parameters {
	return &Parameters{n: n, s: s, t: t}
}

// ValidateParameters returns an error if one of n, s, t is missing,
// if s or t is not a unit mod n, or if s = t.
func ValidateParameters(n *saferith.Modulus, s, t *saferith.Nat) error {
	switch {
	case n == nil || s == nil || t == nil:
		return ErrNilFields
	case !arith.IsValidNatModN(n, s, t):
		return ErrNotValidModN
	case s.Eq(t) == 1:
		return ErrSEqualT
	}
	return nil
}

// N is the Blum modulus p⋅q.
func (p Parameters) N() *saferith.Modulus { return p.n.Modulus }

// NArith returns N along with its factors when this party generated them.
func (p Parameters) NArith() *arith.Modulus { return p.n }

func (p Parameters) S() *saferith.Nat { return p.s }

func (p Parameters) T() *saferith.Nat { return p.t }

// Commit returns sˣ⋅tʸ (mod N).
func (p Parameters) Commit(x, y *saferith.Int) *saferith.Nat {
	return p.mulExp(p.s, x, p.t, y)
}

// Verify returns true if sᵃ⋅tᵇ = S⋅Tᵉ (mod N).
func (p Parameters) Verify(a, b, e *saferith.Int, S, T *saferith.Nat) bool {
	if a == nil || b == nil || e == nil || S == nil || T == nil {
		return false
	}
	if !arith.IsValidNatModN(p.n.Modulus, S, T) {
		return false
	}
	lhs := p.mulExp(p.s, a, p.t, b)
	rhs := p.n.ExpI(T, e)
	rhs.ModMul(rhs, S, p.n.Modulus)
	return lhs.Eq(rhs) == 1
}

// mulExp returns g₁ᵉ¹⋅g₂ᵉ² (mod N).
func (p Parameters) mulExp(g1 *saferith.Nat, e1 *saferith.Int, g2 *saferith.Nat, e2 *saferith.Int) *saferith.Nat {
	r := p.n.ExpI(g1, e1)
	return r.ModMul(r, p.n.ExpI(g2, e2), p.n.Modulus)
}

// WriteTo writes N, s and t, each padded to params.BytesIntModN.
func (p *Parameters) WriteTo(w io.Writer) (int64, error) {
	if p == nil {
		return 0, io.ErrUnexpectedEOF
	}
	out := make([]byte, 0, 3*params.BytesIntModN)
	for _, x := range [...]*saferith.Nat{p.n.Nat(), p.s, p.t} {
		out = append(out, x.FillBytes(make([]byte, params.BytesIntModN))...)
	}
	n, err := w.Write(out)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (Parameters) Domain() string { return "Pedersen Parameters" }

type parametersMarshal struct {
	N, S, T []byte
}

func (p *Parameters) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(&parametersMarshal{N: p.n.Bytes(), S: p.s.Bytes(), T: p.t.Bytes()})
}

// UnmarshalBinary decodes and validates the parameters. The factors of N are never encoded.
func (p *Parameters) UnmarshalBinary(data []byte) error {
	var m parametersMarshal
	if err := cbor.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("pedersen: %w", err)
	}
	if len(m.N) == 0 {
		return ErrNilFields
	}
	n := saferith.ModulusFromBytes(m.N)
	s := new(saferith.Nat).SetBytes(m.S)
	t := new(saferith.Nat).SetBytes(m.T)
	if err := ValidateParameters(n, s, t); err != nil {
		return err
	}
	*p = Parameters{n: arith.ModulusFromN(n), s: s, t: t}
	return nil
}
