package arith

import (
	"github.com/cronokirby/saferith"
)

// Modulus is an RSA-type modulus N, optionally with its factorization N = p⋅q.
//
// With the factors, exponentiations are split into one exponentiation mod p and one mod q,
// and recombined with the CRT. Only the owner of a Paillier or Pedersen key has the factors,
// everyone else works with ModulusFromN.
type Modulus struct {
	*saferith.Modulus
	crt *crtParams
}

type crtParams struct {
	p, q *saferith.Modulus
	// pNat = p as a Nat, to multiply by p mod N
	pNat *saferith.Nat
	// pInv = p⁻¹ (mod q)
	pInv *saferith.Nat
}

// ModulusFromN wraps n without knowledge of its factors. n is not copied.
func ModulusFromN(n *saferith.Modulus) *Modulus {
	return &Modulus{Modulus: n}
}

// ModulusFromFactors returns N = p⋅q along with the values needed for CRT exponentiation.
func ModulusFromFactors(p, q *saferith.Nat) *Modulus {
	qMod := saferith.ModulusFromNat(q)
	return &Modulus{
		Modulus: saferith.ModulusFromNat(new(saferith.Nat).Mul(p, q, -1)),
		crt: &crtParams{
			p:    saferith.ModulusFromNat(p),
			q:    qMod,
			pNat: new(saferith.Nat).SetNat(p),
			pInv: new(saferith.Nat).ModInverse(p, qMod),
		},
	}
}

// Exp returns xᵉ (mod N).
func (n *Modulus) Exp(x, e *saferith.Nat) *saferith.Nat {
	if n.crt == nil {
		return new(saferith.Nat).Exp(x, e, n.Modulus)
	}
	var xp, xq saferith.Nat
	xp.Exp(x, e, n.crt.p)
	xq.Exp(x, e, n.crt.q)
	return n.crt.combine(&xp, &xq, n.Modulus)
}

// ExpI returns xᵉ (mod N) for a signed exponent. x must be a unit when e is negative.
func (n *Modulus) ExpI(x *saferith.Nat, e *saferith.Int) *saferith.Nat {
	if n.crt == nil {
		return new(saferith.Nat).ExpI(x, e, n.Modulus)
	}
	y := n.Exp(x, e.Abs())
	inverse := new(saferith.Nat).ModInverse(y, n.Modulus)
	y.CondAssign(e.IsNegative(), inverse)
	return y
}

// combine returns r ∈ ℤ_N with r = xp (mod p) and r = xq (mod q),
// computed as r = xp + p⋅p⁻¹⋅(xq - xp) (mod N).
func (c *crtParams) combine(xp, xq *saferith.Nat, n *saferith.Modulus) *saferith.Nat {
	r := new(saferith.Nat).ModSub(xq, xp, n)
	r.ModMul(r, c.pInv, n)
	r.ModMul(r, c.pNat, n)
	return r.ModAdd(r, xp, n)
}
