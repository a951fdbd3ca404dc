// Package zkmod proves that N is a Paillier-Blum modulus, i.e. N = p⋅q with p = q = 3 mod 4
// and gcd(N, ϕ(N)) = 1, without revealing p or q.
package zkmod

import (
	"crypto/rand"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/mpcwallet/hdtss/internal/params"
	"github.com/mpcwallet/hdtss/pkg/hash"
	"github.com/mpcwallet/hdtss/pkg/math/arith"
	"github.com/mpcwallet/hdtss/pkg/math/sample"
	"github.com/mpcwallet/hdtss/pkg/pool"
)

type Public struct {
	N *saferith.Modulus
}

type Private struct {
	// P, Q = 3 mod 4
	P, Q *saferith.Nat
	// Phi = (P-1)(Q-1)
	Phi *saferith.Nat
}

// Response answers the challenge y with y' = (-1)ᴬ⋅wᴮ⋅y.
type Response struct {
	A, B bool
	// X⁴ = y'
	X *saferith.Nat
	// Zᴺ = y
	Z *saferith.Nat
}

type Proof struct {
	// W has Jacobi symbol -1 mod N.
	W         *saferith.Nat
	Responses [params.ZKModIterations]Response
}

// blum holds the factors of a Blum integer, for testing quadratic residuosity.
type blum struct {
	p, q         *saferith.Modulus
	pHalf, qHalf *saferith.Nat
}

func newBlum(p, q *saferith.Nat) *blum {
	return &blum{
		p:     saferith.ModulusFromNat(p),
		q:     saferith.ModulusFromNat(q),
		pHalf: new(saferith.Nat).Rsh(p, 1, -1),
		qHalf: new(saferith.Nat).Rsh(q, 1, -1),
	}
}

// isQR uses Euler's criterion modulo both factors.
func (b *blum) isQR(y *saferith.Nat) bool {
	one := new(saferith.Nat).SetUint64(1)
	return new(saferith.Nat).Exp(y, b.pHalf, b.p).Eq(one)&
		new(saferith.Nat).Exp(y, b.qHalf, b.q).Eq(one) == 1
}

// quadraticResidue returns the first of y, -y, -w⋅y, w⋅y that is a square mod n.
// Exactly one of them is, since -1 and w are non-residues with distinct Legendre symbol patterns.
func (b *blum) quadraticResidue(y, w *saferith.Nat, n *saferith.Modulus) (neg, mulW bool, out *saferith.Nat) {
	out = new(saferith.Nat).Mod(y, n)
	steps := [...]struct {
		neg, mulW bool
		apply     func()
	}{
		{false, false, func() {}},
		{true, false, func() { out.ModNeg(out, n) }},
		{true, true, func() { out.ModMul(out, w, n) }},
		{false, true, func() { out.ModNeg(out, n) }},
	}
	for _, step := range steps {
		step.apply()
		neg, mulW = step.neg, step.mulW
		if b.isQR(out) {
			break
		}
	}
	return neg, mulW, out
}

// fourthRootExponent returns e = ((ϕ+4)/8)² mod ϕ. For a square y modulo a Blum integer,
// y' = yᵉ is the unique fourth root of y that is itself a square.
func fourthRootExponent(phi *saferith.Nat) *saferith.Nat {
	e := new(saferith.Nat).Add(phi, new(saferith.Nat).SetUint64(4), -1)
	e.Rsh(e, 3, -1)
	return e.ModMul(e, e, saferith.ModulusFromNat(phi))
}

// NewProof proves that public.N = private.P⋅private.Q is a Paillier-Blum modulus.
func NewProof(hash *hash.Hash, private Private, public Public, pl *pool.Pool) *Proof {
	n := public.N
	nCRT := arith.ModulusFromFactors(private.P, private.Q)
	factors := newBlum(private.P, private.Q)

	w := sample.QNR(rand.Reader, n)
	nInv := new(saferith.Nat).ModInverse(n.Nat(), saferith.ModulusFromNat(private.Phi))
	e := fourthRootExponent(private.Phi)

	ys := challenge(hash, n, w)
	proof := &Proof{W: w}
	pl.Parallelize(params.ZKModIterations, func(i int) interface{} {
		a, b, yPrime := factors.quadraticResidue(ys[i], w, n)
		proof.Responses[i] = Response{
			A: a,
			B: b,
			X: nCRT.Exp(yPrime, e),
			Z: nCRT.Exp(ys[i], nInv),
		}
		return nil
	})
	return proof
}

// Verify checks Zᴺ = y and X⁴ = (-1)ᴬ⋅wᴮ⋅y (mod N).
func (r *Response) Verify(n *saferith.Modulus, w, y *saferith.Nat) bool {
	if !arith.IsValidNatModN(n, r.X, r.Z) {
		return false
	}
	if new(saferith.Nat).Exp(r.Z, n.Nat(), n).Eq(y) != 1 {
		return false
	}

	x4 := new(saferith.Nat).ModMul(r.X, r.X, n)
	x4.ModMul(x4, x4, n)

	yPrime := new(saferith.Nat).Mod(y, n)
	if r.A {
		yPrime.ModNeg(yPrime, n)
	}
	if r.B {
		yPrime.ModMul(yPrime, w, n)
	}
	return x4.Eq(yPrime) == 1
}

// Verify returns true if the proof shows that public.N is a Paillier-Blum modulus.
func (p *Proof) Verify(public Public, hash *hash.Hash, pl *pool.Pool) bool {
	if p == nil || public.N == nil {
		return false
	}
	nBig := public.N.Big()
	if nBig.Bit(0) == 0 || nBig.ProbablyPrime(20) {
		return false
	}
	if !arith.IsValidNatModN(public.N, p.W) || big.Jacobi(p.W.Big(), nBig) != -1 {
		return false
	}

	ys := challenge(hash, public.N, p.W)
	results := pl.Parallelize(params.ZKModIterations, func(i int) interface{} {
		return p.Responses[i].Verify(public.N, p.W, ys[i])
	})
	for _, ok := range results {
		if !ok.(bool) {
			return false
		}
	}
	return true
}

// challenge derives y₁, …, yₘ ∈ ℤₙ from the transcript.
func challenge(hash *hash.Hash, n *saferith.Modulus, w *saferith.Nat) []*saferith.Nat {
	_ = hash.WriteAny(n, w)
	digest := hash.Digest()
	ys := make([]*saferith.Nat, params.ZKModIterations)
	for i := range ys {
		ys[i] = sample.ModN(digest, n)
	}
	return ys
}
