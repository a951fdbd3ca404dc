package zkfac

import (
	"crypto/sha512"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math/big"

	"github.com/cronokirby/saferith"
	"github.com/mpcwallet/hdtss/pkg/math/arith"
	"github.com/mpcwallet/hdtss/pkg/math/sample"
	"github.com/mpcwallet/hdtss/pkg/pedersen"
)

// salt separates the challenges of this proof from other uses of SHA-512 over the same values.
var salt = []byte("hdtss/zkfac/no-small-factor")

// Setup is the verifier's ring-Pedersen setup (Ñ, s, t) the proof commits under.
type Setup = pedersen.Parameters

// Statement is the modulus N0 claimed to have no factor smaller than 2^L,
// together with the slackness parameter Epsilon.
type Statement struct {
	N0         *saferith.Modulus
	L, Epsilon uint
}

// Witness is the factorization N0 = P⋅Q.
type Witness struct {
	P, Q *saferith.Nat
}

type Proof struct {
	// P = sᵖ tᵘ, Q = sᑫ tᵛ, A = sᵅ tˣ, B = sᵝ tʸ, T = Qᵅ tʳ (mod Ñ)
	P, Q, A, B, T *saferith.Nat
	Sigma         *saferith.Int
	Z1, Z2        *saferith.Int
	W1, W2        *saferith.Int
	V             *saferith.Int
}

// bounds holds the sampling intervals of the prover, derived from the statement and setup.
type bounds struct {
	// alphaBeta = 2^(l+ε)⋅√N0
	alphaBeta *saferith.Nat
	// muNu = 2^l⋅Ñ
	muNu *saferith.Nat
	// sigma = 2^l⋅N0⋅Ñ
	sigma *saferith.Nat
	// r = 2^(l+ε)⋅N0⋅Ñ
	r *saferith.Nat
	// xy = 2^(l+ε)⋅Ñ
	xy *saferith.Nat
}

func newBounds(setup *Setup, statement Statement) bounds {
	l, eps := statement.L, statement.Epsilon
	nTilde := setup.N().Nat()
	n0 := statement.N0.Nat()

	sqrtN0 := new(big.Int).Sqrt(statement.N0.Big())
	alphaBeta := new(saferith.Nat).SetBig(sqrtN0, sqrtN0.BitLen())
	alphaBeta.Lsh(alphaBeta, l+eps, -1)

	muNu := new(saferith.Nat).Lsh(nTilde, l, -1)
	sigma := new(saferith.Nat).Mul(muNu, n0, -1)
	r := new(saferith.Nat).Lsh(sigma, eps, -1)
	xy := new(saferith.Nat).Lsh(muNu, eps, -1)
	return bounds{
		alphaBeta: alphaBeta,
		muNu:      muNu,
		sigma:     sigma,
		r:         r,
		xy:        xy,
	}
}

func sampleInt(rand io.Reader, bound *saferith.Nat) (*saferith.Int, error) {
	x, err := sample.Below(rand, bound)
	if err != nil {
		return nil, err
	}
	return new(saferith.Int).SetNat(x), nil
}

// Prove generates a proof that N0 = P⋅Q has no factor smaller than 2^L, under the verifier's setup.
// An error is returned only if sampling failed, in which case the caller may try again.
func Prove(rand io.Reader, setup *Setup, statement Statement, witness Witness) (*Proof, error) {
	if setup == nil || statement.N0 == nil || witness.P == nil || witness.Q == nil {
		return nil, errors.New("zkfac: nil argument")
	}
	b := newBounds(setup, statement)
	nTilde := setup.NArith()

	var (
		alpha, beta, mu, nu, sigma, r, x, y *saferith.Int
		err                                 error
	)
	for _, s := range []struct {
		out   **saferith.Int
		bound *saferith.Nat
	}{
		{&alpha, b.alphaBeta}, {&beta, b.alphaBeta},
		{&mu, b.muNu}, {&nu, b.muNu},
		{&sigma, b.sigma}, {&r, b.r},
		{&x, b.xy}, {&y, b.xy},
	} {
		if *s.out, err = sampleInt(rand, s.bound); err != nil {
			return nil, fmt.Errorf("zkfac: failed to sample: %w", err)
		}
	}

	pInt := new(saferith.Int).SetNat(witness.P)
	qInt := new(saferith.Int).SetNat(witness.Q)

	P := setup.Commit(pInt, mu)
	Q := setup.Commit(qInt, nu)
	A := setup.Commit(alpha, x)
	B := setup.Commit(beta, y)
	// T = Qᵅ tʳ
	T := nTilde.ExpI(Q, alpha)
	T.ModMul(T, nTilde.ExpI(setup.T(), r), nTilde.Modulus)

	e := challenge(statement.N0, P, Q, A, B, T)

	// z₁ = α + e⋅p
	z1 := new(saferith.Int).Mul(e, pInt, -1)
	z1.Add(z1, alpha, -1)
	// z₂ = β + e⋅q
	z2 := new(saferith.Int).Mul(e, qInt, -1)
	z2.Add(z2, beta, -1)
	// w₁ = x + e⋅μ
	w1 := new(saferith.Int).Mul(e, mu, -1)
	w1.Add(w1, x, -1)
	// w₂ = y + e⋅ν
	w2 := new(saferith.Int).Mul(e, nu, -1)
	w2.Add(w2, y, -1)
	// v = r + e⋅(σ - ν⋅p)
	sigmaHat := new(saferith.Int).Mul(nu, pInt, -1)
	sigmaHat.Neg(1)
	sigmaHat.Add(sigmaHat, sigma, -1)
	v := new(saferith.Int).Mul(e, sigmaHat, -1)
	v.Add(v, r, -1)

	return &Proof{
		P:     P,
		Q:     Q,
		A:     A,
		B:     B,
		T:     T,
		Sigma: sigma,
		Z1:    z1,
		Z2:    z2,
		W1:    w1,
		W2:    w2,
		V:     v,
	}, nil
}

// Verify returns true if proof shows that the modulus of statement has no small factor.
func Verify(proof *Proof, setup *Setup, statement Statement) bool {
	return proof.Verify(setup, statement)
}

// IsValid checks that all fields are set, and that the commitments are units mod Ñ.
func (p *Proof) IsValid(setup *Setup) bool {
	if p == nil || setup == nil {
		return false
	}
	for _, x := range []*saferith.Int{p.Sigma, p.Z1, p.Z2, p.W1, p.W2, p.V} {
		if x == nil {
			return false
		}
	}
	return arith.IsValidNatModN(setup.N(), p.P, p.Q, p.A, p.B, p.T)
}

// Verify returns true if the proof shows that the modulus of statement has no small factor.
func (p *Proof) Verify(setup *Setup, statement Statement) bool {
	if statement.N0 == nil || !p.IsValid(setup) {
		return false
	}
	b := newBounds(setup, statement)
	if !inRange(p.Z1, b.alphaBeta) || !inRange(p.Z2, b.alphaBeta) {
		return false
	}
	return p.verifyEquations(setup, statement)
}

// inRange returns true if |x| ≤ bound.
func inRange(x *saferith.Int, bound *saferith.Nat) bool {
	gt, _, _ := x.Abs().Cmp(bound)
	return gt != 1
}

// verifyEquations checks the three relations mod Ñ, without the range check on z₁ and z₂.
func (p *Proof) verifyEquations(setup *Setup, statement Statement) bool {
	nTilde := setup.NArith()
	n := nTilde.Modulus

	e := challenge(statement.N0, p.P, p.Q, p.A, p.B, p.T)

	// R = s^N0 t^σ
	R := nTilde.Exp(setup.S(), statement.N0.Nat())
	R.ModMul(R, nTilde.ExpI(setup.T(), p.Sigma), n)

	// s^z₁ t^w₁ = A⋅Pᵉ
	lhs := setup.Commit(p.Z1, p.W1)
	rhs := nTilde.ExpI(p.P, e)
	rhs.ModMul(rhs, p.A, n)
	if lhs.Eq(rhs) != 1 {
		return false
	}

	// s^z₂ t^w₂ = B⋅Qᵉ
	lhs = setup.Commit(p.Z2, p.W2)
	rhs = nTilde.ExpI(p.Q, e)
	rhs.ModMul(rhs, p.B, n)
	if lhs.Eq(rhs) != 1 {
		return false
	}

	// Q^z₁ t^v = T⋅Rᵉ
	lhs = nTilde.ExpI(p.Q, p.Z1)
	lhs.ModMul(lhs, nTilde.ExpI(setup.T(), p.V), n)
	rhs = nTilde.ExpI(R, e)
	rhs.ModMul(rhs, p.T, n)
	return lhs.Eq(rhs) == 1
}

// challenge computes e = SHA-512(N0 ‖ P ‖ Q ‖ A ‖ B ‖ T ‖ salt) as an unsigned 512 bit integer.
// Every item is prefixed by its length.
func challenge(n0 *saferith.Modulus, P, Q, A, B, T *saferith.Nat) *saferith.Int {
	h := sha512.New()
	write := func(data []byte) {
		var length [4]byte
		binary.BigEndian.PutUint32(length[:], uint32(len(data)))
		_, _ = h.Write(length[:])
		_, _ = h.Write(data)
	}
	write(n0.Big().Bytes())
	for _, x := range []*saferith.Nat{P, Q, A, B, T} {
		write(x.Big().Bytes())
	}
	write(salt)
	e := new(saferith.Nat).SetBytes(h.Sum(nil))
	return new(saferith.Int).SetNat(e)
}
