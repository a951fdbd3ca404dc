// Package zkprm proves that s lies in the subgroup generated by t modulo N,
// with binary challenges repeated params.StatParam times.
package zkprm

import (
	"crypto/rand"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/mpcwallet/hdtss/internal/params"
	"github.com/mpcwallet/hdtss/pkg/hash"
	"github.com/mpcwallet/hdtss/pkg/math/arith"
	"github.com/mpcwallet/hdtss/pkg/math/sample"
	"github.com/mpcwallet/hdtss/pkg/pedersen"
	"github.com/mpcwallet/hdtss/pkg/pool"
)

type Public struct {
	N    *saferith.Modulus
	S, T *saferith.Nat
}

// Private holds λ with s = tˡ, along with the factorization of N.
type Private struct {
	Lambda, Phi, P, Q *saferith.Nat
}

// Proof holds the commitments Aᵢ = tᵃⁱ and the responses zᵢ = aᵢ + eᵢ⋅λ mod ϕ(N).
type Proof struct {
	As, Zs [params.StatParam]*saferith.Nat
}

// IsValid checks that every commitment is a unit mod N.
func (p *Proof) IsValid(public Public) bool {
	return p != nil && arith.IsValidNatModN(public.N, p.As[:]...)
}

// NewProof proves knowledge of λ such that s = tˡ (mod N).
func NewProof(private Private, hash *hash.Hash, public Public, pl *pool.Pool) *Proof {
	phi := saferith.ModulusFromNat(private.Phi)
	n := arith.ModulusFromFactors(private.P, private.Q)
	src := pool.NewLockedReader(rand.Reader)

	var nonces [params.StatParam]*saferith.Nat
	proof := new(Proof)
	pl.Parallelize(params.StatParam, func(i int) interface{} {
		nonces[i] = sample.ModN(src, phi)
		proof.As[i] = n.Exp(public.T, nonces[i])
		return nil
	})

	for i, e := range challenge(hash, public, proof.As) {
		z := nonces[i]
		// e is public
		if e {
			z.ModAdd(z, private.Lambda, phi)
		}
		proof.Zs[i] = z
	}
	return proof
}

// Verify checks tᶻⁱ = Aᵢ⋅sᵉⁱ (mod N) for every i.
func (p *Proof) Verify(public Public, hash *hash.Hash, pl *pool.Pool) bool {
	if p == nil {
		return false
	}
	if err := pedersen.ValidateParameters(public.N, public.S, public.T); err != nil {
		return false
	}

	es := challenge(hash, public, p.As)
	one := new(saferith.Nat).SetUint64(1)
	results := pl.Parallelize(params.StatParam, func(i int) interface{} {
		a, z := p.As[i], p.Zs[i]
		if a == nil || z == nil || !arith.IsValidNatModN(public.N, a) || a.Eq(one) == 1 {
			return false
		}
		expected := new(saferith.Nat).SetNat(a)
		if es[i] {
			expected.ModMul(expected, public.S, public.N)
		}
		return new(saferith.Nat).Exp(public.T, z, public.N).Eq(expected) == 1
	})
	for _, ok := range results {
		if !ok.(bool) {
			return false
		}
	}
	return true
}

// challenge derives the bits e₁, …, eₘ from the low bit of each digest byte.
func challenge(hash *hash.Hash, public Public, as [params.StatParam]*saferith.Nat) []bool {
	_ = hash.WriteAny(public.N, public.S, public.T)
	for _, a := range as {
		if a != nil {
			_ = hash.WriteAny(a)
		}
	}

	digest := make([]byte, params.StatParam)
	_, _ = io.ReadFull(hash.Digest(), digest)
	es := make([]bool, params.StatParam)
	for i, b := range digest {
		es[i] = b&1 == 1
	}
	return es
}
