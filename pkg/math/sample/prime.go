package sample

import (
	"io"
	"math"
	"math/big"
	"sync"

	"github.com/cronokirby/saferith"
	"github.com/mpcwallet/hdtss/internal/params"
	"github.com/mpcwallet/hdtss/pkg/pool"
)

const (
	// sieveSize is the width of the window of candidates following a random starting point.
	sieveSize = 1 << 18
	// primeBound bounds the small primes used to sieve the window.
	primeBound = 1 << 20
	// millerRabinRounds matches the choice of crypto/rand.Prime.
	millerRabinRounds = 20
)

var smallPrimes = sync.OnceValue(func() []uint32 { return oddPrimesBelow(primeBound) })

var sieves = sync.Pool{
	New: func() interface{} {
		s := make([]bool, sieveSize)
		return &s
	},
}

// oddPrimesBelow returns the odd primes smaller than bound, with the sieve of Eratosthenes.
func oddPrimesBelow(bound uint32) []uint32 {
	composite := make([]bool, bound)
	for p := uint32(2); p*p < bound; p++ {
		if composite[p] {
			continue
		}
		for m := p * p; m < bound; m += p {
			composite[m] = true
		}
	}
	// about N / log N primes below N
	out := make([]uint32, 0, int(float64(bound)/math.Log(float64(bound))))
	for p := uint32(3); p < bound; p++ {
		if !composite[p] {
			out = append(out, p)
		}
	}
	return out
}

// tryBlumPrime looks for a safe prime p = 3 mod 4 of params.BitsBlumPrime bits
// in the window following a random starting point. It returns nil if the window contains none.
func tryBlumPrime(rand io.Reader) *saferith.Nat {
	buf := make([]byte, (params.BitsBlumPrime+7)/8)
	if _, err := io.ReadFull(rand, buf); err != nil {
		return nil
	}
	// the product of two such primes has exactly twice the bits
	buf[0] |= 0xC0
	// p = 3 mod 4, so that base + δ stays 3 mod 4 when δ = 0 mod 4
	buf[len(buf)-1] |= 3
	base := new(big.Int).SetBytes(buf)

	ptr := sieves.Get().(*[]bool)
	defer sieves.Put(ptr)
	candidates := *ptr
	markCandidates(base, candidates)

	p, q := new(big.Int), new(big.Int)
	for delta, ok := range candidates {
		if !ok {
			continue
		}
		p.Add(base, big.NewInt(int64(delta)))
		if p.BitLen() > params.BitsBlumPrime {
			return nil
		}
		// (p-1)/2 is tested first, as it is the most likely to fail
		q.Rsh(p, 1)
		if !q.ProbablyPrime(millerRabinRounds) {
			continue
		}
		// when q is prime, a Fermat-like single test suffices for p = 2q+1
		if !p.ProbablyPrime(0) {
			continue
		}
		return new(saferith.Nat).SetBig(p, params.BitsBlumPrime)
	}
	return nil
}

// markCandidates sets candidates[δ] to false whenever base + δ or (base + δ - 1)/2
// has a small factor, or base + δ ≠ 3 mod 4.
func markCandidates(base *big.Int, candidates []bool) {
	for i := range candidates {
		candidates[i] = i%4 == 0
	}
	r := new(big.Int)
	for _, prime := range smallPrimes() {
		step := int(prime)
		rem := int(r.Mod(base, r.SetUint64(uint64(prime))).Uint64())
		// base + δ = 0 mod prime rules out δ, and also δ + 1 whose half (base + δ)/2 is then a multiple of prime
		first := (step - rem) % step
		for i := first; i+1 < len(candidates); i += step {
			candidates[i] = false
			candidates[i+1] = false
		}
	}
}

// Paillier returns two safe Blum primes p, q, such that (p-1)/2 and (q-1)/2 are prime and p = q = 3 mod 4.
// The search is spread over the pool.
func Paillier(rand io.Reader, pl *pool.Pool) (p, q *saferith.Nat) {
	reader := pool.NewLockedReader(rand)
	results := pl.Search(2, func() interface{} {
		prime := tryBlumPrime(reader)
		// a typed nil must not be mistaken for a result
		if prime == nil {
			return nil
		}
		return prime
	})
	return results[0].(*saferith.Nat), results[1].(*saferith.Nat)
}
