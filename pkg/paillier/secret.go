package paillier

import (
	"errors"
	"fmt"
	"io"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/internal/params"
	"github.com/mpcwallet/hdtss/pkg/math/arith"
	"github.com/mpcwallet/hdtss/pkg/math/sample"
	"github.com/mpcwallet/hdtss/pkg/pedersen"
	"github.com/mpcwallet/hdtss/pkg/pool"
)

var (
	ErrPrimeBadLength    = errors.New("paillier: prime has the wrong bit length")
	ErrNotBlum           = errors.New("paillier: prime is not 3 mod 4")
	ErrNotSafePrime      = errors.New("paillier: (p-1)/2 is not prime")
	ErrPrimeNil          = errors.New("paillier: prime is nil")
	ErrInvalidCiphertext = errors.New("paillier: failed to decrypt invalid ciphertext")
)

// SecretKey holds the factorization N = p⋅q of its PublicKey.
type SecretKey struct {
	*PublicKey
	p, q *saferith.Nat
	// phi = (p-1)(q-1)
	phi *saferith.Nat
	// phiInv = ϕ⁻¹ mod N
	phiInv *saferith.Nat
}

func (sk *SecretKey) P() *saferith.Nat { return sk.p }

func (sk *SecretKey) Q() *saferith.Nat { return sk.q }

// Phi returns ϕ(N) = (p-1)(q-1).
func (sk *SecretKey) Phi() *saferith.Nat { return sk.phi }

// KeyGen samples a fresh key pair from two safe Blum primes.
func KeyGen(rand io.Reader, pl *pool.Pool) (*PublicKey, *SecretKey) {
	sk := NewSecretKey(rand, pl)
	return sk.PublicKey, sk
}

// NewSecretKey samples safe Blum primes p, q of params.BitsBlumPrime bits.
func NewSecretKey(rand io.Reader, pl *pool.Pool) *SecretKey {
	return NewSecretKeyFromPrimes(sample.Paillier(rand, pl))
}

// NewSecretKeyFromPrimes builds the key for N = P⋅Q, without checking P and Q.
func NewSecretKeyFromPrimes(P, Q *saferith.Nat) *SecretKey {
	one := new(saferith.Nat).SetUint64(1)
	n := arith.ModulusFromFactors(P, Q)
	nSquared := arith.ModulusFromFactors(
		new(saferith.Nat).Mul(P, P, -1),
		new(saferith.Nat).Mul(Q, Q, -1))

	phi := new(saferith.Nat).Mul(
		new(saferith.Nat).Sub(P, one, -1),
		new(saferith.Nat).Sub(Q, one, -1), -1)

	return &SecretKey{
		PublicKey: newPublicKey(n, nSquared),
		p:         P,
		q:         Q,
		phi:       phi,
		phiInv:    new(saferith.Nat).ModInverse(phi, n.Modulus),
	}
}

// Dec returns the plaintext of ct in the symmetric range ±(N-1)/2.
//
//	m = L(c^ϕ mod N²)⋅ϕ⁻¹ mod N, where L(u) = (u-1)/N
func (sk *SecretKey) Dec(ct *Ciphertext) (*saferith.Int, error) {
	if !sk.ValidateCiphertexts(ct) {
		return nil, ErrInvalidCiphertext
	}
	n := sk.n.Modulus
	u := sk.nSquared.Exp(ct.c, sk.phi)
	u.Sub(u, new(saferith.Nat).SetUint64(1), -1)
	u.Div(u, n, -1)
	u.ModMul(u, sk.phiInv, n)
	return new(saferith.Int).SetModSymmetric(u, n), nil
}

// DecWithRandomness returns the plaintext m of ct and the nonce ρ such that ct = (N+1)ᵐ⋅ρᴺ.
func (sk *SecretKey) DecWithRandomness(ct *Ciphertext) (*saferith.Int, *saferith.Nat, error) {
	m, err := sk.Dec(ct)
	if err != nil {
		return nil, nil, err
	}
	// ρᴺ = c⋅(N+1)⁻ᵐ mod N
	rhoN := sk.n.ExpI(sk.nPlusOne, new(saferith.Int).SetInt(m).Neg(1))
	rhoN.ModMul(rhoN, ct.c, sk.n.Modulus)

	nInv := new(saferith.Nat).ModInverse(sk.nNat, saferith.ModulusFromNat(sk.phi))
	return m, sk.n.Exp(rhoN, nInv), nil
}

// GeneratePedersen samples ring-Pedersen parameters over N.
// The returned secret holds λ with s = tˡ, and ϕ(N).
func (sk SecretKey) GeneratePedersen(rand io.Reader) (*pedersen.Parameters, *pedersen.Secret) {
	s, t, lambda := sample.Pedersen(rand, sk.phi, sk.n.Modulus)
	return pedersen.New(sk.n, s, t), &pedersen.Secret{Lambda: lambda, Phi: sk.phi}
}

// ValidatePrime returns an error unless p has params.BitsBlumPrime bits,
// p = 3 mod 4, and (p-1)/2 is prime.
func ValidatePrime(p *saferith.Nat) error {
	if p == nil {
		return ErrPrimeNil
	}
	if bits := p.TrueLen(); bits != params.BitsBlumPrime {
		return fmt.Errorf("%w: have %d, need %d", ErrPrimeBadLength, bits, params.BitsBlumPrime)
	}
	if p.Byte(0)&3 != 3 {
		return ErrNotBlum
	}
	half := new(saferith.Nat).Rsh(p, 1, -1)
	if !half.Big().ProbablyPrime(1) {
		return ErrNotSafePrime
	}
	return nil
}

type secretKeyMarshal struct {
	P, Q []byte
}

// MarshalBinary encodes p and q. Everything else is recomputed on decoding.
func (sk *SecretKey) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(&secretKeyMarshal{P: sk.p.Bytes(), Q: sk.q.Bytes()})
}

func (sk *SecretKey) UnmarshalBinary(data []byte) error {
	var m secretKeyMarshal
	if err := cbor.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("paillier: %w", err)
	}
	if len(m.P) == 0 || len(m.Q) == 0 {
		return ErrPrimeNil
	}
	*sk = *NewSecretKeyFromPrimes(new(saferith.Nat).SetBytes(m.P), new(saferith.Nat).SetBytes(m.Q))
	return nil
}
