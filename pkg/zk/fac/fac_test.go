package zkfac

import (
	"crypto/rand"
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/internal/params"
	"github.com/mpcwallet/hdtss/internal/test"
	"github.com/mpcwallet/hdtss/pkg/pedersen"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupProof(t *testing.T) (*pedersen.Parameters, *pedersen.Secret, Statement, *Proof) {
	t.Helper()
	prover := test.PaillierSecretKey(0)
	verifier := test.PaillierSecretKey(1)
	setup, secret := verifier.GeneratePedersen(rand.Reader)

	statement := Statement{
		N0:      prover.N(),
		L:       params.L,
		Epsilon: params.Epsilon,
	}
	proof, err := Prove(rand.Reader, setup, statement, Witness{P: prover.P(), Q: prover.Q()})
	require.NoError(t, err)
	return setup, secret, statement, proof
}

func clone(p *Proof) *Proof {
	return &Proof{
		P:     new(saferith.Nat).SetNat(p.P),
		Q:     new(saferith.Nat).SetNat(p.Q),
		A:     new(saferith.Nat).SetNat(p.A),
		B:     new(saferith.Nat).SetNat(p.B),
		T:     new(saferith.Nat).SetNat(p.T),
		Sigma: p.Sigma.Clone(),
		Z1:    p.Z1.Clone(),
		Z2:    p.Z2.Clone(),
		W1:    p.W1.Clone(),
		W2:    p.W2.Clone(),
		V:     p.V.Clone(),
	}
}

func TestFac(t *testing.T) {
	setup, _, statement, proof := setupProof(t)
	assert.True(t, proof.Verify(setup, statement))
	assert.True(t, Verify(proof, setup, statement))

	data, err := cbor.Marshal(proof)
	require.NoError(t, err)
	decoded := &Proof{}
	require.NoError(t, cbor.Unmarshal(data, decoded))
	assert.True(t, decoded.Verify(setup, statement), "decoded proof should verify")

	other := statement
	other.N0 = test.PaillierSecretKey(2).N()
	assert.False(t, proof.Verify(setup, other), "proof should be bound to N0")

	otherSetup, _ := test.PaillierSecretKey(3).GeneratePedersen(rand.Reader)
	assert.False(t, proof.Verify(otherSetup, statement), "proof should be bound to the setup")
}

func TestFac_Mutations(t *testing.T) {
	setup, _, statement, proof := setupProof(t)
	one := new(saferith.Int).SetUint64(1)
	n := setup.N()

	natFields := map[string]func(*Proof) **saferith.Nat{
		"P": func(p *Proof) **saferith.Nat { return &p.P },
		"Q": func(p *Proof) **saferith.Nat { return &p.Q },
		"A": func(p *Proof) **saferith.Nat { return &p.A },
		"B": func(p *Proof) **saferith.Nat { return &p.B },
		"T": func(p *Proof) **saferith.Nat { return &p.T },
	}
	for name, field := range natFields {
		t.Run(name, func(t *testing.T) {
			mutated := clone(proof)
			x := field(mutated)
			*x = new(saferith.Nat).ModMul(*x, setup.S(), n)
			assert.False(t, mutated.Verify(setup, statement))

			*field(mutated) = nil
			assert.False(t, mutated.Verify(setup, statement), "nil field should be rejected")
		})
	}

	intFields := map[string]func(*Proof) **saferith.Int{
		"Sigma": func(p *Proof) **saferith.Int { return &p.Sigma },
		"Z1":    func(p *Proof) **saferith.Int { return &p.Z1 },
		"Z2":    func(p *Proof) **saferith.Int { return &p.Z2 },
		"W1":    func(p *Proof) **saferith.Int { return &p.W1 },
		"W2":    func(p *Proof) **saferith.Int { return &p.W2 },
		"V":     func(p *Proof) **saferith.Int { return &p.V },
	}
	for name, field := range intFields {
		t.Run(name, func(t *testing.T) {
			mutated := clone(proof)
			x := field(mutated)
			*x = new(saferith.Int).Add(*x, one, -1)
			assert.False(t, mutated.Verify(setup, statement))

			*field(mutated) = nil
			assert.False(t, mutated.Verify(setup, statement), "nil field should be rejected")
		})
	}

	assert.False(t, (*Proof)(nil).Verify(setup, statement))
	assert.False(t, proof.Verify(nil, statement))
	assert.False(t, proof.Verify(setup, Statement{}))
}

func TestFac_RangeCheck(t *testing.T) {
	setup, secret, statement, proof := setupProof(t)

	// s and t have order dividing ϕ(Ñ), so shifting z₁ by ϕ(Ñ) keeps every equation intact.
	phi := new(saferith.Int).SetNat(secret.Phi)
	mutated := clone(proof)
	mutated.Z1 = new(saferith.Int).Add(mutated.Z1, phi, -1)

	assert.True(t, mutated.verifyEquations(setup, statement), "equations should still hold")
	assert.False(t, mutated.Verify(setup, statement), "z₁ out of range should be rejected")

	mutated = clone(proof)
	mutated.Z2 = new(saferith.Int).Add(mutated.Z2, phi, -1)
	assert.True(t, mutated.verifyEquations(setup, statement), "equations should still hold")
	assert.False(t, mutated.Verify(setup, statement), "z₂ out of range should be rejected")
}

func TestProve_NilArguments(t *testing.T) {
	setup, _ := test.PaillierSecretKey(1).GeneratePedersen(rand.Reader)
	prover := test.PaillierSecretKey(0)
	statement := Statement{N0: prover.N(), L: params.L, Epsilon: params.Epsilon}

	_, err := Prove(rand.Reader, nil, statement, Witness{P: prover.P(), Q: prover.Q()})
	assert.Error(t, err)
	_, err = Prove(rand.Reader, setup, statement, Witness{P: prover.P()})
	assert.Error(t, err)
	_, err = Prove(rand.Reader, setup, Statement{}, Witness{P: prover.P(), Q: prover.Q()})
	assert.Error(t, err)
}
