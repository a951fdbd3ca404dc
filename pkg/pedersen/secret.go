package pedersen

import (
	"fmt"

	"github.com/cronokirby/saferith"
	"github.com/fxamacker/cbor/v2"
)

// Secret is the trapdoor of a Pedersen setup, kept by the party who generated it.
// Lambda is the discrete log of s in base t, and Phi = ϕ(N).
type Secret struct {
	Lambda *saferith.Nat
	Phi    *saferith.Nat
}

type secretMarshal struct {
	Lambda, Phi []byte
}

// MarshalBinary implements encoding.BinaryMarshaler.
func (s *Secret) MarshalBinary() ([]byte, error) {
	return cbor.Marshal(&secretMarshal{Lambda: s.Lambda.Bytes(), Phi: s.Phi.Bytes()})
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler.
func (s *Secret) UnmarshalBinary(data []byte) error {
	var m secretMarshal
	if err := cbor.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("pedersen: %w", err)
	}
	s.Lambda = new(saferith.Nat).SetBytes(m.Lambda)
	s.Phi = new(saferith.Nat).SetBytes(m.Phi)
	return nil
}
