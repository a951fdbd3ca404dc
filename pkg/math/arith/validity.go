package arith

import (
	"github.com/cronokirby/saferith"
)

// IsValidNatModN checks that ints are all in the range [1,…,N-1] and are coprime to N.
func IsValidNatModN(N *saferith.Modulus, ints ...*saferith.Nat) bool {
	for _, i := range ints {
		if i == nil {
			return false
		}
		if i.EqZero() == 1 {
			return false
		}
		if _, _, lt := i.CmpMod(N); lt != 1 {
			return false
		}
		if i.IsUnit(N) != 1 {
			return false
		}
	}
	return true
}
