package curve

import (
	"testing"

	"github.com/cronokirby/saferith"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromName(t *testing.T) {
	group, err := FromName(Secp256k1{}.Name())
	require.NoError(t, err)
	assert.Equal(t, Secp256k1{}, group)
	_, err = FromName("ed25519")
	assert.Error(t, err)
}

func TestBasePoint(t *testing.T) {
	group := Secp256k1{}
	one := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(1))
	assert.True(t, one.ActOnBase().Equal(group.NewBasePoint()))

	data, err := group.NewBasePoint().MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, byte(2), data[0])
	assert.Equal(t, byte(0x79), data[1])
}

func TestPointArithmetic(t *testing.T) {
	group := Secp256k1{}
	g := group.NewBasePoint()
	two := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(2))
	assert.True(t, g.Add(g).Equal(two.ActOnBase()))
	assert.True(t, g.Sub(g).IsIdentity())
	assert.True(t, g.Add(g.Negate()).IsIdentity())
	assert.True(t, group.NewPoint().Add(g).Equal(g))
	assert.True(t, two.Act(g).Equal(two.ActOnBase()))
}

func TestIdentityMarshal(t *testing.T) {
	group := Secp256k1{}
	data, err := group.NewPoint().MarshalBinary()
	require.NoError(t, err)
	p := group.NewPoint()
	require.NoError(t, p.UnmarshalBinary(data))
	assert.True(t, p.IsIdentity())

	data[5] = 1
	assert.Error(t, p.UnmarshalBinary(data))
}

func TestScalarArithmetic(t *testing.T) {
	group := Secp256k1{}
	a := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(7))
	b := group.NewScalar().SetNat(new(saferith.Nat).SetUint64(5))
	c := group.NewScalar().Set(a).Sub(b)
	assert.True(t, c.Equal(group.NewScalar().SetNat(new(saferith.Nat).SetUint64(2))))

	inv := group.NewScalar().Set(a).Invert()
	assert.True(t, inv.Mul(a).Equal(group.NewScalar().SetNat(new(saferith.Nat).SetUint64(1))))

	// q ≡ 0
	q := group.NewScalar().SetNat(group.Order().Nat())
	assert.True(t, q.IsZero())

	neg := group.NewScalar().Set(a).Negate()
	assert.True(t, neg.Add(a).IsZero())
}

func TestScalarUnmarshalRejectsOverflow(t *testing.T) {
	s := Secp256k1{}.NewScalar()
	assert.Error(t, s.UnmarshalBinary(Secp256k1{}.Order().Bytes()))
	assert.Error(t, s.UnmarshalBinary([]byte{1, 2, 3}))
}
