package round_test

import (
	"testing"

	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSession(t *testing.T) {
	const n, threshold = 26, 20
	base := func() round.Info {
		return round.Info{
			ProtocolID:       "test/session",
			FinalRoundNumber: 5,
			SelfID:           1,
			PartyIDs:         party.Indices(n),
			Threshold:        threshold,
			Group:            curve.Secp256k1{},
		}
	}
	invalid := map[string]func(*round.Info){
		"negative threshold":   func(i *round.Info) { i.Threshold = -1 },
		"threshold n":          func(i *round.Info) { i.Threshold = n },
		"too few parties":      func(i *round.Info) { i.PartyIDs = i.PartyIDs[:threshold] },
		"self is zero":         func(i *round.Info) { i.SelfID = 0 },
		"self not a party":     func(i *round.Info) { i.SelfID = n + 1 },
		"self listed twice":    func(i *round.Info) { i.PartyIDs = append(i.PartyIDs, 1) },
		"parties listed twice": func(i *round.Info) { i.PartyIDs = append(i.PartyIDs, party.Indices(n)...) },
		"zero party":           func(i *round.Info) { i.PartyIDs = append(i.PartyIDs, 0) },
		"no group":             func(i *round.Info) { i.Group = nil },
	}
	for name, mutate := range invalid {
		t.Run(name, func(t *testing.T) {
			info := base()
			mutate(&info)
			_, err := round.NewSession(info, nil, nil)
			assert.Error(t, err)
		})
	}

	info := base()
	info.PartyIDs = []party.ID{7, 1, 3}
	info.Threshold = 2
	h, err := round.NewSession(info, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, party.IDSlice{1, 3, 7}, h.PartyIDs(), "parties are sorted")
	assert.Equal(t, 3, h.N())
}

func TestSessionID(t *testing.T) {
	info := round.Info{
		ProtocolID:       "TEST",
		FinalRoundNumber: 2,
		SelfID:           1,
		PartyIDs:         party.Indices(3),
		Threshold:        1,
		Group:            curve.Secp256k1{},
	}
	h1, err := round.NewSession(info, []byte("a"), nil)
	require.NoError(t, err)
	info.SelfID = 2
	h2, err := round.NewSession(info, []byte("a"), nil)
	require.NoError(t, err)
	h3, err := round.NewSession(info, []byte("b"), nil)
	require.NoError(t, err)

	assert.Equal(t, h1.SSID(), h2.SSID(), "all parties must share the SSID")
	assert.NotEqual(t, h1.SSID(), h3.SSID())
	assert.Equal(t, party.IDSlice{1, 3}, h2.OtherPartyIDs())
	assert.Equal(t, h1.HashForID(2).Sum(), h2.HashForID(2).Sum())
	assert.NotEqual(t, h1.HashForID(1).Sum(), h1.HashForID(2).Sum())
}

func TestHelperMessages(t *testing.T) {
	info := round.Info{
		ProtocolID:       "TEST",
		FinalRoundNumber: 2,
		SelfID:           1,
		PartyIDs:         party.Indices(2),
		Threshold:        1,
		Group:            curve.Secp256k1{},
	}
	h, err := round.NewSession(info, nil, nil)
	require.NoError(t, err)

	out := make(chan *round.Message, 1)
	require.NoError(t, h.SendMessage(out, nil, 2))
	assert.ErrorIs(t, h.BroadcastMessage(out, nil), round.ErrOutChanFull)
	msg := <-out
	assert.Equal(t, party.ID(2), msg.To)
	assert.False(t, msg.Broadcast)

	result := h.ResultRound(42)
	assert.Equal(t, round.Number(0), result.Number())
	assert.Equal(t, 42, result.(*round.Output).Result)
}
