package keygen

import (
	"errors"
	"sync"
	"testing"

	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/mpcwallet/hdtss/internal/test"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/math/polynomial"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/pool"
	"github.com/mpcwallet/hdtss/pkg/protocol"
	"github.com/mpcwallet/hdtss/protocols/gg20/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionID = []byte("keygen test session")

func startFuncs(partyIDs party.IDSlice, threshold int, pl *pool.Pool) map[party.ID]protocol.StartFunc {
	starts := make(map[party.ID]protocol.StartFunc, len(partyIDs))
	for i, id := range partyIDs {
		starts[id] = Start(id, partyIDs, threshold, pl, WithPaillierKey(test.PaillierSecretKey(i)))
	}
	return starts
}

// subsets returns all subsets of ids of the given size.
func subsets(ids party.IDSlice, size int) []party.IDSlice {
	if size == 0 {
		return []party.IDSlice{{}}
	}
	if len(ids) < size {
		return nil
	}
	var result []party.IDSlice
	for _, rest := range subsets(ids[1:], size-1) {
		result = append(result, append(party.IDSlice{ids[0]}, rest...))
	}
	return append(result, subsets(ids[1:], size)...)
}

func checkOutput(t *testing.T, partyIDs party.IDSlice, threshold int, results map[party.ID]interface{}) {
	t.Helper()
	group := curve.Secp256k1{}

	shares := make(map[party.ID]*config.LocalKeyShare, len(results))
	for id, result := range results {
		require.IsType(t, &config.LocalKeyShare{}, result)
		share := result.(*config.LocalKeyShare)
		require.NoError(t, share.Validate())
		assert.Equal(t, id, share.ID)
		assert.Equal(t, threshold, share.Threshold)
		assert.Equal(t, partyIDs, share.PartyIDs())
		shares[id] = share
	}

	first := shares[partyIDs[0]]
	for _, share := range shares {
		assert.True(t, first.PublicKey.Equal(share.PublicKey), "public keys differ")
		assert.True(t, first.VSS.Equal(share.VSS), "VSS polynomials differ")
		for _, j := range partyIDs {
			assert.True(t, first.Public[j].ECDSA.Equal(share.Public[j].ECDSA), "public shares differ")
			assert.True(t, first.Public[j].Paillier.Equal(share.Public[j].Paillier), "Paillier keys differ")
		}
	}

	// every quorum of t+1 parties interpolates the same secret
	var secret curve.Scalar
	for _, quorum := range subsets(partyIDs, threshold+1) {
		x := test.Reconstruct(group, shares, quorum)
		require.True(t, x.ActOnBase().Equal(first.PublicKey), "quorum %v does not reconstruct the key", quorum)
		if secret == nil {
			secret = x
		}
		assert.True(t, secret.Equal(x))

		// the public shares interpolate to the public key
		l := polynomial.Lagrange(group, quorum)
		sum := group.NewPoint()
		for _, j := range quorum {
			sum = sum.Add(l[j].Act(first.Public[j].ECDSA))
		}
		assert.True(t, sum.Equal(first.PublicKey))
	}
}

func TestKeygen(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	for _, tc := range []struct {
		name         string
		threshold, n int
	}{
		{"1-of-2", 1, 2},
		{"1-of-3", 1, 3},
		{"2-of-3", 2, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			partyIDs := party.Indices(tc.n)
			machines := make(map[party.ID]*protocol.StateMachine, tc.n)
			for id, start := range startFuncs(partyIDs, tc.threshold, pl) {
				sm, err := protocol.NewStateMachine(start, sessionID,
					protocol.WithLogger(zerolog.New(zerolog.NewTestWriter(t)).Level(zerolog.InfoLevel)))
				require.NoError(t, err)
				assert.Equal(t, round.Number(5), sm.TotalRounds())
				machines[id] = sm
			}

			results, err := test.RunEngines(machines)
			require.NoError(t, err)
			checkOutput(t, partyIDs, tc.threshold, results)
		})
	}
}

func TestKeygen_Handler(t *testing.T) {
	pl := pool.NewPool(0)
	defer pl.TearDown()

	partyIDs := party.IDSlice{3, 7}
	network := test.NewNetwork(partyIDs)
	starts := startFuncs(partyIDs, 1, pl)

	var (
		wg      sync.WaitGroup
		mtx     sync.Mutex
		results = make(map[party.ID]interface{}, len(partyIDs))
	)
	for _, id := range partyIDs {
		wg.Add(1)
		go func(id party.ID) {
			defer wg.Done()
			h, err := protocol.NewHandler(starts[id], sessionID)
			if !assert.NoError(t, err) {
				network.Done(id)
				return
			}
			test.HandlerLoop(id, h, network)
			result, err := h.Result()
			if assert.NoError(t, err) {
				mtx.Lock()
				results[id] = result
				mtx.Unlock()
			}
		}(id)
	}
	wg.Wait()

	require.Len(t, results, len(partyIDs))
	checkOutput(t, partyIDs, 1, results)
}

func TestStart_Config(t *testing.T) {
	tests := []struct {
		name         string
		selfID       party.ID
		participants []party.ID
		threshold    int
	}{
		{"single party", 1, []party.ID{1}, 0},
		{"zero threshold", 1, []party.ID{1, 2}, 0},
		{"threshold too large", 1, []party.ID{1, 2}, 2},
		{"self not included", 3, []party.ID{1, 2}, 1},
		{"duplicate party", 1, []party.ID{1, 1, 2}, 1},
		{"zero party", 1, []party.ID{0, 1, 2}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Start(tt.selfID, tt.participants, tt.threshold, nil)(sessionID)
			assert.ErrorIs(t, err, ErrConfig)

			_, err = protocol.NewStateMachine(Start(tt.selfID, tt.participants, tt.threshold, nil), sessionID)
			assert.ErrorIs(t, err, ErrConfig)
		})
	}

	r, err := Start(2, []party.ID{1, 2, 3}, 2, nil)(sessionID)
	require.NoError(t, err)
	assert.Equal(t, round.Number(1), r.Number())
	assert.True(t, r.Expensive())
	assert.Equal(t, ProtocolID, r.ProtocolID())
}

// corruptShare makes party 1 send an inconsistent share to party 2.
type corruptShare struct{}

func (corruptShare) ModifyBefore(round.Session) {}
func (corruptShare) ModifyAfter(round.Session)  {}
func (corruptShare) ModifyContent(rNext round.Session, to party.ID, content round.Content) {
	r, ok := rNext.(*round4)
	if !ok || r.SelfID() != 1 || to != 2 {
		return
	}
	body := content.(*message4)
	wrong, _ := r.paillierPublic[to].Enc(curve.MakeInt(r.Group().NewScalar()))
	body.Share = wrong
}

func TestKeygen_CorruptShare(t *testing.T) {
	partyIDs := party.Indices(3)
	rounds := make([]round.Session, 0, len(partyIDs))
	for _, id := range partyIDs {
		r, err := startFuncs(partyIDs, 1, nil)[id](sessionID)
		require.NoError(t, err)
		rounds = append(rounds, r)
	}

	var err error
	for done := false; !done && err == nil; {
		done, err = test.Rounds(rounds, corruptShare{})
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "share does not match VSS polynomial")
}

func TestKeygen_Rounds(t *testing.T) {
	partyIDs := party.Indices(2)
	rounds := make([]round.Session, 0, len(partyIDs))
	for _, id := range partyIDs {
		r, err := startFuncs(partyIDs, 1, nil)[id](sessionID)
		require.NoError(t, err)
		rounds = append(rounds, r)
	}

	for {
		done, err := test.Rounds(rounds, nil)
		require.NoError(t, err)
		if done {
			break
		}
	}

	results := make(map[party.ID]interface{}, len(rounds))
	for _, r := range rounds {
		require.IsType(t, &round.Output{}, r)
		results[r.SelfID()] = r.(*round.Output).Result
	}
	checkOutput(t, partyIDs, 1, results)
}

// nullField re-encodes a cbor struct with field set to null.
func nullField(t *testing.T, data []byte, field string) []byte {
	t.Helper()
	var fields map[string]interface{}
	require.NoError(t, cbor.Unmarshal(data, &fields))
	require.Contains(t, fields, field)
	fields[field] = nil
	out, err := cbor.Marshal(fields)
	require.NoError(t, err)
	return out
}

func TestKeygen_NullField(t *testing.T) {
	for _, tc := range []struct {
		number round.Number
		field  string
	}{
		{3, "PublicContribution"},
		{5, "PublicShare"},
		{5, "Schnorr"},
	} {
		t.Run(tc.field, func(t *testing.T) {
			partyIDs := party.Indices(2)
			machines := make(map[party.ID]*protocol.StateMachine, len(partyIDs))
			for id, start := range startFuncs(partyIDs, 1, nil) {
				sm, err := protocol.NewStateMachine(start, sessionID)
				require.NoError(t, err)
				machines[id] = sm
			}

			// party 2 sends a null field, party 1 must abort and blame it
			var abort error
			require.NotPanics(t, func() {
				for progress := true; progress && abort == nil; {
					progress = false
					for _, id := range partyIDs {
						if err := machines[id].Proceed(true); err != nil {
							abort = err
							require.Equal(t, party.ID(1), id)
							break
						}
						for _, msg := range machines[id].Outgoing() {
							progress = true
							if msg.From == 2 && msg.RoundNumber == tc.number {
								msg.Data = nullField(t, msg.Data, tc.field)
							}
							for _, other := range partyIDs {
								if msg.IsFor(other) {
									require.NoError(t, machines[other].HandleIncoming(msg))
								}
							}
						}
					}
				}
			})

			require.Error(t, abort)
			assert.True(t, protocol.Critical(abort))
			var protocolErr *protocol.Error
			require.True(t, errors.As(abort, &protocolErr))
			assert.Equal(t, tc.number, protocolErr.RoundNumber)
			assert.Equal(t, []party.ID{2}, protocolErr.Culprits)
			assert.Error(t, machines[1].Err())
			assert.False(t, machines[1].IsFinished())
		})
	}
}
