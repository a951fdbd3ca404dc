package keygen

import (
	"errors"
	"fmt"

	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/paillier"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/pool"
	"github.com/mpcwallet/hdtss/pkg/protocol"
	"github.com/mpcwallet/hdtss/protocols/gg20/config"
)

// ProtocolID identifies messages of the key generation.
const ProtocolID = "gg20/keygen"

const protocolRounds round.Number = 5

// kinds lists the messages consumed by each round.
var kinds = []round.Kind{
	round.KindNone,      // output
	round.KindNone,      // round1
	round.KindBroadcast, // round2 <- broadcast2
	round.KindBroadcast, // round3 <- broadcast3
	round.KindP2P,       // round4 <- message4
	round.KindBroadcast, // round5 <- broadcast5
}

// ErrConfig is returned when the protocol cannot start because of its parameters.
var ErrConfig = errors.New("keygen: invalid configuration")

type options struct {
	paillier *paillier.SecretKey
}

// Option modifies the key generation.
type Option func(*options)

// WithPaillierKey uses sk instead of generating a fresh Paillier key in the first round.
// Generating safe primes takes seconds, so keys may be prepared ahead of time.
// A key must never be used for more than one key generation.
func WithPaillierKey(sk *paillier.SecretKey) Option {
	return func(o *options) {
		o.paillier = sk
	}
}

// Start returns a protocol.StartFunc running the key generation for selfID among participants.
// Any threshold+1 of the participants will be able to sign with the resulting key.
//
// The returned function fails with ErrConfig if the parameters are invalid, before any round is run.
func Start(selfID party.ID, participants []party.ID, threshold int, pl *pool.Pool, opts ...Option) protocol.StartFunc {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	return func(sessionID []byte) (round.Session, error) {
		partyIDs, err := validate(selfID, participants, threshold)
		if err != nil {
			return nil, err
		}
		if o.paillier != nil {
			if err = paillier.ValidateN(o.paillier.N()); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrConfig, err)
			}
		}

		info := round.Info{
			ProtocolID:       ProtocolID,
			FinalRoundNumber: protocolRounds,
			SelfID:           selfID,
			PartyIDs:         partyIDs,
			Threshold:        threshold,
			Group:            curve.Secp256k1{},
			Kinds:            kinds,
		}
		helper, err := round.NewSession(info, sessionID, pl)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrConfig, err)
		}
		return &round1{
			Helper:   helper,
			paillier: o.paillier,
		}, nil
	}
}

func validate(selfID party.ID, participants []party.ID, threshold int) (party.IDSlice, error) {
	params := config.ThresholdParams{Threshold: threshold, ShareCount: len(participants)}
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfig, err)
	}
	partyIDs := party.NewIDSlice(participants)
	if !partyIDs.Valid() {
		return nil, fmt.Errorf("%w: participants must be unique and non-zero", ErrConfig)
	}
	if !partyIDs.Contains(selfID) {
		return nil, fmt.Errorf("%w: party %s is not a participant", ErrConfig, selfID)
	}
	return partyIDs, nil
}
