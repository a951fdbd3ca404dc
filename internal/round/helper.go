package round

import (
	"errors"
	"fmt"
	"sync"

	"github.com/mpcwallet/hdtss/internal/types"
	"github.com/mpcwallet/hdtss/pkg/hash"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/pool"
)

// Helper implements the Session methods which do not depend on the round.
// It is embedded in every round of a protocol.
type Helper struct {
	info Info

	pool *pool.Pool

	// partyIDs is a sorted slice of Info.PartyIDs.
	partyIDs party.IDSlice
	// otherPartyIDs is the same as partyIDs without selfID
	otherPartyIDs party.IDSlice

	ssid []byte

	// mtx guards hash, since expensive rounds may hash concurrently
	mtx  sync.Mutex
	hash *hash.Hash
}

// NewSession creates a new *Helper which can be embedded in the first Round,
// so that the full struct implements Session.
//
// sessionID is optional. When given, it must be unique for each execution of the protocol
// and agreed upon by all parties, like a counter or a common random string.
// auxInfo lists additional values bound to the session's hash state.
func NewSession(info Info, sessionID []byte, pl *pool.Pool, auxInfo ...hash.WriterToWithDomain) (*Helper, error) {
	partyIDs := party.NewIDSlice(info.PartyIDs)
	if err := info.validate(partyIDs); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	h, err := sessionHash(info, partyIDs, sessionID, auxInfo)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}

	return &Helper{
		info:          info,
		pool:          pl,
		partyIDs:      partyIDs,
		otherPartyIDs: partyIDs.Remove(info.SelfID),
		ssid:          h.Clone().Sum(),
		hash:          h,
	}, nil
}

func (info Info) validate(partyIDs party.IDSlice) error {
	n := len(partyIDs)
	switch {
	case n > party.MAX:
		return fmt.Errorf("too many parties (%d)", n)
	case !partyIDs.Valid():
		return errors.New("partyIDs invalid")
	case !partyIDs.Contains(info.SelfID):
		return errors.New("selfID not included in partyIDs")
	case info.Threshold < 0 || info.Threshold > n-1:
		return fmt.Errorf("threshold %d is invalid for number of parties %d", info.Threshold, n)
	case info.Group == nil:
		return errors.New("no group given")
	}
	return nil
}

// sessionHash binds the hash state to everything the parties must agree on before the first round.
// The SSID is the digest of this state.
func sessionHash(info Info, partyIDs party.IDSlice, sessionID []byte, auxInfo []hash.WriterToWithDomain) (*hash.Hash, error) {
	items := make([]hash.WriterToWithDomain, 0, 5+len(auxInfo))
	if sessionID != nil {
		items = append(items, &hash.BytesWithDomain{TheDomain: "Session ID", Bytes: sessionID})
	}
	items = append(items,
		&hash.BytesWithDomain{TheDomain: "Protocol ID", Bytes: []byte(info.ProtocolID)},
		&hash.BytesWithDomain{TheDomain: "Group Name", Bytes: []byte(info.Group.Name())},
		partyIDs,
		types.Threshold(info.Threshold),
	)
	items = append(items, auxInfo...)

	h := hash.New()
	for _, item := range items {
		if item == nil {
			continue
		}
		if err := h.WriteAny(item); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// HashForID returns a copy of the session hash extended with id, or a plain copy for id 0.
// Proofs by a party are bound to this state.
func (h *Helper) HashForID(id party.ID) *hash.Hash {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	cloned := h.hash.Clone()
	if id != 0 {
		_ = cloned.WriteAny(id)
	}

	return cloned
}

// BroadcastMessage sends content to all other parties.
// ErrOutChanFull is returned if out cannot take the message.
func (h *Helper) BroadcastMessage(out chan<- *Message, broadcastContent Content) error {
	return send(out, &Message{
		From:      h.info.SelfID,
		Broadcast: true,
		Content:   broadcastContent,
	})
}

// SendMessage sends content to the party to.
// out is expected to be buffered with room for all messages of the round,
// ErrOutChanFull is returned otherwise.
func (h *Helper) SendMessage(out chan<- *Message, content Content, to party.ID) error {
	return send(out, &Message{
		From:    h.info.SelfID,
		To:      to,
		Content: content,
	})
}

func send(out chan<- *Message, msg *Message) error {
	select {
	case out <- msg:
		return nil
	default:
		return ErrOutChanFull
	}
}

func (h *Helper) Hash() *hash.Hash {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return h.hash.Clone()
}

// ResultRound returns the Output round holding result, which ends the protocol.
func (h *Helper) ResultRound(result interface{}) Session {
	return &Output{
		Helper: h,
		Result: result,
	}
}

// AbortRound returns the Abort round for err, blaming culprits.
// Finalize should return it with a nil error.
func (h *Helper) AbortRound(err error, culprits ...party.ID) Session {
	return &Abort{
		Helper:   h,
		Culprits: culprits,
		Err:      err,
	}
}

func (h *Helper) ProtocolID() string           { return h.info.ProtocolID }
func (h *Helper) FinalRoundNumber() Number     { return h.info.FinalRoundNumber }
func (h *Helper) SSID() []byte                 { return h.ssid }
func (h *Helper) SelfID() party.ID             { return h.info.SelfID }
func (h *Helper) PartyIDs() party.IDSlice      { return h.partyIDs }
func (h *Helper) OtherPartyIDs() party.IDSlice { return h.otherPartyIDs }
func (h *Helper) Threshold() int               { return h.info.Threshold }
func (h *Helper) N() int                       { return len(h.partyIDs) }
func (h *Helper) Group() curve.Curve           { return h.info.Group }
func (h *Helper) Pool() *pool.Pool             { return h.pool }

func (h *Helper) Kind(n Number) Kind {
	if n == 0 || int(n) >= len(h.info.Kinds) {
		return KindNone
	}
	return h.info.Kinds[n]
}
