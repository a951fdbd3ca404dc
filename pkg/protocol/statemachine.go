package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/rs/zerolog"
)

// StartFunc is function that creates the first round of a protocol.
// The sessionID is an optional identifier which must be the same for all parties.
// If the creation fails (likely due to misconfiguration), and error is returned.
type StartFunc func(sessionID []byte) (round.Session, error)

// StateMachine drives a round based protocol for a single party.
//
// It is cooperative and single threaded: messages are pushed in with HandleIncoming,
// the caller decides when to run Proceed, and outgoing messages are pulled with Outgoing.
// None of its methods perform I/O. Handler wraps it for concurrent use.
type StateMachine struct {
	// current is nil while a round is being finalized, and after a critical error.
	current round.Session

	ssid       []byte
	protocolID string
	selfID     party.ID
	partyIDs   party.IDSlice
	final      round.Number

	// active stores messages for current.Number(), next for the round after.
	// Peers can be at most one round ahead, so no other round is buffered.
	active, next *store
	// fed is set once the messages in active have been given to current.
	fed bool

	outgoing []*Message

	finished bool
	picked   bool
	result   interface{}
	err      error

	log     zerolog.Logger
	metrics *Metrics
}

// NewStateMachine creates the first round of the protocol with start.
// No round is finalized until Proceed is called.
func NewStateMachine(start StartFunc, sessionID []byte, opts ...Option) (*StateMachine, error) {
	r, err := start(sessionID)
	if err != nil {
		return nil, fmt.Errorf("protocol: failed to create round: %w", err)
	}
	o := newOptions(opts)
	sm := &StateMachine{
		current:    r,
		ssid:       r.SSID(),
		protocolID: r.ProtocolID(),
		selfID:     r.SelfID(),
		partyIDs:   r.PartyIDs(),
		final:      r.FinalRoundNumber(),
		active:     newStore(r.Number(), r.Kind(r.Number())),
		next:       newStore(r.Number()+1, r.Kind(r.Number()+1)),
		metrics:    o.metrics,
	}
	sm.log = o.log.With().
		Str("protocol", sm.protocolID).
		Stringer("party", sm.selfID).
		Logger()
	sm.log.Debug().Int("round", int(r.Number())).Msg("start")
	return sm, nil
}

// HandleIncoming checks the header of msg and stores it for the round it belongs to.
//
// ErrOutOfOrder is returned if msg is for neither the current nor the next round,
// and ErrMessageRejected if it fails validation. In both cases the state is unchanged.
func (sm *StateMachine) HandleIncoming(msg *Message) error {
	if sm.err != nil {
		return sm.err
	}
	err := sm.handleIncoming(msg)
	switch {
	case err == nil:
		sm.metrics.message(sm.protocolID, resultAccepted)
		sm.log.Debug().Stringer("from", msg.From).Int("round", int(msg.RoundNumber)).Msg("stored message")
	case errors.Is(err, ErrOutOfOrder):
		sm.metrics.message(sm.protocolID, resultOutOfOrder)
	default:
		sm.metrics.message(sm.protocolID, resultRejected)
	}
	return err
}

func (sm *StateMachine) handleIncoming(msg *Message) error {
	if msg == nil {
		return rejected("nil message")
	}
	if !bytes.Equal(msg.SSID, sm.ssid) {
		return rejected("wrong SSID")
	}
	if msg.Protocol != sm.protocolID {
		return rejected("wrong protocol %q", msg.Protocol)
	}
	if msg.From == sm.selfID {
		return rejected("message from self")
	}
	if !sm.partyIDs.Contains(msg.From) {
		return rejected("unknown sender %s", msg.From)
	}
	if msg.Broadcast && msg.To != 0 {
		return rejected("broadcast message addressed to %s", msg.To)
	}
	if !msg.Broadcast && msg.To != sm.selfID {
		return rejected("p2p message addressed to %s", msg.To)
	}

	s := sm.storeFor(msg.RoundNumber)
	if s == nil {
		return fmt.Errorf("%w: message for round %d", ErrOutOfOrder, msg.RoundNumber)
	}
	return s.add(msg)
}

func (sm *StateMachine) storeFor(number round.Number) *store {
	if sm.finished || number == 0 {
		return nil
	}
	if sm.active != nil && sm.active.number == number {
		return sm.active
	}
	if sm.next != nil && sm.next.number == number {
		return sm.next
	}
	return nil
}

// WantsToProceed returns true when every message required by the current round has been received.
func (sm *StateMachine) WantsToProceed() bool {
	if sm.err != nil || sm.finished || sm.current == nil {
		return false
	}
	return sm.active.satisfied(sm.partyIDs)
}

// Proceed finalizes the current round if all of its messages have arrived,
// and keeps going as long as the following rounds are also ready.
// Expensive rounds are only finalized when mayBlock is true.
//
// A critical error is returned as *Error and leaves the state machine failed.
// Other errors leave the current round in place, so that Proceed can be tried again.
func (sm *StateMachine) Proceed(mayBlock bool) error {
	if sm.err != nil {
		return sm.err
	}
	for sm.WantsToProceed() && (mayBlock || !sm.current.Expensive()) {
		if err := sm.proceedOnce(); err != nil {
			return err
		}
	}
	return nil
}

func (sm *StateMachine) proceedOnce() error {
	r := sm.current
	sm.current = nil
	number := r.Number()
	log := sm.log.With().Int("round", int(number)).Logger()

	if !sm.fed {
		if culprit, err := sm.feed(r); err != nil {
			return sm.fail(&Error{RoundNumber: number, Culprits: []party.ID{culprit}, Err: err})
		}
		sm.fed = true
	}

	start := time.Now()
	out := make(chan *round.Message, 2*len(sm.partyIDs))
	next, err := r.Finalize(out)
	close(out)
	sm.metrics.round(sm.protocolID, number, time.Since(start))

	if err != nil {
		if next != nil && next.Number() == number {
			// the round can be finalized again, drop what it sent so far
			sm.current = next
			log.Warn().Err(err).Msg("failed to finalize round")
			return err
		}
		return sm.fail(&Error{RoundNumber: number, Err: err})
	}
	if next == nil {
		return sm.fail(&Error{RoundNumber: number, Err: fmt.Errorf("%w: no round returned", ErrInternal)})
	}

	switch n := next.(type) {
	case *round.Abort:
		return sm.fail(&Error{RoundNumber: number, Culprits: n.Culprits, Err: n.Err})
	case *round.Output:
		sm.current = next
		sm.finished = true
		sm.result = n.Result
		sm.active, sm.next = nil, nil
		sm.metrics.finish(sm.protocolID)
		log.Info().Msg("finished")
		return nil
	}

	if next.Number() != number+1 {
		return sm.fail(&Error{RoundNumber: number, Err: fmt.Errorf("%w: round %d followed by %d", ErrInternal, number, next.Number())})
	}
	sm.current = next
	sm.active, sm.next = sm.next, newStore(next.Number()+1, next.Kind(next.Number()+1))
	sm.fed = false

	for msg := range out {
		if err = sm.send(msg); err != nil {
			return sm.fail(&Error{RoundNumber: number, Err: err})
		}
	}
	log.Debug().Int("next", int(next.Number())).Msg("round finalized")
	return nil
}

// feed gives the stored messages of the active round to r, in order of sender.
// It returns the sender of the first invalid message.
func (sm *StateMachine) feed(r round.Session) (party.ID, error) {
	if sm.active.kind.Broadcast() {
		br, ok := r.(round.BroadcastRound)
		if !ok {
			return 0, fmt.Errorf("%w: round %d cannot receive broadcast messages", ErrInternal, r.Number())
		}
		for _, id := range sm.partyIDs {
			msg := sm.active.broadcast[id]
			if id == sm.selfID || msg == nil {
				continue
			}
			content := br.BroadcastContent()
			if err := decodeContent(msg, content); err != nil {
				return id, err
			}
			if err := br.StoreBroadcastMessage(round.Message{
				From:      msg.From,
				Broadcast: true,
				Content:   content,
			}); err != nil {
				return id, err
			}
		}
	}
	if sm.active.kind.P2P() {
		for _, id := range sm.partyIDs {
			msg := sm.active.p2p[id]
			if id == sm.selfID || msg == nil {
				continue
			}
			content := r.MessageContent()
			if err := decodeContent(msg, content); err != nil {
				return id, err
			}
			roundMsg := round.Message{
				From:    msg.From,
				To:      msg.To,
				Content: content,
			}
			if err := r.VerifyMessage(roundMsg); err != nil {
				return id, err
			}
			if err := r.StoreMessage(roundMsg); err != nil {
				return id, err
			}
		}
	}
	return 0, nil
}

// decodeContent decodes msg.Data into content. A peer controls msg.Data entirely,
// so a panic in the decoder is reported as invalid content from that peer.
func decodeContent(msg *Message, content round.Content) (err error) {
	if content == nil {
		return round.ErrNilContent
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", round.ErrInvalidContent, r)
		}
	}()
	if err = cbor.Unmarshal(msg.Data, content); err != nil {
		return fmt.Errorf("%w: %v", round.ErrInvalidContent, err)
	}
	if content.RoundNumber() != msg.RoundNumber {
		return fmt.Errorf("%w: content for round %d in message for round %d",
			round.ErrInvalidContent, content.RoundNumber(), msg.RoundNumber)
	}
	return nil
}

// send encodes a message produced by a round and queues it.
// Our own broadcast counts towards the messages expected by the round that consumes it.
func (sm *StateMachine) send(msg *round.Message) error {
	data, err := cbor.Marshal(msg.Content)
	if err != nil {
		return fmt.Errorf("%w: failed to encode content: %v", ErrInternal, err)
	}
	m := &Message{
		SSID:        sm.ssid,
		From:        sm.selfID,
		To:          msg.To,
		Protocol:    sm.protocolID,
		RoundNumber: msg.Content.RoundNumber(),
		Broadcast:   msg.Broadcast,
		Data:        data,
	}
	if m.RoundNumber != sm.active.number {
		return fmt.Errorf("%w: round %d sent a message for round %d", ErrInternal, sm.active.number-1, m.RoundNumber)
	}
	if m.Broadcast {
		if err = sm.active.add(m); err != nil {
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}
	sm.outgoing = append(sm.outgoing, m)
	return nil
}

func (sm *StateMachine) fail(err *Error) error {
	sm.err = err
	sm.current = nil
	sm.active, sm.next = nil, nil
	sm.metrics.abort(sm.protocolID)
	sm.log.Error().Err(err.Err).Int("round", int(err.RoundNumber)).
		Interface("culprits", err.Culprits).Msg("protocol aborted")
	return err
}

// IsFinished returns true once the protocol has produced its output.
func (sm *StateMachine) IsFinished() bool {
	return sm.finished
}

// PickOutput returns the result of the protocol. It can only be called once.
func (sm *StateMachine) PickOutput() (interface{}, error) {
	if !sm.finished {
		if sm.err != nil {
			return nil, sm.err
		}
		return nil, ErrNotFinished
	}
	if sm.picked {
		return nil, ErrDoublePickOutput
	}
	sm.picked = true
	result := sm.result
	sm.result = nil
	return result, nil
}

// Err returns the critical error which stopped the protocol, if any.
func (sm *StateMachine) Err() error {
	return sm.err
}

// Outgoing returns the messages produced since the last call, and clears the queue.
func (sm *StateMachine) Outgoing() []*Message {
	out := sm.outgoing
	sm.outgoing = nil
	return out
}

// RoundBlame returns the parties whose messages for the current round are still missing.
func (sm *StateMachine) RoundBlame() (int, []party.ID) {
	if sm.active == nil {
		return 0, nil
	}
	missing := sm.active.missing(sm.partyIDs, sm.selfID)
	return len(missing), missing
}

// CurrentRound returns the number of the round waiting to be finalized. It is 0 once the protocol is over.
func (sm *StateMachine) CurrentRound() round.Number {
	if sm.current == nil {
		return 0
	}
	return sm.current.Number()
}

// TotalRounds returns the number of rounds before the output.
func (sm *StateMachine) TotalRounds() round.Number {
	return sm.final
}

// IsExpensive reports whether finalizing the current round involves heavy computation.
func (sm *StateMachine) IsExpensive() bool {
	return sm.current != nil && sm.current.Expensive()
}

// RoundTimeout returns the duration after which a round should be considered stalled.
// The state machine has no internal timeouts, so ok is always false.
func (sm *StateMachine) RoundTimeout() (timeout time.Duration, ok bool) {
	return 0, false
}

// SSID returns the session identifier all messages must carry.
func (sm *StateMachine) SSID() []byte {
	return sm.ssid
}

// SelfID returns the ID of the party running this state machine.
func (sm *StateMachine) SelfID() party.ID {
	return sm.selfID
}
