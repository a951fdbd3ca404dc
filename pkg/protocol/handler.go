package protocol

import (
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// ErrStopped is returned by Handler.Result after Stop was called before the protocol finished.
var ErrStopped = errors.New("protocol: stopped by user")

// Handler represents an execution of a given protocol.
// It provides a simple interface for the user to receive/deliver protocol messages,
// and can be used from multiple goroutines.
type Handler struct {
	mtx sync.Mutex
	sm  *StateMachine
	log zerolog.Logger

	out    chan *Message
	closed bool

	result interface{}
	err    error
}

// NewHandler expects a StartFunc for the desired protocol. It returns a handler that the user can interact with.
// The first round is finalized before returning, so its messages are already available on Listen.
func NewHandler(create StartFunc, sessionID []byte, opts ...Option) (*Handler, error) {
	sm, err := NewStateMachine(create, sessionID, opts...)
	if err != nil {
		return nil, err
	}
	n := len(sm.partyIDs)
	h := &Handler{
		sm:  sm,
		log: sm.log,
		// every round sends at most one broadcast and n-1 p2p messages
		out: make(chan *Message, int(sm.TotalRounds())*n+1),
	}

	h.mtx.Lock()
	defer h.mtx.Unlock()
	h.proceed()
	if h.err != nil {
		return nil, h.err
	}
	return h, nil
}

// Listen returns a channel with outgoing messages that must be sent to other parties.
// Messages with Broadcast set must be delivered to every other party.
// The channel is closed when the protocol finishes, fails, or is stopped.
func (h *Handler) Listen() <-chan *Message {
	return h.out
}

// Accept delivers msg to the protocol, finalizing as many rounds as possible.
// Messages which are out of order or fail validation are logged and dropped.
//
// This function may be called concurrently from different goroutines.
func (h *Handler) Accept(msg *Message) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.closed {
		return
	}

	if err := h.sm.HandleIncoming(msg); err != nil {
		if Critical(err) {
			h.err = err
			h.close()
			return
		}
		event := h.log.Warn()
		if msg != nil {
			event = event.Stringer("msg", msg)
		}
		event.Err(err).Msg("dropped message")
		return
	}
	h.proceed()
}

// CanAccept returns true if msg passes the header checks of the protocol.
func (h *Handler) CanAccept(msg *Message) bool {
	if msg == nil {
		return false
	}
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return msg.IsFor(h.sm.selfID) && string(msg.SSID) == string(h.sm.ssid) && msg.Protocol == h.sm.protocolID
}

// Result returns the protocol result if the protocol completed successfully. Otherwise an error is returned.
func (h *Handler) Result() (interface{}, error) {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.result != nil {
		return h.result, nil
	}
	if h.err != nil {
		return nil, h.err
	}
	return nil, ErrNotFinished
}

// Stop cancels the execution and closes the Listen channel.
func (h *Handler) Stop() {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	if h.closed {
		return
	}
	if h.result == nil && h.err == nil {
		h.err = ErrStopped
	}
	h.close()
}

// proceed must be called with the mutex held.
func (h *Handler) proceed() {
	err := h.sm.Proceed(true)
	for _, msg := range h.sm.Outgoing() {
		select {
		case h.out <- msg:
		default:
			h.err = fmt.Errorf("%w: handler out channel is full", ErrInternal)
			h.close()
			return
		}
	}
	if err != nil {
		if h.sm.Err() == nil {
			// non critical, the round is attempted again with the next message
			h.log.Warn().Err(err).Msg("round not finalized")
			return
		}
		h.err = err
		h.close()
		return
	}
	if h.sm.IsFinished() {
		h.result, h.err = h.sm.PickOutput()
		h.close()
	}
}

func (h *Handler) close() {
	if h.closed {
		return
	}
	h.closed = true
	close(h.out)
}
