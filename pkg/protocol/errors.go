package protocol

import (
	"errors"
	"fmt"

	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/mpcwallet/hdtss/pkg/party"
)

var (
	// ErrOutOfOrder is returned when a message belongs to a round for which no store exists.
	// The message is dropped and the state machine is left unchanged.
	ErrOutOfOrder = errors.New("protocol: message out of order")
	// ErrMessageRejected is returned when a message fails the header checks performed before storing it.
	ErrMessageRejected = errors.New("protocol: message rejected")
	// ErrDoublePickOutput is returned when the output is requested a second time.
	ErrDoublePickOutput = errors.New("protocol: output was already picked")
	// ErrNotFinished is returned when the output is requested before the protocol finished.
	ErrNotFinished = errors.New("protocol: not finished")
	// ErrInternal indicates a broken invariant of the state machine.
	ErrInternal = errors.New("protocol: internal error")
)

// Error is a custom error for protocols which contains information about the responsible round,
// or which parties are culprits.
type Error struct {
	// RoundNumber is the round in which the error was detected.
	RoundNumber round.Number
	// Culprits is list of parties which are responsible for the failure.
	Culprits []party.ID
	// Err is the underlying error.
	Err error
}

// Error implement error.
func (e Error) Error() string {
	if len(e.Culprits) == 0 {
		return fmt.Sprintf("round %d: %v", e.RoundNumber, e.Err)
	}
	return fmt.Sprintf("round %d: culprits %v: %v", e.RoundNumber, e.Culprits, e.Err)
}

// Unwrap implement errors.Wrapper.
func (e Error) Unwrap() error {
	return e.Err
}

// Critical reports whether err leaves the protocol unable to continue.
// Out of order and rejected messages are dropped without affecting the execution.
func Critical(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrOutOfOrder) && !errors.Is(err, ErrMessageRejected)
}

func rejected(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMessageRejected, fmt.Sprintf(format, args...))
}
