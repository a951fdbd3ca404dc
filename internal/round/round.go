package round

import "errors"

// ErrOutChanFull is returned by Helper.BroadcastMessage and Helper.SendMessage when the out channel
// cannot accept more messages. It is not critical, the round can be finalized again.
var ErrOutChanFull = errors.New("round: out channel is full")

// ErrNilContent is returned when a message arrives without content.
var ErrNilContent = errors.New("round: message content is nil")

// ErrInvalidContent is returned when the content of a message has the wrong type for the round.
var ErrInvalidContent = errors.New("round: invalid content")

type Round interface {
	// VerifyMessage handles an incoming Message and validates its content with regard to the protocol specification.
	// The content argument can be cast to the appropriate type for this round without error check.
	// In the first round, this function returns nil.
	// This function should not modify any saved state as it may be be running concurrently.
	VerifyMessage(msg Message) error

	// StoreMessage should be called after VerifyMessage and should only store the appropriate fields from the
	// content.
	StoreMessage(msg Message) error

	// Finalize is called after all messages from the parties have been processed in the current round.
	// Messages for the next round are sent out through the out channel.
	// If a non-critical error occurs (like a failure to sample, hash, or send a message), the current round can be
	// returned so that the caller may try to finalize again.
	// When the protocol is aborted, the round returned by Helper.AbortRound should be returned with a nil error.
	//
	// In the last round, Finalize should return
	//   r.ResultRound(result), nil
	// where result is the output of the protocol.
	Finalize(out chan<- *Message) (Session, error)

	// MessageContent returns an uninitialized message.Content for this round.
	//
	// The first round of a protocol, and rounds which only expect a broadcast message, should return nil.
	MessageContent() Content

	// Number returns the current round number.
	Number() Number

	// Expensive reports whether Finalize performs heavy computation,
	// such as modular exponentiations or proof generation, and should be scheduled by the caller
	// rather than run while handling a message.
	Expensive() bool
}

// BroadcastRound extends Round in that it expects a broadcast message before the p2p message.
// Due to the way Go struct inheritance works, it is necessary to implement both methods in a separate struct
// which itself only implements the Round interface, so that one is not tempted to use the methods defined there.
type BroadcastRound interface {
	// StoreBroadcastMessage must be run before Round.VerifyMessage and Round.StoreMessage,
	// since those may depend on the content from the broadcast.
	// It changes the round's state to store the message after performing basic validation.
	StoreBroadcastMessage(msg Message) error

	// BroadcastContent returns an empty Content to decode this round's broadcast message into.
	// Interface fields must be set to values of the concrete type expected.
	BroadcastContent() Content

	// Round must be implemented by an inherited round which would otherwise implement BroadcastRound.
	Round
}
