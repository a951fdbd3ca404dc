package round

import (
	"github.com/mpcwallet/hdtss/pkg/party"
)

// Content is the body of a broadcast or P2P message, tagged with the round that consumes it.
type Content interface {
	RoundNumber() Number
}

// Message is the unit produced and consumed by rounds.
// To is 0 when the message is intended for all parties.
type Message struct {
	From, To  party.ID
	Broadcast bool
	Content   Content
}
