package protocol

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/mpcwallet/hdtss/pkg/party"
)

// Message is the envelope handed to the transport. Only the header is read for routing,
// Data is opaque outside of the round that produced it.
type Message struct {
	SSID     []byte
	From     party.ID
	To       party.ID // 0 for broadcasts
	Protocol string

	RoundNumber round.Number
	Broadcast   bool
	Data        []byte
}

func (m Message) String() string {
	to := "all"
	if !m.Broadcast {
		to = m.To.String()
	}
	return fmt.Sprintf("%s round %d: %s → %s (%d bytes)", m.Protocol, m.RoundNumber, m.From, to, len(m.Data))
}

// IsFor reports whether id should receive m. Parties never receive their own messages.
func (m Message) IsFor(id party.ID) bool {
	switch {
	case m.From == id:
		return false
	case m.Broadcast, m.To == 0:
		return true
	default:
		return m.To == id
	}
}

type messageMarshal Message

func (m *Message) MarshalBinary() ([]byte, error) {
	return cbor.Marshal((*messageMarshal)(m))
}

func (m *Message) UnmarshalBinary(data []byte) error {
	return cbor.Unmarshal(data, (*messageMarshal)(m))
}
