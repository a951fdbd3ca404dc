package round

// Kind describes the messages a round expects before it can be finalized.
type Kind uint8

const (
	// KindNone is used by rounds that do not wait for any message, such as the first one.
	KindNone Kind = 0
	// KindBroadcast rounds expect one broadcast message from every party, including self.
	KindBroadcast Kind = 1 << 0
	// KindP2P rounds expect one message addressed to self from every other party.
	KindP2P Kind = 1 << 1
)

// Broadcast returns true if the round expects broadcast messages.
func (k Kind) Broadcast() bool { return k&KindBroadcast != 0 }

// P2P returns true if the round expects point-to-point messages.
func (k Kind) P2P() bool { return k&KindP2P != 0 }

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindBroadcast:
		return "broadcast"
	case KindP2P:
		return "p2p"
	default:
		return "broadcast+p2p"
	}
}
