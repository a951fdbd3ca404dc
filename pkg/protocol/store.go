package protocol

import (
	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/mpcwallet/hdtss/pkg/party"
)

// store holds the messages received for a single round, indexed by sender.
type store struct {
	number    round.Number
	kind      round.Kind
	broadcast map[party.ID]*Message
	p2p       map[party.ID]*Message
}

func newStore(number round.Number, kind round.Kind) *store {
	return &store{
		number:    number,
		kind:      kind,
		broadcast: map[party.ID]*Message{},
		p2p:       map[party.ID]*Message{},
	}
}

// add stores msg, rejecting messages of a kind the round does not expect and duplicates.
func (s *store) add(msg *Message) error {
	if msg.Broadcast {
		if !s.kind.Broadcast() {
			return rejected("round %d does not expect broadcast messages", s.number)
		}
		if _, ok := s.broadcast[msg.From]; ok {
			return rejected("duplicate broadcast from %s for round %d", msg.From, s.number)
		}
		s.broadcast[msg.From] = msg
		return nil
	}
	if !s.kind.P2P() {
		return rejected("round %d does not expect p2p messages", s.number)
	}
	if _, ok := s.p2p[msg.From]; ok {
		return rejected("duplicate p2p message from %s for round %d", msg.From, s.number)
	}
	s.p2p[msg.From] = msg
	return nil
}

// satisfied returns true once every expected message has arrived.
// A broadcast round needs an entry for every party, including self,
// and a p2p round needs one from every other party.
func (s *store) satisfied(partyIDs party.IDSlice) bool {
	if s.kind.Broadcast() && len(s.broadcast) < len(partyIDs) {
		return false
	}
	if s.kind.P2P() && len(s.p2p) < len(partyIDs)-1 {
		return false
	}
	return true
}

// missing returns the parties other than self whose messages have not arrived yet.
func (s *store) missing(partyIDs party.IDSlice, selfID party.ID) []party.ID {
	var ids []party.ID
	for _, id := range partyIDs {
		if id == selfID {
			continue
		}
		_, hasBroadcast := s.broadcast[id]
		_, hasP2P := s.p2p[id]
		if (s.kind.Broadcast() && !hasBroadcast) || (s.kind.P2P() && !hasP2P) {
			ids = append(ids, id)
		}
	}
	return ids
}
