package test

import (
	"sync"

	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/protocol"
)

// Network is an in-memory transport delivering protocol messages between local parties.
// Each party has an inbox, which is closed once the party calls Done.
type Network struct {
	mtx     sync.Mutex
	inboxes map[party.ID]chan *protocol.Message
	// closed is returned by Next for parties which already left
	closed chan *protocol.Message
	// done is closed when the last party calls Done
	done chan struct{}
}

// NewNetwork creates a network between the given parties.
func NewNetwork(parties party.IDSlice) *Network {
	n := len(parties)
	inboxes := make(map[party.ID]chan *protocol.Message, n)
	for _, id := range parties {
		// room for a broadcast and a p2p message from every party in every round
		inboxes[id] = make(chan *protocol.Message, 2*n*8)
	}
	closed := make(chan *protocol.Message)
	close(closed)
	return &Network{
		inboxes: inboxes,
		closed:  closed,
		done:    make(chan struct{}),
	}
}

// Next returns the channel of messages addressed to id.
func (n *Network) Next(id party.ID) <-chan *protocol.Message {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if inbox, ok := n.inboxes[id]; ok {
		return inbox
	}
	return n.closed
}

// Send delivers msg to every remaining party it is intended for.
func (n *Network) Send(msg *protocol.Message) {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	for id, inbox := range n.inboxes {
		if msg.IsFor(id) {
			inbox <- msg
		}
	}
}

// Done removes id from the network, and returns a channel closed once every party has left.
func (n *Network) Done(id party.ID) <-chan struct{} {
	n.mtx.Lock()
	defer n.mtx.Unlock()
	if inbox, ok := n.inboxes[id]; ok {
		close(inbox)
		delete(n.inboxes, id)
		if len(n.inboxes) == 0 {
			close(n.done)
		}
	}
	return n.done
}
