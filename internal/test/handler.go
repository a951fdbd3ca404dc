package test

import (
	"fmt"

	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/protocol"
)

// HandlerLoop blocks until the handler has finished. The result of the execution is given by Handler.Result().
func HandlerLoop(id party.ID, h *protocol.Handler, network *Network) {
	for {
		select {

		// outgoing messages
		case msg, ok := <-h.Listen():
			if !ok {
				<-network.Done(id)
				// the channel was closed, indicating that the protocol is done executing.
				return
			}
			go network.Send(msg)

		// incoming messages
		case msg := <-network.Next(id):
			h.Accept(msg)
		}
	}
}

// RunEngines drives the state machines to completion, delivering every message in memory.
// It returns the output of each party, or the first error encountered.
func RunEngines(machines map[party.ID]*protocol.StateMachine) (map[party.ID]interface{}, error) {
	ids := make([]party.ID, 0, len(machines))
	for id := range machines {
		ids = append(ids, id)
	}
	ids = party.NewIDSlice(ids)

	for progress := true; progress; {
		progress = false
		for _, id := range ids {
			sm := machines[id]
			if err := sm.Proceed(true); err != nil {
				return nil, fmt.Errorf("party %s: %w", id, err)
			}
			for _, msg := range sm.Outgoing() {
				progress = true
				for _, other := range ids {
					if !msg.IsFor(other) {
						continue
					}
					if err := machines[other].HandleIncoming(msg); err != nil {
						return nil, fmt.Errorf("party %s: %w", other, err)
					}
				}
			}
		}
	}

	results := make(map[party.ID]interface{}, len(machines))
	for _, id := range ids {
		result, err := machines[id].PickOutput()
		if err != nil {
			return nil, fmt.Errorf("party %s: %w", id, err)
		}
		results[id] = result
	}
	return results, nil
}
