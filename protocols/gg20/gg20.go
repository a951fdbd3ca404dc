package gg20

import (
	"context"
	"fmt"

	"github.com/mpcwallet/hdtss/pkg/paillier"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/pool"
	"github.com/mpcwallet/hdtss/pkg/protocol"
	"github.com/mpcwallet/hdtss/protocols/gg20/config"
	"github.com/mpcwallet/hdtss/protocols/gg20/keygen"
	"golang.org/x/sync/errgroup"
)

type (
	LocalKeyShare   = config.LocalKeyShare
	ThresholdParams = config.ThresholdParams
)

// Keygen returns a protocol.StartFunc running the distributed key generation for selfID.
func Keygen(selfID party.ID, participants []party.ID, threshold int, pl *pool.Pool, opts ...keygen.Option) protocol.StartFunc {
	return keygen.Start(selfID, participants, threshold, pl, opts...)
}

// inboxSize is the number of messages buffered for each party, per peer.
// It must be at least the number of rounds of the protocols run with RunLocal.
const inboxSize = 16

// RunLocal runs one protocol instance per entry of starts concurrently,
// delivering messages between them in memory. It returns the result of every party,
// or the first error encountered, after which the other parties are stopped.
func RunLocal(ctx context.Context, starts map[party.ID]protocol.StartFunc, sessionID []byte, opts ...protocol.Option) (map[party.ID]interface{}, error) {
	ids := make([]party.ID, 0, len(starts))
	for id := range starts {
		ids = append(ids, id)
	}
	partyIDs := party.NewIDSlice(ids)

	inboxes := make(map[party.ID]chan *protocol.Message, len(partyIDs))
	for _, id := range partyIDs {
		inboxes[id] = make(chan *protocol.Message, inboxSize*len(partyIDs))
	}

	g, ctx := errgroup.WithContext(ctx)
	results := make([]interface{}, len(partyIDs))
	for idx, id := range partyIDs {
		idx, id := idx, id
		g.Go(func() error {
			h, err := protocol.NewHandler(starts[id], sessionID, opts...)
			if err != nil {
				return fmt.Errorf("party %s: %w", id, err)
			}
			defer h.Stop()

			for {
				select {
				case msg, ok := <-h.Listen():
					if !ok {
						result, err := h.Result()
						if err != nil {
							return fmt.Errorf("party %s: %w", id, err)
						}
						results[idx] = result
						return nil
					}
					if err = deliver(ctx, partyIDs, inboxes, msg); err != nil {
						return err
					}
				case msg := <-inboxes[id]:
					h.Accept(msg)
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[party.ID]interface{}, len(partyIDs))
	for idx, id := range partyIDs {
		out[id] = results[idx]
	}
	return out, nil
}

func deliver(ctx context.Context, partyIDs party.IDSlice, inboxes map[party.ID]chan *protocol.Message, msg *protocol.Message) error {
	for _, id := range partyIDs {
		if !msg.IsFor(id) {
			continue
		}
		select {
		case inboxes[id] <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// LocalKeygen runs the key generation for all parties of params in this process.
// keys optionally maps a party to a prepared Paillier key, as given to keygen.WithPaillierKey.
func LocalKeygen(ctx context.Context, params ThresholdParams, sessionID []byte, pl *pool.Pool,
	keys map[party.ID]*paillier.SecretKey, opts ...protocol.Option) (map[party.ID]*LocalKeyShare, error) {
	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", keygen.ErrConfig, err)
	}

	partyIDs := party.Indices(params.ShareCount)
	starts := make(map[party.ID]protocol.StartFunc, len(partyIDs))
	for _, id := range partyIDs {
		var keygenOpts []keygen.Option
		if sk, ok := keys[id]; ok {
			keygenOpts = append(keygenOpts, keygen.WithPaillierKey(sk))
		}
		starts[id] = Keygen(id, partyIDs, params.Threshold, pl, keygenOpts...)
	}

	results, err := RunLocal(ctx, starts, sessionID, opts...)
	if err != nil {
		return nil, err
	}
	shares := make(map[party.ID]*LocalKeyShare, len(results))
	for id, result := range results {
		share, ok := result.(*LocalKeyShare)
		if !ok {
			return nil, fmt.Errorf("party %s: unexpected result %T", id, result)
		}
		shares[id] = share
	}
	return shares, nil
}
