package test

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"github.com/mpcwallet/hdtss/internal/round"
	"github.com/mpcwallet/hdtss/pkg/party"
	"golang.org/x/sync/errgroup"
)

// Rule describes various hooks that can be applied to a protocol execution.
type Rule interface {
	// ModifyBefore modifies r before r.Finalize() is called.
	ModifyBefore(r round.Session)
	// ModifyAfter modifies rNext, which is the round returned by r.Finalize().
	ModifyAfter(rNext round.Session)
	// ModifyContent modifies content for the message that is delivered in rNext.
	ModifyContent(rNext round.Session, to party.ID, content round.Content)
}

// Rounds finalizes every round in rounds, and delivers the resulting messages to the next rounds
// after a cbor round trip. The slice is updated in place.
// It returns true once all parties reached the output or abort round.
func Rounds(rounds []round.Session, rule Rule) (bool, error) {
	if _, err := roundType(rounds); err != nil {
		return false, err
	}

	messages, err := finalizeAll(rounds, rule)
	if err != nil {
		return false, err
	}

	t, err := roundType(rounds)
	if err != nil {
		return false, err
	}
	if t == reflect.TypeOf(&round.Output{}) || t == reflect.TypeOf(&round.Abort{}) {
		return true, nil
	}

	// messages are delivered one at a time, to all recipients in parallel
	for _, msg := range messages {
		data, err := cbor.Marshal(msg.Content)
		if err != nil {
			return false, err
		}
		var g errgroup.Group
		for _, r := range rounds {
			r := r
			if !shouldReceive(r, msg) {
				continue
			}
			g.Go(func() error { return deliver(r, msg, data) })
		}
		if err = g.Wait(); err != nil {
			return false, err
		}
	}
	return false, nil
}

// finalizeAll finalizes all rounds concurrently, and returns the messages they produced.
func finalizeAll(rounds []round.Session, rule Rule) ([]*round.Message, error) {
	n := len(rounds)
	out := make(chan *round.Message, n*(n+1))

	var g errgroup.Group
	for i := range rounds {
		i := i
		g.Go(func() error {
			next, err := finalize(rounds[i], rule, out, n)
			if err != nil {
				return err
			}
			if next != nil {
				rounds[i] = next
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	close(out)

	messages := make([]*round.Message, 0, len(out))
	for msg := range out {
		messages = append(messages, msg)
	}
	return messages, nil
}

func finalize(r round.Session, rule Rule, out chan<- *round.Message, n int) (round.Session, error) {
	if rule == nil {
		return r.Finalize(out)
	}

	rule.ModifyBefore(r)
	buffer := make(chan *round.Message, n+1)
	next, err := r.Finalize(buffer)
	close(buffer)
	if next != nil {
		rule.ModifyAfter(next)
	}
	for msg := range buffer {
		rule.ModifyContent(next, msg.To, msg.Content)
		out <- msg
	}
	return next, err
}

func shouldReceive(r round.Session, msg *round.Message) bool {
	if msg.From == r.SelfID() || msg.Content.RoundNumber() != r.Number() {
		return false
	}
	return msg.Broadcast || msg.To == r.SelfID()
}

// deliver decodes data into a fresh content for r, and feeds it to r as the engine would.
func deliver(r round.Session, msg *round.Message, data []byte) error {
	m := *msg
	if m.Broadcast {
		b, ok := r.(round.BroadcastRound)
		if !ok {
			return errors.New("broadcast message but not broadcast round")
		}
		m.Content = b.BroadcastContent()
		if err := cbor.Unmarshal(data, m.Content); err != nil {
			return err
		}
		return b.StoreBroadcastMessage(m)
	}

	m.Content = r.MessageContent()
	if err := cbor.Unmarshal(data, m.Content); err != nil {
		return err
	}
	if err := r.VerifyMessage(m); err != nil {
		return err
	}
	return r.StoreMessage(m)
}

// roundType returns the common type of all rounds, or an error if they differ.
func roundType(rounds []round.Session) (reflect.Type, error) {
	var t reflect.Type
	for _, r := range rounds {
		rt := reflect.TypeOf(r)
		if t == nil {
			t = rt
		} else if t != rt {
			return t, fmt.Errorf("two different rounds: %s %s", t, rt)
		}
	}
	return t, nil
}
