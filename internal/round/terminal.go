package round

import "github.com/mpcwallet/hdtss/pkg/party"

// terminal implements the message handling of rounds after which nothing is expected.
type terminal struct{}

func (terminal) VerifyMessage(Message) error { return nil }
func (terminal) StoreMessage(Message) error  { return nil }
func (terminal) MessageContent() Content     { return nil }
func (terminal) Number() Number              { return 0 }
func (terminal) Expensive() bool             { return false }

// Output is the round reached after a successful execution. It holds the result.
type Output struct {
	*Helper
	terminal
	Result interface{}
}

func (r *Output) Finalize(chan<- *Message) (Session, error) { return r, nil }

// Abort is the round reached when a party detected misbehavior.
// Culprits lists the parties that could be identified, and may be empty.
type Abort struct {
	*Helper
	terminal
	Culprits []party.ID
	Err      error
}

func (r *Abort) Finalize(chan<- *Message) (Session, error) { return r, nil }
