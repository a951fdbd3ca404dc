package round

import (
	"github.com/mpcwallet/hdtss/pkg/hash"
	"github.com/mpcwallet/hdtss/pkg/math/curve"
	"github.com/mpcwallet/hdtss/pkg/party"
	"github.com/mpcwallet/hdtss/pkg/pool"
)

// Info is the static description of a protocol run, shared by every party.
type Info struct {
	ProtocolID string
	// FinalRoundNumber is the last round that exchanges messages.
	FinalRoundNumber Number
	SelfID           party.ID
	PartyIDs         []party.ID
	// Threshold t, any t+1 parties can reconstruct.
	Threshold int
	Group     curve.Curve
	// Kinds is indexed by round number. Rounds past the end of the list receive nothing.
	Kinds []Kind
}

// Session is the view of a run that every round has, through an embedded *Helper.
type Session interface {
	Round

	Group() curve.Curve
	// Hash returns a copy of the session hash, safe to extend.
	Hash() *hash.Hash
	ProtocolID() string
	FinalRoundNumber() Number
	// SSID identifies the run, it is the digest of Info and the session ID.
	SSID() []byte
	SelfID() party.ID
	PartyIDs() party.IDSlice
	// OtherPartyIDs is PartyIDs without SelfID.
	OtherPartyIDs() party.IDSlice
	Threshold() int
	N() int
	// Pool may be nil, in which case work runs inline.
	Pool() *pool.Pool
	Kind(Number) Kind
}
