// Package payload implements the process-wide payload registry and codec
// (the transaction-type tag <-> concrete payload variant mapping) plus the
// transaction envelope that pairs a payload with a sender signature.
package payload

import (
	"crypto/rand"
	"encoding/hex"
)

// Payload is the contract every concrete transaction variant must satisfy.
// A payload carries a sender address, a unique id, and variant-specific
// data. Encode writes the value's own TransactionType() as the wire
// transaction_type tag, and Decode picks the constructor by that tag.
type Payload interface {
	// TransactionType returns the class-level tag that identifies this
	// payload variant. Must be identical for every instance of a variant
	// and unique across every variant registered in the process.
	TransactionType() string

	// Sender returns the account address that authored this payload.
	Sender() string

	// ID returns the payload's unique transaction identifier.
	ID() string

	// Fields returns the variant-specific data to be merged into the
	// canonical wire object alongside transaction_type/sender/id.
	// Implementations must return a fresh map; callers may mutate it.
	Fields() map[string]any
}

// Base is embedded by concrete payload variants to satisfy the Sender/ID
// half of the Payload contract. Variants still implement Fields themselves.
type Base struct {
	SenderAddr string
	TxID       string
}

// NewBase constructs a Base, defaulting TxID to a random 32-hex-character
// string when id is empty, per the wire format's default id rule.
func NewBase(sender, id string) Base {
	if id == "" {
		id = NewTxID()
	}
	return Base{SenderAddr: sender, TxID: id}
}

// Sender returns the payload's sender address.
func (b Base) Sender() string { return b.SenderAddr }

// ID returns the payload's transaction id.
func (b Base) ID() string { return b.TxID }

// NewTxID generates a random 32-hex-character transaction id.
func NewTxID() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing is a fatal host condition; a zero id is
		// distinguishable and never collides with a real random one only
		// by luck, so panic rather than silently handing out a bad id.
		panic("payload: failed to read random bytes: " + err.Error())
	}
	return hex.EncodeToString(buf)
}
