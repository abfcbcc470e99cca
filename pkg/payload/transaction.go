package payload

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Verifier is the cryptographic collaborator the transaction envelope
// delegates signature checks to. This package only ever calls it, never
// implements it.
type Verifier interface {
	// Verify reports whether signature is a valid signature by sender over
	// message, on the given ledger. ledgerID disambiguates multi-chain
	// deployments signing with the same keys.
	Verify(ledgerID, sender string, message []byte, signature string) bool
}

// Transaction pairs a payload with the sender's signature over its
// canonical encoding.
type Transaction struct {
	Payload   Payload
	Signature string // hex-encoded
}

// NewTransaction constructs a Transaction envelope.
func NewTransaction(p Payload, signatureHex string) Transaction {
	return Transaction{Payload: p, Signature: signatureHex}
}

// wireTransaction is the canonical JSON shape of an encoded Transaction.
type wireTransaction struct {
	Payload   string `json:"payload"`
	Signature string `json:"signature"`
}

// Encode produces canonical JSON: {"payload": <encoded payload as a UTF-8
// string>, "signature": <hex string>}.
func (t Transaction) Encode() ([]byte, error) {
	payloadBytes, err := Encode(t.Payload)
	if err != nil {
		return nil, fmt.Errorf("payload: encode transaction: %w", err)
	}
	return json.Marshal(wireTransaction{
		Payload:   string(payloadBytes),
		Signature: t.Signature,
	})
}

// DecodeTransaction is the inverse of Transaction.Encode, decoding the
// inner payload against reg.
func DecodeTransaction(reg *Registry, data []byte) (Transaction, error) {
	var wire wireTransaction
	if err := json.Unmarshal(data, &wire); err != nil {
		return Transaction{}, fmt.Errorf("payload: decode transaction: %w", err)
	}
	p, err := Decode(reg, []byte(wire.Payload))
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{Payload: p, Signature: wire.Signature}, nil
}

// DecodeTransactionDefault decodes using DefaultRegistry.
func DecodeTransactionDefault(data []byte) (Transaction, error) {
	return DecodeTransaction(DefaultRegistry, data)
}

// Verify checks the envelope's signature against its payload's sender
// and the canonical payload encoding, using v as the cryptographic
// collaborator. Returns ErrSignatureInvalid (wrapped) on failure.
func (t Transaction) Verify(v Verifier, ledgerID string) error {
	message, err := Encode(t.Payload)
	if err != nil {
		return fmt.Errorf("payload: verify: %w", err)
	}
	if !v.Verify(ledgerID, t.Payload.Sender(), message, t.Signature) {
		return fmt.Errorf("%w: sender=%s id=%s", ErrSignatureInvalid, t.Payload.Sender(), t.Payload.ID())
	}
	return nil
}

// Equal reports whether two transactions have equal payload identity
// (tag, sender, id, fields) and equal signature.
func (t Transaction) Equal(other Transaction) bool {
	if t.Signature != other.Signature {
		return false
	}
	a, errA := Encode(t.Payload)
	b, errB := Encode(other.Payload)
	if errA != nil || errB != nil {
		return false
	}
	return string(a) == string(b)
}

// SignatureBytes returns the raw signature bytes, or an error if the
// signature is not valid hex.
func (t Transaction) SignatureBytes() ([]byte, error) {
	return hex.DecodeString(t.Signature)
}
