package payload

import "errors"

// Registry and codec errors.
var (
	// ErrDuplicateTransactionType is returned when two payload variants
	// attempt to register under the same transaction_type tag.
	ErrDuplicateTransactionType = errors.New("transaction_type already registered")

	// ErrTransactionTypeNotRecognized is returned when a decoded
	// transaction_type tag has no registered constructor.
	ErrTransactionTypeNotRecognized = errors.New("transaction type not recognized")
)

// Transaction envelope errors.
var (
	// ErrSignatureInvalid is returned when a transaction's signature does
	// not verify against its payload and sender.
	ErrSignatureInvalid = errors.New("signature not valid")
)
