package round

import "errors"

// Transaction-admission errors (reported back to the driving engine; the
// round's accumulators are left untouched on these).
var (
	// ErrTransactionTypeNotRecognized is returned when a transaction's
	// payload does not carry the round's allowed_tx_type tag.
	ErrTransactionTypeNotRecognized = errors.New("transaction type not recognized by round")

	// ErrTransactionNotValid is returned when a payload fails a round's
	// check_payload hook (wrong sender, duplicate sender, duplicate
	// value, wrong keeper, etc).
	ErrTransactionNotValid = errors.New("transaction not valid for round")
)

// Internal (programmer-error) conditions. These should abort the current
// callback and surface to the host for operator action.
var (
	// ErrABCIAppInternal covers programmer errors: reading a verdict value
	// before its threshold is reached, double-setting a keeper payload,
	// processing a payload that never passed check_payload, or consensus
	// becoming provably unreachable (fast-fail).
	ErrABCIAppInternal = errors.New("internal round error")
)
