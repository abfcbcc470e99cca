package chain

import "errors"

// Blockchain errors.
var (
	// ErrAddBlock is returned when a block's header height does not
	// continue the chain. It indicates an engine bug or replica
	// divergence, never a recoverable condition.
	ErrAddBlock = errors.New("block height mismatch")
)

// Block builder errors. These are programmer errors in the driving code.
var (
	// ErrHeaderAlreadySet is returned when a header is set on a builder
	// that already has one.
	ErrHeaderAlreadySet = errors.New("block builder header already set")

	// ErrHeaderNotSet is returned when a block is requested from a
	// builder whose header was never set.
	ErrHeaderNotSet = errors.New("block builder header not set")
)
