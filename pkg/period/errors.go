package period

import "errors"

// App and driver errors. These indicate bugs in the driving engine
// adapter or in the application wiring, never invalid transactions.
var (
	// ErrAppFinished is returned when a callback arrives after the
	// application reached a final state.
	ErrAppFinished = errors.New("abci app has reached a final state")

	// ErrBlockInProgress is returned when begin_block arrives while a
	// block is already being built.
	ErrBlockInProgress = errors.New("block already in progress")

	// ErrNoBlockInProgress is returned when deliver_tx, end_block, or
	// commit arrives outside a begin_block/commit window.
	ErrNoBlockInProgress = errors.New("no block in progress")
)

// Timeout scheduler errors.
var (
	// ErrTimeoutNotFound is returned when cancelling an unknown timeout
	// entry id.
	ErrTimeoutNotFound = errors.New("timeout entry not found")
)

// App specification errors, detected when the application is built.
var (
	// ErrUnknownRound is returned when a transition references a round id
	// with no registered constructor that is not a final state.
	ErrUnknownRound = errors.New("round id not registered")

	// ErrNoInitialRound is returned when the app spec names no initial
	// round.
	ErrNoInitialRound = errors.New("initial round not set")
)
