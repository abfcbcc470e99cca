// Package abi defines the contract between the consensus engine's wire
// adapter and the application core. The adapter itself (ABCI sockets,
// gRPC, in-process) lives outside this module; this package only fixes
// the shape of the callbacks it drives.
package abi

import (
	"github.com/blockberries/roundberry/pkg/chain"
)

// Application is the block-lifecycle contract the engine adapter calls.
//
// Callbacks are delivered strictly sequentially, in this order for every
// consensus block:
//
//  1. BeginBlock - once, with the engine header
//  2. DeliverTx  - once per transaction, in engine order
//  3. EndBlock   - once, after all transactions
//  4. Commit     - once, to finalise the application block
//
// Each callback must return before the next is issued; implementations
// are not required to be safe for concurrent use.
//
// A DeliverTx error means the transaction is invalid and must be
// reported to the engine as rejected; it does not abort the block.
// Errors from the other callbacks indicate an application or engine bug
// and should surface to the operator.
type Application interface {
	// BeginBlock starts a new block. The header's timestamp advances the
	// application's notion of time; deadlines are measured against block
	// time, never the wall clock.
	BeginBlock(header chain.Header) error

	// DeliverTx decodes, verifies, and applies one transaction.
	DeliverTx(tx []byte) error

	// EndBlock closes transaction delivery for the block and lets the
	// application take a state transition.
	EndBlock() error

	// Commit finalises the application block and appends it to the
	// application's chain.
	Commit() error
}
