// Package chain implements the append-only ordered log of application
// blocks: the block and header values, the mutable block builder used
// while a consensus block is in flight, and the blockchain itself.
package chain

import (
	"time"

	"github.com/blockberries/roundberry/pkg/payload"
)

// Header carries the engine-provided block metadata. Only Height and
// Timestamp are load-bearing for the application core; Proposer is kept
// for logging.
type Header struct {
	Height    int64
	Timestamp time.Time
	Proposer  string
}

// Block is an application block: an engine header plus the transactions
// the application accepted during that consensus block. Blocks are
// immutable once built.
type Block struct {
	Header       Header
	Transactions []payload.Transaction
}
