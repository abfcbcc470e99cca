package chain

import (
	"github.com/blockberries/roundberry/pkg/payload"
)

// builderPhase tracks the block builder's progress through a block.
type builderPhase int

const (
	phaseEmpty builderPhase = iota
	phaseHeaderSet
)

// BlockBuilder is the mutable scratch a block is assembled in while the
// engine delivers it: first the header, then zero or more transactions.
// Reset returns it to empty for the next block.
type BlockBuilder struct {
	phase  builderPhase
	header Header
	txs    []payload.Transaction
}

// NewBlockBuilder creates an empty block builder.
func NewBlockBuilder() *BlockBuilder {
	return &BlockBuilder{}
}

// Reset clears the header and transactions.
func (b *BlockBuilder) Reset() {
	b.phase = phaseEmpty
	b.header = Header{}
	b.txs = nil
}

// SetHeader records the block header. Setting it twice without a Reset
// is a programmer error.
func (b *BlockBuilder) SetHeader(h Header) error {
	if b.phase != phaseEmpty {
		return ErrHeaderAlreadySet
	}
	b.phase = phaseHeaderSet
	b.header = h
	return nil
}

// HasHeader reports whether a header has been set since the last Reset.
func (b *BlockBuilder) HasHeader() bool {
	return b.phase == phaseHeaderSet
}

// Header returns the current header. Only meaningful when HasHeader.
func (b *BlockBuilder) Header() Header {
	return b.header
}

// AddTransaction appends tx. No dedup happens here; the engine
// guarantees transaction uniqueness within a block.
func (b *BlockBuilder) AddTransaction(tx payload.Transaction) {
	b.txs = append(b.txs, tx)
}

// NumTransactions returns the number of transactions added so far.
func (b *BlockBuilder) NumTransactions() int {
	return len(b.txs)
}

// GetBlock seals the current contents into a Block. Empty blocks are
// allowed; a missing header is not.
func (b *BlockBuilder) GetBlock() (Block, error) {
	if b.phase != phaseHeaderSet {
		return Block{}, ErrHeaderNotSet
	}
	txs := make([]payload.Transaction, len(b.txs))
	copy(txs, b.txs)
	return Block{Header: b.header, Transactions: txs}, nil
}
