package period

import (
	"errors"
	"fmt"

	"github.com/blockberries/roundberry/logging"
	"github.com/blockberries/roundberry/pkg/abi"
	"github.com/blockberries/roundberry/pkg/chain"
	"github.com/blockberries/roundberry/pkg/events"
	"github.com/blockberries/roundberry/pkg/metrics"
	"github.com/blockberries/roundberry/pkg/payload"
	"github.com/blockberries/roundberry/pkg/round"
)

// PeriodConfig bundles the dependencies of a Period. App is required;
// everything else is optional. Registry defaults to
// payload.DefaultRegistry; a nil Verifier skips signature verification
// (the engine adapter verified upstream). A Bus is also handed to App
// when App was built without one.
type PeriodConfig struct {
	App      *AbciApp
	Registry *payload.Registry
	Verifier payload.Verifier
	LedgerID string
	Logger   *logging.Logger
	Metrics  metrics.Metrics
	Bus      *events.Bus
}

// Period drives one application cycle against the engine's block
// lifecycle: it forwards transactions into the current round, takes the
// round's verdict at end_block, and appends the finalised application
// block to the blockchain at commit.
type Period struct {
	app        *AbciApp
	blockchain *chain.Blockchain
	builder    *chain.BlockBuilder
	inBlock    bool

	registry *payload.Registry
	verifier payload.Verifier
	ledgerID string

	logger  *logging.Logger
	metrics metrics.Metrics
	bus     *events.Bus
}

var _ abi.Application = (*Period)(nil)

// NewPeriod creates a Period over the given AbciApp.
func NewPeriod(cfg PeriodConfig) (*Period, error) {
	if cfg.App == nil {
		return nil, errors.New("period: nil abci app")
	}
	registry := cfg.Registry
	if registry == nil {
		registry = payload.DefaultRegistry
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNopMetrics()
	}
	if cfg.Bus != nil && cfg.App.bus == nil {
		// Round transitions, fired timeouts and the period end are
		// published by the app; share the bus so one subscriber sees all.
		cfg.App.bus = cfg.Bus
	}
	return &Period{
		app:        cfg.App,
		blockchain: chain.NewBlockchain(),
		builder:    chain.NewBlockBuilder(),
		registry:   registry,
		verifier:   cfg.Verifier,
		ledgerID:   cfg.LedgerID,
		logger:     logger.WithComponent("period"),
		metrics:    m,
		bus:        cfg.Bus,
	}, nil
}

// Setup instantiates the application's initial round.
func (p *Period) Setup() error {
	return p.app.Setup()
}

// App returns the driven AbciApp.
func (p *Period) App() *AbciApp { return p.app }

// Blockchain returns the committed application chain.
func (p *Period) Blockchain() *chain.Blockchain { return p.blockchain }

// Height returns the height of the latest committed block.
func (p *Period) Height() int64 { return p.blockchain.Height() }

// IsFinished reports whether the period reached a final state.
func (p *Period) IsFinished() bool { return p.app.IsFinished() }

// BeginBlock starts assembling a new application block and advances the
// block-time clock, which may fire timeouts and swap rounds before any
// transaction is delivered.
func (p *Period) BeginBlock(header chain.Header) error {
	if p.app.IsFinished() {
		return fmt.Errorf("%w: begin_block at height %d", ErrAppFinished, header.Height)
	}
	if p.inBlock {
		return fmt.Errorf("%w: begin_block at height %d", ErrBlockInProgress, header.Height)
	}
	p.builder.Reset()
	if err := p.builder.SetHeader(header); err != nil {
		return fmt.Errorf("period: begin_block: %w", err)
	}
	p.inBlock = true
	p.logger.Debug("begin block",
		logging.Height(header.Height), logging.BlockTime(header.Timestamp))
	p.app.UpdateTime(header.Timestamp)
	return nil
}

// DeliverTx decodes tx from its wire form, verifies its signature when a
// verifier is configured, and applies it. Any failure is returned so the
// engine can flag the transaction invalid; the round is untouched on
// failure.
func (p *Period) DeliverTx(tx []byte) error {
	decoded, err := payload.DecodeTransaction(p.registry, tx)
	if err != nil {
		p.metrics.IncTxsRejected(rejectionReason(err))
		return err
	}
	return p.DeliverTransaction(decoded)
}

// DeliverTransaction is DeliverTx for an already-decoded transaction.
func (p *Period) DeliverTransaction(tx payload.Transaction) error {
	if !p.inBlock {
		return fmt.Errorf("%w: deliver_tx", ErrNoBlockInProgress)
	}
	if p.verifier != nil {
		if err := tx.Verify(p.verifier, p.ledgerID); err != nil {
			p.metrics.IncTxsRejected(metrics.ReasonSignatureInvalid)
			p.logger.Debug("transaction rejected",
				logging.Sender(tx.Payload.Sender()), logging.TxID(tx.Payload.ID()), logging.Error(err))
			return err
		}
	}
	if err := p.app.CheckTransaction(tx); err != nil {
		p.metrics.IncTxsRejected(rejectionReason(err))
		p.logger.Debug("transaction rejected",
			logging.Sender(tx.Payload.Sender()),
			logging.TxType(tx.Payload.TransactionType()),
			logging.Error(err))
		return err
	}
	if err := p.app.ProcessTransaction(tx); err != nil {
		p.metrics.IncTxsRejected(rejectionReason(err))
		return err
	}
	p.builder.AddTransaction(tx)
	p.metrics.IncTxsAccepted(tx.Payload.TransactionType())
	p.logger.Debug("transaction accepted",
		logging.Sender(tx.Payload.Sender()),
		logging.TxType(tx.Payload.TransactionType()),
		logging.RoundID(p.app.CurrentRoundID()))
	return nil
}

// EndBlock asks the current round for its verdict and, if it produced
// one, feeds the verdict's event through the transition table.
func (p *Period) EndBlock() error {
	if !p.inBlock {
		return fmt.Errorf("%w: end_block", ErrNoBlockInProgress)
	}
	current := p.app.CurrentRound()
	if current == nil {
		// A timeout fired during this block's begin_block may already
		// have finished the period.
		return nil
	}
	verdict, ok := current.EndBlock()
	if !ok {
		return nil
	}
	state := verdict.State
	p.app.ProcessEvent(verdict.Event, &state)
	return nil
}

// Commit seals the in-flight block, appends it to the blockchain, and
// resets the builder for the next block.
func (p *Period) Commit() error {
	if !p.inBlock {
		return fmt.Errorf("%w: commit", ErrNoBlockInProgress)
	}
	block, err := p.builder.GetBlock()
	if err != nil {
		return fmt.Errorf("period: commit: %w", err)
	}
	if err := p.blockchain.AddBlock(block); err != nil {
		return fmt.Errorf("period: commit: %w", err)
	}
	p.builder.Reset()
	p.inBlock = false

	height := p.blockchain.Height()
	p.metrics.SetBlockHeight(height)
	p.metrics.IncBlocksCommitted()
	p.metrics.SetBlockSize(len(block.Transactions))
	p.logger.Info("block committed",
		logging.Height(height),
		logging.Count(len(block.Transactions)),
		logging.RoundID(p.app.CurrentRoundID()))
	if p.bus != nil {
		p.bus.Publish(events.NewBlockCommitted(height, block.Header.Timestamp))
	}
	return nil
}

// rejectionReason maps a transaction error onto a metrics label.
func rejectionReason(err error) string {
	switch {
	case errors.Is(err, payload.ErrSignatureInvalid):
		return metrics.ReasonSignatureInvalid
	case errors.Is(err, payload.ErrTransactionTypeNotRecognized),
		errors.Is(err, round.ErrTransactionTypeNotRecognized):
		return metrics.ReasonTypeNotRecognized
	case errors.Is(err, round.ErrTransactionNotValid):
		return metrics.ReasonTxNotValid
	case errors.Is(err, round.ErrABCIAppInternal), errors.Is(err, ErrAppFinished):
		return metrics.ReasonInternal
	default:
		return metrics.ReasonDecode
	}
}
