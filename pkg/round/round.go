package round

import (
	"encoding/json"
	"fmt"

	"github.com/blockberries/roundberry/pkg/payload"
)

// Event labels the outcome of a round's end_block verdict. The driving
// AbciApp looks events up in its transition table to pick the next round;
// unknown events are logged and ignored there, never here.
type Event string

// Well-known cross-cutting events. The generic rounds in this package
// emit DONE and NEGATIVE by default; NO_MAJORITY is available to
// applications that turn a fast-fail error into an event, and TIMEOUT is
// the conventional event for scheduled timeouts. Concrete applications
// are free to define additional events for their own transition tables.
const (
	EventDone       Event = "DONE"
	EventNegative   Event = "NEGATIVE"
	EventNoMajority Event = "NO_MAJORITY"
	EventTimeout    Event = "TIMEOUT"
)

// Verdict is what a round's EndBlock returns once it has something to
// report: the next state (built via BasePeriodState.Update, never a
// mutation of the round's own state) and the event that drives the
// transition table.
type Verdict struct {
	State BasePeriodState
	Event Event
}

// Round is the contract every concrete round variant satisfies. A round
// may be read and mutated only between begin_block and end_block of a
// single consensus block.
type Round interface {
	// RoundID returns the round's stable identifier, used for logging and
	// for round-id-keyed transition tables.
	RoundID() string

	// AllowedTxType returns the only transaction_type tag this round
	// accepts.
	AllowedTxType() string

	// CheckTransaction validates tx without mutating the round. Returns
	// ErrTransactionTypeNotRecognized or ErrTransactionNotValid on
	// rejection.
	CheckTransaction(tx payload.Transaction) error

	// ProcessTransaction validates and applies tx. Processing a
	// transaction that would not pass CheckTransaction is a programmer
	// error in the caller.
	ProcessTransaction(tx payload.Transaction) error

	// EndBlock returns a verdict once the round is complete, or ok=false
	// if it needs more transactions (or a timeout) to conclude.
	EndBlock() (Verdict, bool)
}

// Every round variant in this package satisfies Round.
var (
	_ Round = (*CollectionRound)(nil)
	_ Round = (*CollectDifferentUntilAllRound)(nil)
	_ Round = (*CollectDifferentUntilThresholdRound)(nil)
	_ Round = (*CollectSameUntilThresholdRound)(nil)
	_ Round = (*VotingRound)(nil)
	_ Round = (*OnlyKeeperSendsRound)(nil)
)

// AbstractRound holds the state every round variant needs: the
// replicated state at round start and the consensus parameters derived
// from the participant set size.
type AbstractRound struct {
	State  BasePeriodState
	Params ConsensusParams
}

// checkAllowedTxType rejects tx if its payload's transaction_type does
// not match allowed.
func (r AbstractRound) checkAllowedTxType(tx payload.Transaction, allowed string) error {
	got := tx.Payload.TransactionType()
	if got != allowed {
		return fmt.Errorf("%w: got %q, round accepts %q", ErrTransactionTypeNotRecognized, got, allowed)
	}
	return nil
}

// CanonicalValue returns the canonical-JSON encoding of a payload's
// variant-specific fields, used as the "value" for same-value /
// different-value comparisons and for the most_voted_payload tie-break
// (lexicographically-smallest canonical encoding wins ties).
func CanonicalValue(p payload.Payload) string {
	b, err := json.Marshal(p.Fields())
	if err != nil {
		// Fields() is always a plain map[string]any built from decoded
		// JSON or literal values; marshalling it back can't fail.
		panic("round: CanonicalValue: " + err.Error())
	}
	return string(b)
}
