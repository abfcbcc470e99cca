package round

import (
	"fmt"

	"github.com/blockberries/roundberry/pkg/payload"
)

// KeeperAddressKey is the state attribute a keeper round reads the
// designated keeper's address from. The round that elects the keeper is
// expected to store the winner under this key.
const KeeperAddressKey = "most_voted_keeper_address"

// OnlyKeeperSendsRound accepts exactly one payload, and only from the
// participant the state designates as keeper.
type OnlyKeeperSendsRound struct {
	AbstractRound

	id     string
	txType string

	// KeeperKey is the state attribute holding the keeper's address.
	// Defaults to KeeperAddressKey.
	KeeperKey string

	// ResultKey is the state attribute the keeper payload's canonical
	// value is stored under when the round concludes.
	ResultKey string

	// DoneEvent is emitted once the keeper payload has been received.
	DoneEvent Event

	keeperPayload payload.Payload
}

// NewOnlyKeeperSendsRound creates a keeper round. doneEvent defaults to
// EventDone when empty; the keeper address is read from KeeperAddressKey.
func NewOnlyKeeperSendsRound(id, txType string, state BasePeriodState, params ConsensusParams, resultKey string, doneEvent Event) *OnlyKeeperSendsRound {
	if doneEvent == "" {
		doneEvent = EventDone
	}
	return &OnlyKeeperSendsRound{
		AbstractRound: AbstractRound{State: state, Params: params},
		id:            id,
		txType:        txType,
		KeeperKey:     KeeperAddressKey,
		ResultKey:     resultKey,
		DoneEvent:     doneEvent,
	}
}

// RoundID returns the round's stable identifier.
func (r *OnlyKeeperSendsRound) RoundID() string { return r.id }

// AllowedTxType returns the only transaction_type tag this round accepts.
func (r *OnlyKeeperSendsRound) AllowedTxType() string { return r.txType }

// KeeperAddress returns the designated keeper's address from the state.
// A state without the keeper attribute is a programmer error in the
// driving application: the round electing the keeper must run first.
func (r *OnlyKeeperSendsRound) KeeperAddress() string {
	addr, ok := r.State.Get(r.KeeperKey)
	if !ok {
		panic(fmt.Sprintf("round: keeper round %q: state attribute %q not set", r.id, r.KeeperKey))
	}
	s, ok := addr.(string)
	if !ok {
		panic(fmt.Sprintf("round: keeper round %q: state attribute %q is not a string", r.id, r.KeeperKey))
	}
	return s
}

// HasKeeperSentPayload reports whether the keeper payload has been
// received.
func (r *OnlyKeeperSendsRound) HasKeeperSentPayload() bool {
	return r.keeperPayload != nil
}

// KeeperPayload returns the received keeper payload, if any.
func (r *OnlyKeeperSendsRound) KeeperPayload() (payload.Payload, bool) {
	return r.keeperPayload, r.keeperPayload != nil
}

// CheckPayload rejects payloads from anyone but the designated keeper,
// and rejects a second payload after the first.
func (r *OnlyKeeperSendsRound) CheckPayload(p payload.Payload) error {
	if keeper := r.KeeperAddress(); p.Sender() != keeper {
		return fmt.Errorf("%w: sender %s is not the designated keeper %s", ErrTransactionNotValid, p.Sender(), keeper)
	}
	if r.HasKeeperSentPayload() {
		return fmt.Errorf("%w: keeper payload already received", ErrTransactionNotValid)
	}
	return nil
}

// ProcessPayload validates p and records it as the keeper payload.
// A second call fails.
func (r *OnlyKeeperSendsRound) ProcessPayload(p payload.Payload) error {
	if err := r.CheckPayload(p); err != nil {
		return internalError(err)
	}
	r.keeperPayload = p
	return nil
}

// CheckTransaction validates tx without mutating the round.
func (r *OnlyKeeperSendsRound) CheckTransaction(tx payload.Transaction) error {
	if err := r.checkAllowedTxType(tx, r.txType); err != nil {
		return err
	}
	return r.CheckPayload(tx.Payload)
}

// ProcessTransaction validates and applies tx.
func (r *OnlyKeeperSendsRound) ProcessTransaction(tx payload.Transaction) error {
	if err := r.checkAllowedTxType(tx, r.txType); err != nil {
		return err
	}
	return r.ProcessPayload(tx.Payload)
}

// EndBlock concludes once the keeper payload has been received, storing
// its canonical value under ResultKey.
func (r *OnlyKeeperSendsRound) EndBlock() (Verdict, bool) {
	if !r.HasKeeperSentPayload() {
		return Verdict{}, false
	}
	next := r.State.Update(map[string]any{r.ResultKey: CanonicalValue(r.keeperPayload)})
	return Verdict{State: next, Event: r.DoneEvent}, true
}
