package round

import (
	"fmt"
	"sort"

	"github.com/blockberries/roundberry/pkg/payload"
)

// CollectionRound accumulates at most one payload per sender. It is the
// base accumulator the threshold/voting/until-all variants build on; on
// its own it never concludes (EndBlock always reports not-done).
type CollectionRound struct {
	AbstractRound

	id         string
	txType     string
	collection map[string]payload.Payload
}

// NewCollectionRound creates a collection round accepting payloads of the
// given transaction_type tag.
func NewCollectionRound(id, txType string, state BasePeriodState, params ConsensusParams) *CollectionRound {
	return &CollectionRound{
		AbstractRound: AbstractRound{State: state, Params: params},
		id:            id,
		txType:        txType,
		collection:    make(map[string]payload.Payload),
	}
}

// RoundID returns the round's stable identifier.
func (r *CollectionRound) RoundID() string { return r.id }

// AllowedTxType returns the only transaction_type tag this round accepts.
func (r *CollectionRound) AllowedTxType() string { return r.txType }

// CollectionSize returns the number of payloads collected so far.
func (r *CollectionRound) CollectionSize() int { return len(r.collection) }

// HasCollected reports whether a payload from sender has been collected.
func (r *CollectionRound) HasCollected(sender string) bool {
	_, ok := r.collection[sender]
	return ok
}

// Collected returns the payload collected from sender, if any.
func (r *CollectionRound) Collected(sender string) (payload.Payload, bool) {
	p, ok := r.collection[sender]
	return p, ok
}

// Senders returns the senders collected so far, sorted for deterministic
// iteration across replicas.
func (r *CollectionRound) Senders() []string {
	out := make([]string, 0, len(r.collection))
	for s := range r.collection {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// SortedValues returns the canonical-JSON values of the collected
// payloads, sorted lexicographically.
func (r *CollectionRound) SortedValues() []string {
	out := make([]string, 0, len(r.collection))
	for _, p := range r.collection {
		out = append(out, CanonicalValue(p))
	}
	sort.Strings(out)
	return out
}

// votes returns the sender -> canonical value map used by the quorum
// predicates.
func (r *CollectionRound) votes() map[string]string {
	v := make(map[string]string, len(r.collection))
	for s, p := range r.collection {
		v[s] = CanonicalValue(p)
	}
	return v
}

// CheckPayload validates p against the base collection rules: the sender
// must be a participant and must not have been collected already.
func (r *CollectionRound) CheckPayload(p payload.Payload) error {
	if !r.State.HasParticipant(p.Sender()) {
		return fmt.Errorf("%w: sender %s is not a participant", ErrTransactionNotValid, p.Sender())
	}
	if r.HasCollected(p.Sender()) {
		return fmt.Errorf("%w: sender %s already sent a payload", ErrTransactionNotValid, p.Sender())
	}
	return nil
}

// ProcessPayload validates p and records it in the collection.
func (r *CollectionRound) ProcessPayload(p payload.Payload) error {
	if err := r.CheckPayload(p); err != nil {
		return internalError(err)
	}
	r.add(p)
	return nil
}

// CheckTransaction validates tx without mutating the round.
func (r *CollectionRound) CheckTransaction(tx payload.Transaction) error {
	if err := r.checkAllowedTxType(tx, r.txType); err != nil {
		return err
	}
	return r.CheckPayload(tx.Payload)
}

// ProcessTransaction validates and applies tx.
func (r *CollectionRound) ProcessTransaction(tx payload.Transaction) error {
	if err := r.checkAllowedTxType(tx, r.txType); err != nil {
		return err
	}
	return r.ProcessPayload(tx.Payload)
}

// EndBlock on the base collection round never concludes; the variants
// embedding CollectionRound supply the verdict semantics.
func (r *CollectionRound) EndBlock() (Verdict, bool) {
	return Verdict{}, false
}

// add records p without validation. Callers validate first.
func (r *CollectionRound) add(p payload.Payload) {
	r.collection[p.Sender()] = p
}

// internalError converts a validation failure observed during processing
// into the programmer-error kind: a payload that would not pass
// CheckPayload must never reach ProcessPayload.
func internalError(err error) error {
	return fmt.Errorf("%w: %v", ErrABCIAppInternal, err)
}

// CollectDifferentUntilAllRound collects one payload from every
// participant, additionally requiring every payload value to be distinct.
// Used for initial registration where each participant contributes a
// distinct value.
type CollectDifferentUntilAllRound struct {
	CollectionRound

	// ResultKey is the state attribute the sorted collected values are
	// stored under when the round concludes.
	ResultKey string

	// DoneEvent is emitted when every participant has been collected.
	DoneEvent Event
}

// NewCollectDifferentUntilAllRound creates a collect-until-all round.
// doneEvent defaults to EventDone when empty.
func NewCollectDifferentUntilAllRound(id, txType string, state BasePeriodState, params ConsensusParams, resultKey string, doneEvent Event) *CollectDifferentUntilAllRound {
	if doneEvent == "" {
		doneEvent = EventDone
	}
	return &CollectDifferentUntilAllRound{
		CollectionRound: *NewCollectionRound(id, txType, state, params),
		ResultKey:       resultKey,
		DoneEvent:       doneEvent,
	}
}

// CheckPayload applies the base collection rules and additionally rejects
// payloads whose value has already been collected from another sender.
func (r *CollectDifferentUntilAllRound) CheckPayload(p payload.Payload) error {
	if err := r.CollectionRound.CheckPayload(p); err != nil {
		return err
	}
	value := CanonicalValue(p)
	for _, collected := range r.collection {
		if CanonicalValue(collected) == value {
			return fmt.Errorf("%w: value already collected from another sender", ErrTransactionNotValid)
		}
	}
	return nil
}

// ProcessPayload validates p and records it.
func (r *CollectDifferentUntilAllRound) ProcessPayload(p payload.Payload) error {
	if err := r.CheckPayload(p); err != nil {
		return internalError(err)
	}
	r.add(p)
	return nil
}

// CheckTransaction validates tx without mutating the round.
func (r *CollectDifferentUntilAllRound) CheckTransaction(tx payload.Transaction) error {
	if err := r.checkAllowedTxType(tx, r.txType); err != nil {
		return err
	}
	return r.CheckPayload(tx.Payload)
}

// ProcessTransaction validates and applies tx.
func (r *CollectDifferentUntilAllRound) ProcessTransaction(tx payload.Transaction) error {
	if err := r.checkAllowedTxType(tx, r.txType); err != nil {
		return err
	}
	return r.ProcessPayload(tx.Payload)
}

// CollectionThresholdReached reports whether every participant has been
// collected.
func (r *CollectDifferentUntilAllRound) CollectionThresholdReached() bool {
	return len(r.collection) == r.State.NumParticipants()
}

// EndBlock concludes once every participant has contributed, storing the
// sorted collected values under ResultKey.
func (r *CollectDifferentUntilAllRound) EndBlock() (Verdict, bool) {
	if !r.CollectionThresholdReached() {
		return Verdict{}, false
	}
	next := r.State.Update(map[string]any{r.ResultKey: r.SortedValues()})
	return Verdict{State: next, Event: r.DoneEvent}, true
}

// CollectDifferentUntilThresholdRound collects payloads until a Byzantine
// quorum of participants has contributed. Values need not be distinct;
// the one-payload-per-sender rule from CollectionRound suffices.
type CollectDifferentUntilThresholdRound struct {
	CollectionRound

	// ResultKey is the state attribute the sorted collected values are
	// stored under when the round concludes.
	ResultKey string

	// DoneEvent is emitted when the collection threshold is reached.
	DoneEvent Event
}

// NewCollectDifferentUntilThresholdRound creates a collect-until-quorum
// round. doneEvent defaults to EventDone when empty.
func NewCollectDifferentUntilThresholdRound(id, txType string, state BasePeriodState, params ConsensusParams, resultKey string, doneEvent Event) *CollectDifferentUntilThresholdRound {
	if doneEvent == "" {
		doneEvent = EventDone
	}
	return &CollectDifferentUntilThresholdRound{
		CollectionRound: *NewCollectionRound(id, txType, state, params),
		ResultKey:       resultKey,
		DoneEvent:       doneEvent,
	}
}

// CollectionThresholdReached reports whether at least the Byzantine
// quorum of participants has contributed.
func (r *CollectDifferentUntilThresholdRound) CollectionThresholdReached() bool {
	return len(r.collection) >= r.Params.ConsensusThreshold()
}

// EndBlock concludes once the quorum has contributed, storing the sorted
// collected values under ResultKey.
func (r *CollectDifferentUntilThresholdRound) EndBlock() (Verdict, bool) {
	if !r.CollectionThresholdReached() {
		return Verdict{}, false
	}
	next := r.State.Update(map[string]any{r.ResultKey: r.SortedValues()})
	return Verdict{State: next, Event: r.DoneEvent}, true
}
