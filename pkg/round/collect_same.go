package round

import (
	"fmt"

	"github.com/blockberries/roundberry/pkg/payload"
)

// CollectSameUntilThresholdRound collects payloads until a Byzantine
// quorum of participants has sent the same value. Each accepted payload
// is also run through the fast-fail predicate, so the round rejects the
// vote that would make quorum unreachable instead of waiting for the
// remaining participants.
type CollectSameUntilThresholdRound struct {
	CollectionRound

	// ResultKey is the state attribute the most voted value is stored
	// under when the round concludes.
	ResultKey string

	// DoneEvent is emitted when the threshold is reached.
	DoneEvent Event
}

// NewCollectSameUntilThresholdRound creates a collect-same round.
// doneEvent defaults to EventDone when empty.
func NewCollectSameUntilThresholdRound(id, txType string, state BasePeriodState, params ConsensusParams, resultKey string, doneEvent Event) *CollectSameUntilThresholdRound {
	if doneEvent == "" {
		doneEvent = EventDone
	}
	return &CollectSameUntilThresholdRound{
		CollectionRound: *NewCollectionRound(id, txType, state, params),
		ResultKey:       resultKey,
		DoneEvent:       doneEvent,
	}
}

// ProcessPayload validates p, verifies that accepting it still leaves
// some value able to reach quorum, and records it.
func (r *CollectSameUntilThresholdRound) ProcessPayload(p payload.Payload) error {
	if err := r.CheckPayload(p); err != nil {
		return internalError(err)
	}
	err := CheckMajorityPossibleWithNewVoter(
		r.votes(), p.Sender(), CanonicalValue(p), r.Params.MaxParticipants, ErrABCIAppInternal)
	if err != nil {
		return err
	}
	r.add(p)
	return nil
}

// ProcessTransaction validates and applies tx.
func (r *CollectSameUntilThresholdRound) ProcessTransaction(tx payload.Transaction) error {
	if err := r.checkAllowedTxType(tx, r.txType); err != nil {
		return err
	}
	return r.ProcessPayload(tx.Payload)
}

// ThresholdReached reports whether the most frequent payload value has
// been sent by at least the Byzantine quorum of participants.
func (r *CollectSameUntilThresholdRound) ThresholdReached() bool {
	return ThresholdReached(r.votes(), r.Params.MaxParticipants)
}

// MajorityPossible reports whether some value can still reach quorum
// given the votes collected so far.
func (r *CollectSameUntilThresholdRound) MajorityPossible() bool {
	return MajorityPossible(r.votes(), r.Params.MaxParticipants)
}

// MostVotedPayload returns the canonical value with the highest vote
// count. When several values share the maximum count the
// lexicographically smallest canonical encoding wins, so every replica
// picks the same value. Calling it before ThresholdReached is a
// programmer error.
func (r *CollectSameUntilThresholdRound) MostVotedPayload() (string, error) {
	tally := Tally(r.votes())
	threshold := r.Params.ConsensusThreshold()

	best := ""
	bestCount := 0
	for value, count := range tally {
		if count > bestCount || (count == bestCount && value < best) {
			best = value
			bestCount = count
		}
	}
	if bestCount < threshold {
		return "", fmt.Errorf("%w: most voted payload requested below threshold (%d < %d)", ErrABCIAppInternal, bestCount, threshold)
	}
	return best, nil
}

// EndBlock concludes once the threshold is reached, storing the most
// voted value under ResultKey.
func (r *CollectSameUntilThresholdRound) EndBlock() (Verdict, bool) {
	if !r.ThresholdReached() {
		return Verdict{}, false
	}
	mostVoted, err := r.MostVotedPayload()
	if err != nil {
		// ThresholdReached just held; MostVotedPayload cannot miss.
		panic(err)
	}
	next := r.State.Update(map[string]any{r.ResultKey: mostVoted})
	return Verdict{State: next, Event: r.DoneEvent}, true
}
