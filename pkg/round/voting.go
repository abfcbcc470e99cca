package round

import (
	"fmt"
	"strconv"

	"github.com/blockberries/roundberry/pkg/payload"
)

// VotePayload is the payload contract for voting rounds: alongside the
// usual payload identity it carries a boolean vote.
type VotePayload interface {
	payload.Payload

	// Vote returns the boolean vote carried by the payload.
	Vote() bool
}

// VotingRound collects boolean votes, one per participant, and concludes
// once either the true votes or the false votes reach the Byzantine
// quorum. The two outcomes emit distinct events so a transition table can
// route approval and rejection to different rounds.
type VotingRound struct {
	CollectionRound

	// ResultKey is the state attribute the winning vote is stored under
	// when the round concludes. Left empty, the state is carried through
	// unchanged.
	ResultKey string

	// DoneEvent is emitted when the true votes reach quorum.
	DoneEvent Event

	// NegativeEvent is emitted when the false votes reach quorum.
	NegativeEvent Event
}

// NewVotingRound creates a voting round. doneEvent defaults to EventDone
// and negativeEvent to EventNegative when empty.
func NewVotingRound(id, txType string, state BasePeriodState, params ConsensusParams, resultKey string, doneEvent, negativeEvent Event) *VotingRound {
	if doneEvent == "" {
		doneEvent = EventDone
	}
	if negativeEvent == "" {
		negativeEvent = EventNegative
	}
	return &VotingRound{
		CollectionRound: *NewCollectionRound(id, txType, state, params),
		ResultKey:       resultKey,
		DoneEvent:       doneEvent,
		NegativeEvent:   negativeEvent,
	}
}

// CheckPayload applies the base collection rules and requires the payload
// to carry a boolean vote.
func (r *VotingRound) CheckPayload(p payload.Payload) error {
	if err := r.CollectionRound.CheckPayload(p); err != nil {
		return err
	}
	if _, ok := p.(VotePayload); !ok {
		return fmt.Errorf("%w: payload %q does not carry a vote", ErrTransactionNotValid, p.TransactionType())
	}
	return nil
}

// ProcessPayload validates p, verifies that accepting its vote still
// leaves one of the two outcomes reachable, and records it.
func (r *VotingRound) ProcessPayload(p payload.Payload) error {
	if err := r.CheckPayload(p); err != nil {
		return internalError(err)
	}
	vote := p.(VotePayload).Vote()
	err := CheckMajorityPossibleWithNewVoter(
		r.boolVotes(), p.Sender(), strconv.FormatBool(vote), r.Params.MaxParticipants, ErrABCIAppInternal)
	if err != nil {
		return err
	}
	r.add(p)
	return nil
}

// CheckTransaction validates tx without mutating the round.
func (r *VotingRound) CheckTransaction(tx payload.Transaction) error {
	if err := r.checkAllowedTxType(tx, r.txType); err != nil {
		return err
	}
	return r.CheckPayload(tx.Payload)
}

// ProcessTransaction validates and applies tx.
func (r *VotingRound) ProcessTransaction(tx payload.Transaction) error {
	if err := r.checkAllowedTxType(tx, r.txType); err != nil {
		return err
	}
	return r.ProcessPayload(tx.Payload)
}

// boolVotes returns the sender -> "true"/"false" map the quorum
// predicates operate on.
func (r *VotingRound) boolVotes() map[string]string {
	v := make(map[string]string, len(r.collection))
	for s, p := range r.collection {
		v[s] = strconv.FormatBool(p.(VotePayload).Vote())
	}
	return v
}

// countVotes returns how many collected payloads voted the given way.
func (r *VotingRound) countVotes(vote bool) int {
	n := 0
	for _, p := range r.collection {
		if p.(VotePayload).Vote() == vote {
			n++
		}
	}
	return n
}

// PositiveVoteThresholdReached reports whether the true votes have
// reached the Byzantine quorum.
func (r *VotingRound) PositiveVoteThresholdReached() bool {
	return r.countVotes(true) >= r.Params.ConsensusThreshold()
}

// NegativeVoteThresholdReached reports whether the false votes have
// reached the Byzantine quorum.
func (r *VotingRound) NegativeVoteThresholdReached() bool {
	return r.countVotes(false) >= r.Params.ConsensusThreshold()
}

// EndBlock concludes once either outcome reaches quorum. The two
// outcomes are mutually exclusive at any tally: quorums are strict
// majorities, so true and false cannot both hold one.
func (r *VotingRound) EndBlock() (Verdict, bool) {
	switch {
	case r.PositiveVoteThresholdReached():
		return Verdict{State: r.updatedState(true), Event: r.DoneEvent}, true
	case r.NegativeVoteThresholdReached():
		return Verdict{State: r.updatedState(false), Event: r.NegativeEvent}, true
	default:
		return Verdict{}, false
	}
}

func (r *VotingRound) updatedState(outcome bool) BasePeriodState {
	if r.ResultKey == "" {
		return r.State
	}
	return r.State.Update(map[string]any{r.ResultKey: outcome})
}
