package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/roundberry/pkg/payload"
)

func newCollectSame(t *testing.T) *CollectSameUntilThresholdRound {
	t.Helper()
	return NewCollectSameUntilThresholdRound("collect_same", "test/value", testState(t), testParams(), "most_voted", "")
}

func TestCollectSame_HappyPath(t *testing.T) {
	r := newCollectSame(t)

	require.NoError(t, r.ProcessTransaction(valueTx("0xaaaa", "x")))
	require.NoError(t, r.ProcessTransaction(valueTx("0xbbbb", "x")))

	assert.False(t, r.ThresholdReached())
	_, ok := r.EndBlock()
	assert.False(t, ok)

	_, err := r.MostVotedPayload()
	assert.ErrorIs(t, err, ErrABCIAppInternal, "most voted payload below threshold is a programmer error")

	require.NoError(t, r.ProcessTransaction(valueTx("0xcccc", "x")))
	assert.True(t, r.ThresholdReached())

	mostVoted, err := r.MostVotedPayload()
	require.NoError(t, err)
	assert.Equal(t, `{"value":"x"}`, mostVoted)

	verdict, ok := r.EndBlock()
	require.True(t, ok)
	assert.Equal(t, EventDone, verdict.Event)
	got, _ := verdict.State.Get("most_voted")
	assert.Equal(t, mostVoted, got)
}

func TestCollectSame_FastFailOnDivergence(t *testing.T) {
	r := newCollectSame(t)

	require.NoError(t, r.ProcessTransaction(valueTx("0xaaaa", "x")))
	require.NoError(t, r.ProcessTransaction(valueTx("0xbbbb", "y")))
	assert.True(t, r.MajorityPossible())

	// A third distinct value leaves remaining 1 + largest 1 = 2 < 3:
	// the vote is rejected before it is recorded.
	err := r.ProcessTransaction(valueTx("0xcccc", "z"))
	assert.ErrorIs(t, err, ErrABCIAppInternal)
	assert.Equal(t, 2, r.CollectionSize())
	assert.True(t, r.MajorityPossible())

	// The same sender re-voting an existing value is still admissible.
	require.NoError(t, r.ProcessTransaction(valueTx("0xcccc", "x")))
	require.NoError(t, r.ProcessTransaction(valueTx("0xdddd", "x")))
	assert.True(t, r.ThresholdReached())
}

func TestCollectSame_TieBreakIsLexicographic(t *testing.T) {
	// With a quorum of one, two single votes for different values tie at
	// the threshold; the lexicographically smallest canonical encoding
	// must win on every replica.
	state, err := NewBasePeriodState([]string{"0xaaaa", "0xbbbb"})
	require.NoError(t, err)
	r := NewCollectSameUntilThresholdRound("collect_same", "test/value", state, ConsensusParams{MaxParticipants: 1}, "most_voted", "")

	r.add(valuePayload{Base: payload.NewBase("0xaaaa", "1"), Value: "zz"})
	r.add(valuePayload{Base: payload.NewBase("0xbbbb", "2"), Value: "aa"})

	mostVoted, err := r.MostVotedPayload()
	require.NoError(t, err)
	assert.Equal(t, `{"value":"aa"}`, mostVoted)
}

func TestCollectSame_RejectsDuplicateSender(t *testing.T) {
	r := newCollectSame(t)
	require.NoError(t, r.ProcessTransaction(valueTx("0xaaaa", "x")))

	err := r.CheckTransaction(valueTx("0xaaaa", "x"))
	assert.ErrorIs(t, err, ErrTransactionNotValid)

	err = r.ProcessTransaction(valueTx("0xaaaa", "x"))
	assert.ErrorIs(t, err, ErrABCIAppInternal)
	assert.Equal(t, 1, r.CollectionSize())
}
