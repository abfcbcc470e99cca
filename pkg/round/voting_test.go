package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newVoting(t *testing.T) *VotingRound {
	t.Helper()
	return NewVotingRound("voting", "test/vote", testState(t), testParams(), "approved", "", "")
}

func TestVoting_Positive(t *testing.T) {
	r := newVoting(t)

	require.NoError(t, r.ProcessTransaction(voteTx("0xaaaa", true)))
	require.NoError(t, r.ProcessTransaction(voteTx("0xbbbb", true)))
	_, ok := r.EndBlock()
	assert.False(t, ok)

	require.NoError(t, r.ProcessTransaction(voteTx("0xcccc", true)))
	assert.True(t, r.PositiveVoteThresholdReached())
	assert.False(t, r.NegativeVoteThresholdReached())

	verdict, ok := r.EndBlock()
	require.True(t, ok)
	assert.Equal(t, EventDone, verdict.Event)
	got, _ := verdict.State.Get("approved")
	assert.Equal(t, true, got)
}

func TestVoting_Negative(t *testing.T) {
	r := newVoting(t)

	require.NoError(t, r.ProcessTransaction(voteTx("0xaaaa", false)))
	require.NoError(t, r.ProcessTransaction(voteTx("0xbbbb", false)))
	require.NoError(t, r.ProcessTransaction(voteTx("0xcccc", false)))

	assert.True(t, r.NegativeVoteThresholdReached())
	assert.False(t, r.PositiveVoteThresholdReached())

	verdict, ok := r.EndBlock()
	require.True(t, ok)
	assert.Equal(t, EventNegative, verdict.Event)
	got, _ := verdict.State.Get("approved")
	assert.Equal(t, false, got)
}

func TestVoting_NoVerdictOnSplit(t *testing.T) {
	r := newVoting(t)

	require.NoError(t, r.ProcessTransaction(voteTx("0xaaaa", true)))
	require.NoError(t, r.ProcessTransaction(voteTx("0xbbbb", false)))

	assert.False(t, r.PositiveVoteThresholdReached())
	assert.False(t, r.NegativeVoteThresholdReached())
	_, ok := r.EndBlock()
	assert.False(t, ok)
}

func TestVoting_RejectsNonVotePayload(t *testing.T) {
	r := NewVotingRound("voting", "test/value", testState(t), testParams(), "", "", "")

	err := r.CheckTransaction(valueTx("0xaaaa", "x"))
	assert.ErrorIs(t, err, ErrTransactionNotValid)
}

func TestVoting_RejectsDuplicateSender(t *testing.T) {
	r := newVoting(t)
	require.NoError(t, r.ProcessTransaction(voteTx("0xaaaa", true)))

	err := r.CheckTransaction(voteTx("0xaaaa", false))
	assert.ErrorIs(t, err, ErrTransactionNotValid)
}
