package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBasePeriodState_RejectsDuplicates(t *testing.T) {
	_, err := NewBasePeriodState([]string{"0xaaaa", "0xbbbb", "0xaaaa"})
	assert.Error(t, err)
}

func TestBasePeriodState_Participants(t *testing.T) {
	state, err := NewBasePeriodState([]string{"0xcccc", "0xaaaa", "0xbbbb"})
	require.NoError(t, err)

	assert.Equal(t, 3, state.NumParticipants())
	assert.Equal(t, []string{"0xaaaa", "0xbbbb", "0xcccc"}, state.Participants())
	assert.True(t, state.HasParticipant("0xbbbb"))
	assert.False(t, state.HasParticipant("0xdddd"))
}

func TestBasePeriodState_UpdateIsCopyOnWrite(t *testing.T) {
	state := testState(t)

	next := state.Update(map[string]any{"result": "x"})

	_, ok := state.Get("result")
	assert.False(t, ok, "original state must not be mutated")

	got, ok := next.Get("result")
	require.True(t, ok)
	assert.Equal(t, "x", got)

	// Shadowing replaces the value in the newest state only.
	third := next.Update(map[string]any{"result": "y"})
	got, _ = next.Get("result")
	assert.Equal(t, "x", got)
	got, _ = third.Get("result")
	assert.Equal(t, "y", got)

	// The participant set is carried through.
	assert.Equal(t, state.Participants(), third.Participants())
}

func TestBasePeriodState_MustGet(t *testing.T) {
	state := testState(t)
	assert.Panics(t, func() { state.MustGet("missing") })

	next := state.Update(map[string]any{"keeper": "0xaaaa"})
	assert.Equal(t, "0xaaaa", next.MustGet("keeper"))
}

func TestConsensusParams(t *testing.T) {
	params := ConsensusParams{MaxParticipants: 4}
	assert.Equal(t, 3, params.ConsensusThreshold())
	assert.NoError(t, params.Validate())

	small := ConsensusParams{MaxParticipants: 3}
	assert.Error(t, small.Validate())
}
