package round

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/roundberry/pkg/payload"
)

// valuePayload is a minimal test-only payload carrying a string value.
type valuePayload struct {
	payload.Base
	Value string
}

func (p valuePayload) TransactionType() string { return "test/value" }
func (p valuePayload) Fields() map[string]any  { return map[string]any{"value": p.Value} }

// boolPayload is a minimal test-only payload carrying a boolean vote.
type boolPayload struct {
	payload.Base
	Yes bool
}

func (p boolPayload) TransactionType() string { return "test/vote" }
func (p boolPayload) Fields() map[string]any  { return map[string]any{"vote": p.Yes} }
func (p boolPayload) Vote() bool               { return p.Yes }

var testParticipants = []string{"0xaaaa", "0xbbbb", "0xcccc", "0xdddd"}

func testState(t *testing.T) BasePeriodState {
	t.Helper()
	state, err := NewBasePeriodState(testParticipants)
	require.NoError(t, err)
	return state
}

func testParams() ConsensusParams {
	return ConsensusParams{MaxParticipants: 4}
}

func valueTx(sender, value string) payload.Transaction {
	return payload.Transaction{
		Payload:   valuePayload{Base: payload.NewBase(sender, "id-"+sender+"-"+value), Value: value},
		Signature: "deadbeef",
	}
}

func voteTx(sender string, vote bool) payload.Transaction {
	return payload.Transaction{
		Payload:   boolPayload{Base: payload.NewBase(sender, "id-"+sender), Yes: vote},
		Signature: "deadbeef",
	}
}

func TestCheckTransaction_WrongTxType(t *testing.T) {
	r := NewCollectionRound("collection", "test/value", testState(t), testParams())

	err := r.CheckTransaction(voteTx("0xaaaa", true))
	assert.ErrorIs(t, err, ErrTransactionTypeNotRecognized)

	err = r.ProcessTransaction(voteTx("0xaaaa", true))
	assert.ErrorIs(t, err, ErrTransactionTypeNotRecognized)
	assert.Equal(t, 0, r.CollectionSize())
}

func TestCanonicalValue_Deterministic(t *testing.T) {
	a := valuePayload{Base: payload.NewBase("0xaaaa", "1"), Value: "x"}
	b := valuePayload{Base: payload.NewBase("0xbbbb", "2"), Value: "x"}

	// The canonical value covers only the variant fields, not the sender
	// or id, so two senders voting the same value agree byte for byte.
	assert.Equal(t, CanonicalValue(a), CanonicalValue(b))
	assert.Equal(t, `{"value":"x"}`, CanonicalValue(a))
}
