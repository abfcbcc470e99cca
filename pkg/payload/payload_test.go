package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// votePayload is a minimal test-only payload variant.
type votePayload struct {
	Base
	Vote bool
}

func (v votePayload) TransactionType() string { return "test/vote" }
func (v votePayload) Fields() map[string]any {
	return map[string]any{"vote": v.Vote}
}

func newVoteConstructor() Constructor {
	return func(sender, id string, fields map[string]any) (Payload, error) {
		vote, _ := fields["vote"].(bool)
		return votePayload{Base: NewBase(sender, id), Vote: vote}, nil
	}
}

func TestNewTxID(t *testing.T) {
	id1 := NewTxID()
	id2 := NewTxID()
	assert.Len(t, id1, 32)
	assert.NotEqual(t, id1, id2)
}

func TestNewBase_DefaultsID(t *testing.T) {
	b := NewBase("0xabc", "")
	assert.Equal(t, "0xabc", b.Sender())
	assert.Len(t, b.ID(), 32)

	b2 := NewBase("0xabc", "fixed-id")
	assert.Equal(t, "fixed-id", b2.ID())
}

func TestRegistry_DuplicateTagRejected(t *testing.T) {
	reg := NewRegistry()
	require.NoError(t, reg.Register("test/vote", newVoteConstructor()))

	err := reg.Register("test/vote", newVoteConstructor())
	assert.ErrorIs(t, err, ErrDuplicateTransactionType)
}

func TestRegistry_MustRegisterPanicsOnDuplicate(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("test/vote", newVoteConstructor())

	assert.Panics(t, func() {
		reg.MustRegister("test/vote", newVoteConstructor())
	})
}

func TestRegistry_LookupAndTags(t *testing.T) {
	reg := NewRegistry()
	reg.MustRegister("test/vote", newVoteConstructor())

	_, ok := reg.Lookup("test/vote")
	assert.True(t, ok)

	_, ok = reg.Lookup("unknown")
	assert.False(t, ok)

	assert.Equal(t, []string{"test/vote"}, reg.Tags())
}
