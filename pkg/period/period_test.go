package period

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blockberries/roundberry/pkg/chain"
	"github.com/blockberries/roundberry/pkg/events"
	"github.com/blockberries/roundberry/pkg/payload"
	"github.com/blockberries/roundberry/pkg/round"
)

// fakeVerifier accepts or rejects every signature.
type fakeVerifier struct {
	ok bool
}

func (v fakeVerifier) Verify(ledgerID, sender string, message []byte, signature string) bool {
	return v.ok
}

func newTestPeriod(t *testing.T, cfg PeriodConfig) *Period {
	t.Helper()
	if cfg.App == nil {
		app, err := NewAbciApp(AbciAppConfig{
			Spec:   demoSpec(),
			State:  testAppState(t),
			Params: round.ConsensusParams{MaxParticipants: 4},
		})
		require.NoError(t, err)
		cfg.App = app
	}
	p, err := NewPeriod(cfg)
	require.NoError(t, err)
	require.NoError(t, p.Setup())
	return p
}

func header(height, sec int64) chain.Header {
	return chain.Header{Height: height, Timestamp: at(sec), Proposer: "0xaaaa"}
}

// runBlock drives one full block through the period.
func runBlock(t *testing.T, p *Period, h chain.Header, txs ...payload.Transaction) {
	t.Helper()
	require.NoError(t, p.BeginBlock(h))
	for _, tx := range txs {
		require.NoError(t, p.DeliverTransaction(tx))
	}
	require.NoError(t, p.EndBlock())
	require.NoError(t, p.Commit())
}

func TestPeriod_CollectSameHappyPath(t *testing.T) {
	p := newTestPeriod(t, PeriodConfig{})

	runBlock(t, p, header(1, 0),
		valueTx("0xaaaa", "x"),
		valueTx("0xbbbb", "x"),
		valueTx("0xcccc", "x"),
	)

	// Threshold reached at end_block: verdict DONE moved us to voting.
	assert.Equal(t, "voting", p.App().CurrentRoundID())
	assert.Equal(t, int64(1), p.Height())

	result, ok := p.App().LatestResult()
	require.True(t, ok)
	mostVoted, _ := result.Get("most_voted")
	assert.Equal(t, `{"value":"x"}`, mostVoted)
}

func TestPeriod_FullPeriod(t *testing.T) {
	bus := events.NewBus()
	ch, err := bus.Subscribe("test")
	require.NoError(t, err)

	p := newTestPeriod(t, PeriodConfig{Bus: bus})

	runBlock(t, p, header(1, 0),
		valueTx("0xaaaa", "x"), valueTx("0xbbbb", "x"), valueTx("0xcccc", "x"))
	runBlock(t, p, header(2, 5),
		voteTx("0xaaaa", true), voteTx("0xbbbb", true), voteTx("0xcccc", true))
	runBlock(t, p, header(3, 10),
		valueTx("0xaaaa", "final"))

	assert.True(t, p.IsFinished())
	assert.Equal(t, int64(3), p.Height())
	assert.Equal(t, "keeper", p.App().LastRoundID())

	// Further blocks are refused.
	err = p.BeginBlock(header(4, 15))
	assert.ErrorIs(t, err, ErrAppFinished)

	// The bus saw transitions, commits, and the period end.
	var types []events.Type
	for len(ch) > 0 {
		types = append(types, (<-ch).Type)
	}
	assert.Contains(t, types, events.TypeRoundTransition)
	assert.Contains(t, types, events.TypeBlockCommitted)
	assert.Contains(t, types, events.TypePeriodFinished)
}

func TestPeriod_VotingNegative(t *testing.T) {
	p := newTestPeriod(t, PeriodConfig{})

	runBlock(t, p, header(1, 0),
		valueTx("0xaaaa", "x"), valueTx("0xbbbb", "x"), valueTx("0xcccc", "x"))
	require.Equal(t, "voting", p.App().CurrentRoundID())

	runBlock(t, p, header(2, 5),
		voteTx("0xaaaa", false), voteTx("0xbbbb", false), voteTx("0xcccc", false))

	// Negative quorum routes back to the recovery round.
	assert.Equal(t, "collect_same", p.App().CurrentRoundID())
	assert.False(t, p.IsFinished())
}

func TestPeriod_KeeperRejectsNonKeeper(t *testing.T) {
	p := newTestPeriod(t, PeriodConfig{})

	runBlock(t, p, header(1, 0),
		valueTx("0xaaaa", "x"), valueTx("0xbbbb", "x"), valueTx("0xcccc", "x"))
	runBlock(t, p, header(2, 5),
		voteTx("0xaaaa", true), voteTx("0xbbbb", true), voteTx("0xcccc", true))
	require.Equal(t, "keeper", p.App().CurrentRoundID())

	require.NoError(t, p.BeginBlock(header(3, 10)))

	// 0xaaaa is the designated keeper; 0xbbbb is rejected.
	require.NoError(t, p.DeliverTransaction(valueTx("0xaaaa", "final")))
	err := p.DeliverTransaction(valueTx("0xbbbb", "other"))
	assert.ErrorIs(t, err, round.ErrTransactionNotValid)

	require.NoError(t, p.EndBlock())
	require.NoError(t, p.Commit())
	assert.True(t, p.IsFinished())
}

func TestPeriod_TimeoutTransition(t *testing.T) {
	p := newTestPeriod(t, PeriodConfig{})

	// Block at t=0 schedules collect_same's TIMEOUT at t=30. One vote
	// arrives, not enough for a verdict.
	runBlock(t, p, header(1, 0), valueTx("0xaaaa", "x"))
	require.Equal(t, "collect_same", p.App().CurrentRoundID())

	// Block at t=31 with no progress: the timeout fires inside
	// begin_block and restarts the round, losing the stale vote.
	runBlock(t, p, header(2, 31))
	assert.Equal(t, "collect_same", p.App().CurrentRoundID())
	assert.Equal(t, "collect_same", p.App().LastRoundID())

	// The previous round's vote is gone: the same sender can vote again.
	require.NoError(t, p.BeginBlock(header(3, 32)))
	require.NoError(t, p.DeliverTransaction(valueTx("0xaaaa", "y")))
	require.NoError(t, p.EndBlock())
	require.NoError(t, p.Commit())
}

func TestPeriod_RejectedTxNotAddedToBlock(t *testing.T) {
	p := newTestPeriod(t, PeriodConfig{})

	require.NoError(t, p.BeginBlock(header(1, 0)))
	require.NoError(t, p.DeliverTransaction(valueTx("0xaaaa", "x")))

	// Duplicate sender: rejected, round and block untouched.
	err := p.DeliverTransaction(valueTx("0xaaaa", "y"))
	assert.ErrorIs(t, err, round.ErrTransactionNotValid)

	// Wrong payload type for the round.
	err = p.DeliverTransaction(voteTx("0xbbbb", true))
	assert.ErrorIs(t, err, round.ErrTransactionTypeNotRecognized)

	require.NoError(t, p.EndBlock())
	require.NoError(t, p.Commit())

	block, ok := p.Blockchain().Block(1)
	require.True(t, ok)
	assert.Len(t, block.Transactions, 1)
}

func TestPeriod_DeliverTxBytes(t *testing.T) {
	reg := payload.NewRegistry()
	reg.MustRegister("test/value", func(sender, id string, fields map[string]any) (payload.Payload, error) {
		value, _ := fields["value"].(string)
		return valuePayload{Base: payload.NewBase(sender, id), Value: value}, nil
	})

	p := newTestPeriod(t, PeriodConfig{
		Registry: reg,
		Verifier: fakeVerifier{ok: true},
		LedgerID: "testnet-1",
	})

	raw, err := valueTx("0xaaaa", "x").Encode()
	require.NoError(t, err)

	require.NoError(t, p.BeginBlock(header(1, 0)))
	require.NoError(t, p.DeliverTx(raw))

	// Unknown payload tag fails decode.
	rawVote, err := voteTx("0xbbbb", true).Encode()
	require.NoError(t, err)
	err = p.DeliverTx(rawVote)
	assert.ErrorIs(t, err, payload.ErrTransactionTypeNotRecognized)

	require.NoError(t, p.EndBlock())
	require.NoError(t, p.Commit())
}

func TestPeriod_SignatureVerification(t *testing.T) {
	p := newTestPeriod(t, PeriodConfig{
		Verifier: fakeVerifier{ok: false},
		LedgerID: "testnet-1",
	})

	require.NoError(t, p.BeginBlock(header(1, 0)))
	err := p.DeliverTransaction(valueTx("0xaaaa", "x"))
	assert.ErrorIs(t, err, payload.ErrSignatureInvalid)
}

func TestPeriod_LifecycleGuards(t *testing.T) {
	p := newTestPeriod(t, PeriodConfig{})

	// Out-of-window callbacks.
	assert.ErrorIs(t, p.DeliverTransaction(valueTx("0xaaaa", "x")), ErrNoBlockInProgress)
	assert.ErrorIs(t, p.EndBlock(), ErrNoBlockInProgress)
	assert.ErrorIs(t, p.Commit(), ErrNoBlockInProgress)

	require.NoError(t, p.BeginBlock(header(1, 0)))

	// Double begin.
	assert.ErrorIs(t, p.BeginBlock(header(1, 0)), ErrBlockInProgress)

	require.NoError(t, p.EndBlock())
	require.NoError(t, p.Commit())
	assert.Equal(t, int64(1), p.Height())
}

func TestPeriod_HeightTracksCommits(t *testing.T) {
	p := newTestPeriod(t, PeriodConfig{})

	for h := int64(1); h <= 3; h++ {
		runBlock(t, p, header(h, h))
	}
	assert.Equal(t, int64(3), p.Height())

	// A header skipping ahead is refused at commit and the chain keeps
	// its height.
	require.NoError(t, p.BeginBlock(header(5, 10)))
	require.NoError(t, p.EndBlock())
	err := p.Commit()
	assert.ErrorIs(t, err, chain.ErrAddBlock)
	assert.Equal(t, int64(3), p.Blockchain().Height())
}
