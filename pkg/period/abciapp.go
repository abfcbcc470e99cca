package period

import (
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/blockberries/roundberry/logging"
	"github.com/blockberries/roundberry/pkg/events"
	"github.com/blockberries/roundberry/pkg/metrics"
	"github.com/blockberries/roundberry/pkg/payload"
	"github.com/blockberries/roundberry/pkg/round"
)

// RoundConstructor builds a fresh round instance over the given state.
type RoundConstructor func(state round.BasePeriodState, params round.ConsensusParams) round.Round

// AppSpec is the static configuration of an application: its rounds,
// the transition table between them, per-event timeouts, and the round
// ids that terminate the period. Transition tables are keyed by the
// stable round id strings the rounds themselves report.
type AppSpec struct {
	// InitialRoundID names the round instantiated by Setup.
	InitialRoundID string

	// Rounds maps round ids to constructors.
	Rounds map[string]RoundConstructor

	// Transitions maps (round id, event) to the next round id. Events
	// absent from a round's row are ignored when they occur.
	Transitions map[string]map[round.Event]string

	// EventToTimeout schedules a timeout firing the given event after
	// the given block-time duration, for every round that has a
	// transition on that event.
	EventToTimeout map[round.Event]time.Duration

	// FinalStates lists round ids that terminate the period. They need
	// no constructor; reaching one leaves the app without a current
	// round.
	FinalStates []string
}

// Validate checks the spec for dangling references.
func (s AppSpec) Validate() error {
	if s.InitialRoundID == "" {
		return ErrNoInitialRound
	}
	finals := make(map[string]struct{}, len(s.FinalStates))
	for _, id := range s.FinalStates {
		finals[id] = struct{}{}
	}
	if _, ok := s.Rounds[s.InitialRoundID]; !ok {
		return fmt.Errorf("%w: initial round %q", ErrUnknownRound, s.InitialRoundID)
	}
	for from, row := range s.Transitions {
		if _, ok := s.Rounds[from]; !ok {
			return fmt.Errorf("%w: transition source %q", ErrUnknownRound, from)
		}
		for event, to := range row {
			if _, final := finals[to]; final {
				continue
			}
			if _, ok := s.Rounds[to]; !ok {
				return fmt.Errorf("%w: transition %q --%s--> %q", ErrUnknownRound, from, event, to)
			}
		}
	}
	return nil
}

// isFinal reports whether id names a final state.
func (s AppSpec) isFinal(id string) bool {
	for _, f := range s.FinalStates {
		if f == id {
			return true
		}
	}
	return false
}

// AbciAppConfig bundles the dependencies of an AbciApp. Logger, Metrics,
// and Bus are optional; nil means no-op.
type AbciAppConfig struct {
	Spec    AppSpec
	State   round.BasePeriodState
	Params  round.ConsensusParams
	Logger  *logging.Logger
	Metrics metrics.Metrics
	Bus     *events.Bus
}

// AbciApp is the round state machine: it holds the current round, swaps
// rounds according to the transition table when verdicts or timeouts
// produce events, and keeps the block-time clock the timeouts are
// measured against.
type AbciApp struct {
	spec   AppSpec
	state  round.BasePeriodState
	params round.ConsensusParams

	current        round.Round
	currentRoundID string
	lastRoundID    string
	lastTimestamp  time.Time
	latestResult   *round.BasePeriodState

	timeouts        *Timeouts
	scheduledIDs    []int
	pendingSchedule bool
	roundStartedAt  time.Time

	logger  *logging.Logger
	metrics metrics.Metrics
	bus     *events.Bus
}

// NewAbciApp creates an AbciApp from its configuration. The spec and
// consensus parameters are validated here, once, so every later
// transition can trust the table.
func NewAbciApp(cfg AbciAppConfig) (*AbciApp, error) {
	if err := cfg.Spec.Validate(); err != nil {
		return nil, fmt.Errorf("period: invalid app spec: %w", err)
	}
	if err := cfg.Params.Validate(); err != nil {
		return nil, fmt.Errorf("period: %w", err)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	m := cfg.Metrics
	if m == nil {
		m = metrics.NewNopMetrics()
	}
	return &AbciApp{
		spec:     cfg.Spec,
		state:    cfg.State,
		params:   cfg.Params,
		timeouts: NewTimeouts(),
		logger:   logger.WithComponent("abciapp"),
		metrics:  m,
		bus:      cfg.Bus,
	}, nil
}

// Setup instantiates the initial round. Timeouts for it are scheduled at
// the first UpdateTime, when block time becomes known.
func (a *AbciApp) Setup() error {
	if a.current != nil {
		return fmt.Errorf("%w: setup called twice", round.ErrABCIAppInternal)
	}
	ctor := a.spec.Rounds[a.spec.InitialRoundID]
	a.current = ctor(a.state, a.params)
	a.currentRoundID = a.current.RoundID()
	a.pendingSchedule = true
	a.metrics.SetCurrentRound(a.currentRoundID)
	a.logger.Debug("initial round set up", logging.RoundID(a.currentRoundID))
	return nil
}

// CurrentRound returns the active round, nil once the period finished.
func (a *AbciApp) CurrentRound() round.Round { return a.current }

// CurrentRoundID returns the active round's id, empty once finished.
func (a *AbciApp) CurrentRoundID() string { return a.currentRoundID }

// LastRoundID returns the id of the most recently exited round.
func (a *AbciApp) LastRoundID() string { return a.lastRoundID }

// LastTimestamp returns the latest block time observed via UpdateTime.
func (a *AbciApp) LastTimestamp() time.Time { return a.lastTimestamp }

// LatestResult returns the state produced by the most recent verdict.
func (a *AbciApp) LatestResult() (round.BasePeriodState, bool) {
	if a.latestResult == nil {
		return round.BasePeriodState{}, false
	}
	return *a.latestResult, true
}

// State returns the state the current round was started over.
func (a *AbciApp) State() round.BasePeriodState { return a.state }

// IsFinished reports whether the period has reached a final state.
func (a *AbciApp) IsFinished() bool { return a.current == nil && a.lastRoundID != "" }

// PendingTimeouts returns the number of live scheduled timeouts.
func (a *AbciApp) PendingTimeouts() int { return a.timeouts.Len() }

// CheckTransaction forwards tx to the current round without mutating it.
func (a *AbciApp) CheckTransaction(tx payload.Transaction) error {
	if a.current == nil {
		return fmt.Errorf("%w: check_transaction", ErrAppFinished)
	}
	return a.current.CheckTransaction(tx)
}

// ProcessTransaction forwards tx to the current round.
func (a *AbciApp) ProcessTransaction(tx payload.Transaction) error {
	if a.current == nil {
		return fmt.Errorf("%w: process_transaction", ErrAppFinished)
	}
	return a.current.ProcessTransaction(tx)
}

// ProcessEvent applies the transition table to (current round, event).
// Unknown events are logged and ignored: the table is conservatively
// open because the engine cannot be trusted to deliver only known
// events. result, when non-nil, becomes the state the next round starts
// over.
func (a *AbciApp) ProcessEvent(event round.Event, result *round.BasePeriodState) {
	if a.current == nil {
		a.logger.Warn("event after period finished, ignoring", logging.Event(string(event)))
		return
	}

	row := a.spec.Transitions[a.currentRoundID]
	next, ok := row[event]
	if !ok {
		a.logger.Warn("unknown event for round, ignoring",
			logging.RoundID(a.currentRoundID), logging.Event(string(event)))
		return
	}

	a.cancelScheduledTimeouts()

	if result != nil {
		a.state = *result
		a.latestResult = result
	}

	from := a.currentRoundID
	a.lastRoundID = from
	a.metrics.IncRoundTransitions(string(event))
	a.metrics.ObserveRoundDuration(from, a.lastTimestamp.Sub(a.roundStartedAt))

	if a.spec.isFinal(next) {
		a.current = nil
		a.currentRoundID = ""
		a.metrics.SetCurrentRound("")
		a.logger.Info("period finished",
			logging.RoundID(from), logging.Event(string(event)), logging.State(next))
		if a.bus != nil {
			a.bus.Publish(events.NewPeriodFinished(from, string(event), a.lastTimestamp))
		}
		return
	}

	ctor := a.spec.Rounds[next]
	a.current = ctor(a.state, a.params)
	a.currentRoundID = a.current.RoundID()
	a.roundStartedAt = a.lastTimestamp
	a.metrics.SetCurrentRound(a.currentRoundID)
	a.logger.Debug("round transition",
		logging.RoundID(from), logging.Event(string(event)), slog.String("to_round", a.currentRoundID))
	if a.bus != nil {
		a.bus.Publish(events.NewRoundTransition(from, a.currentRoundID, string(event), a.lastTimestamp))
	}

	if a.lastTimestamp.IsZero() {
		a.pendingSchedule = true
	} else {
		a.scheduleRoundTimeouts()
	}
}

// UpdateTime advances the block-time clock and fires every timeout whose
// deadline has passed. Each fired timeout feeds its event through
// ProcessEvent, so a stalled round can be abandoned between blocks.
func (a *AbciApp) UpdateTime(ts time.Time) {
	a.lastTimestamp = ts
	if a.pendingSchedule && a.current != nil {
		a.scheduleRoundTimeouts()
		a.pendingSchedule = false
	}
	if a.roundStartedAt.IsZero() {
		a.roundStartedAt = ts
	}

	for a.current != nil {
		deadline, event, ok := a.timeouts.GetEarliestTimeout()
		if !ok || deadline.After(ts) {
			break
		}
		a.timeouts.PopTimeout()
		a.metrics.IncTimeoutsFired(string(event))
		a.metrics.SetTimeoutsPending(a.timeouts.Len())
		a.logger.Debug("timeout fired",
			logging.Event(string(event)), logging.Deadline(deadline), logging.BlockTime(ts))
		if a.bus != nil {
			a.bus.Publish(events.NewTimeoutFired(string(event), ts))
		}
		a.ProcessEvent(event, nil)
	}
}

// scheduleRoundTimeouts schedules a timeout for every event the current
// round can transition on that has a configured duration. Events are
// iterated in sorted order so entry ids are assigned identically on
// every replica.
func (a *AbciApp) scheduleRoundTimeouts() {
	row := a.spec.Transitions[a.currentRoundID]
	if len(row) == 0 || len(a.spec.EventToTimeout) == 0 {
		return
	}
	eventNames := make([]string, 0, len(a.spec.EventToTimeout))
	for event := range a.spec.EventToTimeout {
		if _, ok := row[event]; ok {
			eventNames = append(eventNames, string(event))
		}
	}
	sort.Strings(eventNames)
	for _, name := range eventNames {
		event := round.Event(name)
		deadline := a.lastTimestamp.Add(a.spec.EventToTimeout[event])
		id := a.timeouts.AddTimeout(deadline, event)
		a.scheduledIDs = append(a.scheduledIDs, id)
		a.metrics.IncTimeoutsScheduled(name)
		a.logger.Debug("timeout scheduled",
			logging.RoundID(a.currentRoundID), logging.Event(name), logging.Deadline(deadline))
	}
	a.metrics.SetTimeoutsPending(a.timeouts.Len())
}

// cancelScheduledTimeouts cancels the timeouts belonging to the round
// being exited. Entries that already fired are skipped silently.
func (a *AbciApp) cancelScheduledTimeouts() {
	for _, id := range a.scheduledIDs {
		if err := a.timeouts.CancelTimeout(id); err == nil {
			a.metrics.IncTimeoutsCancelled()
		}
	}
	a.scheduledIDs = a.scheduledIDs[:0]
	a.metrics.SetTimeoutsPending(a.timeouts.Len())
}
