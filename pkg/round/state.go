package round

import (
	"fmt"
	"sort"
)

// BasePeriodState is an immutable value object representing the
// replicated application state at the start of the current round.
// Update always returns a new value; the receiver is never mutated.
type BasePeriodState struct {
	participants map[string]struct{}
	attrs        map[string]any
}

// NewBasePeriodState builds a state from a participant address list.
// Returns an error if any address is duplicated.
func NewBasePeriodState(participants []string) (BasePeriodState, error) {
	set := make(map[string]struct{}, len(participants))
	for _, p := range participants {
		if _, exists := set[p]; exists {
			return BasePeriodState{}, fmt.Errorf("round: duplicate participant %q", p)
		}
		set[p] = struct{}{}
	}
	return BasePeriodState{participants: set, attrs: make(map[string]any)}, nil
}

// Participants returns the participant addresses in sorted order, so
// iteration is deterministic across replicas.
func (s BasePeriodState) Participants() []string {
	out := make([]string, 0, len(s.participants))
	for p := range s.participants {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// NumParticipants returns the number of participants.
func (s BasePeriodState) NumParticipants() int {
	return len(s.participants)
}

// HasParticipant reports whether addr is a participant.
func (s BasePeriodState) HasParticipant(addr string) bool {
	_, ok := s.participants[addr]
	return ok
}

// Get returns a named attribute set by a previous Update.
func (s BasePeriodState) Get(key string) (any, bool) {
	v, ok := s.attrs[key]
	return v, ok
}

// MustGet returns a named attribute, panicking if absent. It suits
// attributes a caller requires the state to carry (e.g. a designated
// keeper address), where a missing attribute is a programmer error in
// the driving application, not a recoverable one.
func (s BasePeriodState) MustGet(key string) any {
	v, ok := s.attrs[key]
	if !ok {
		panic(fmt.Sprintf("round: state attribute %q not set", key))
	}
	return v
}

// Update returns a new BasePeriodState with the given attributes shadowing
// any previous values of the same name. The participant set is always
// carried over unchanged; a "participants" key in kv is stored as an
// ordinary attribute and does not alter it.
func (s BasePeriodState) Update(kv map[string]any) BasePeriodState {
	next := BasePeriodState{
		participants: s.participants,
		attrs:        make(map[string]any, len(s.attrs)+len(kv)),
	}
	for k, v := range s.attrs {
		next.attrs[k] = v
	}
	for k, v := range kv {
		next.attrs[k] = v
	}
	return next
}

// ConsensusParams derives the Byzantine quorum size from the configured
// maximum participant count.
type ConsensusParams struct {
	MaxParticipants int
}

// ConsensusThreshold returns floor(2n/3) + 1 for n = MaxParticipants.
func (p ConsensusParams) ConsensusThreshold() int {
	return Threshold(p.MaxParticipants)
}

// Validate checks that the configured participant count is large enough
// for the Byzantine quorum arithmetic to be meaningful. The arithmetic
// itself is well-defined at any n >= 1, but below 4 participants the
// quorum cannot outvote a single faulty node.
func (p ConsensusParams) Validate() error {
	if p.MaxParticipants < 4 {
		return fmt.Errorf("round: max_participants = %d: need at least 4 for Byzantine fault tolerance to be meaningful", p.MaxParticipants)
	}
	return nil
}
