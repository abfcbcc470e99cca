// Package period implements the block-time timeout scheduler, the round
// state machine (AbciApp), and the engine-facing period driver.
package period

import (
	"container/heap"
	"fmt"
	"time"

	"github.com/blockberries/roundberry/pkg/round"
)

// TimeoutEvent is a scheduled (deadline, event) pair. Deadlines are
// block-time instants: they are only ever compared against engine block
// timestamps, never the wall clock, so firing is deterministic across
// replicas.
type TimeoutEvent struct {
	Deadline time.Time
	Event    round.Event

	entryID   int
	heapIndex int // Index in the heap, maintained by heap.Interface
}

// timeoutHeap implements heap.Interface ordered by earliest deadline,
// with the monotonically assigned entry id as tie-breaker.
type timeoutHeap []*TimeoutEvent

func (h timeoutHeap) Len() int { return len(h) }
func (h timeoutHeap) Less(i, j int) bool {
	if h[i].Deadline.Equal(h[j].Deadline) {
		return h[i].entryID < h[j].entryID
	}
	return h[i].Deadline.Before(h[j].Deadline)
}
func (h timeoutHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *timeoutHeap) Push(x any) {
	n := len(*h)
	item := x.(*TimeoutEvent)
	item.heapIndex = n
	*h = append(*h, item)
}

func (h *timeoutHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil // Avoid memory leak
	item.heapIndex = -1
	*h = old[0 : n-1]
	return item
}

// Timeouts is a min-priority queue of scheduled timeouts with lazy
// cancellation: cancelled entries stay in the heap, marked, and are
// dropped when they surface.
type Timeouts struct {
	heap      timeoutHeap
	cancelled map[int]struct{}
	nextID    int
	live      int
}

// NewTimeouts creates an empty timeout queue.
func NewTimeouts() *Timeouts {
	t := &Timeouts{
		heap:      make(timeoutHeap, 0),
		cancelled: make(map[int]struct{}),
	}
	heap.Init(&t.heap)
	return t
}

// AddTimeout schedules event to fire at deadline and returns the entry
// id usable as a cancellation handle.
func (t *Timeouts) AddTimeout(deadline time.Time, event round.Event) int {
	id := t.nextID
	t.nextID++
	heap.Push(&t.heap, &TimeoutEvent{Deadline: deadline, Event: event, entryID: id})
	t.live++
	return id
}

// CancelTimeout marks the entry id as cancelled. The entry is discarded
// lazily when it reaches the top of the heap.
func (t *Timeouts) CancelTimeout(entryID int) error {
	if entryID < 0 || entryID >= t.nextID {
		return fmt.Errorf("%w: id %d", ErrTimeoutNotFound, entryID)
	}
	if _, done := t.cancelled[entryID]; done {
		return fmt.Errorf("%w: id %d already cancelled", ErrTimeoutNotFound, entryID)
	}
	if !t.inHeap(entryID) {
		return fmt.Errorf("%w: id %d already fired", ErrTimeoutNotFound, entryID)
	}
	t.cancelled[entryID] = struct{}{}
	t.live--
	return nil
}

// PopEarliestCancelledTimeouts drops all leading heap entries whose id
// has been cancelled.
func (t *Timeouts) PopEarliestCancelledTimeouts() {
	for t.heap.Len() > 0 {
		top := t.heap[0]
		if _, done := t.cancelled[top.entryID]; !done {
			return
		}
		heap.Pop(&t.heap)
		delete(t.cancelled, top.entryID)
	}
}

// GetEarliestTimeout returns the earliest live timeout without popping
// it. ok is false when the queue is empty.
func (t *Timeouts) GetEarliestTimeout() (deadline time.Time, event round.Event, ok bool) {
	t.PopEarliestCancelledTimeouts()
	if t.heap.Len() == 0 {
		return time.Time{}, "", false
	}
	top := t.heap[0]
	return top.Deadline, top.Event, true
}

// PopTimeout pops and returns the earliest live timeout. ok is false
// when the queue is empty.
func (t *Timeouts) PopTimeout() (deadline time.Time, event round.Event, ok bool) {
	t.PopEarliestCancelledTimeouts()
	if t.heap.Len() == 0 {
		return time.Time{}, "", false
	}
	top := heap.Pop(&t.heap).(*TimeoutEvent)
	t.live--
	return top.Deadline, top.Event, true
}

// Len returns the number of live (scheduled, not cancelled) timeouts.
func (t *Timeouts) Len() int {
	return t.live
}

func (t *Timeouts) inHeap(entryID int) bool {
	for _, e := range t.heap {
		if e.entryID == entryID {
			return true
		}
	}
	return false
}
