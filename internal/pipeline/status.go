package pipeline

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/docupay/invoice-capture/constants"
)

// Snapshot is a read-only view of the run status cell. The presentation
// layer polls or subscribes; only the Processor writes.
type Snapshot struct {
	State     constants.RunState `json:"state"`
	Phase     string             `json:"phase,omitempty"`
	Message   string             `json:"message,omitempty"`
	Record    json.RawMessage    `json:"record,omitempty"`
	RunID     string             `json:"run_id,omitempty"`
	UpdatedAt time.Time          `json:"updated_at"`
}

// Tracker owns the mutable status cell. The original design had a single
// thread of control and no locking; here HTTP handlers read concurrently, so
// reads and writes go through a mutex.
type Tracker struct {
	mu      sync.RWMutex
	cur     Snapshot
	subs    map[int]chan Snapshot
	nextSub int
}

func NewTracker() *Tracker {
	return &Tracker{
		cur:  Snapshot{State: constants.RunStateIdle, UpdatedAt: time.Now()},
		subs: make(map[int]chan Snapshot),
	}
}

// Snapshot returns the current status.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.cur
}

// Subscribe returns a channel of status updates and a cancel function.
// Slow consumers miss intermediate updates rather than blocking the pipeline.
func (t *Tracker) Subscribe() (<-chan Snapshot, func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := t.nextSub
	t.nextSub++
	ch := make(chan Snapshot, 8)
	t.subs[id] = ch
	cancel := func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		if sub, ok := t.subs[id]; ok {
			delete(t.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// tryBegin re-arms the cell from idle/success/error into processing.
// Returns false if a run is already active.
func (t *Tracker) tryBegin(runID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.cur.State == constants.RunStateProcessing {
		return false
	}
	t.set(Snapshot{State: constants.RunStateProcessing, RunID: runID})
	return true
}

func (t *Tracker) phase(runID, label string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.set(Snapshot{State: constants.RunStateProcessing, Phase: label, RunID: runID})
}

func (t *Tracker) fail(runID string, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.set(Snapshot{State: constants.RunStateError, Message: err.Error(), RunID: runID})
}

func (t *Tracker) succeed(runID string, record []byte) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.set(Snapshot{State: constants.RunStateSuccess, Record: record, RunID: runID})
}

// set must be called with t.mu held.
func (t *Tracker) set(s Snapshot) {
	s.UpdatedAt = time.Now()
	t.cur = s
	for _, ch := range t.subs {
		select {
		case ch <- s:
		default:
		}
	}
}
