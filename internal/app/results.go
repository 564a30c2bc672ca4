package service

import (
	"slices"
	"sync"
	"time"

	"github.com/okian/ltrc/internal/domain/model"
)

// Status of a submitted event.
type Status string

// Submission states.
const (
	StatusPending Status = "pending"
	StatusRated   Status = "rated"
	StatusFailed  Status = "failed"
)

// Result is what a submitter can read back about an event.
type Result struct {
	EventID   string        `json:"event_id"`
	Status    Status        `json:"status"`
	Report    *model.Report `json:"report,omitempty"`
	Error     string        `json:"error,omitempty"`
	Reason    string        `json:"reason,omitempty"`
	UpdatedAt time.Time     `json:"updated_at"`
	err       error
}

// Err returns the failure of a failed event.
func (r Result) Err() error { return r.err }

// results keeps the latest outcome of recently submitted events. The oldest
// entry is dropped once capacity is reached.
type results struct {
	mu       sync.RWMutex
	capacity int
	byID     map[string]Result
	order    []string
}

func newResults(capacity int) *results {
	return &results{capacity: capacity, byID: make(map[string]Result)}
}

func (r *results) pending(id string) {
	r.put(Result{EventID: id, Status: StatusPending, UpdatedAt: time.Now()})
}

func (r *results) rated(id string, report model.Report) { //nolint:gocritic // hugeParam: stored by value
	r.put(Result{EventID: id, Status: StatusRated, Report: &report, UpdatedAt: time.Now()})
}

func (r *results) failed(id string, err error) {
	r.put(Result{
		EventID:   id,
		Status:    StatusFailed,
		Error:     err.Error(),
		Reason:    reason(err),
		UpdatedAt: time.Now(),
		err:       err,
	})
}

func (r *results) forget(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	if i := slices.Index(r.order, id); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

func (r *results) get(id string) (Result, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res, ok := r.byID[id]
	return res, ok
}

func (r *results) put(res Result) { //nolint:gocritic // hugeParam: stored by value
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byID[res.EventID]; !exists {
		r.order = append(r.order, res.EventID)
		r.evict()
	}
	r.byID[res.EventID] = res
}

// evict drops the oldest IDs while over capacity.
func (r *results) evict() {
	if r.capacity <= 0 {
		return
	}
	for len(r.order) > r.capacity {
		delete(r.byID, r.order[0])
		r.order = r.order[1:]
	}
}
