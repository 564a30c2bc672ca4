// Package dedupe tracks submitted event IDs so a rating event is applied at
// most once.
package dedupe

import (
	"context"
	"sync"
)

// defaultCapacity bounds the ledger when no size is configured.
const defaultCapacity = 50000

// Ledger records event IDs that were accepted for rating.
type Ledger interface {
	// Claim records id and reports whether it was already present.
	Claim(ctx context.Context, id string) (duplicate bool)
	// Release removes id so the event can be submitted again. Used when an
	// accepted event fails before it is committed.
	Release(ctx context.Context, id string)
	// Len is the number of IDs currently held.
	Len() int
}

// ringLedger keeps the most recent IDs in a fixed ring; the oldest claim is
// overwritten once the ring is full. A capacity of zero or less disables
// eviction.
type ringLedger struct {
	mu       sync.Mutex
	capacity int
	index    map[string]int
	ring     []string
	next     int
}

// NewLedger creates an in-memory ledger.
func NewLedger(opts ...Option) Ledger {
	l := &ringLedger{capacity: defaultCapacity}
	for _, opt := range opts {
		opt(l)
	}
	l.index = make(map[string]int)
	if l.capacity > 0 {
		l.ring = make([]string, 0, l.capacity)
	}
	return l
}

func (l *ringLedger) Claim(_ context.Context, id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.index[id]; ok {
		return true
	}
	if l.capacity <= 0 {
		l.index[id] = -1
		return false
	}
	if len(l.ring) < l.capacity {
		l.index[id] = len(l.ring)
		l.ring = append(l.ring, id)
		return false
	}
	// Full: overwrite the oldest slot, skipping slots freed by Release.
	evicted := l.ring[l.next]
	if pos, ok := l.index[evicted]; ok && pos == l.next {
		delete(l.index, evicted)
	}
	l.ring[l.next] = id
	l.index[id] = l.next
	l.next = (l.next + 1) % l.capacity
	return false
}

func (l *ringLedger) Release(_ context.Context, id string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.index, id)
}

func (l *ringLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.index)
}
