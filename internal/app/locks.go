package service

import (
	"slices"
	"sync"
)

// keyedLocks serializes events that share a competitor. Locks are taken in
// name order so two rooms with overlapping rosters cannot deadlock. An entry
// lives only while some caller holds or waits on it.
type keyedLocks struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	sync.Mutex
	refs int
}

func newKeyedLocks() *keyedLocks {
	return &keyedLocks{locks: make(map[string]*keyedLock)}
}

// Lock acquires every name and returns the release func.
func (k *keyedLocks) Lock(names []string) (unlock func()) {
	sorted := slices.Clone(names)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	for _, name := range sorted {
		k.acquire(name).Lock()
	}
	return func() {
		for i := len(sorted) - 1; i >= 0; i-- {
			k.release(sorted[i])
		}
	}
}

func (k *keyedLocks) acquire(name string) *keyedLock {
	k.mu.Lock()
	defer k.mu.Unlock()
	l, ok := k.locks[name]
	if !ok {
		l = new(keyedLock)
		k.locks[name] = l
	}
	l.refs++
	return l
}

func (k *keyedLocks) release(name string) {
	k.mu.Lock()
	defer k.mu.Unlock()
	l := k.locks[name]
	l.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(k.locks, name)
	}
}
