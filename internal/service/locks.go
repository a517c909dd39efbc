package service

import "sync"

// txLocks serializes lifecycle mutations per transaction ID. Combined with
// the status compare-and-set in the store, holding the lock across
// read-check-write makes the both-confirmed side effects (token transfer,
// item release, late penalty) execute at most once per phase even when
// both parties confirm concurrently.
type txLocks struct {
	mu    sync.Mutex
	locks map[uint64]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newTxLocks() *txLocks {
	return &txLocks{locks: make(map[uint64]*lockEntry)}
}

// lock acquires the mutex for id and returns the matching unlock func.
// Entries are reference-counted and removed when the last holder releases,
// so the map does not grow with transaction history.
func (l *txLocks) lock(id uint64) (unlock func()) {
	l.mu.Lock()
	e, ok := l.locks[id]
	if !ok {
		e = &lockEntry{}
		l.locks[id] = e
	}
	e.refs++
	l.mu.Unlock()

	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		l.mu.Lock()
		e.refs--
		if e.refs == 0 {
			delete(l.locks, id)
		}
		l.mu.Unlock()
	}
}
