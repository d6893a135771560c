package workflow

import (
	"sync"
)

// OwnerLocks is a lock table keyed by owner id. Every default-account
// operation for an owner runs under that owner's lock, so concurrent
// commands for the same owner serialize while different owners proceed in
// parallel. Entries are reference counted and removed once the last
// holder releases, so the table does not grow with the user base.
type OwnerLocks struct {
	mu    sync.Mutex
	locks map[string]*ownerLock
}

type ownerLock struct {
	mu   sync.Mutex
	refs int
}

func NewOwnerLocks() *OwnerLocks {
	return &OwnerLocks{
		locks: make(map[string]*ownerLock),
	}
}

func (l *OwnerLocks) Lock(ownerID string) {
	l.mu.Lock()
	entry, ok := l.locks[ownerID]
	if !ok {
		entry = &ownerLock{}
		l.locks[ownerID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
}

func (l *OwnerLocks) Unlock(ownerID string) {
	l.mu.Lock()
	entry, ok := l.locks[ownerID]
	if !ok {
		l.mu.Unlock()
		panic("workflow: unlock of unheld owner lock")
	}
	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, ownerID)
	}
	l.mu.Unlock()

	entry.mu.Unlock()
}
