package workflow

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOwnerLocks_SerializesSameOwner(t *testing.T) {
	locks := NewOwnerLocks()

	const goroutines = 50
	const increments = 100

	// counter is deliberately unprotected; the owner lock is the only
	// thing keeping the read-modify-write sequence safe.
	counter := 0

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < increments; j++ {
				locks.Lock("owner-1")
				counter++
				locks.Unlock("owner-1")
			}
		}()
	}
	wg.Wait()

	require.Equal(t, goroutines*increments, counter)
}

func TestOwnerLocks_DifferentOwnersDoNotBlock(t *testing.T) {
	locks := NewOwnerLocks()

	locks.Lock("owner-1")

	done := make(chan struct{})
	go func() {
		locks.Lock("owner-2")
		locks.Unlock("owner-2")
		close(done)
	}()

	// Would deadlock here if owner-2 waited on owner-1's lock.
	<-done

	locks.Unlock("owner-1")
}

func TestOwnerLocks_EntriesAreReleased(t *testing.T) {
	locks := NewOwnerLocks()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locks.Lock("owner-1")
			locks.Unlock("owner-1")
		}()
	}
	wg.Wait()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	require.Empty(t, locks.locks)
}

func TestOwnerLocks_UnlockWithoutLockPanics(t *testing.T) {
	locks := NewOwnerLocks()

	require.Panics(t, func() {
		locks.Unlock("owner-1")
	})
}
