package booking

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestBookingLocks_MutualExclusion(t *testing.T) {
	locks := newBookingLocks()
	id := uuid.New()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Acquire(id)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	require.Equal(t, 50, counter)
}

func TestBookingLocks_ReleasesEntries(t *testing.T) {
	locks := newBookingLocks()
	id := uuid.New()

	unlock := locks.Acquire(id)
	unlock()

	locks.mu.Lock()
	defer locks.mu.Unlock()
	require.Empty(t, locks.locks)
}

func TestBookingLocks_IndependentBookings(t *testing.T) {
	locks := newBookingLocks()

	unlockA := locks.Acquire(uuid.New())
	defer unlockA()

	// A held lock on one booking must not block another.
	done := make(chan struct{})
	go func() {
		unlockB := locks.Acquire(uuid.New())
		unlockB()
		close(done)
	}()
	<-done
}
