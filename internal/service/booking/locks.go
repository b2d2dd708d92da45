package booking

import (
	"sync"

	"github.com/google/uuid"
)

// bookingLocks serializes operations on a single booking so a payment and a
// cancellation racing on the same id resolve in strict order. A cancel that
// wins the lock sees the booking before any money moved.
type bookingLocks struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newBookingLocks() *bookingLocks {
	return &bookingLocks{locks: make(map[uuid.UUID]*lockEntry)}
}

// Acquire blocks until the caller holds the booking's lock and returns the
// release func. Entries are reference counted so the map does not grow with
// the number of bookings ever touched.
func (l *bookingLocks) Acquire(id uuid.UUID) func() {
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
