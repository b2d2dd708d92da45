package notification

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty/sehaty-backend/internal/domain"
)

type memoryEventRepo struct {
	mu     sync.Mutex
	events map[uuid.UUID]*domain.NotificationEvent
	keys   map[string]bool
}

func newMemoryEventRepo() *memoryEventRepo {
	return &memoryEventRepo{
		events: make(map[uuid.UUID]*domain.NotificationEvent),
		keys:   make(map[string]bool),
	}
}

func (m *memoryEventRepo) key(e *domain.NotificationEvent) string {
	return e.RelatedBookingID.String() + "/" + string(e.Type)
}

func (m *memoryEventRepo) Create(_ context.Context, e *domain.NotificationEvent) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.keys[m.key(e)] {
		return false, nil
	}
	m.keys[m.key(e)] = true
	cp := *e
	m.events[e.ID] = &cp
	return true, nil
}

func (m *memoryEventRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.NotificationEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *memoryEventRepo) ListForRecipient(_ context.Context, recipientID uuid.UUID, limit, offset int) ([]domain.NotificationEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []domain.NotificationEvent
	for _, e := range m.events {
		if e.RecipientID == recipientID {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (m *memoryEventRepo) GetDue(_ context.Context, now time.Time, limit int) ([]domain.NotificationEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due []domain.NotificationEvent
	for _, e := range m.events {
		if e.Delivered {
			continue
		}
		if e.ScheduledFor != nil && e.ScheduledFor.After(now) {
			continue
		}
		due = append(due, *e)
		if len(due) == limit {
			break
		}
	}
	return due, nil
}

func (m *memoryEventRepo) MarkDelivered(_ context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.events[id]
	if !ok || e.Delivered {
		return domain.ErrNotFound
	}
	e.Delivered = true
	e.DeliveredAt = &at
	return nil
}

func testEvent(recipientID, bookingID uuid.UUID, typ domain.NotificationType) *domain.NotificationEvent {
	return &domain.NotificationEvent{
		RecipientID:      recipientID,
		RecipientRole:    domain.RolePatient,
		Type:             typ,
		RelatedBookingID: bookingID,
	}
}

func TestEmit_Deduplicates(t *testing.T) {
	repo := newMemoryEventRepo()
	d := NewDispatcher(repo, NewChannelSink(slog.Default(), 8), slog.Default(), time.Hour)
	ctx := context.Background()

	recipient, booking := uuid.New(), uuid.New()

	require.NoError(t, d.Emit(ctx, testEvent(recipient, booking, domain.NotifyBookingConfirmed)))
	require.NoError(t, d.Emit(ctx, testEvent(recipient, booking, domain.NotifyBookingConfirmed)))
	require.NoError(t, d.Emit(ctx, testEvent(recipient, booking, domain.NotifyRatingRequest)))

	assert.Len(t, repo.events, 2)
}

func TestDispatcher_DeliversImmediateEvents(t *testing.T) {
	repo := newMemoryEventRepo()
	sink := NewChannelSink(slog.Default(), 8)
	d := NewDispatcher(repo, sink, slog.Default(), 10*time.Millisecond)

	recipient, booking := uuid.New(), uuid.New()
	ch := sink.Subscribe(recipient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)

	require.NoError(t, d.Emit(ctx, testEvent(recipient, booking, domain.NotifyBookingConfirmed)))

	select {
	case got := <-ch:
		assert.Equal(t, domain.NotifyBookingConfirmed, got.Type)
		assert.Equal(t, booking, got.RelatedBookingID)
	case <-time.After(2 * time.Second):
		t.Fatal("notification was not delivered")
	}
}

func TestDispatcher_HoldsScheduledEvents(t *testing.T) {
	repo := newMemoryEventRepo()
	sink := NewChannelSink(slog.Default(), 8)
	d := NewDispatcher(repo, sink, slog.Default(), 10*time.Millisecond)

	recipient, booking := uuid.New(), uuid.New()
	ch := sink.Subscribe(recipient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Start(ctx)

	due := time.Now().UTC().Add(150 * time.Millisecond)
	e := testEvent(recipient, booking, domain.NotifyBookingReminder)
	e.ScheduledFor = &due
	require.NoError(t, d.Emit(ctx, e))

	select {
	case <-ch:
		t.Fatal("reminder delivered before its schedule")
	case <-time.After(50 * time.Millisecond):
	}

	select {
	case got := <-ch:
		assert.Equal(t, domain.NotifyBookingReminder, got.Type)
		assert.WithinDuration(t, due, time.Now().UTC(), 2*time.Second)
	case <-time.After(2 * time.Second):
		t.Fatal("reminder never delivered")
	}
}

func TestDismiss_PreventsDelivery(t *testing.T) {
	repo := newMemoryEventRepo()
	sink := NewChannelSink(slog.Default(), 8)
	d := NewDispatcher(repo, sink, slog.Default(), 10*time.Millisecond)
	ctx := context.Background()

	recipient, booking := uuid.New(), uuid.New()
	e := testEvent(recipient, booking, domain.NotifyBookingCancelled)
	require.NoError(t, d.Emit(ctx, e))
	require.NoError(t, d.Dismiss(ctx, e.ID))

	due, err := repo.GetDue(ctx, time.Now().UTC().Add(time.Hour), 10)
	require.NoError(t, err)
	assert.Empty(t, due)

	stored, err := repo.GetByID(ctx, e.ID)
	require.NoError(t, err)
	assert.True(t, stored.Delivered)
}
