package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/metrics"
)

type eventRepo interface {
	Create(ctx context.Context, e *domain.NotificationEvent) (bool, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.NotificationEvent, error)
	GetDue(ctx context.Context, now time.Time, limit int) ([]domain.NotificationEvent, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]domain.NotificationEvent, error)
}

// Sink receives events that are due. Delivery is at-most-once, best effort:
// a sink error is logged and the event stays undelivered for the next poll,
// but nothing stronger is promised.
type Sink interface {
	Deliver(ctx context.Context, event domain.NotificationEvent) error
}

// Dispatcher persists notification events and delivers them when due.
// Scheduled events (reminders) are held until their scheduled_for passes.
type Dispatcher struct {
	events   eventRepo
	sink     Sink
	logger   *slog.Logger
	interval time.Duration
}

func NewDispatcher(events eventRepo, sink Sink, logger *slog.Logger, interval time.Duration) *Dispatcher {
	return &Dispatcher{
		events:   events,
		sink:     sink,
		logger:   logger,
		interval: interval,
	}
}

// Emit records the event, suppressing duplicates on (booking, type).
func (d *Dispatcher) Emit(ctx context.Context, e *domain.NotificationEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}

	inserted, err := d.events.Create(ctx, e)
	if err != nil {
		return fmt.Errorf("Emit: %w", err)
	}
	if !inserted {
		d.logger.Debug("duplicate notification suppressed",
			"booking_id", e.RelatedBookingID,
			"type", e.Type,
		)
	}
	return nil
}

func (d *Dispatcher) GetByID(ctx context.Context, id uuid.UUID) (*domain.NotificationEvent, error) {
	e, err := d.events.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

// ListForRecipient returns the recipient's notification feed, newest first.
func (d *Dispatcher) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]domain.NotificationEvent, error) {
	events, err := d.events.ListForRecipient(ctx, recipientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListForRecipient: %w", err)
	}
	return events, nil
}

// Dismiss marks an event delivered without delivering it.
func (d *Dispatcher) Dismiss(ctx context.Context, id uuid.UUID) error {
	if err := d.events.MarkDelivered(ctx, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("Dismiss: %w", err)
	}
	return nil
}

// Start runs the delivery loop until ctx is cancelled. Single consumer.
func (d *Dispatcher) Start(ctx context.Context) {
	d.logger.Info("notification dispatcher started", "interval", d.interval)

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("notification dispatcher stopped")
			return
		case <-ticker.C:
			d.poll(ctx)
		}
	}
}

func (d *Dispatcher) poll(ctx context.Context) {
	due, err := d.events.GetDue(ctx, time.Now().UTC(), 50)
	if err != nil {
		d.logger.Error("failed to fetch due notifications", "error", err)
		return
	}

	for _, e := range due {
		if err := d.sink.Deliver(ctx, e); err != nil {
			d.logger.Warn("notification delivery failed",
				"notification_id", e.ID,
				"type", e.Type,
				"error", err,
			)
			continue
		}
		if err := d.events.MarkDelivered(ctx, e.ID, time.Now().UTC()); err != nil {
			d.logger.Error("failed to mark notification delivered",
				"notification_id", e.ID,
				"error", err,
			)
			continue
		}
		metrics.NotificationsDeliveredTotal.Inc()
	}
}
