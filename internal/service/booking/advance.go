package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/logging"
)

// Advance applies a provider-driven fulfillment event to a booking. Which
// events are legal from which state, and whether acceptance is required at
// all, is decided by the transition table per booking kind.
func (s *Service) Advance(ctx context.Context, bookingID, actorID uuid.UUID, event domain.BookingEvent) (*domain.Booking, error) {
	switch event {
	case domain.EventProviderAccept, domain.EventStart, domain.EventComplete:
	default:
		return nil, fmt.Errorf("Advance: event %q: %w", event, domain.ErrInvalidTransition)
	}

	unlock := s.locks.Acquire(bookingID)
	defer unlock()

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("Advance: %w", err)
	}
	if b.ProviderID != actorID {
		return nil, fmt.Errorf("Advance: %w", domain.ErrNotBookingActor)
	}

	next, err := domain.Transition(b.Status, event, b.Kind)
	if err != nil {
		return nil, fmt.Errorf("Advance: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Advance: begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if err := s.bookings.UpdateState(ctx, tx, b.ID, next, b.PaymentStatus, b.PaymentMethod, now); err != nil {
		return nil, fmt.Errorf("Advance: %w", err)
	}
	if err := s.recordEvent(ctx, tx, b.ID, event, b.Status, next, actorID.String()); err != nil {
		return nil, fmt.Errorf("Advance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Advance: commit tx: %w", err)
	}

	from := b.Status
	b.Status = next
	b.UpdatedAt = now
	observeTransition(b.Kind, next)
	logging.FromContext(ctx).Info("booking advanced",
		"booking_id", b.ID,
		"event", event,
		"from", from,
		"to", next,
	)

	if event == domain.EventProviderAccept {
		s.emit(ctx, &domain.NotificationEvent{
			RecipientID:      b.PatientID,
			RecipientRole:    domain.RolePatient,
			Type:             domain.NotifyProviderAccepted,
			RelatedBookingID: b.ID,
		})
	}
	if next == domain.StatusCompleted {
		s.emit(ctx, &domain.NotificationEvent{
			RecipientID:      b.PatientID,
			RecipientRole:    domain.RolePatient,
			Type:             domain.NotifyRatingRequest,
			RelatedBookingID: b.ID,
		})
	}

	return b, nil
}
