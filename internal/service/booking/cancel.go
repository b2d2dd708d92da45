package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/logging"
)

// Cancel aborts a booking from any non-terminal state. A completed debit is
// refunded by a compensating credit, and a still-pending cash entry is closed
// out, all in the same transaction as the status change.
func (s *Service) Cancel(ctx context.Context, bookingID, actorID uuid.UUID) (*domain.Booking, error) {
	unlock := s.locks.Acquire(bookingID)
	defer unlock()

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}
	if actorID != b.PatientID && actorID != b.ProviderID {
		return nil, fmt.Errorf("Cancel: %w", domain.ErrNotBookingActor)
	}

	next, err := domain.Transition(b.Status, domain.EventCancel, b.Kind)
	if err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Cancel: begin tx: %w", err)
	}
	defer tx.Rollback()

	refunded := false
	if b.PaymentStatus == domain.PaymentPaid || b.PaymentStatus == domain.PaymentCODPending {
		entries, err := s.ledger.EntriesForBooking(ctx, b.ID)
		if err != nil {
			return nil, fmt.Errorf("Cancel: %w", err)
		}
		for i := range entries {
			e := &entries[i]
			if e.Direction != domain.DirectionDebit {
				continue
			}
			switch e.Status {
			case domain.EntryStatusCompleted:
				if _, err := s.ledger.ReverseTx(ctx, tx, e.ID); err != nil {
					return nil, fmt.Errorf("Cancel: %w", err)
				}
				refunded = true
			case domain.EntryStatusPending:
				// The uncollected cash entry would otherwise dangle forever.
				if err := s.ledger.FailTx(ctx, tx, e.ID, "booking cancelled"); err != nil {
					return nil, fmt.Errorf("Cancel: %w", err)
				}
			}
		}
	}

	now := time.Now().UTC()
	if err := s.bookings.UpdateState(ctx, tx, b.ID, next, b.PaymentStatus, b.PaymentMethod, now); err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}
	if err := s.recordEvent(ctx, tx, b.ID, domain.EventCancel, b.Status, next, actorID.String()); err != nil {
		return nil, fmt.Errorf("Cancel: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Cancel: commit tx: %w", err)
	}

	from := b.Status
	b.Status = next
	b.UpdatedAt = now
	observeTransition(b.Kind, next)
	logging.FromContext(ctx).Info("booking cancelled",
		"booking_id", b.ID,
		"from", from,
		"actor_id", actorID,
		"refunded", refunded,
	)

	s.emit(ctx, &domain.NotificationEvent{
		RecipientID:      b.PatientID,
		RecipientRole:    domain.RolePatient,
		Type:             domain.NotifyBookingCancelled,
		RelatedBookingID: b.ID,
	})
	s.emit(ctx, &domain.NotificationEvent{
		RecipientID:      b.ProviderID,
		RecipientRole:    domain.RoleProvider,
		Type:             domain.NotifyProviderCancelled,
		RelatedBookingID: b.ID,
	})

	return b, nil
}
