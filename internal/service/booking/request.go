package booking

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/logging"
)

type RequestInput struct {
	Kind        domain.BookingKind
	PatientID   uuid.UUID
	ProviderID  uuid.UUID
	ScheduledAt *time.Time
	Address     *string
	Items       []string
	Fees        []domain.FeeLine
	Currency    domain.Currency
}

// Request validates the patient's selection, prices it, and submits the
// booking for payment. The returned booking is already in pending_payment
// with its fee breakdown frozen.
func (s *Service) Request(ctx context.Context, in RequestInput) (*domain.Booking, error) {
	log := logging.FromContext(ctx)

	if !in.Kind.IsValid() {
		return nil, fmt.Errorf("Request: kind %q: %w", in.Kind, domain.ErrInvalidSelection)
	}
	if !in.Currency.IsValid() {
		return nil, fmt.Errorf("Request: %w", domain.ErrInvalidCurrency)
	}

	now := time.Now().UTC()
	b := &domain.Booking{
		ID:            uuid.New(),
		Kind:          in.Kind,
		PatientID:     in.PatientID,
		ProviderID:    in.ProviderID,
		ScheduledAt:   in.ScheduledAt,
		Address:       in.Address,
		Items:         in.Items,
		Currency:      in.Currency,
		PaymentStatus: domain.PaymentUnpaid,
		Status:        domain.StatusDraft,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := b.ValidateSelection(); err != nil {
		return nil, fmt.Errorf("Request: %w", err)
	}

	fees, total, err := s.pricing.Total(in.Fees)
	if err != nil {
		return nil, fmt.Errorf("Request: %w", err)
	}
	b.Fees = fees
	b.TotalAmount = total

	next, err := domain.Transition(b.Status, domain.EventSubmit, b.Kind)
	if err != nil {
		return nil, fmt.Errorf("Request: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Request: begin tx: %w", err)
	}
	defer tx.Rollback()

	b.Status = next
	if err := s.bookings.Create(ctx, tx, b); err != nil {
		return nil, fmt.Errorf("Request: %w", err)
	}
	if err := s.recordEvent(ctx, tx, b.ID, domain.EventSubmit, domain.StatusDraft, next, in.PatientID.String()); err != nil {
		return nil, fmt.Errorf("Request: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Request: commit tx: %w", err)
	}

	observeTransition(b.Kind, next)
	log.Info("booking requested",
		"booking_id", b.ID,
		"kind", b.Kind,
		"patient_id", b.PatientID,
		"total_amount", b.TotalAmount,
		"currency", b.Currency,
	)

	return b, nil
}
