package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/logging"
	"github.com/sehaty/sehaty-backend/internal/metrics"
	"github.com/sehaty/sehaty-backend/internal/service/gateway"
)

// Pay drives a booking through authorization and settlement. The booking lock
// is held for the whole flow, gateway call included, so a concurrent cancel on
// the same booking observes either the pre-payment or the post-payment state,
// never a half-settled one.
func (s *Service) Pay(ctx context.Context, bookingID, actorID uuid.UUID, method domain.PaymentMethod, payerRef string) (*domain.Booking, error) {
	log := logging.FromContext(ctx)

	if !method.IsValid() {
		return nil, fmt.Errorf("Pay: %q: %w", method, domain.ErrInvalidMethod)
	}

	unlock := s.locks.Acquire(bookingID)
	defer unlock()

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("Pay: %w", err)
	}
	if b.PatientID != actorID {
		return nil, fmt.Errorf("Pay: %w", domain.ErrNotBookingActor)
	}

	switch b.Status {
	case domain.StatusPendingPayment:
	case domain.StatusPaymentFailed:
		if err := s.retryPayment(ctx, b, actorID); err != nil {
			return nil, fmt.Errorf("Pay: %w", err)
		}
	default:
		return nil, fmt.Errorf("Pay: booking %s is %s: %w", b.ID, b.Status, domain.ErrInvalidTransition)
	}

	// Reject a bad external reference before any entry exists.
	if (method == domain.MethodMobilePay || method == domain.MethodBankEPay) && payerRef == "" {
		return nil, fmt.Errorf("Pay: %w", domain.ErrMissingPayerReference)
	}

	entry, err := s.ledger.RecordDebit(ctx, b.PatientID, b.TotalAmount, b.Currency, &b.ID, method)
	if err != nil {
		return nil, fmt.Errorf("Pay: %w", err)
	}

	auth, err := s.gateway.Authorize(ctx, gateway.AuthorizeRequest{
		Method:         method,
		Amount:         b.TotalAmount,
		Currency:       b.Currency,
		PayerReference: payerRef,
		EntryID:        entry.ID,
	})
	if err != nil {
		if errors.Is(err, domain.ErrGatewayDeclined) || errors.Is(err, domain.ErrGatewayTimeout) {
			return s.failPayment(ctx, b, entry.ID, actorID, method, err)
		}
		return nil, fmt.Errorf("Pay: %w", err)
	}

	updated, err := s.settle(ctx, b, entry.ID, actorID, method, auth)
	if err != nil {
		return updated, fmt.Errorf("Pay: %w", err)
	}

	metrics.PaymentsTotal.WithLabelValues(string(method), "success").Inc()
	log.Info("booking paid",
		"booking_id", b.ID,
		"method", method,
		"settlement", auth.Settlement,
		"transaction_id", auth.TransactionID,
		"amount", b.TotalAmount,
	)

	s.notifyConfirmed(ctx, updated)
	return updated, nil
}

// retryPayment moves a payment_failed booking back to pending_payment so the
// attempt proceeds through the normal path. The previous failed entry stays
// on the ledger untouched.
func (s *Service) retryPayment(ctx context.Context, b *domain.Booking, actorID uuid.UUID) error {
	next, err := domain.Transition(b.Status, domain.EventRetryPayment, b.Kind)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("retryPayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	if err := s.bookings.UpdateState(ctx, tx, b.ID, next, b.PaymentStatus, b.PaymentMethod, now); err != nil {
		return fmt.Errorf("retryPayment: %w", err)
	}
	if err := s.recordEvent(ctx, tx, b.ID, domain.EventRetryPayment, b.Status, next, actorID.String()); err != nil {
		return fmt.Errorf("retryPayment: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("retryPayment: commit tx: %w", err)
	}

	b.Status = next
	b.UpdatedAt = now
	observeTransition(b.Kind, next)
	return nil
}

// settle finalizes the ledger entry and the booking transition in one
// transaction, per the authorization's settlement mode. A wallet debit that
// fails the balance check commits anyway so the failed entry is kept, while
// the booking stays in pending_payment.
func (s *Service) settle(ctx context.Context, b *domain.Booking, entryID, actorID uuid.UUID, method domain.PaymentMethod, auth *gateway.Authorization) (*domain.Booking, error) {
	next, err := domain.Transition(b.Status, domain.EventPaymentSucceeded, b.Kind)
	if err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("settle: begin tx: %w", err)
	}
	defer tx.Rollback()

	payStatus := domain.PaymentPaid
	switch auth.Settlement {
	case gateway.SettleLedger, gateway.SettleExternal:
		if _, err := s.ledger.CommitTx(ctx, tx, entryID); err != nil {
			if errors.Is(err, domain.ErrInsufficientFunds) {
				if cErr := tx.Commit(); cErr != nil {
					return nil, fmt.Errorf("settle: commit tx: %w", cErr)
				}
				metrics.PaymentsTotal.WithLabelValues(string(method), "failure").Inc()
				s.emit(ctx, &domain.NotificationEvent{
					RecipientID:      b.PatientID,
					RecipientRole:    domain.RolePatient,
					Type:             domain.NotifyPaymentFailed,
					RelatedBookingID: b.ID,
				})
				return b, fmt.Errorf("settle: %w", err)
			}
			return nil, fmt.Errorf("settle: %w", err)
		}
	case gateway.SettleOnDelivery:
		// Cash is collected at fulfillment; the entry stays pending.
		payStatus = domain.PaymentCODPending
	default:
		return nil, fmt.Errorf("settle: unknown settlement %q", auth.Settlement)
	}

	now := time.Now().UTC()
	if err := s.bookings.UpdateState(ctx, tx, b.ID, next, payStatus, &method, now); err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}
	if err := s.recordEvent(ctx, tx, b.ID, domain.EventPaymentSucceeded, b.Status, next, actorID.String()); err != nil {
		return nil, fmt.Errorf("settle: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("settle: commit tx: %w", err)
	}

	b.Status = next
	b.PaymentStatus = payStatus
	b.PaymentMethod = &method
	b.UpdatedAt = now
	observeTransition(b.Kind, next)
	return b, nil
}

// failPayment records the gateway failure on both the ledger entry and the
// booking, then surfaces the original cause.
func (s *Service) failPayment(ctx context.Context, b *domain.Booking, entryID, actorID uuid.UUID, method domain.PaymentMethod, cause error) (*domain.Booking, error) {
	next, err := domain.Transition(b.Status, domain.EventPaymentFailed, b.Kind)
	if err != nil {
		return nil, fmt.Errorf("failPayment: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failPayment: begin tx: %w", err)
	}
	defer tx.Rollback()

	reason := "gateway declined"
	if errors.Is(cause, domain.ErrGatewayTimeout) {
		reason = "gateway timeout"
	}
	if err := s.ledger.FailTx(ctx, tx, entryID, reason); err != nil {
		return nil, fmt.Errorf("failPayment: %w", err)
	}

	now := time.Now().UTC()
	if err := s.bookings.UpdateState(ctx, tx, b.ID, next, domain.PaymentUnpaid, &method, now); err != nil {
		return nil, fmt.Errorf("failPayment: %w", err)
	}
	if err := s.recordEvent(ctx, tx, b.ID, domain.EventPaymentFailed, b.Status, next, actorID.String()); err != nil {
		return nil, fmt.Errorf("failPayment: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failPayment: commit tx: %w", err)
	}

	b.Status = next
	b.PaymentMethod = &method
	b.UpdatedAt = now
	observeTransition(b.Kind, next)
	metrics.PaymentsTotal.WithLabelValues(string(method), "failure").Inc()

	s.emit(ctx, &domain.NotificationEvent{
		RecipientID:      b.PatientID,
		RecipientRole:    domain.RolePatient,
		Type:             domain.NotifyPaymentFailed,
		RelatedBookingID: b.ID,
	})

	return b, cause
}

func (s *Service) notifyConfirmed(ctx context.Context, b *domain.Booking) {
	s.emit(ctx, &domain.NotificationEvent{
		RecipientID:      b.PatientID,
		RecipientRole:    domain.RolePatient,
		Type:             domain.NotifyBookingConfirmed,
		RelatedBookingID: b.ID,
	})
	s.emit(ctx, &domain.NotificationEvent{
		RecipientID:      b.ProviderID,
		RecipientRole:    domain.RoleProvider,
		Type:             domain.NotifyBookingAssigned,
		RelatedBookingID: b.ID,
	})

	if b.Kind.TimeBound() && b.ScheduledAt != nil {
		at := b.ScheduledAt.Add(-s.reminderLead)
		s.emit(ctx, &domain.NotificationEvent{
			RecipientID:      b.PatientID,
			RecipientRole:    domain.RolePatient,
			Type:             domain.NotifyBookingReminder,
			RelatedBookingID: b.ID,
			ScheduledFor:     &at,
		})
	}
}
