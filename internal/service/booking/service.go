package booking

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/logging"
	"github.com/sehaty/sehaty-backend/internal/metrics"
	"github.com/sehaty/sehaty-backend/internal/pricing"
	"github.com/sehaty/sehaty-backend/internal/service/gateway"
)

type bookingRepo interface {
	Create(ctx context.Context, tx *sql.Tx, b *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	UpdateState(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.BookingStatus, paymentStatus domain.PaymentStatus, method *domain.PaymentMethod, updatedAt time.Time) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]domain.Booking, error)
}

type auditRepo interface {
	Create(ctx context.Context, tx *sql.Tx, e *domain.BookingAuditEvent) error
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) ([]domain.BookingAuditEvent, error)
}

type ledgerService interface {
	RecordDebit(ctx context.Context, ownerID uuid.UUID, amount int64, currency domain.Currency, bookingID *uuid.UUID, method domain.PaymentMethod) (*domain.LedgerEntry, error)
	CommitTx(ctx context.Context, tx *sql.Tx, entryID uuid.UUID) (*domain.LedgerEntry, error)
	FailTx(ctx context.Context, tx *sql.Tx, entryID uuid.UUID, reason string) error
	ReverseTx(ctx context.Context, tx *sql.Tx, entryID uuid.UUID) (*domain.LedgerEntry, error)
	EntriesForBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.LedgerEntry, error)
}

type authorizer interface {
	Authorize(ctx context.Context, req gateway.AuthorizeRequest) (*gateway.Authorization, error)
}

type notifier interface {
	Emit(ctx context.Context, e *domain.NotificationEvent) error
}

// Service owns the booking lifecycle. Every state change goes through the
// transition table in the domain package, is audited, and where money is
// involved rides in the same transaction as the ledger movement.
type Service struct {
	bookings     bookingRepo
	audits       auditRepo
	ledger       ledgerService
	gateway      authorizer
	notify       notifier
	pricing      *pricing.Calculator
	db           *sql.DB
	locks        *bookingLocks
	reminderLead time.Duration
}

func NewService(
	bookings bookingRepo,
	audits auditRepo,
	ledger ledgerService,
	gw authorizer,
	notify notifier,
	calc *pricing.Calculator,
	db *sql.DB,
	reminderLead time.Duration,
) *Service {
	return &Service{
		bookings:     bookings,
		audits:       audits,
		ledger:       ledger,
		gateway:      gw,
		notify:       notify,
		pricing:      calc,
		db:           db,
		locks:        newBookingLocks(),
		reminderLead: reminderLead,
	}
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return b, nil
}

func (s *Service) ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]domain.Booking, error) {
	bookings, err := s.bookings.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("ListForPatient: %w", err)
	}
	return bookings, nil
}

// History returns the booking's audit trail, oldest first.
func (s *Service) History(ctx context.Context, bookingID uuid.UUID) ([]domain.BookingAuditEvent, error) {
	events, err := s.audits.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("History: %w", err)
	}
	return events, nil
}

func (s *Service) recordEvent(ctx context.Context, tx *sql.Tx, bookingID uuid.UUID, event domain.BookingEvent, from, to domain.BookingStatus, actor string) error {
	return s.audits.Create(ctx, tx, &domain.BookingAuditEvent{
		ID:        uuid.New(),
		BookingID: bookingID,
		Event:     event,
		From:      from,
		To:        to,
		Actor:     actor,
		CreatedAt: time.Now().UTC(),
	})
}

func observeTransition(kind domain.BookingKind, to domain.BookingStatus) {
	metrics.BookingTransitionsTotal.WithLabelValues(string(kind), string(to)).Inc()
}

// emit is best effort. A notification failure never rolls back a lifecycle
// change; the dispatcher's dedupe key absorbs retries.
func (s *Service) emit(ctx context.Context, e *domain.NotificationEvent) {
	if err := s.notify.Emit(ctx, e); err != nil {
		logging.FromContext(ctx).Warn("notification emit failed",
			"type", e.Type,
			"booking_id", e.RelatedBookingID,
			"error", err,
		)
	}
}
