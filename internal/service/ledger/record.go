package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/logging"
)

// RecordDebit opens a pending debit against the owner's wallet account. The
// entry carries no balance effect until committed.
func (s *Service) RecordDebit(ctx context.Context, ownerID uuid.UUID, amount int64, currency domain.Currency, bookingID *uuid.UUID, method domain.PaymentMethod) (*domain.LedgerEntry, error) {
	return s.record(ctx, ownerID, domain.DirectionDebit, amount, currency, bookingID, method)
}

// RecordCredit opens a pending credit, used for top-ups.
func (s *Service) RecordCredit(ctx context.Context, ownerID uuid.UUID, amount int64, currency domain.Currency, bookingID *uuid.UUID, method domain.PaymentMethod) (*domain.LedgerEntry, error) {
	return s.record(ctx, ownerID, domain.DirectionCredit, amount, currency, bookingID, method)
}

func (s *Service) record(ctx context.Context, ownerID uuid.UUID, direction domain.EntryDirection, amount int64, currency domain.Currency, bookingID *uuid.UUID, method domain.PaymentMethod) (*domain.LedgerEntry, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("record: %w", domain.ErrInvalidAmount)
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("record: %w", domain.ErrInvalidCurrency)
	}
	if !method.IsValid() {
		return nil, fmt.Errorf("record: %w", domain.ErrInvalidMethod)
	}

	entry := &domain.LedgerEntry{
		ID:               uuid.New(),
		OwnerID:          ownerID,
		Direction:        direction,
		Amount:           amount,
		Currency:         currency,
		RelatedBookingID: bookingID,
		Method:           method,
		Status:           domain.EntryStatusPending,
		CreatedAt:        time.Now().UTC(),
	}

	if err := s.entries.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("record: %w", err)
	}

	return entry, nil
}

// TopUp credits the owner's wallet balance and returns the completed entry.
// The wallet account is provisioned on first use.
func (s *Service) TopUp(ctx context.Context, ownerID uuid.UUID, amount int64, currency domain.Currency) (*domain.LedgerEntry, error) {
	log := logging.FromContext(ctx)

	if amount <= 0 {
		return nil, fmt.Errorf("TopUp: %w", domain.ErrInvalidAmount)
	}
	if !currency.IsValid() {
		return nil, fmt.Errorf("TopUp: %w", domain.ErrInvalidCurrency)
	}
	if err := s.ensureWallet(ctx, ownerID, currency); err != nil {
		return nil, fmt.Errorf("TopUp: %w", err)
	}

	entry, err := s.RecordCredit(ctx, ownerID, amount, currency, nil, domain.MethodWallet)
	if err != nil {
		return nil, fmt.Errorf("TopUp: %w", err)
	}

	committed, err := s.Commit(ctx, entry.ID)
	if err != nil {
		return nil, fmt.Errorf("TopUp: %w", err)
	}

	log.Info("wallet topped up",
		"owner_id", ownerID,
		"entry_id", committed.ID,
		"amount", amount,
		"currency", currency,
	)

	return committed, nil
}

func (s *Service) ensureWallet(ctx context.Context, ownerID uuid.UUID, currency domain.Currency) error {
	_, err := s.wallets.GetByOwner(ctx, ownerID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, domain.ErrWalletNotFound) {
		return fmt.Errorf("ensureWallet: %w", err)
	}

	w := &domain.WalletAccount{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Currency:  currency,
		Balance:   0,
		Version:   1,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.wallets.Create(ctx, w); err != nil {
		return fmt.Errorf("ensureWallet: %w", err)
	}
	return nil
}

// Entries returns the owner's transaction history, newest first.
func (s *Service) Entries(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	entries, total, err := s.entries.GetByOwner(ctx, ownerID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("Entries: %w", err)
	}
	return entries, total, nil
}

// EntriesForBooking returns every entry tied to a booking, oldest first.
func (s *Service) EntriesForBooking(ctx context.Context, bookingID uuid.UUID) ([]domain.LedgerEntry, error) {
	entries, err := s.entries.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("EntriesForBooking: %w", err)
	}
	return entries, nil
}

// Balance reads the owner's wallet account.
func (s *Service) Balance(ctx context.Context, ownerID uuid.UUID) (*domain.WalletAccount, error) {
	w, err := s.wallets.GetByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("Balance: %w", err)
	}
	return w, nil
}
