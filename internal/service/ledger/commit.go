package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/logging"
)

// Commit finalizes a pending entry in its own transaction. A wallet debit that
// fails the balance check is persisted as failed, so the failed entry survives
// even though ErrInsufficientFunds is returned.
func (s *Service) Commit(ctx context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Commit: begin tx: %w", err)
	}
	defer tx.Rollback()

	entry, commitErr := s.CommitTx(ctx, tx, entryID)
	if commitErr != nil && !errors.Is(commitErr, domain.ErrInsufficientFunds) {
		return nil, fmt.Errorf("Commit: %w", commitErr)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Commit: commit tx: %w", err)
	}

	if commitErr != nil {
		return entry, fmt.Errorf("Commit: %w", commitErr)
	}
	return entry, nil
}

// CommitTx finalizes a pending entry inside the caller's transaction, so a
// booking transition can ride in the same commit. On ErrInsufficientFunds the
// entry has been marked failed within tx; the caller decides whether that
// failure record survives by committing or rolling back.
func (s *Service) CommitTx(ctx context.Context, tx *sql.Tx, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	log := logging.FromContext(ctx)

	entry, err := s.entries.GetForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, fmt.Errorf("CommitTx: %w", err)
	}
	if entry.Status != domain.EntryStatusPending {
		return nil, fmt.Errorf("CommitTx: entry %s is %s: %w", entry.ID, entry.Status, domain.ErrEntryNotPending)
	}

	now := time.Now().UTC()

	// Only the wallet method moves the balance. External methods are settled
	// by the gateway; the completed entry is the record, not the movement.
	if entry.Method == domain.MethodWallet {
		if err := s.applyToWallet(ctx, tx, entry, now); err != nil {
			return entry, err
		}
	}

	if err := s.entries.UpdateStatus(ctx, tx, entry.ID, domain.EntryStatusCompleted, nil, &now); err != nil {
		return nil, fmt.Errorf("CommitTx: %w", err)
	}

	entry.Status = domain.EntryStatusCompleted
	entry.CompletedAt = &now

	log.Info("ledger entry committed",
		"entry_id", entry.ID,
		"owner_id", entry.OwnerID,
		"direction", entry.Direction,
		"amount", entry.Amount,
		"method", entry.Method,
	)

	return entry, nil
}

func (s *Service) applyToWallet(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry, now time.Time) error {
	w, err := s.wallets.GetForUpdate(ctx, tx, entry.OwnerID)
	if err != nil {
		return fmt.Errorf("applyToWallet: %w", err)
	}
	if w.Currency != entry.Currency {
		return fmt.Errorf("applyToWallet: wallet %s, entry %s: %w", w.Currency, entry.Currency, domain.ErrInvalidCurrency)
	}

	var newBalance int64
	switch entry.Direction {
	case domain.DirectionDebit:
		if w.Balance < entry.Amount {
			reason := "insufficient funds"
			if err := s.entries.UpdateStatus(ctx, tx, entry.ID, domain.EntryStatusFailed, &reason, &now); err != nil {
				return fmt.Errorf("applyToWallet: mark failed: %w", err)
			}
			entry.Status = domain.EntryStatusFailed
			entry.FailureReason = &reason
			return fmt.Errorf("applyToWallet: balance %d < %d: %w", w.Balance, entry.Amount, domain.ErrInsufficientFunds)
		}
		newBalance = w.Balance - entry.Amount
	case domain.DirectionCredit:
		newBalance = w.Balance + entry.Amount
	}

	if err := s.wallets.UpdateBalance(ctx, tx, w.ID, newBalance, w.Version+1); err != nil {
		return fmt.Errorf("applyToWallet: %w", err)
	}
	return nil
}

// FailTx marks a pending entry as failed with a reason, inside the caller's
// transaction. Used when the gateway declines or times out.
func (s *Service) FailTx(ctx context.Context, tx *sql.Tx, entryID uuid.UUID, reason string) error {
	now := time.Now().UTC()
	if err := s.entries.UpdateStatus(ctx, tx, entryID, domain.EntryStatusFailed, &reason, &now); err != nil {
		return fmt.Errorf("FailTx: %w", err)
	}
	return nil
}
