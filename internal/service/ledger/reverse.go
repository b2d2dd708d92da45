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

// Reverse creates a compensating credit for a completed debit. The
// original entry is never touched. Reversing an already-reversed entry is a
// no-op returning the existing compensation.
func (s *Service) Reverse(ctx context.Context, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("Reverse: begin tx: %w", err)
	}
	defer tx.Rollback()

	rev, err := s.ReverseTx(ctx, tx, entryID)
	if err != nil {
		return nil, fmt.Errorf("Reverse: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("Reverse: commit tx: %w", err)
	}
	return rev, nil
}

// ReverseTx is the tx-scoped variant, used by the orchestrator to pair the
// refund with a booking cancellation in one transaction.
func (s *Service) ReverseTx(ctx context.Context, tx *sql.Tx, entryID uuid.UUID) (*domain.LedgerEntry, error) {
	log := logging.FromContext(ctx)

	original, err := s.entries.GetForUpdate(ctx, tx, entryID)
	if err != nil {
		return nil, fmt.Errorf("ReverseTx: %w", err)
	}

	if original.Status != domain.EntryStatusCompleted || original.Direction != domain.DirectionDebit {
		return nil, fmt.Errorf("ReverseTx: entry %s (%s %s): %w",
			original.ID, original.Status, original.Direction,
			domain.ErrEntryNotReversible)
	}

	if existing, err := s.entries.GetReversalOf(ctx, tx, original.ID); err == nil {
		return existing, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("ReverseTx: %w", err)
	}

	now := time.Now().UTC()
	rev := &domain.LedgerEntry{
		ID:               uuid.New(),
		OwnerID:          original.OwnerID,
		Direction:        domain.DirectionCredit,
		Amount:           original.Amount,
		Currency:         original.Currency,
		RelatedBookingID: original.RelatedBookingID,
		Method:           original.Method,
		Status:           domain.EntryStatusCompleted,
		ReversesEntryID:  &original.ID,
		CreatedAt:        now,
		CompletedAt:      &now,
	}

	if err := s.entries.CreateTx(ctx, tx, rev); err != nil {
		return nil, fmt.Errorf("ReverseTx: %w", err)
	}

	// Only wallet debits moved the balance, so only those are credited back.
	// External-method reversals are bookkeeping for a refund settled upstream.
	if original.Method == domain.MethodWallet {
		w, err := s.wallets.GetForUpdate(ctx, tx, original.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("ReverseTx: %w", err)
		}
		if err := s.wallets.UpdateBalance(ctx, tx, w.ID, w.Balance+original.Amount, w.Version+1); err != nil {
			return nil, fmt.Errorf("ReverseTx: %w", err)
		}
	}

	log.Info("ledger entry reversed",
		"original_entry_id", original.ID,
		"reversal_entry_id", rev.ID,
		"owner_id", original.OwnerID,
		"amount", original.Amount,
	)

	return rev, nil
}
