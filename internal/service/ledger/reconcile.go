package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/logging"
	"github.com/sehaty/sehaty-backend/internal/metrics"
)

// Reconcile verifies that the owner's balance equals completed wallet credits
// minus completed wallet debits. A mismatch is an integrity violation, logged
// at error level and never shown to end users.
func (s *Service) Reconcile(ctx context.Context, ownerID uuid.UUID) error {
	sum, err := s.entries.SumCompletedWallet(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("Reconcile: %w", err)
	}

	w, err := s.wallets.GetByOwner(ctx, ownerID)
	if err != nil {
		return fmt.Errorf("Reconcile: %w", err)
	}

	if sum != w.Balance {
		metrics.LedgerDriftTotal.Inc()
		logging.FromContext(ctx).Error("ledger drift detected",
			"owner_id", ownerID,
			"balance", w.Balance,
			"ledger_sum", sum,
		)
		return fmt.Errorf("Reconcile: balance %d, ledger sum %d: %w", w.Balance, sum, domain.ErrLedgerDrift)
	}

	return nil
}
