package ledger

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
)

type walletRepo interface {
	Create(ctx context.Context, w *domain.WalletAccount) error
	GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.WalletAccount, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID) (*domain.WalletAccount, error)
	UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error
}

type entryRepo interface {
	Create(ctx context.Context, entry *domain.LedgerEntry) error
	CreateTx(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error)
	GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.LedgerEntry, error)
	GetReversalOf(ctx context.Context, tx *sql.Tx, originalID uuid.UUID) (*domain.LedgerEntry, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.EntryStatus, failureReason *string, completedAt *time.Time) error
	GetByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
	GetByBookingID(ctx context.Context, bookingID uuid.UUID) ([]domain.LedgerEntry, error)
	SumCompletedWallet(ctx context.Context, ownerID uuid.UUID) (int64, error)
}

// Service is the single writer of money movement. Wallet balances change only
// through committed entries created here.
type Service struct {
	wallets walletRepo
	entries entryRepo
	db      *sql.DB
}

func NewService(wallets walletRepo, entries entryRepo, db *sql.DB) *Service {
	return &Service{wallets: wallets, entries: entries, db: db}
}
