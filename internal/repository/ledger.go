package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
)

const ledgerColumns = `id, owner_id, direction, amount, currency, related_booking_id,
	method, status, failure_reason, reverses_entry_id, created_at, completed_at`

type LedgerRepository struct {
	db *sql.DB
}

func NewLedgerRepository(db *sql.DB) *LedgerRepository {
	return &LedgerRepository{db: db}
}

func (r *LedgerRepository) Create(ctx context.Context, entry *domain.LedgerEntry) error {
	return r.insert(ctx, r.db.ExecContext, entry)
}

func (r *LedgerRepository) CreateTx(ctx context.Context, tx *sql.Tx, entry *domain.LedgerEntry) error {
	return r.insert(ctx, tx.ExecContext, entry)
}

type execFunc func(ctx context.Context, query string, args ...any) (sql.Result, error)

func (r *LedgerRepository) insert(ctx context.Context, exec execFunc, entry *domain.LedgerEntry) error {
	_, err := exec(ctx,
		`INSERT INTO ledger_entries (
			id, owner_id, direction, amount, currency, related_booking_id,
			method, status, failure_reason, reverses_entry_id, created_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.OwnerID, entry.Direction, entry.Amount, entry.Currency,
		entry.RelatedBookingID, entry.Method, entry.Status, entry.FailureReason,
		entry.ReversesEntryID, entry.CreatedAt, entry.CompletedAt,
	)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return nil
}

func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.LedgerEntry, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE id = $1`, id,
	)
	e, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

// GetForUpdate locks the entry row so concurrent commits of the same entry
// serialize on the database.
func (r *LedgerRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, id uuid.UUID) (*domain.LedgerEntry, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE id = $1 FOR UPDATE`, id,
	)
	e, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return e, nil
}

// UpdateStatus finalizes a pending entry. Completed and failed entries are
// immutable; the WHERE clause refuses to touch them.
func (r *LedgerRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.EntryStatus, failureReason *string, completedAt *time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE ledger_entries SET status = $1, failure_reason = $2, completed_at = $3
		WHERE id = $4 AND status = 'pending'`,
		status, failureReason, completedAt, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateStatus: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateStatus: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateStatus: %w", domain.ErrEntryNotPending)
	}
	return nil
}

// GetReversalOf returns the compensating entry for an original entry id, or
// ErrNotFound when it has not been reversed. Runs inside tx so the caller can
// pair it with a lock on the original row.
func (r *LedgerRepository) GetReversalOf(ctx context.Context, tx *sql.Tx, originalID uuid.UUID) (*domain.LedgerEntry, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries WHERE reverses_entry_id = $1`, originalID,
	)
	e, err := scanLedgerEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetReversalOf: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetReversalOf: %w", err)
	}
	return e, nil
}

func (r *LedgerRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) ([]domain.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE related_booking_id = $1 ORDER BY created_at`, bookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByBookingID: %w", err)
	}
	defer rows.Close()

	return collectLedgerEntries(rows)
}

func (r *LedgerRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM ledger_entries WHERE owner_id = $1`, ownerID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByOwner: count: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+ledgerColumns+` FROM ledger_entries
		WHERE owner_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		ownerID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByOwner: %w", err)
	}
	defer rows.Close()

	entries, err := collectLedgerEntries(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("GetByOwner: %w", err)
	}
	return entries, total, nil
}

// SumCompletedWallet returns completed wallet-method credits minus debits for
// an owner. Non-wallet entries never touched the balance and are excluded.
func (r *LedgerRepository) SumCompletedWallet(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	var sum int64
	err := r.db.QueryRowContext(ctx,
		`SELECT COALESCE(SUM(CASE direction WHEN 'credit' THEN amount ELSE -amount END), 0)
		FROM ledger_entries
		WHERE owner_id = $1 AND method = 'wallet' AND status = 'completed'`,
		ownerID,
	).Scan(&sum)
	if err != nil {
		return 0, fmt.Errorf("SumCompletedWallet: %w", err)
	}
	return sum, nil
}

func collectLedgerEntries(rows *sql.Rows) ([]domain.LedgerEntry, error) {
	var entries []domain.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("collectLedgerEntries: scan: %w", err)
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collectLedgerEntries: rows: %w", err)
	}
	return entries, nil
}

func scanLedgerEntry(s scanner) (*domain.LedgerEntry, error) {
	var e domain.LedgerEntry
	err := s.Scan(
		&e.ID, &e.OwnerID, &e.Direction, &e.Amount, &e.Currency,
		&e.RelatedBookingID, &e.Method, &e.Status, &e.FailureReason,
		&e.ReversesEntryID, &e.CreatedAt, &e.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
