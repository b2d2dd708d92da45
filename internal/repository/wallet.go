package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
)

const walletColumns = `id, owner_id, currency, balance, version, created_at`

type WalletRepository struct {
	db *sql.DB
}

func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

func (r *WalletRepository) Create(ctx context.Context, w *domain.WalletAccount) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO wallets (id, owner_id, currency, balance, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.OwnerID, w.Currency, w.Balance, w.Version, w.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *WalletRepository) GetByOwner(ctx context.Context, ownerID uuid.UUID) (*domain.WalletAccount, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1`, ownerID,
	)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByOwner: %w", domain.ErrWalletNotFound)
		}
		return nil, fmt.Errorf("GetByOwner: %w", err)
	}
	return w, nil
}

// GetForUpdate locks the wallet row for the duration of tx. Every balance
// check-then-act goes through this lock.
func (r *WalletRepository) GetForUpdate(ctx context.Context, tx *sql.Tx, ownerID uuid.UUID) (*domain.WalletAccount, error) {
	row := tx.QueryRowContext(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE owner_id = $1 FOR UPDATE`, ownerID,
	)
	w, err := scanWallet(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetForUpdate: %w", domain.ErrWalletNotFound)
		}
		return nil, fmt.Errorf("GetForUpdate: %w", err)
	}
	return w, nil
}

func (r *WalletRepository) UpdateBalance(ctx context.Context, tx *sql.Tx, id uuid.UUID, newBalance int64, newVersion int64) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE wallets SET balance = $1, version = $2 WHERE id = $3 AND version = $4`,
		newBalance, newVersion, id, newVersion-1,
	)
	if err != nil {
		return fmt.Errorf("UpdateBalance: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateBalance: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateBalance: %w", domain.ErrVersionConflict)
	}
	return nil
}

func scanWallet(s scanner) (*domain.WalletAccount, error) {
	var w domain.WalletAccount
	err := s.Scan(&w.ID, &w.OwnerID, &w.Currency, &w.Balance, &w.Version, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
