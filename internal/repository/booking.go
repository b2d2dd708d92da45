package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sehaty/sehaty-backend/internal/domain"
)

const bookingColumns = `id, kind, patient_id, provider_id, scheduled_at, address, items,
	fees, total_amount, currency, payment_method, payment_status, status,
	created_at, updated_at`

type BookingRepository struct {
	db *sql.DB
}

func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) Create(ctx context.Context, tx *sql.Tx, b *domain.Booking) error {
	fees, err := json.Marshal(b.Fees)
	if err != nil {
		return fmt.Errorf("Create: marshal fees: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookings (
			id, kind, patient_id, provider_id, scheduled_at, address, items,
			fees, total_amount, currency, payment_method, payment_status, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		b.ID, b.Kind, b.PatientID, b.ProviderID, b.ScheduledAt, b.Address,
		pq.Array(b.Items), fees, b.TotalAmount, b.Currency,
		b.PaymentMethod, b.PaymentStatus, b.Status, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id,
	)
	b, err := scanBooking(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return b, nil
}

// UpdateState moves a booking to a new status, optionally updating the
// payment linkage in the same statement.
func (r *BookingRepository) UpdateState(ctx context.Context, tx *sql.Tx, id uuid.UUID, status domain.BookingStatus, paymentStatus domain.PaymentStatus, method *domain.PaymentMethod, updatedAt time.Time) error {
	res, err := tx.ExecContext(ctx,
		`UPDATE bookings SET status = $1, payment_status = $2, payment_method = $3, updated_at = $4
		WHERE id = $5`,
		status, paymentStatus, method, updatedAt, id,
	)
	if err != nil {
		return fmt.Errorf("UpdateState: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateState: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("UpdateState: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *BookingRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]domain.Booking, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+bookingColumns+` FROM bookings
		WHERE patient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		patientID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByPatient: %w", err)
	}
	defer rows.Close()

	var bookings []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByPatient: scan: %w", err)
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByPatient: rows: %w", err)
	}
	return bookings, nil
}

func scanBooking(s scanner) (*domain.Booking, error) {
	var (
		b    domain.Booking
		fees []byte
	)
	err := s.Scan(
		&b.ID, &b.Kind, &b.PatientID, &b.ProviderID, &b.ScheduledAt, &b.Address,
		pq.Array(&b.Items), &fees, &b.TotalAmount, &b.Currency,
		&b.PaymentMethod, &b.PaymentStatus, &b.Status, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(fees, &b.Fees); err != nil {
		return nil, fmt.Errorf("scanBooking: unmarshal fees: %w", err)
	}
	return &b, nil
}
