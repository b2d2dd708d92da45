package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/domain"
)

type BookingEventRepository struct {
	db *sql.DB
}

func NewBookingEventRepository(db *sql.DB) *BookingEventRepository {
	return &BookingEventRepository{db: db}
}

func (r *BookingEventRepository) Create(ctx context.Context, tx *sql.Tx, e *domain.BookingAuditEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO booking_events (id, booking_id, event, from_status, to_status, actor, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.BookingID, e.Event, e.From, e.To, e.Actor, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *BookingEventRepository) GetByBookingID(ctx context.Context, bookingID uuid.UUID) ([]domain.BookingAuditEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, booking_id, event, from_status, to_status, actor, created_at
		FROM booking_events WHERE booking_id = $1 ORDER BY created_at`, bookingID,
	)
	if err != nil {
		return nil, fmt.Errorf("GetByBookingID: %w", err)
	}
	defer rows.Close()

	var events []domain.BookingAuditEvent
	for rows.Next() {
		var e domain.BookingAuditEvent
		if err := rows.Scan(&e.ID, &e.BookingID, &e.Event, &e.From, &e.To, &e.Actor, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("GetByBookingID: scan: %w", err)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetByBookingID: rows: %w", err)
	}
	return events, nil
}
