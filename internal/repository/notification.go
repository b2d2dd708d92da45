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

const notificationColumns = `id, recipient_id, recipient_role, type, related_booking_id,
	scheduled_for, delivered, delivered_at, created_at`

type NotificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create inserts the event, suppressing duplicates on the
// (related_booking_id, type) idempotency key. Returns false when suppressed.
func (r *NotificationRepository) Create(ctx context.Context, e *domain.NotificationEvent) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO notification_events (
			id, recipient_id, recipient_role, type, related_booking_id,
			scheduled_for, delivered, delivered_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (related_booking_id, type) DO NOTHING`,
		e.ID, e.RecipientID, e.RecipientRole, e.Type, e.RelatedBookingID,
		e.ScheduledFor, e.Delivered, e.DeliveredAt, e.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("Create: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("Create: rows affected: %w", err)
	}
	return rows == 1, nil
}

func (r *NotificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.NotificationEvent, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+notificationColumns+` FROM notification_events WHERE id = $1`, id,
	)
	e, err := scanNotification(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("GetByID: %w", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("GetByID: %w", err)
	}
	return e, nil
}

// GetDue returns undelivered events whose scheduled_for is absent or past.
func (r *NotificationRepository) GetDue(ctx context.Context, now time.Time, limit int) ([]domain.NotificationEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notification_events
		WHERE NOT delivered AND (scheduled_for IS NULL OR scheduled_for <= $1)
		ORDER BY created_at LIMIT $2`,
		now, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("GetDue: %w", err)
	}
	defer rows.Close()

	var events []domain.NotificationEvent
	for rows.Next() {
		e, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("GetDue: scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetDue: rows: %w", err)
	}
	return events, nil
}

func (r *NotificationRepository) MarkDelivered(ctx context.Context, id uuid.UUID, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notification_events SET delivered = TRUE, delivered_at = $1
		WHERE id = $2 AND NOT delivered`,
		at, id,
	)
	if err != nil {
		return fmt.Errorf("MarkDelivered: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("MarkDelivered: rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("MarkDelivered: %w", domain.ErrNotFound)
	}
	return nil
}

func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]domain.NotificationEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+notificationColumns+` FROM notification_events
		WHERE recipient_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		recipientID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("ListForRecipient: %w", err)
	}
	defer rows.Close()

	var events []domain.NotificationEvent
	for rows.Next() {
		e, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("ListForRecipient: scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListForRecipient: rows: %w", err)
	}
	return events, nil
}

func scanNotification(s scanner) (*domain.NotificationEvent, error) {
	var e domain.NotificationEvent
	err := s.Scan(
		&e.ID, &e.RecipientID, &e.RecipientRole, &e.Type, &e.RelatedBookingID,
		&e.ScheduledFor, &e.Delivered, &e.DeliveredAt, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
