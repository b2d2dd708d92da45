package domain

import (
	"time"

	"github.com/google/uuid"
)

// BookingAuditEvent is the append-only audit trail of booking transitions.
type BookingAuditEvent struct {
	ID        uuid.UUID
	BookingID uuid.UUID
	Event     BookingEvent
	From      BookingStatus
	To        BookingStatus
	Actor     string
	CreatedAt time.Time
}
