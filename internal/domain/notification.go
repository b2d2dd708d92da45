package domain

import (
	"time"

	"github.com/google/uuid"
)

type RecipientRole string

const (
	RolePatient  RecipientRole = "patient"
	RoleProvider RecipientRole = "provider"
)

type NotificationType string

// Types are scoped per audience so the (booking, type) dedupe key stays valid
// when both parties are notified about the same transition.
const (
	NotifyBookingConfirmed  NotificationType = "booking_confirmed"
	NotifyBookingAssigned   NotificationType = "booking_assigned"
	NotifyBookingReminder   NotificationType = "booking_reminder"
	NotifyPaymentFailed     NotificationType = "payment_failed"
	NotifyProviderAccepted  NotificationType = "provider_accepted"
	NotifyBookingCancelled  NotificationType = "booking_cancelled"
	NotifyProviderCancelled NotificationType = "booking_cancelled_provider"
	NotifyRatingRequest     NotificationType = "rating_request"
)

type NotificationEvent struct {
	ID               uuid.UUID
	RecipientID      uuid.UUID
	RecipientRole    RecipientRole
	Type             NotificationType
	RelatedBookingID uuid.UUID
	ScheduledFor     *time.Time
	Delivered        bool
	DeliveredAt      *time.Time
	CreatedAt        time.Time
}
