package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/auth"
	"github.com/sehaty/sehaty-backend/internal/domain"
)

type notificationService interface {
	ListForRecipient(ctx context.Context, recipientID uuid.UUID, limit, offset int) ([]domain.NotificationEvent, error)
	Dismiss(ctx context.Context, id uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.NotificationEvent, error)
}

type NotificationHandler struct {
	notifications notificationService
}

func NewNotificationHandler(notifications notificationService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications}
}

type notificationDTO struct {
	ID               uuid.UUID  `json:"id"`
	Type             string     `json:"type"`
	RelatedBookingID uuid.UUID  `json:"related_booking_id"`
	ScheduledFor     *time.Time `json:"scheduled_for,omitempty"`
	Delivered        bool       `json:"delivered"`
	DeliveredAt      *time.Time `json:"delivered_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	limit, offset := paginationParams(r)
	events, err := h.notifications.ListForRecipient(r.Context(), identity.ID, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]notificationDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, notificationDTO{
			ID:               e.ID,
			Type:             string(e.Type),
			RelatedBookingID: e.RelatedBookingID,
			ScheduledFor:     e.ScheduledFor,
			Delivered:        e.Delivered,
			DeliveredAt:      e.DeliveredAt,
			CreatedAt:        e.CreatedAt,
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *NotificationHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	event, err := h.notifications.GetByID(r.Context(), id)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if event.RecipientID != identity.ID {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	if err := h.notifications.Dismiss(r.Context(), id); err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, map[string]string{"status": "dismissed"})
}
