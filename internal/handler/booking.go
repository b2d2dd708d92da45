package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/auth"
	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/logging"
	"github.com/sehaty/sehaty-backend/internal/service/booking"
)

type bookingService interface {
	Request(ctx context.Context, in booking.RequestInput) (*domain.Booking, error)
	Pay(ctx context.Context, bookingID, actorID uuid.UUID, method domain.PaymentMethod, payerRef string) (*domain.Booking, error)
	Advance(ctx context.Context, bookingID, actorID uuid.UUID, event domain.BookingEvent) (*domain.Booking, error)
	Cancel(ctx context.Context, bookingID, actorID uuid.UUID) (*domain.Booking, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	ListForPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]domain.Booking, error)
	History(ctx context.Context, bookingID uuid.UUID) ([]domain.BookingAuditEvent, error)
}

type BookingHandler struct {
	bookings bookingService
}

func NewBookingHandler(bookings bookingService) *BookingHandler {
	return &BookingHandler{bookings: bookings}
}

type createBookingRequest struct {
	Kind        string           `json:"kind"`
	ProviderID  string           `json:"provider_id"`
	ScheduledAt *time.Time       `json:"scheduled_at"`
	Address     *string          `json:"address"`
	Items       []string         `json:"items"`
	Fees        []domain.FeeLine `json:"fees"`
	Currency    string           `json:"currency"`
}

func (r createBookingRequest) Validate() []FieldError {
	var errs []FieldError

	if r.Kind == "" {
		errs = append(errs, FieldError{Field: "kind", Message: "required"})
	} else if !domain.BookingKind(r.Kind).IsValid() {
		errs = append(errs, FieldError{Field: "kind", Message: "unknown booking kind"})
	}

	if r.ProviderID == "" {
		errs = append(errs, FieldError{Field: "provider_id", Message: "required"})
	} else if _, err := uuid.Parse(r.ProviderID); err != nil {
		errs = append(errs, FieldError{Field: "provider_id", Message: "must be a UUID"})
	}

	if r.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	} else if !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be EGP, SAR, or USD"})
	}

	if len(r.Fees) == 0 {
		errs = append(errs, FieldError{Field: "fees", Message: "at least one fee line required"})
	}
	for i, f := range r.Fees {
		if f.Amount <= 0 {
			errs = append(errs, FieldError{Field: fmt.Sprintf("fees[%d].amount", i), Message: "must be greater than 0"})
		}
	}

	return errs
}

type payBookingRequest struct {
	Method         string `json:"method"`
	PayerReference string `json:"payer_reference"`
}

func (r payBookingRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Method == "" {
		errs = append(errs, FieldError{Field: "method", Message: "required"})
	} else if !domain.PaymentMethod(r.Method).IsValid() {
		errs = append(errs, FieldError{Field: "method", Message: "unsupported payment method"})
	}
	return errs
}

type advanceBookingRequest struct {
	Event string `json:"event"`
}

type bookingDTO struct {
	ID            uuid.UUID        `json:"id"`
	Kind          string           `json:"kind"`
	PatientID     uuid.UUID        `json:"patient_id"`
	ProviderID    uuid.UUID        `json:"provider_id"`
	ScheduledAt   *time.Time       `json:"scheduled_at,omitempty"`
	Address       *string          `json:"address,omitempty"`
	Items         []string         `json:"items,omitempty"`
	Fees          []domain.FeeLine `json:"fees"`
	TotalAmount   int64            `json:"total_amount"`
	Currency      string           `json:"currency"`
	PaymentMethod *string          `json:"payment_method,omitempty"`
	PaymentStatus string           `json:"payment_status"`
	Status        string           `json:"status"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

func toBookingDTO(b *domain.Booking) bookingDTO {
	dto := bookingDTO{
		ID:            b.ID,
		Kind:          string(b.Kind),
		PatientID:     b.PatientID,
		ProviderID:    b.ProviderID,
		ScheduledAt:   b.ScheduledAt,
		Address:       b.Address,
		Items:         b.Items,
		Fees:          b.Fees,
		TotalAmount:   b.TotalAmount,
		Currency:      string(b.Currency),
		PaymentStatus: string(b.PaymentStatus),
		Status:        string(b.Status),
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if b.PaymentMethod != nil {
		m := string(*b.PaymentMethod)
		dto.PaymentMethod = &m
	}
	return dto
}

type auditEventDTO struct {
	Event     string    `json:"event"`
	From      string    `json:"from"`
	To        string    `json:"to"`
	Actor     string    `json:"actor"`
	CreatedAt time.Time `json:"created_at"`
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req createBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}
	providerID, _ := uuid.Parse(req.ProviderID)

	b, err := h.bookings.Request(r.Context(), booking.RequestInput{
		Kind:        domain.BookingKind(req.Kind),
		PatientID:   identity.ID,
		ProviderID:  providerID,
		ScheduledAt: req.ScheduledAt,
		Address:     req.Address,
		Items:       req.Items,
		Fees:        req.Fees,
		Currency:    domain.Currency(req.Currency),
	})
	if err != nil {
		log.Warn("booking request failed", "error", err)
		RespondDomainError(w, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/api/v1/bookings/%s", b.ID))
	RespondSuccess(w, http.StatusCreated, toBookingDTO(b))
}

func (h *BookingHandler) Pay(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	bookingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req payBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	b, err := h.bookings.Pay(r.Context(), bookingID, identity.ID, domain.PaymentMethod(req.Method), req.PayerReference)
	if err != nil {
		log.Warn("booking payment failed", "booking_id", bookingID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toBookingDTO(b))
}

func (h *BookingHandler) Advance(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	bookingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	var req advanceBookingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}
	if req.Event == "" {
		RespondValidationError(w, []FieldError{{Field: "event", Message: "required"}})
		return
	}

	b, err := h.bookings.Advance(r.Context(), bookingID, identity.ID, domain.BookingEvent(req.Event))
	if err != nil {
		log.Warn("booking advance failed", "booking_id", bookingID, "event", req.Event, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toBookingDTO(b))
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	bookingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	b, err := h.bookings.Cancel(r.Context(), bookingID, identity.ID)
	if err != nil {
		log.Warn("booking cancel failed", "booking_id", bookingID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, toBookingDTO(b))
}

func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	bookingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	b, err := h.bookings.Get(r.Context(), bookingID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if identity.ID != b.PatientID && identity.ID != b.ProviderID {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	RespondSuccess(w, http.StatusOK, toBookingDTO(b))
}

func (h *BookingHandler) List(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	limit, offset := paginationParams(r)
	bookings, err := h.bookings.ListForPatient(r.Context(), identity.ID, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]bookingDTO, 0, len(bookings))
	for i := range bookings {
		dtos = append(dtos, toBookingDTO(&bookings[i]))
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func (h *BookingHandler) History(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	bookingID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	b, err := h.bookings.Get(r.Context(), bookingID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}
	if identity.ID != b.PatientID && identity.ID != b.ProviderID {
		RespondAppError(w, ErrResourceNotFound, nil)
		return
	}

	events, err := h.bookings.History(r.Context(), bookingID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]auditEventDTO, 0, len(events))
	for _, e := range events {
		dtos = append(dtos, auditEventDTO{
			Event:     string(e.Event),
			From:      string(e.From),
			To:        string(e.To),
			Actor:     e.Actor,
			CreatedAt: e.CreatedAt,
		})
	}
	RespondSuccess(w, http.StatusOK, dtos)
}

func paginationParams(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			offset = n
		}
	}
	return limit, offset
}
