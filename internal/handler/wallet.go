package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/sehaty/sehaty-backend/internal/auth"
	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/logging"
)

type ledgerService interface {
	Balance(ctx context.Context, ownerID uuid.UUID) (*domain.WalletAccount, error)
	Entries(ctx context.Context, ownerID uuid.UUID, limit, offset int) ([]domain.LedgerEntry, int, error)
	TopUp(ctx context.Context, ownerID uuid.UUID, amount int64, currency domain.Currency) (*domain.LedgerEntry, error)
	Reconcile(ctx context.Context, ownerID uuid.UUID) error
}

type WalletHandler struct {
	ledger ledgerService
}

func NewWalletHandler(ledger ledgerService) *WalletHandler {
	return &WalletHandler{ledger: ledger}
}

type topUpRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

func (r topUpRequest) Validate() []FieldError {
	var errs []FieldError
	if r.Amount <= 0 {
		errs = append(errs, FieldError{Field: "amount", Message: "must be greater than 0"})
	}
	if r.Currency == "" {
		errs = append(errs, FieldError{Field: "currency", Message: "required"})
	} else if !domain.Currency(r.Currency).IsValid() {
		errs = append(errs, FieldError{Field: "currency", Message: "must be EGP, SAR, or USD"})
	}
	return errs
}

type walletDTO struct {
	OwnerID  uuid.UUID `json:"owner_id"`
	Currency string    `json:"currency"`
	Balance  int64     `json:"balance"`
}

type entryDTO struct {
	ID               uuid.UUID  `json:"id"`
	Direction        string     `json:"direction"`
	Amount           int64      `json:"amount"`
	Currency         string     `json:"currency"`
	RelatedBookingID *uuid.UUID `json:"related_booking_id,omitempty"`
	Method           string     `json:"method"`
	Status           string     `json:"status"`
	FailureReason    *string    `json:"failure_reason,omitempty"`
	ReversesEntryID  *uuid.UUID `json:"reverses_entry_id,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
}

func toEntryDTO(e *domain.LedgerEntry) entryDTO {
	return entryDTO{
		ID:               e.ID,
		Direction:        string(e.Direction),
		Amount:           e.Amount,
		Currency:         string(e.Currency),
		RelatedBookingID: e.RelatedBookingID,
		Method:           string(e.Method),
		Status:           string(e.Status),
		FailureReason:    e.FailureReason,
		ReversesEntryID:  e.ReversesEntryID,
		CreatedAt:        e.CreatedAt,
		CompletedAt:      e.CompletedAt,
	}
}

func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	wallet, err := h.ledger.Balance(r.Context(), identity.ID)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusOK, walletDTO{
		OwnerID:  wallet.OwnerID,
		Currency: string(wallet.Currency),
		Balance:  wallet.Balance,
	})
}

func (h *WalletHandler) TopUp(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	var req topUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		RespondAppError(w, ErrInvalidRequest, nil)
		return
	}

	if fields := req.Validate(); len(fields) > 0 {
		RespondValidationError(w, fields)
		return
	}

	entry, err := h.ledger.TopUp(r.Context(), identity.ID, req.Amount, domain.Currency(req.Currency))
	if err != nil {
		log.Warn("top-up failed", "owner_id", identity.ID, "error", err)
		RespondDomainError(w, err)
		return
	}

	RespondSuccess(w, http.StatusCreated, toEntryDTO(entry))
}

func (h *WalletHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		RespondAppError(w, ErrMissingToken, nil)
		return
	}

	limit, offset := paginationParams(r)
	entries, total, err := h.ledger.Entries(r.Context(), identity.ID, limit, offset)
	if err != nil {
		RespondDomainError(w, err)
		return
	}

	dtos := make([]entryDTO, 0, len(entries))
	for i := range entries {
		dtos = append(dtos, toEntryDTO(&entries[i]))
	}

	RespondSuccess(w, http.StatusOK, map[string]any{
		"entries": dtos,
		"total":   total,
	})
}
