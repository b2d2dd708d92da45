package handler

import "net/http"

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string { return e.Message }

var (
	ErrMissingToken     = &AppError{http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header required"}
	ErrInvalidToken     = &AppError{http.StatusUnauthorized, "INVALID_TOKEN", "Token is invalid or expired"}
	ErrInvalidRequest   = &AppError{http.StatusBadRequest, "INVALID_REQUEST", "Invalid request body"}
	ErrValidationFailed = &AppError{http.StatusBadRequest, "VALIDATION_FAILED", "Validation failed"}
	ErrResourceNotFound = &AppError{http.StatusNotFound, "RESOURCE_NOT_FOUND", "Resource not found"}
	ErrInternalError    = &AppError{http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred"}

	ErrInsufficientFunds      = &AppError{http.StatusUnprocessableEntity, "INSUFFICIENT_FUNDS", "Insufficient wallet balance"}
	ErrWalletNotFound         = &AppError{http.StatusUnprocessableEntity, "WALLET_NOT_FOUND", "No wallet for this account"}
	ErrInvalidTransition      = &AppError{http.StatusConflict, "INVALID_TRANSITION", "Booking state does not allow this operation"}
	ErrInvalidSelection       = &AppError{http.StatusBadRequest, "INVALID_SELECTION", "Booking selection is incomplete for its kind"}
	ErrInvalidMethod          = &AppError{http.StatusBadRequest, "INVALID_PAYMENT_METHOD", "Unsupported payment method"}
	ErrMissingPayerReference  = &AppError{http.StatusBadRequest, "MISSING_PAYER_REFERENCE", "Payer reference is required for this method"}
	ErrGatewayDeclined        = &AppError{http.StatusUnprocessableEntity, "GATEWAY_DECLINED", "Payment was declined by the gateway"}
	ErrGatewayTimeout         = &AppError{http.StatusGatewayTimeout, "GATEWAY_TIMEOUT", "Payment gateway timed out"}
	ErrNotBookingActor        = &AppError{http.StatusForbidden, "NOT_BOOKING_ACTOR", "Caller is not a party to this booking"}
	ErrInvalidCurrency        = &AppError{http.StatusBadRequest, "INVALID_CURRENCY", "Invalid currency"}
	ErrInvalidAmount          = &AppError{http.StatusBadRequest, "INVALID_AMOUNT", "Amount must be greater than zero"}
	ErrVersionConflict        = &AppError{http.StatusConflict, "VERSION_CONFLICT", "Resource was modified concurrently, please retry"}
	ErrMissingIdempotencyKey  = &AppError{http.StatusBadRequest, "MISSING_IDEMPOTENCY_KEY", "Idempotency-Key header is required"}
	ErrIdempotencyConflict    = &AppError{http.StatusConflict, "IDEMPOTENCY_CONFLICT", "Idempotency key already used with a different request"}
)
