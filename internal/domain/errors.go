package domain

import "errors"

var (
	ErrNotFound              = errors.New("not found")
	ErrWalletNotFound        = errors.New("wallet not found")
	ErrInsufficientFunds     = errors.New("insufficient funds")
	ErrInvalidAmount         = errors.New("amount must be greater than zero")
	ErrInvalidCurrency       = errors.New("invalid currency")
	ErrInvalidSelection      = errors.New("incomplete booking selection")
	ErrInvalidMethod         = errors.New("invalid payment method")
	ErrInvalidTransition     = errors.New("invalid state transition")
	ErrMissingPayerReference = errors.New("payer reference required")
	ErrGatewayTimeout        = errors.New("gateway timed out")
	ErrGatewayDeclined       = errors.New("gateway declined payment")
	ErrEntryNotPending       = errors.New("ledger entry not pending")
	ErrEntryNotReversible    = errors.New("ledger entry not reversible")
	ErrLedgerDrift           = errors.New("ledger sum does not match wallet balance")
	ErrVersionConflict       = errors.New("optimistic lock conflict")
	ErrNotBookingActor       = errors.New("actor not party to this booking")
)
