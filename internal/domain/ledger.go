package domain

import (
	"time"

	"github.com/google/uuid"
)

type EntryDirection string

const (
	DirectionDebit  EntryDirection = "debit"
	DirectionCredit EntryDirection = "credit"
)

type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusCompleted EntryStatus = "completed"
	EntryStatusFailed    EntryStatus = "failed"
)

type PaymentMethod string

const (
	MethodWallet         PaymentMethod = "wallet"
	MethodMobilePay      PaymentMethod = "mobile_pay"
	MethodBankEPay       PaymentMethod = "bank_epay"
	MethodCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (m PaymentMethod) IsValid() bool {
	switch m {
	case MethodWallet, MethodMobilePay, MethodBankEPay, MethodCashOnDelivery:
		return true
	default:
		return false
	}
}

// LedgerEntry is an immutable money-movement record. Completed and failed
// entries are never edited; corrections are compensating entries.
type LedgerEntry struct {
	ID               uuid.UUID
	OwnerID          uuid.UUID
	Direction        EntryDirection
	Amount           int64
	Currency         Currency
	RelatedBookingID *uuid.UUID
	Method           PaymentMethod
	Status           EntryStatus
	FailureReason    *string
	ReversesEntryID  *uuid.UUID
	CreatedAt        time.Time
	CompletedAt      *time.Time
}
