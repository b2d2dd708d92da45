package domain

import (
	"time"

	"github.com/google/uuid"
)

type Currency string

const (
	CurrencyEGP Currency = "EGP"
	CurrencySAR Currency = "SAR"
	CurrencyUSD Currency = "USD"
)

func (c Currency) IsValid() bool {
	switch c {
	case CurrencyEGP, CurrencySAR, CurrencyUSD:
		return true
	default:
		return false
	}
}

// WalletAccount holds a patient's prepaid balance in minor units.
// The balance is only ever mutated through committed ledger entries.
type WalletAccount struct {
	ID        uuid.UUID
	OwnerID   uuid.UUID
	Currency  Currency
	Balance   int64
	Version   int64
	CreatedAt time.Time
}
