package testutil

import (
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/sehaty/sehaty-backend/internal/domain"
)

func SeedWallet(t *testing.T, db *sql.DB, ownerID uuid.UUID, currency domain.Currency, balance int64) *domain.WalletAccount {
	t.Helper()

	w := &domain.WalletAccount{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		Currency:  currency,
		Balance:   balance,
		Version:   0,
		CreatedAt: time.Now().UTC(),
	}

	_, err := db.Exec(
		`INSERT INTO wallets (id, owner_id, currency, balance, version, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		w.ID, w.OwnerID, w.Currency, w.Balance, w.Version, w.CreatedAt,
	)
	if err != nil {
		t.Fatalf("seed wallet %s: %v", ownerID, err)
	}
	return w
}

// SeedBooking inserts the booking, filling ID and timestamps when zero.
func SeedBooking(t *testing.T, db *sql.DB, b *domain.Booking) *domain.Booking {
	t.Helper()

	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	now := time.Now().UTC()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = now
	}
	if b.UpdatedAt.IsZero() {
		b.UpdatedAt = now
	}
	if b.Fees == nil {
		b.Fees = []domain.FeeLine{}
	}

	fees, err := json.Marshal(b.Fees)
	if err != nil {
		t.Fatalf("marshal fees: %v", err)
	}

	_, err = db.Exec(
		`INSERT INTO bookings (
			id, kind, patient_id, provider_id, scheduled_at, address, items,
			fees, total_amount, currency, payment_method, payment_status, status,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		b.ID, b.Kind, b.PatientID, b.ProviderID, b.ScheduledAt, b.Address,
		pq.Array(b.Items), fees, b.TotalAmount, b.Currency,
		b.PaymentMethod, b.PaymentStatus, b.Status, b.CreatedAt, b.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("seed booking %s: %v", b.ID, err)
	}
	return b
}

func GetWalletBalance(t *testing.T, db *sql.DB, ownerID uuid.UUID) int64 {
	t.Helper()

	var balance int64
	err := db.QueryRow(`SELECT balance FROM wallets WHERE owner_id = $1`, ownerID).Scan(&balance)
	if err != nil {
		t.Fatalf("get wallet balance %s: %v", ownerID, err)
	}
	return balance
}

func GetBookingStatus(t *testing.T, db *sql.DB, bookingID uuid.UUID) (domain.BookingStatus, domain.PaymentStatus) {
	t.Helper()

	var (
		status        domain.BookingStatus
		paymentStatus domain.PaymentStatus
	)
	err := db.QueryRow(
		`SELECT status, payment_status FROM bookings WHERE id = $1`, bookingID,
	).Scan(&status, &paymentStatus)
	if err != nil {
		t.Fatalf("get booking status %s: %v", bookingID, err)
	}
	return status, paymentStatus
}

func CountLedgerEntries(t *testing.T, db *sql.DB, bookingID uuid.UUID) int {
	t.Helper()

	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM ledger_entries WHERE related_booking_id = $1`, bookingID,
	).Scan(&count)
	if err != nil {
		t.Fatalf("count ledger entries for booking %s: %v", bookingID, err)
	}
	return count
}
