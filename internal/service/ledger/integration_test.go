package ledger_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sehaty/sehaty-backend/internal/domain"
	"github.com/sehaty/sehaty-backend/internal/repository"
	"github.com/sehaty/sehaty-backend/internal/service/ledger"
	"github.com/sehaty/sehaty-backend/internal/testutil"
)

func setupLedgerService(t *testing.T, db *sql.DB) *ledger.Service {
	t.Helper()
	return ledger.NewService(
		repository.NewWalletRepository(db),
		repository.NewLedgerRepository(db),
		db,
	)
}

func TestTopUp_CreditsBalance(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	ownerID := uuid.New()
	testutil.SeedWallet(t, db, ownerID, domain.CurrencyEGP, 0)

	entry, err := svc.TopUp(ctx, ownerID, 2500, domain.CurrencyEGP)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusCompleted, entry.Status)
	assert.Equal(t, domain.DirectionCredit, entry.Direction)
	require.NotNil(t, entry.CompletedAt)

	w, err := svc.Balance(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(2500), w.Balance)

	require.NoError(t, svc.Reconcile(ctx, ownerID))
}

func TestTopUp_ProvisionsWalletOnFirstUse(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	ownerID := uuid.New()

	_, err := svc.Balance(ctx, ownerID)
	require.ErrorIs(t, err, domain.ErrWalletNotFound)

	entry, err := svc.TopUp(ctx, ownerID, 1000, domain.CurrencyEGP)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryStatusCompleted, entry.Status)

	w, err := svc.Balance(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, domain.CurrencyEGP, w.Currency)
	assert.Equal(t, int64(1000), w.Balance)
}

func TestTopUp_RejectsInvalidInput(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	ownerID := uuid.New()
	testutil.SeedWallet(t, db, ownerID, domain.CurrencyEGP, 0)

	_, err := svc.TopUp(ctx, ownerID, 0, domain.CurrencyEGP)
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = svc.TopUp(ctx, ownerID, 100, domain.Currency("XYZ"))
	require.ErrorIs(t, err, domain.ErrInvalidCurrency)
}

func TestCommit_InsufficientFundsPersistsFailedEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	ownerID := uuid.New()
	testutil.SeedWallet(t, db, ownerID, domain.CurrencyEGP, 100)

	entry, err := svc.RecordDebit(ctx, ownerID, 500, domain.CurrencyEGP, nil, domain.MethodWallet)
	require.NoError(t, err)

	_, err = svc.Commit(ctx, entry.ID)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// The failed entry is on record and the balance never moved.
	entries, total, err := svc.Entries(ctx, ownerID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, domain.EntryStatusFailed, entries[0].Status)
	require.NotNil(t, entries[0].FailureReason)

	w, err := svc.Balance(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), w.Balance)

	require.NoError(t, svc.Reconcile(ctx, ownerID))
}

func TestCommit_RejectsNonPendingEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	ownerID := uuid.New()
	testutil.SeedWallet(t, db, ownerID, domain.CurrencyEGP, 1000)

	entry, err := svc.RecordDebit(ctx, ownerID, 500, domain.CurrencyEGP, nil, domain.MethodWallet)
	require.NoError(t, err)

	_, err = svc.Commit(ctx, entry.ID)
	require.NoError(t, err)

	// Committing twice must not debit twice.
	_, err = svc.Commit(ctx, entry.ID)
	require.ErrorIs(t, err, domain.ErrEntryNotPending)

	w, err := svc.Balance(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), w.Balance)
}

func TestReverse_IsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	ownerID := uuid.New()
	testutil.SeedWallet(t, db, ownerID, domain.CurrencyEGP, 1000)

	entry, err := svc.RecordDebit(ctx, ownerID, 400, domain.CurrencyEGP, nil, domain.MethodWallet)
	require.NoError(t, err)
	_, err = svc.Commit(ctx, entry.ID)
	require.NoError(t, err)

	first, err := svc.Reverse(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DirectionCredit, first.Direction)
	require.NotNil(t, first.ReversesEntryID)
	assert.Equal(t, entry.ID, *first.ReversesEntryID)

	// Reversing again returns the same compensation without creating another.
	second, err := svc.Reverse(ctx, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	w, err := svc.Balance(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), w.Balance)

	_, total, err := svc.Entries(ctx, ownerID, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	require.NoError(t, svc.Reconcile(ctx, ownerID))
}

func TestReverse_RejectsPendingEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	ownerID := uuid.New()
	testutil.SeedWallet(t, db, ownerID, domain.CurrencyEGP, 1000)

	entry, err := svc.RecordDebit(ctx, ownerID, 400, domain.CurrencyEGP, nil, domain.MethodWallet)
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, entry.ID)
	require.ErrorIs(t, err, domain.ErrEntryNotReversible)
}

func TestReverse_RejectsCreditEntry(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	ownerID := uuid.New()
	testutil.SeedWallet(t, db, ownerID, domain.CurrencyEGP, 0)

	entry, err := svc.TopUp(ctx, ownerID, 500, domain.CurrencyEGP)
	require.NoError(t, err)

	_, err = svc.Reverse(ctx, entry.ID)
	require.ErrorIs(t, err, domain.ErrEntryNotReversible)
}

func TestReconcile_DetectsDrift(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := setupLedgerService(t, db)
	ctx := context.Background()

	ownerID := uuid.New()
	testutil.SeedWallet(t, db, ownerID, domain.CurrencyEGP, 0)

	_, err := svc.TopUp(ctx, ownerID, 1000, domain.CurrencyEGP)
	require.NoError(t, err)
	require.NoError(t, svc.Reconcile(ctx, ownerID))

	// Corrupt the balance behind the ledger's back.
	_, err = db.Exec(`UPDATE wallets SET balance = balance + 1 WHERE owner_id = $1`, ownerID)
	require.NoError(t, err)

	require.ErrorIs(t, svc.Reconcile(ctx, ownerID), domain.ErrLedgerDrift)
}
