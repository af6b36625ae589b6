package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/coinpurse/internal/common"
	"github.com/Veraticus/coinpurse/internal/model"
)

func newTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	require.NoError(t, store.Migrate(context.Background()))
	return store
}

func testAccount(id string) model.Account {
	return model.Account{
		ID:             id,
		Name:           "Checking",
		Kind:           model.AccountKindBank,
		Currency:       "USD",
		OpeningBalance: decimal.RequireFromString("1234.56"),
		CreditLimit:    decimal.Zero,
		HandlingFee:    decimal.Zero,
	}
}

func TestNewSQLiteStorage_CreatesDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "ledger.db")

	store, err := NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	require.NoError(t, store.Migrate(context.Background()))
}

func TestNewSQLiteStorage_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStorage("")
	assert.ErrorIs(t, err, ErrEmptyString)
}

func TestMigrate_Idempotent(t *testing.T) {
	store := newTestStorage(t)
	// A second pass over an up-to-date schema is a no-op.
	require.NoError(t, store.Migrate(context.Background()))
}

func TestAccountRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	account := testAccount("acc1")
	account.Kind = model.AccountKindCredit
	account.CreditLimit = decimal.RequireFromString("5000")
	account.CutoffDay = 15
	account.PaymentDay = 25
	account.HandlingFee = decimal.RequireFromString("9.90")

	id, err := store.SaveAccount(ctx, &account)
	require.NoError(t, err)
	assert.Equal(t, "acc1", id)

	got, err := store.GetAccountByID(ctx, "acc1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, account.Name, got.Name)
	assert.Equal(t, account.Kind, got.Kind)
	assert.Equal(t, account.Currency, got.Currency)
	assert.True(t, got.OpeningBalance.Equal(account.OpeningBalance))
	assert.True(t, got.CreditLimit.Equal(account.CreditLimit))
	assert.True(t, got.HandlingFee.Equal(account.HandlingFee))
	assert.Equal(t, 15, got.CutoffDay)
	assert.Equal(t, 25, got.PaymentDay)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestGetAccountByID_Missing(t *testing.T) {
	store := newTestStorage(t)

	got, err := store.GetAccountByID(context.Background(), "ghost")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUpdateAccount(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	account := testAccount("acc1")
	_, err := store.SaveAccount(ctx, &account)
	require.NoError(t, err)

	account.Name = "Renamed"
	account.OpeningBalance = decimal.RequireFromString("42.42")
	require.NoError(t, store.UpdateAccount(ctx, &account))

	got, err := store.GetAccountByID(ctx, "acc1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Renamed", got.Name)
	assert.True(t, got.OpeningBalance.Equal(decimal.RequireFromString("42.42")))

	missing := testAccount("ghost")
	assert.ErrorIs(t, store.UpdateAccount(ctx, &missing), common.ErrNotFound)
}

func TestTransactionRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	account := testAccount("acc1")
	_, err := store.SaveAccount(ctx, &account)
	require.NoError(t, err)

	txn := model.Transaction{
		ID:        "t1",
		AccountID: "acc1",
		Direction: model.DirectionExpense,
		Magnitude: decimal.RequireFromString("19.99"),
		Date:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Category:  "Groceries",
		Note:      "weekly shop",
		Installment: &model.Installment{
			Index: 2,
			Total: 6,
		},
	}

	id, err := store.SaveTransaction(ctx, &txn)
	require.NoError(t, err)
	assert.Equal(t, "t1", id)

	got, err := store.GetTransactionsByAccount(ctx, "acc1")
	require.NoError(t, err)
	require.Len(t, got, 1)

	assert.Equal(t, txn.AccountID, got[0].AccountID)
	assert.Equal(t, txn.Direction, got[0].Direction)
	assert.True(t, got[0].Magnitude.Equal(txn.Magnitude))
	assert.Equal(t, txn.Date, got[0].Date.UTC())
	assert.Equal(t, txn.Category, got[0].Category)
	assert.Equal(t, txn.Note, got[0].Note)
	require.NotNil(t, got[0].Installment)
	assert.Equal(t, 2, got[0].Installment.Index)
	assert.Equal(t, 6, got[0].Installment.Total)
}

func TestTransactionWithoutInstallment(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	account := testAccount("acc1")
	_, err := store.SaveAccount(ctx, &account)
	require.NoError(t, err)

	txn := model.Transaction{
		ID:        "t1",
		AccountID: "acc1",
		Direction: model.DirectionIncome,
		Magnitude: decimal.NewFromInt(100),
		Date:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err = store.SaveTransaction(ctx, &txn)
	require.NoError(t, err)

	got, err := store.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].Installment)
}

func TestUpdateAndDeleteTransaction(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	account := testAccount("acc1")
	_, err := store.SaveAccount(ctx, &account)
	require.NoError(t, err)

	txn := model.Transaction{
		ID:        "t1",
		AccountID: "acc1",
		Direction: model.DirectionExpense,
		Magnitude: decimal.NewFromInt(50),
		Date:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	_, err = store.SaveTransaction(ctx, &txn)
	require.NoError(t, err)

	txn.Magnitude = decimal.NewFromInt(75)
	require.NoError(t, store.UpdateTransaction(ctx, &txn))

	got, err := store.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].Magnitude.Equal(decimal.NewFromInt(75)))

	require.NoError(t, store.DeleteTransaction(ctx, "t1"))
	got, err = store.GetTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)

	assert.ErrorIs(t, store.DeleteTransaction(ctx, "t1"), common.ErrNotFound)
	assert.ErrorIs(t, store.UpdateTransaction(ctx, &txn), common.ErrNotFound)
}

func TestTransactionsOrderedByDate(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	account := testAccount("acc1")
	_, err := store.SaveAccount(ctx, &account)
	require.NoError(t, err)

	dates := []time.Time{
		time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
	}
	for i, date := range dates {
		txn := model.Transaction{
			ID:        string(rune('a' + i)),
			AccountID: "acc1",
			Direction: model.DirectionExpense,
			Magnitude: decimal.NewFromInt(int64(i + 1)),
			Date:      date,
		}
		_, err := store.SaveTransaction(ctx, &txn)
		require.NoError(t, err)
	}

	got, err := store.GetTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "c", got[1].ID)
	assert.Equal(t, "a", got[2].ID)
}

func TestTransferRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	for _, id := range []string{"acc1", "acc2"} {
		account := testAccount(id)
		_, err := store.SaveAccount(ctx, &account)
		require.NoError(t, err)
	}

	transfer := model.Transfer{
		ID:                   "x1",
		SourceAccountID:      "acc1",
		DestinationAccountID: "acc2",
		Magnitude:            decimal.RequireFromString("250.00"),
		Date:                 time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Note:                 "savings top-up",
	}

	id, err := store.SaveTransfer(ctx, &transfer)
	require.NoError(t, err)
	assert.Equal(t, "x1", id)

	got, err := store.GetTransfers(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "acc1", got[0].SourceAccountID)
	assert.Equal(t, "acc2", got[0].DestinationAccountID)
	assert.True(t, got[0].Magnitude.Equal(transfer.Magnitude))
	assert.Equal(t, transfer.Date, got[0].Date.UTC())
	assert.Equal(t, transfer.Note, got[0].Note)
}

func TestObligationRoundTrip(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	obligation := model.RecurringObligation{
		ID:          "o1",
		Name:        "Rent",
		Magnitude:   decimal.RequireFromString("800.00"),
		Frequency:   model.FrequencyMonthly,
		NextDueDate: time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC),
		Category:    "Housing",
		AccountID:   "acc1",
		Active:      true,
	}

	id, err := store.SaveObligation(ctx, &obligation)
	require.NoError(t, err)
	assert.Equal(t, "o1", id)

	got, err := store.GetObligations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, obligation.Name, got[0].Name)
	assert.Equal(t, obligation.Frequency, got[0].Frequency)
	assert.True(t, got[0].Magnitude.Equal(obligation.Magnitude))
	assert.Equal(t, obligation.NextDueDate, got[0].NextDueDate.UTC())
	assert.Equal(t, obligation.AccountID, got[0].AccountID)
	assert.True(t, got[0].Active)

	obligation.NextDueDate = obligation.NextDueDate.AddDate(0, 1, 0)
	obligation.Active = false
	require.NoError(t, store.UpdateObligation(ctx, &obligation))

	got, err = store.GetObligations(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC), got[0].NextDueDate.UTC())
	assert.False(t, got[0].Active)

	require.NoError(t, store.DeleteObligation(ctx, "o1"))
	assert.ErrorIs(t, store.DeleteObligation(ctx, "o1"), common.ErrNotFound)
}

func TestValidationErrors(t *testing.T) {
	store := newTestStorage(t)
	ctx := context.Background()

	_, err := store.SaveAccount(ctx, nil)
	assert.ErrorIs(t, err, ErrNilParameter)

	_, err = store.SaveAccount(ctx, &model.Account{})
	assert.ErrorIs(t, err, ErrInvalidAccount)

	_, err = store.GetAccountByID(ctx, "")
	assert.ErrorIs(t, err, ErrEmptyString)

	_, err = store.SaveTransaction(ctx, &model.Transaction{ID: "t1"})
	assert.ErrorIs(t, err, ErrInvalidTransaction)

	//nolint:staticcheck // exercising the nil-context guard
	_, err = store.GetAccounts(nil)
	assert.ErrorIs(t, err, ErrNilContext)
}
