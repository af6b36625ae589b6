package recurring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/coinpurse/internal/model"
	"github.com/Veraticus/coinpurse/internal/mutation"
	"github.com/Veraticus/coinpurse/internal/service"
	"github.com/Veraticus/coinpurse/internal/storage"
)

func newTestLedger(t *testing.T) *mutation.Ledger {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	l := mutation.NewLedger(store)
	require.NoError(t, l.Load(ctx))
	return l
}

func addAccount(t *testing.T, l *mutation.Ledger, account model.Account) string {
	t.Helper()
	outcome, err := l.AddAccount(context.Background(), account)
	require.NoError(t, err)
	require.Equal(t, service.MutationApplied, outcome.Status)
	return outcome.EntityID
}

func addObligation(t *testing.T, l *mutation.Ledger, obligation model.RecurringObligation) string {
	t.Helper()
	outcome, err := l.AddObligation(context.Background(), obligation)
	require.NoError(t, err)
	require.Equal(t, service.MutationApplied, outcome.Status)
	return outcome.EntityID
}

func TestRun_PostsDueObligation(t *testing.T) {
	l := newTestLedger(t)
	accountID := addAccount(t, l, model.Account{
		Name:           "Checking",
		Kind:           model.AccountKindBank,
		Currency:       "USD",
		OpeningBalance: decimal.NewFromInt(1000),
	})

	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	obligationID := addObligation(t, l, model.RecurringObligation{
		Name:        "Rent",
		AccountID:   accountID,
		Magnitude:   decimal.NewFromInt(800),
		Frequency:   model.FrequencyMonthly,
		Category:    "Housing",
		NextDueDate: due,
		Active:      true,
	})

	scheduler := NewScheduler(l)
	posted, err := scheduler.Run(context.Background(), time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, posted)

	transactions := l.Transactions()
	require.Len(t, transactions, 1)
	assert.Equal(t, accountID, transactions[0].AccountID)
	assert.Equal(t, model.DirectionExpense, transactions[0].Direction)
	assert.True(t, transactions[0].Magnitude.Equal(decimal.NewFromInt(800)))
	// Dated at the due date, not at run time.
	assert.Equal(t, due, transactions[0].Date.UTC())
	assert.Equal(t, "Rent (recurring)", transactions[0].Note)

	// Due date advanced exactly one period from the previous due date.
	var advanced *model.RecurringObligation
	for _, obligation := range l.Obligations() {
		if obligation.ID == obligationID {
			o := obligation
			advanced = &o
		}
	}
	require.NotNil(t, advanced)
	assert.Equal(t, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), advanced.NextDueDate.UTC())
}

func TestRun_OnePostingPerPass(t *testing.T) {
	l := newTestLedger(t)
	accountID := addAccount(t, l, model.Account{
		Name: "Checking", Kind: model.AccountKindBank, Currency: "USD",
	})

	// Three months overdue: catching up takes three passes, one posting each.
	addObligation(t, l, model.RecurringObligation{
		Name:        "Gym",
		AccountID:   accountID,
		Magnitude:   decimal.NewFromInt(30),
		Frequency:   model.FrequencyMonthly,
		NextDueDate: time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC),
		Active:      true,
	})

	scheduler := NewScheduler(l)
	today := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	for pass := 1; pass <= 3; pass++ {
		posted, err := scheduler.Run(context.Background(), today)
		require.NoError(t, err)
		assert.Equal(t, 1, posted, "pass %d", pass)
		assert.Len(t, l.Transactions(), pass)
	}

	// Fully caught up: next due date is beyond today.
	posted, err := scheduler.Run(context.Background(), today)
	require.NoError(t, err)
	assert.Zero(t, posted)
	assert.Len(t, l.Transactions(), 3)
}

func TestRun_NothingDue(t *testing.T) {
	l := newTestLedger(t)
	accountID := addAccount(t, l, model.Account{
		Name: "Checking", Kind: model.AccountKindBank, Currency: "USD",
	})
	addObligation(t, l, model.RecurringObligation{
		Name:        "Insurance",
		AccountID:   accountID,
		Magnitude:   decimal.NewFromInt(120),
		Frequency:   model.FrequencyYearly,
		NextDueDate: time.Date(2025, 12, 1, 0, 0, 0, 0, time.UTC),
		Active:      true,
	})

	posted, err := NewScheduler(l).Run(context.Background(), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, posted)
	assert.Empty(t, l.Transactions())
}

func TestRun_DueTodayPosts(t *testing.T) {
	l := newTestLedger(t)
	accountID := addAccount(t, l, model.Account{
		Name: "Checking", Kind: model.AccountKindBank, Currency: "USD",
	})
	addObligation(t, l, model.RecurringObligation{
		Name:        "Streaming",
		AccountID:   accountID,
		Magnitude:   decimal.NewFromInt(15),
		Frequency:   model.FrequencyMonthly,
		NextDueDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Active:      true,
	})

	// Same calendar day counts as elapsed even with a later wall-clock time.
	posted, err := NewScheduler(l).Run(context.Background(), time.Date(2025, 6, 1, 18, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, posted)
}

func TestRun_SkipsInactive(t *testing.T) {
	l := newTestLedger(t)
	accountID := addAccount(t, l, model.Account{
		Name: "Checking", Kind: model.AccountKindBank, Currency: "USD",
	})
	addObligation(t, l, model.RecurringObligation{
		Name:        "Cancelled magazine",
		AccountID:   accountID,
		Magnitude:   decimal.NewFromInt(10),
		Frequency:   model.FrequencyMonthly,
		NextDueDate: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		Active:      false,
	})

	posted, err := NewScheduler(l).Run(context.Background(), time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, posted)
	assert.Empty(t, l.Transactions())
}

func TestRun_FallsBackToFirstLiquidAccount(t *testing.T) {
	l := newTestLedger(t)
	addAccount(t, l, model.Account{
		Name: "Card", Kind: model.AccountKindCredit, Currency: "USD",
	})
	bankID := addAccount(t, l, model.Account{
		Name: "Checking", Kind: model.AccountKindBank, Currency: "USD",
	})

	// No account configured: the first liquid account takes the posting.
	addObligation(t, l, model.RecurringObligation{
		Name:        "Utilities",
		Magnitude:   decimal.NewFromInt(60),
		Frequency:   model.FrequencyMonthly,
		NextDueDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Active:      true,
	})

	posted, err := NewScheduler(l).Run(context.Background(), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, posted)

	transactions := l.Transactions()
	require.Len(t, transactions, 1)
	assert.Equal(t, bankID, transactions[0].AccountID)
}

func TestRun_SkipsWhenNoTargetResolvable(t *testing.T) {
	l := newTestLedger(t)
	// Only a credit account exists, and the obligation names no account.
	addAccount(t, l, model.Account{
		Name: "Card", Kind: model.AccountKindCredit, Currency: "USD",
	})
	addObligation(t, l, model.RecurringObligation{
		Name:        "Orphaned",
		Magnitude:   decimal.NewFromInt(20),
		Frequency:   model.FrequencyWeekly,
		NextDueDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Active:      true,
	})

	posted, err := NewScheduler(l).Run(context.Background(), time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, posted)
	assert.Empty(t, l.Transactions())
}

// advanceFailStore rejects every obligation update so the due-date advance
// after a posting always rolls back.
type advanceFailStore struct {
	service.LedgerStore
}

func (s *advanceFailStore) UpdateObligation(context.Context, *model.RecurringObligation) error {
	return errors.New("update rejected")
}

func TestRun_CountsPostingWhenAdvanceFails(t *testing.T) {
	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	ctx := context.Background()
	require.NoError(t, store.Migrate(ctx))

	l := mutation.NewLedger(&advanceFailStore{LedgerStore: store})
	require.NoError(t, l.Load(ctx))

	accountID := addAccount(t, l, model.Account{
		Name: "Checking", Kind: model.AccountKindBank, Currency: "USD",
	})
	due := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	addObligation(t, l, model.RecurringObligation{
		Name:        "Rent",
		AccountID:   accountID,
		Magnitude:   decimal.NewFromInt(800),
		Frequency:   model.FrequencyMonthly,
		NextDueDate: due,
		Active:      true,
	})

	posted, err := NewScheduler(l).Run(ctx, time.Date(2025, 6, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	// The transaction is live even though the advance rolled back, so the
	// count must reflect it.
	assert.Equal(t, 1, posted)
	assert.Len(t, l.Transactions(), 1)

	obligations := l.Obligations()
	require.Len(t, obligations, 1)
	assert.Equal(t, due, obligations[0].NextDueDate.UTC())
}

func TestRun_NotReentrant(t *testing.T) {
	l := newTestLedger(t)
	scheduler := NewScheduler(l)

	scheduler.inFlight.Store(true)
	posted, err := scheduler.Run(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Zero(t, posted)
	scheduler.inFlight.Store(false)
}

func TestRun_WeeklyAdvance(t *testing.T) {
	l := newTestLedger(t)
	accountID := addAccount(t, l, model.Account{
		Name: "Checking", Kind: model.AccountKindBank, Currency: "USD",
	})
	obligationID := addObligation(t, l, model.RecurringObligation{
		Name:        "Cleaning",
		AccountID:   accountID,
		Magnitude:   decimal.NewFromInt(45),
		Frequency:   model.FrequencyWeekly,
		NextDueDate: time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC),
		Active:      true,
	})

	posted, err := NewScheduler(l).Run(context.Background(), time.Date(2025, 6, 3, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, posted)

	for _, obligation := range l.Obligations() {
		if obligation.ID == obligationID {
			assert.Equal(t, time.Date(2025, 6, 9, 0, 0, 0, 0, time.UTC), obligation.NextDueDate.UTC())
		}
	}
}
