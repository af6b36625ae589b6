package mutation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/coinpurse/internal/common"
	"github.com/Veraticus/coinpurse/internal/ledger"
	"github.com/Veraticus/coinpurse/internal/model"
	"github.com/Veraticus/coinpurse/internal/service"
)

// AddAccount optimistically appends an account and persists it.
func (l *Ledger) AddAccount(ctx context.Context, account model.Account) (service.MutationOutcome, error) {
	if err := validateAccount(&account); err != nil {
		return service.MutationOutcome{}, err
	}
	if account.ID != "" && l.hasAccount(account.ID) {
		return service.MutationOutcome{}, fmt.Errorf("%w: account %s", common.ErrDuplicateEntry, account.ID)
	}
	if account.ID == "" {
		account.ID = uuid.NewString()
	}

	l.mu.Lock()
	l.accounts = append(l.accounts, account)
	l.mu.Unlock()

	localID := account.ID
	var remoteID string
	err := l.persist(ctx, func(ctx context.Context) error {
		var saveErr error
		remoteID, saveErr = l.store.SaveAccount(ctx, &account)
		return saveErr
	})
	if err != nil {
		l.mu.Lock()
		for i := range l.accounts {
			if l.accounts[i].ID == localID {
				l.accounts = append(l.accounts[:i], l.accounts[i+1:]...)
				break
			}
		}
		l.mu.Unlock()
		slog.Warn("Account add rolled back", "account_id", localID, "error", err)
		return service.RolledBack(fmt.Errorf("%w: %v", common.ErrPersistence, err)), nil
	}

	if remoteID != "" && remoteID != localID {
		l.mu.Lock()
		for i := range l.accounts {
			if l.accounts[i].ID == localID {
				l.accounts[i].ID = remoteID
				break
			}
		}
		l.mu.Unlock()
		localID = remoteID
	}

	return service.Applied(localID), nil
}

// UpdateAccount optimistically replaces an account and persists the change,
// restoring the previous value on failure.
func (l *Ledger) UpdateAccount(ctx context.Context, account model.Account) (service.MutationOutcome, error) {
	if err := validateAccount(&account); err != nil {
		return service.MutationOutcome{}, err
	}
	if account.ID == "" {
		return service.MutationOutcome{}, fmt.Errorf("%w: missing account id", common.ErrValidation)
	}

	unlock := l.lockAccounts(account.ID)
	defer unlock()

	l.mu.Lock()
	idx := -1
	var previous model.Account
	for i := range l.accounts {
		if l.accounts[i].ID == account.ID {
			idx = i
			previous = l.accounts[i]
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return service.MutationOutcome{}, fmt.Errorf("%w: account %s", common.ErrNotFound, account.ID)
	}
	l.accounts[idx] = account
	l.mu.Unlock()

	err := l.persist(ctx, func(ctx context.Context) error {
		return l.store.UpdateAccount(ctx, &account)
	})
	if err != nil {
		l.mu.Lock()
		for i := range l.accounts {
			if l.accounts[i].ID == account.ID {
				l.accounts[i] = previous
				break
			}
		}
		l.mu.Unlock()
		slog.Warn("Account update rolled back", "account_id", account.ID, "error", err)
		return service.RolledBack(fmt.Errorf("%w: %v", common.ErrPersistence, err)), nil
	}

	return service.Applied(account.ID), nil
}

// SetBalance re-expresses a direct balance edit as an opening-balance
// adjustment: the opening balance is shifted by the difference between the
// requested balance and the currently derived one. The derived balance
// remains the single source of truth and the transaction history is left
// untouched.
func (l *Ledger) SetBalance(ctx context.Context, accountID string, target decimal.Decimal) (service.MutationOutcome, error) {
	account := l.AccountByID(accountID)
	if account == nil {
		return service.MutationOutcome{}, fmt.Errorf("%w: account %s", common.ErrNotFound, accountID)
	}

	current := ledger.Balance(account, l.Transactions(), l.Transfers())
	account.OpeningBalance = account.OpeningBalance.Add(target.Sub(current))

	return l.UpdateAccount(ctx, *account)
}

func validateAccount(account *model.Account) error {
	if account.Name == "" {
		return fmt.Errorf("%w: missing account name", common.ErrValidation)
	}
	switch account.Kind {
	case model.AccountKindBank, model.AccountKindCash, model.AccountKindWallet, model.AccountKindCredit:
	default:
		return fmt.Errorf("%w: unknown account kind %q", common.ErrValidation, account.Kind)
	}
	if account.CutoffDay < 0 || account.CutoffDay > 31 {
		return fmt.Errorf("%w: cutoff day out of range", common.ErrValidation)
	}
	if account.PaymentDay < 0 || account.PaymentDay > 31 {
		return fmt.Errorf("%w: payment day out of range", common.ErrValidation)
	}
	return nil
}
