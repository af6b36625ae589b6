package mutation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Veraticus/coinpurse/internal/common"
	"github.com/Veraticus/coinpurse/internal/model"
	"github.com/Veraticus/coinpurse/internal/service"
)

// AddTransaction optimistically appends a transaction and persists it.
// Validation failures are returned as an error before any local change; a
// failed remote write rolls the local append back and reports a RolledBack
// outcome, so a phantom local-only transaction can never leak into balance
// derivation.
func (l *Ledger) AddTransaction(ctx context.Context, txn model.Transaction) (service.MutationOutcome, error) {
	if err := l.validateTransaction(&txn); err != nil {
		return service.MutationOutcome{}, err
	}
	if txn.ID != "" && l.hasTransaction(txn.ID) {
		return service.MutationOutcome{}, fmt.Errorf("%w: transaction %s", common.ErrDuplicateEntry, txn.ID)
	}
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}

	unlock := l.lockAccounts(txn.AccountID)
	defer unlock()

	l.mu.Lock()
	l.transactions = append(l.transactions, txn)
	l.mu.Unlock()

	localID := txn.ID
	var remoteID string
	err := l.persist(ctx, func(ctx context.Context) error {
		var saveErr error
		remoteID, saveErr = l.store.SaveTransaction(ctx, &txn)
		return saveErr
	})
	if err != nil {
		l.mu.Lock()
		l.removeTransactionLocked(localID)
		l.mu.Unlock()
		slog.Warn("Transaction add rolled back", "transaction_id", localID, "error", err)
		return service.RolledBack(fmt.Errorf("%w: %v", common.ErrPersistence, err)), nil
	}

	// Reconcile a server-assigned id: the optimistic copy is swapped in
	// place, never duplicated.
	if remoteID != "" && remoteID != localID {
		l.mu.Lock()
		for i := range l.transactions {
			if l.transactions[i].ID == localID {
				l.transactions[i].ID = remoteID
				break
			}
		}
		l.mu.Unlock()
		localID = remoteID
	}

	return service.Applied(localID), nil
}

// UpdateTransaction optimistically replaces a transaction and persists the
// change, restoring the previous value on failure.
func (l *Ledger) UpdateTransaction(ctx context.Context, txn model.Transaction) (service.MutationOutcome, error) {
	if err := l.validateTransaction(&txn); err != nil {
		return service.MutationOutcome{}, err
	}
	if txn.ID == "" {
		return service.MutationOutcome{}, fmt.Errorf("%w: missing transaction id", common.ErrValidation)
	}

	unlock := l.lockAccounts(txn.AccountID)
	defer unlock()

	l.mu.Lock()
	idx := -1
	var previous model.Transaction
	for i := range l.transactions {
		if l.transactions[i].ID == txn.ID {
			idx = i
			previous = l.transactions[i]
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return service.MutationOutcome{}, fmt.Errorf("%w: transaction %s", common.ErrNotFound, txn.ID)
	}
	l.transactions[idx] = txn
	l.mu.Unlock()

	err := l.persist(ctx, func(ctx context.Context) error {
		return l.store.UpdateTransaction(ctx, &txn)
	})
	if err != nil {
		l.mu.Lock()
		for i := range l.transactions {
			if l.transactions[i].ID == txn.ID {
				l.transactions[i] = previous
				break
			}
		}
		l.mu.Unlock()
		slog.Warn("Transaction update rolled back", "transaction_id", txn.ID, "error", err)
		return service.RolledBack(fmt.Errorf("%w: %v", common.ErrPersistence, err)), nil
	}

	return service.Applied(txn.ID), nil
}

// DeleteTransaction optimistically removes a transaction and persists the
// removal, reinserting it on failure.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) (service.MutationOutcome, error) {
	if id == "" {
		return service.MutationOutcome{}, fmt.Errorf("%w: missing transaction id", common.ErrValidation)
	}

	l.mu.RLock()
	accountID := ""
	for i := range l.transactions {
		if l.transactions[i].ID == id {
			accountID = l.transactions[i].AccountID
			break
		}
	}
	l.mu.RUnlock()
	if accountID == "" {
		return service.MutationOutcome{}, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}

	unlock := l.lockAccounts(accountID)
	defer unlock()

	l.mu.Lock()
	idx := -1
	var removed model.Transaction
	for i := range l.transactions {
		if l.transactions[i].ID == id {
			idx = i
			removed = l.transactions[i]
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return service.MutationOutcome{}, fmt.Errorf("%w: transaction %s", common.ErrNotFound, id)
	}
	l.transactions = append(l.transactions[:idx], l.transactions[idx+1:]...)
	l.mu.Unlock()

	err := l.persist(ctx, func(ctx context.Context) error {
		return l.store.DeleteTransaction(ctx, id)
	})
	if err != nil {
		// Mutations on other accounts may have resized the slice while the
		// remote call was in flight, so the removal index is stale by now.
		// Append instead; derivation is order-independent.
		l.mu.Lock()
		l.transactions = append(l.transactions, removed)
		l.mu.Unlock()
		slog.Warn("Transaction delete rolled back", "transaction_id", id, "error", err)
		return service.RolledBack(fmt.Errorf("%w: %v", common.ErrPersistence, err)), nil
	}

	return service.Applied(id), nil
}

// AddTransfer optimistically appends a transfer between two accounts and
// persists it. Both accounts are locked for the duration so neither side's
// derived balance can interleave with another mutation.
func (l *Ledger) AddTransfer(ctx context.Context, transfer model.Transfer) (service.MutationOutcome, error) {
	if err := l.validateTransfer(&transfer); err != nil {
		return service.MutationOutcome{}, err
	}
	if transfer.ID != "" && l.hasTransfer(transfer.ID) {
		return service.MutationOutcome{}, fmt.Errorf("%w: transfer %s", common.ErrDuplicateEntry, transfer.ID)
	}
	if transfer.ID == "" {
		transfer.ID = uuid.NewString()
	}

	unlock := l.lockAccounts(transfer.SourceAccountID, transfer.DestinationAccountID)
	defer unlock()

	l.mu.Lock()
	l.transfers = append(l.transfers, transfer)
	l.mu.Unlock()

	localID := transfer.ID
	var remoteID string
	err := l.persist(ctx, func(ctx context.Context) error {
		var saveErr error
		remoteID, saveErr = l.store.SaveTransfer(ctx, &transfer)
		return saveErr
	})
	if err != nil {
		l.mu.Lock()
		for i := range l.transfers {
			if l.transfers[i].ID == localID {
				l.transfers = append(l.transfers[:i], l.transfers[i+1:]...)
				break
			}
		}
		l.mu.Unlock()
		slog.Warn("Transfer add rolled back", "transfer_id", localID, "error", err)
		return service.RolledBack(fmt.Errorf("%w: %v", common.ErrPersistence, err)), nil
	}

	if remoteID != "" && remoteID != localID {
		l.mu.Lock()
		for i := range l.transfers {
			if l.transfers[i].ID == localID {
				l.transfers[i].ID = remoteID
				break
			}
		}
		l.mu.Unlock()
		localID = remoteID
	}

	return service.Applied(localID), nil
}

func (l *Ledger) removeTransactionLocked(id string) {
	for i := range l.transactions {
		if l.transactions[i].ID == id {
			l.transactions = append(l.transactions[:i], l.transactions[i+1:]...)
			return
		}
	}
}

func (l *Ledger) validateTransaction(txn *model.Transaction) error {
	if txn.Magnitude.Sign() < 0 {
		return fmt.Errorf("%w: magnitude must be non-negative", common.ErrValidation)
	}
	if txn.Direction != model.DirectionExpense && txn.Direction != model.DirectionIncome {
		return fmt.Errorf("%w: unknown direction %q", common.ErrValidation, txn.Direction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", common.ErrValidation)
	}
	if txn.AccountID == "" {
		return fmt.Errorf("%w: missing account reference", common.ErrValidation)
	}
	if l.AccountByID(txn.AccountID) == nil {
		return fmt.Errorf("%w: unknown account %s", common.ErrValidation, txn.AccountID)
	}
	if txn.Installment != nil && (txn.Installment.Total < 1 || txn.Installment.Index < 1 || txn.Installment.Index > txn.Installment.Total) {
		return fmt.Errorf("%w: malformed installment descriptor", common.ErrValidation)
	}
	return nil
}

func (l *Ledger) validateTransfer(transfer *model.Transfer) error {
	if transfer.Magnitude.Sign() < 0 {
		return fmt.Errorf("%w: magnitude must be non-negative", common.ErrValidation)
	}
	if transfer.Date.IsZero() {
		return fmt.Errorf("%w: missing date", common.ErrValidation)
	}
	if transfer.SourceAccountID == "" || transfer.DestinationAccountID == "" {
		return fmt.Errorf("%w: missing account reference", common.ErrValidation)
	}
	if transfer.SourceAccountID == transfer.DestinationAccountID {
		return fmt.Errorf("%w: transfer source and destination are the same account", common.ErrValidation)
	}
	if l.AccountByID(transfer.SourceAccountID) == nil {
		return fmt.Errorf("%w: unknown account %s", common.ErrValidation, transfer.SourceAccountID)
	}
	if l.AccountByID(transfer.DestinationAccountID) == nil {
		return fmt.Errorf("%w: unknown account %s", common.ErrValidation, transfer.DestinationAccountID)
	}
	return nil
}
