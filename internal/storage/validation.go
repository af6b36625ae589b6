package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/coinpurse/internal/model"
)

// Validation errors.
var (
	ErrNilContext         = errors.New("context cannot be nil")
	ErrEmptyString        = errors.New("string parameter cannot be empty")
	ErrNilParameter       = errors.New("parameter cannot be nil")
	ErrInvalidAccount     = errors.New("invalid account")
	ErrInvalidTransaction = errors.New("invalid transaction")
	ErrInvalidTransfer    = errors.New("invalid transfer")
	ErrInvalidObligation  = errors.New("invalid obligation")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateAccount validates an account before it touches the database.
func validateAccount(account *model.Account) error {
	if account == nil {
		return fmt.Errorf("%w: account", ErrNilParameter)
	}
	if account.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidAccount)
	}
	if strings.TrimSpace(account.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidAccount)
	}
	if account.Kind == "" {
		return fmt.Errorf("%w: missing kind", ErrInvalidAccount)
	}
	return nil
}

// validateTransaction validates a single transaction.
func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	if txn.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransaction)
	}
	if txn.AccountID == "" {
		return fmt.Errorf("%w: missing account ID", ErrInvalidTransaction)
	}
	if txn.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrInvalidTransaction)
	}
	if txn.Magnitude.Sign() < 0 {
		return fmt.Errorf("%w: negative magnitude", ErrInvalidTransaction)
	}
	switch txn.Direction {
	case model.DirectionExpense, model.DirectionIncome:
	default:
		return fmt.Errorf("%w: unknown direction %q", ErrInvalidTransaction, txn.Direction)
	}
	return nil
}

// validateTransfer validates a transfer.
func validateTransfer(transfer *model.Transfer) error {
	if transfer == nil {
		return fmt.Errorf("%w: transfer", ErrNilParameter)
	}
	if transfer.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidTransfer)
	}
	if transfer.SourceAccountID == "" || transfer.DestinationAccountID == "" {
		return fmt.Errorf("%w: missing account ID", ErrInvalidTransfer)
	}
	if transfer.Magnitude.Sign() < 0 {
		return fmt.Errorf("%w: negative magnitude", ErrInvalidTransfer)
	}
	return nil
}

// validateObligation validates a recurring obligation.
func validateObligation(obligation *model.RecurringObligation) error {
	if obligation == nil {
		return fmt.Errorf("%w: obligation", ErrNilParameter)
	}
	if obligation.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrInvalidObligation)
	}
	if strings.TrimSpace(obligation.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidObligation)
	}
	if obligation.NextDueDate.IsZero() {
		return fmt.Errorf("%w: missing next due date", ErrInvalidObligation)
	}
	switch obligation.Frequency {
	case model.FrequencyWeekly, model.FrequencyMonthly, model.FrequencyYearly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", ErrInvalidObligation, obligation.Frequency)
	}
	return nil
}
