// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/Veraticus/coinpurse/internal/model"
)

// LedgerStore defines the contract for the durable ledger store. Save
// operations return the authoritative identifier, which may differ from the
// locally generated one; callers reconcile it into local state.
type LedgerStore interface {
	// Account operations
	SaveAccount(ctx context.Context, account *model.Account) (string, error)
	UpdateAccount(ctx context.Context, account *model.Account) error
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	GetAccounts(ctx context.Context) ([]model.Account, error)

	// Transaction operations
	SaveTransaction(ctx context.Context, txn *model.Transaction) (string, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	DeleteTransaction(ctx context.Context, id string) error
	GetTransactionsByAccount(ctx context.Context, accountID string) ([]model.Transaction, error)
	GetTransactions(ctx context.Context) ([]model.Transaction, error)

	// Transfer operations
	SaveTransfer(ctx context.Context, transfer *model.Transfer) (string, error)
	GetTransfers(ctx context.Context) ([]model.Transfer, error)

	// Recurring obligation operations
	SaveObligation(ctx context.Context, obligation *model.RecurringObligation) (string, error)
	UpdateObligation(ctx context.Context, obligation *model.RecurringObligation) error
	DeleteObligation(ctx context.Context, id string) error
	GetObligations(ctx context.Context) ([]model.RecurringObligation, error)

	// Store management
	Migrate(ctx context.Context) error
	Close() error
}

// MutationStatus tags the outcome of an optimistic mutation.
type MutationStatus string

const (
	// MutationApplied means the change is live locally and persisted remotely.
	MutationApplied MutationStatus = "applied"
	// MutationRolledBack means remote persistence failed and the local
	// change was reverted in full.
	MutationRolledBack MutationStatus = "rolled_back"
)

// MutationOutcome is the tagged result of a ledger-affecting write. Callers
// branch on Status rather than relying on error side effects, so the layer
// above can react deterministically to a rollback.
type MutationOutcome struct {
	Reason   error
	EntityID string
	Status   MutationStatus
}

// Applied builds a successful outcome carrying the authoritative entity id.
func Applied(entityID string) MutationOutcome {
	return MutationOutcome{Status: MutationApplied, EntityID: entityID}
}

// RolledBack builds a failed outcome carrying the rollback reason.
func RolledBack(reason error) MutationOutcome {
	return MutationOutcome{Status: MutationRolledBack, Reason: reason}
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
