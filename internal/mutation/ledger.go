// Package mutation implements the optimistic mutation layer: every
// ledger-affecting write is applied to local in-memory state first, then
// persisted to the remote store, and reverted in full if persistence fails.
//
// The collections held here are the only mutable shared state in the
// application; readers get snapshots through the accessor methods and no
// other component writes them directly.
package mutation

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Veraticus/coinpurse/internal/model"
	"github.com/Veraticus/coinpurse/internal/service"
)

// DefaultTimeout bounds each remote persistence call. An indefinite hang
// would leave an optimistic local change neither confirmed nor rolled back.
const DefaultTimeout = 10 * time.Second

// Ledger owns the in-memory account, transaction, transfer, and obligation
// collections and wraps every write to them with the optimistic contract.
type Ledger struct {
	store        service.LedgerStore
	accountLocks map[string]*sync.Mutex
	accounts     []model.Account
	transactions []model.Transaction
	transfers    []model.Transfer
	obligations  []model.RecurringObligation
	timeout      time.Duration
	mu           sync.RWMutex
	lockMu       sync.Mutex
}

// NewLedger creates a mutation layer backed by the given store.
func NewLedger(store service.LedgerStore) *Ledger {
	return &Ledger{
		store:        store,
		timeout:      DefaultTimeout,
		accountLocks: make(map[string]*sync.Mutex),
	}
}

// NewLedgerWithTimeout creates a mutation layer with a custom remote-call timeout.
func NewLedgerWithTimeout(store service.LedgerStore, timeout time.Duration) *Ledger {
	l := NewLedger(store)
	if timeout > 0 {
		l.timeout = timeout
	}
	return l
}

// Load populates the local collections from the remote store.
func (l *Ledger) Load(ctx context.Context) error {
	accounts, err := l.store.GetAccounts(ctx)
	if err != nil {
		return fmt.Errorf("failed to load accounts: %w", err)
	}
	transactions, err := l.store.GetTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to load transactions: %w", err)
	}
	transfers, err := l.store.GetTransfers(ctx)
	if err != nil {
		return fmt.Errorf("failed to load transfers: %w", err)
	}
	obligations, err := l.store.GetObligations(ctx)
	if err != nil {
		return fmt.Errorf("failed to load obligations: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	l.accounts = accounts
	l.transactions = transactions
	l.transfers = transfers
	l.obligations = obligations
	return nil
}

// Accounts returns a snapshot of the account collection.
func (l *Ledger) Accounts() []model.Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Account, len(l.accounts))
	copy(out, l.accounts)
	return out
}

// Transactions returns a snapshot of the transaction collection.
func (l *Ledger) Transactions() []model.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Transaction, len(l.transactions))
	copy(out, l.transactions)
	return out
}

// Transfers returns a snapshot of the transfer collection.
func (l *Ledger) Transfers() []model.Transfer {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.Transfer, len(l.transfers))
	copy(out, l.transfers)
	return out
}

// Obligations returns a snapshot of the recurring obligation collection.
func (l *Ledger) Obligations() []model.RecurringObligation {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]model.RecurringObligation, len(l.obligations))
	copy(out, l.obligations)
	return out
}

// AccountByID returns a copy of the account with the given id, or nil.
func (l *Ledger) AccountByID(id string) *model.Account {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.accounts {
		if l.accounts[i].ID == id {
			account := l.accounts[i]
			return &account
		}
	}
	return nil
}

// hasAccount reports whether an account with the id is already present.
func (l *Ledger) hasAccount(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.accounts {
		if l.accounts[i].ID == id {
			return true
		}
	}
	return false
}

// hasTransaction reports whether a transaction with the id is already present.
func (l *Ledger) hasTransaction(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.transactions {
		if l.transactions[i].ID == id {
			return true
		}
	}
	return false
}

// hasTransfer reports whether a transfer with the id is already present.
func (l *Ledger) hasTransfer(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.transfers {
		if l.transfers[i].ID == id {
			return true
		}
	}
	return false
}

// hasObligation reports whether an obligation with the id is already present.
func (l *Ledger) hasObligation(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for i := range l.obligations {
		if l.obligations[i].ID == id {
			return true
		}
	}
	return false
}

// lockAccounts serializes mutations per account: two writes affecting the
// same account's derived balance are issued and resolved one at a time.
// Locks are acquired in sorted order so a transfer touching two accounts
// cannot deadlock against another transfer touching them in reverse.
func (l *Ledger) lockAccounts(ids ...string) func() {
	sorted := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		sorted = append(sorted, id)
	}
	sort.Strings(sorted)

	locks := make([]*sync.Mutex, 0, len(sorted))
	for _, id := range sorted {
		l.lockMu.Lock()
		lock, ok := l.accountLocks[id]
		if !ok {
			lock = &sync.Mutex{}
			l.accountLocks[id] = lock
		}
		l.lockMu.Unlock()
		lock.Lock()
		locks = append(locks, lock)
	}

	return func() {
		for i := len(locks) - 1; i >= 0; i-- {
			locks[i].Unlock()
		}
	}
}

// persist runs a remote call under the configured timeout.
func (l *Ledger) persist(ctx context.Context, call func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()
	return call(ctx)
}
