package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/viper"

	"github.com/Veraticus/coinpurse/internal/common"
	"github.com/Veraticus/coinpurse/internal/config"
	"github.com/Veraticus/coinpurse/internal/mutation"
	"github.com/Veraticus/coinpurse/internal/service"
	"github.com/Veraticus/coinpurse/internal/storage"
)

// initStorage initializes the ledger store with proper path expansion.
func initStorage(ctx context.Context) (service.LedgerStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = config.DefaultDatabasePath()
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// initLedger opens the store and loads the mutation layer's local state.
func initLedger(ctx context.Context) (*mutation.Ledger, service.LedgerStore, error) {
	store, err := initStorage(ctx)
	if err != nil {
		return nil, nil, err
	}

	l := mutation.NewLedger(store)
	if err := l.Load(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("failed to load ledger: %w", err)
	}
	return l, store, nil
}

// applyWithRetry runs a mutation, retrying transient persistence failures.
func applyWithRetry(ctx context.Context, apply func() (service.MutationOutcome, error)) (service.MutationOutcome, error) {
	var outcome service.MutationOutcome
	err := common.WithRetry(ctx, func() error {
		var applyErr error
		outcome, applyErr = apply()
		if applyErr != nil {
			return applyErr
		}
		if outcome.Status == service.MutationRolledBack {
			return outcome.Reason
		}
		return nil
	}, service.RetryOptions{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond})
	return outcome, err
}
