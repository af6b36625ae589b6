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

// AddObligation optimistically appends a recurring obligation and persists it.
func (l *Ledger) AddObligation(ctx context.Context, obligation model.RecurringObligation) (service.MutationOutcome, error) {
	if err := validateObligation(&obligation); err != nil {
		return service.MutationOutcome{}, err
	}
	if obligation.ID != "" && l.hasObligation(obligation.ID) {
		return service.MutationOutcome{}, fmt.Errorf("%w: obligation %s", common.ErrDuplicateEntry, obligation.ID)
	}
	if obligation.ID == "" {
		obligation.ID = uuid.NewString()
	}

	l.mu.Lock()
	l.obligations = append(l.obligations, obligation)
	l.mu.Unlock()

	localID := obligation.ID
	var remoteID string
	err := l.persist(ctx, func(ctx context.Context) error {
		var saveErr error
		remoteID, saveErr = l.store.SaveObligation(ctx, &obligation)
		return saveErr
	})
	if err != nil {
		l.mu.Lock()
		for i := range l.obligations {
			if l.obligations[i].ID == localID {
				l.obligations = append(l.obligations[:i], l.obligations[i+1:]...)
				break
			}
		}
		l.mu.Unlock()
		slog.Warn("Obligation add rolled back", "obligation_id", localID, "error", err)
		return service.RolledBack(fmt.Errorf("%w: %v", common.ErrPersistence, err)), nil
	}

	if remoteID != "" && remoteID != localID {
		l.mu.Lock()
		for i := range l.obligations {
			if l.obligations[i].ID == localID {
				l.obligations[i].ID = remoteID
				break
			}
		}
		l.mu.Unlock()
		localID = remoteID
	}

	return service.Applied(localID), nil
}

// UpdateObligation optimistically replaces an obligation and persists the
// change, restoring the previous value on failure. The scheduler uses this
// to advance next-due dates; committing each advance before the next
// obligation is evaluated is what prevents double posting.
func (l *Ledger) UpdateObligation(ctx context.Context, obligation model.RecurringObligation) (service.MutationOutcome, error) {
	if err := validateObligation(&obligation); err != nil {
		return service.MutationOutcome{}, err
	}
	if obligation.ID == "" {
		return service.MutationOutcome{}, fmt.Errorf("%w: missing obligation id", common.ErrValidation)
	}

	l.mu.Lock()
	idx := -1
	var previous model.RecurringObligation
	for i := range l.obligations {
		if l.obligations[i].ID == obligation.ID {
			idx = i
			previous = l.obligations[i]
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return service.MutationOutcome{}, fmt.Errorf("%w: obligation %s", common.ErrNotFound, obligation.ID)
	}
	l.obligations[idx] = obligation
	l.mu.Unlock()

	err := l.persist(ctx, func(ctx context.Context) error {
		return l.store.UpdateObligation(ctx, &obligation)
	})
	if err != nil {
		l.mu.Lock()
		for i := range l.obligations {
			if l.obligations[i].ID == obligation.ID {
				l.obligations[i] = previous
				break
			}
		}
		l.mu.Unlock()
		slog.Warn("Obligation update rolled back", "obligation_id", obligation.ID, "error", err)
		return service.RolledBack(fmt.Errorf("%w: %v", common.ErrPersistence, err)), nil
	}

	return service.Applied(obligation.ID), nil
}

// DeleteObligation removes an obligation. Only ever invoked by explicit user
// action; the scheduler never deletes.
func (l *Ledger) DeleteObligation(ctx context.Context, id string) (service.MutationOutcome, error) {
	if id == "" {
		return service.MutationOutcome{}, fmt.Errorf("%w: missing obligation id", common.ErrValidation)
	}

	l.mu.Lock()
	idx := -1
	var removed model.RecurringObligation
	for i := range l.obligations {
		if l.obligations[i].ID == id {
			idx = i
			removed = l.obligations[i]
			break
		}
	}
	if idx < 0 {
		l.mu.Unlock()
		return service.MutationOutcome{}, fmt.Errorf("%w: obligation %s", common.ErrNotFound, id)
	}
	l.obligations = append(l.obligations[:idx], l.obligations[idx+1:]...)
	l.mu.Unlock()

	err := l.persist(ctx, func(ctx context.Context) error {
		return l.store.DeleteObligation(ctx, id)
	})
	if err != nil {
		// The removal index can go stale while the remote call is in
		// flight; append the restored copy instead of reusing it.
		l.mu.Lock()
		l.obligations = append(l.obligations, removed)
		l.mu.Unlock()
		slog.Warn("Obligation delete rolled back", "obligation_id", id, "error", err)
		return service.RolledBack(fmt.Errorf("%w: %v", common.ErrPersistence, err)), nil
	}

	return service.Applied(id), nil
}

func validateObligation(obligation *model.RecurringObligation) error {
	if obligation.Name == "" {
		return fmt.Errorf("%w: missing obligation name", common.ErrValidation)
	}
	if obligation.Magnitude.Sign() < 0 {
		return fmt.Errorf("%w: magnitude must be non-negative", common.ErrValidation)
	}
	switch obligation.Frequency {
	case model.FrequencyWeekly, model.FrequencyMonthly, model.FrequencyYearly:
	default:
		return fmt.Errorf("%w: unknown frequency %q", common.ErrValidation, obligation.Frequency)
	}
	if obligation.NextDueDate.IsZero() {
		return fmt.Errorf("%w: missing next due date", common.ErrValidation)
	}
	return nil
}
