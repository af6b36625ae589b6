// Package recurring implements the scheduler that auto-posts subscriptions
// and bills when their due date elapses.
package recurring

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/Veraticus/coinpurse/internal/common"
	"github.com/Veraticus/coinpurse/internal/model"
	"github.com/Veraticus/coinpurse/internal/mutation"
	"github.com/Veraticus/coinpurse/internal/service"
)

// Scheduler walks the recurring obligations and posts an expense through the
// mutation layer for each one whose due date has elapsed. It is triggered
// when the obligation or account collections change, not on a timer.
type Scheduler struct {
	ledger   *mutation.Ledger
	inFlight atomic.Bool
}

// NewScheduler creates a scheduler posting through the given mutation layer.
func NewScheduler(ledger *mutation.Ledger) *Scheduler {
	return &Scheduler{ledger: ledger}
}

// Run processes every active obligation due as of today, sequentially, and
// returns how many transactions it posted. Each posting is followed by a
// committed due-date advance before the next obligation is evaluated, so a
// re-run cannot post the same period twice. The advance moves exactly one
// period from the previous due date — never to today — so an obligation
// missed for N periods is caught up by N sequential passes, one posting per
// pass.
//
// Run is not re-entrant: a call that overlaps a still-running pass returns
// immediately with zero postings.
func (s *Scheduler) Run(ctx context.Context, today time.Time) (int, error) {
	if !s.inFlight.CompareAndSwap(false, true) {
		slog.Debug("Scheduler pass already in flight, skipping")
		return 0, nil
	}
	defer s.inFlight.Store(false)

	todayDate := dateOnly(today)
	posted := 0

	for _, obligation := range s.ledger.Obligations() {
		select {
		case <-ctx.Done():
			return posted, ctx.Err()
		default:
		}

		if !obligation.Active || dateOnly(obligation.NextDueDate).After(todayDate) {
			continue
		}

		target := s.resolveTargetAccount(&obligation)
		if target == nil {
			slog.Warn("Skipping obligation",
				"obligation", obligation.Name,
				"account_id", obligation.AccountID,
				"error", common.ErrNoTargetAccount)
			continue
		}

		// The posted transaction is dated at the obligation's due date,
		// not today, to keep the ledger historically accurate.
		txn := model.Transaction{
			AccountID: target.ID,
			Direction: model.DirectionExpense,
			Magnitude: obligation.Magnitude,
			Date:      obligation.NextDueDate,
			Category:  obligation.Category,
			Note:      fmt.Sprintf("%s (recurring)", obligation.Name),
		}

		outcome, err := s.ledger.AddTransaction(ctx, txn)
		if err != nil {
			slog.Error("Obligation posting rejected", "obligation", obligation.Name, "error", err)
			continue
		}
		if outcome.Status != service.MutationApplied {
			slog.Warn("Obligation posting rolled back",
				"obligation", obligation.Name,
				"reason", outcome.Reason)
			continue
		}

		// The transaction is live from here on, so it counts even if the
		// advance below fails.
		posted++

		obligation.NextDueDate = obligation.NextPeriod(obligation.NextDueDate)
		outcome, err = s.ledger.UpdateObligation(ctx, obligation)
		if err != nil {
			// Without the committed advance the next pass will post this
			// period again.
			slog.Error("Failed to advance obligation due date, next run may double-post",
				"obligation", obligation.Name,
				"error", err)
			continue
		}
		if outcome.Status != service.MutationApplied {
			slog.Error("Obligation due-date advance rolled back, next run may double-post",
				"obligation", obligation.Name,
				"reason", outcome.Reason)
			continue
		}

		slog.Info("Posted recurring obligation",
			"obligation", obligation.Name,
			"account_id", target.ID,
			"next_due", obligation.NextDueDate)
	}

	return posted, nil
}

// resolveTargetAccount returns the obligation's configured account when it
// exists, otherwise the first liquid account, otherwise nil.
func (s *Scheduler) resolveTargetAccount(obligation *model.RecurringObligation) *model.Account {
	if obligation.AccountID != "" {
		if account := s.ledger.AccountByID(obligation.AccountID); account != nil {
			return account
		}
	}

	accounts := s.ledger.Accounts()
	for i := range accounts {
		if accounts[i].IsLiquid() {
			return &accounts[i]
		}
	}
	return nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
