// Package statement projects the upcoming bill for a credit account from its
// cycle configuration and transaction history.
package statement

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/Veraticus/coinpurse/internal/ledger"
	"github.com/Veraticus/coinpurse/internal/model"
)

// Project computes the next statement for a credit account: the payment date
// on or after today, the cutoff that closes that statement's cycle, the sum
// of one-time purchases inside the cycle window, one installment share for
// each amortized purchase still inside its plan, and the account's flat
// handling fee.
//
// The result is clamped to the account's real outstanding debt, because the
// installment and fee portions are forward-looking estimates computed
// independently of the ledger: without the clamp a residual fee or rounding
// gap could bill a fully paid account. Returns nil when the account has no
// cycle configuration or when nothing is due.
func Project(account *model.Account, transactions []model.Transaction, transfers []model.Transfer, today time.Time) *model.StatementProjection {
	if !account.HasCycleConfig() {
		return nil
	}

	paymentDate := nextOccurrence(account.PaymentDay, today)
	cutoffDate := lastOccurrenceBefore(account.CutoffDay, paymentDate)

	// Cycle window is (cutoffDate - 1 month, cutoffDate].
	windowStart := dayOfMonth(monthShift(cutoffDate, -1), account.CutoffDay)

	amountDue := decimal.Zero
	for i := range transactions {
		txn := &transactions[i]
		if txn.AccountID != account.ID || txn.Direction != model.DirectionExpense {
			continue
		}

		if txn.IsAmortized() {
			amountDue = amountDue.Add(installmentShare(txn, cutoffDate))
			continue
		}

		day := dateOnly(txn.Date)
		if day.After(windowStart) && !day.After(cutoffDate) {
			amountDue = amountDue.Add(txn.Magnitude)
		}
	}

	if account.HandlingFee.Sign() > 0 {
		amountDue = amountDue.Add(account.HandlingFee)
	}

	outstanding := ledger.OutstandingDebt(account, transactions, transfers)
	if amountDue.GreaterThan(outstanding) {
		amountDue = outstanding
	}

	if amountDue.Sign() <= 0 {
		return nil
	}

	return &model.StatementProjection{
		AccountID:       account.ID,
		DueDate:         paymentDate,
		CutoffDate:      cutoffDate,
		AmountDue:       amountDue,
		OutstandingDebt: outstanding,
	}
}

// installmentShare returns the amortized contribution of a purchase to the
// cycle closing at cutoff: magnitude/total for each of the total cycles from
// the purchase month onward, zero outside that range.
func installmentShare(txn *model.Transaction, cutoff time.Time) decimal.Decimal {
	elapsed := monthDiff(txn.Date, cutoff)
	if elapsed < 0 || elapsed >= txn.Installment.Total {
		return decimal.Zero
	}
	return txn.Magnitude.Div(decimal.NewFromInt(int64(txn.Installment.Total)))
}

// nextOccurrence returns the first occurrence of the given day-of-month on
// or after today, rolling into the next month when today's day has already
// passed it.
func nextOccurrence(day int, today time.Time) time.Time {
	todayDate := dateOnly(today)
	candidate := dayOfMonth(todayDate, day)
	if candidate.Before(todayDate) {
		candidate = dayOfMonth(monthShift(todayDate, 1), day)
	}
	return candidate
}

// lastOccurrenceBefore returns the most recent occurrence of the given
// day-of-month strictly before the payment date.
func lastOccurrenceBefore(day int, paymentDate time.Time) time.Time {
	candidate := dayOfMonth(paymentDate, day)
	if !candidate.Before(paymentDate) {
		candidate = dayOfMonth(monthShift(paymentDate, -1), day)
	}
	return candidate
}

// dayOfMonth pins a date to the given day within its month, clamping to the
// month's last day when the month is shorter (day 31 in February resolves to
// the 28th or 29th).
func dayOfMonth(ref time.Time, day int) time.Time {
	lastDay := time.Date(ref.Year(), ref.Month()+1, 0, 0, 0, 0, 0, ref.Location()).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(ref.Year(), ref.Month(), day, 0, 0, 0, 0, ref.Location())
}

// monthShift moves to the first day of the month a given number of months
// away. Shifting from the first of the month sidesteps AddDate's day
// normalization (Mar 31 minus one month would otherwise land back in March).
func monthShift(t time.Time, months int) time.Time {
	return time.Date(t.Year(), t.Month()+time.Month(months), 1, 0, 0, 0, 0, t.Location())
}

// monthDiff counts whole calendar months from a to b by year and month,
// ignoring days.
func monthDiff(a, b time.Time) int {
	return (b.Year()-a.Year())*12 + int(b.Month()) - int(a.Month())
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
