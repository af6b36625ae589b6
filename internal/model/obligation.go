package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Frequency is the cadence of a recurring obligation.
type Frequency string

const (
	// FrequencyWeekly recurs every 7 days.
	FrequencyWeekly Frequency = "weekly"
	// FrequencyMonthly recurs every calendar month.
	FrequencyMonthly Frequency = "monthly"
	// FrequencyYearly recurs every calendar year.
	FrequencyYearly Frequency = "yearly"
)

// RecurringObligation is a subscription or bill with a rolling next-due date.
// The scheduler posts an expense for it when the due date elapses and then
// advances NextDueDate by one period; it never deletes an obligation.
type RecurringObligation struct {
	NextDueDate time.Time
	ID          string
	Name        string
	Category    string
	AccountID   string // empty means resolve to a fallback liquid account
	Frequency   Frequency
	Magnitude   decimal.Decimal
	Active      bool
}

// NextPeriod returns the due date one period after from. Advancing from the
// previous due date, never from "today", is what lets a catch-up run post
// one missed period at a time.
func (o *RecurringObligation) NextPeriod(from time.Time) time.Time {
	switch o.Frequency {
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from.AddDate(0, 1, 0)
	}
}
