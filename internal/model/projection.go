package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// StatementProjection is the computed upcoming bill for a credit account.
// It is derived on demand and never persisted or cached across a
// balance-affecting mutation.
type StatementProjection struct {
	DueDate         time.Time
	CutoffDate      time.Time
	AccountID       string
	AmountDue       decimal.Decimal
	OutstandingDebt decimal.Decimal
}
