package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer moves funds between two accounts. It is a first-class ledger
// entity, never a pair of linked transactions: derivation applies it as a
// debit on the source and a credit on the destination, and per-account
// transaction sums exclude it entirely so the same movement is never counted
// twice.
type Transfer struct {
	Date                 time.Time
	ID                   string
	SourceAccountID      string
	DestinationAccountID string
	Note                 string
	Magnitude            decimal.Decimal
}
