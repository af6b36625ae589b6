package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDirection indicates whether money flowed in or out.
type TransactionDirection string

const (
	// DirectionExpense represents money leaving the account.
	DirectionExpense TransactionDirection = "expense"
	// DirectionIncome represents money entering the account.
	DirectionIncome TransactionDirection = "income"
)

// Installment describes a purchase amortized over multiple statement cycles.
type Installment struct {
	Index int // 1-based position within the plan
	Total int // total number of cycles the purchase is spread over
}

// Transaction represents a single dated ledger entry on one account.
// Magnitude is always non-negative; the sign of an entry is carried by
// Direction and reconstructed by SignedAmount, never stored as a raw signed
// number.
type Transaction struct {
	Date        time.Time
	ID          string
	AccountID   string
	Category    string
	Note        string
	Direction   TransactionDirection
	Magnitude   decimal.Decimal
	Installment *Installment
}

// SignedAmount returns the transaction's effect on its account balance:
// +Magnitude for income, -Magnitude for expense.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Direction == DirectionIncome {
		return t.Magnitude
	}
	return t.Magnitude.Neg()
}

// IsAmortized reports whether the transaction is spread over more than one
// statement cycle.
func (t *Transaction) IsAmortized() bool {
	return t.Installment != nil && t.Installment.Total > 1
}
