// Package model defines the core domain types shared across the application.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountKind identifies what sort of account holds a ledger.
type AccountKind string

const (
	// AccountKindBank represents a checking or savings account.
	AccountKindBank AccountKind = "bank"
	// AccountKindCash represents physical cash.
	AccountKindCash AccountKind = "cash"
	// AccountKindWallet represents a digital wallet.
	AccountKindWallet AccountKind = "wallet"
	// AccountKindCredit represents a credit card.
	AccountKindCredit AccountKind = "credit"
)

// Account represents a single tracked account. Its current balance is always
// derived from OpeningBalance plus the signed sum of its transactions; there
// is no stored balance field to drift out of sync with the ledger.
type Account struct {
	CreatedAt      time.Time
	ID             string
	Name           string
	Currency       string
	Kind           AccountKind
	OpeningBalance decimal.Decimal

	// Credit-card cycle configuration. CutoffDay and PaymentDay are
	// days of month (1-31); zero means unconfigured.
	CreditLimit decimal.Decimal
	CutoffDay   int
	PaymentDay  int
	HandlingFee decimal.Decimal
}

// IsLiquid reports whether the account holds spendable funds, as opposed to
// revolving credit.
func (a *Account) IsLiquid() bool {
	switch a.Kind {
	case AccountKindBank, AccountKindCash, AccountKindWallet:
		return true
	default:
		return false
	}
}

// HasCycleConfig reports whether the account carries enough configuration to
// project a statement cycle.
func (a *Account) HasCycleConfig() bool {
	return a.Kind == AccountKindCredit &&
		a.CutoffDay >= 1 && a.CutoffDay <= 31 &&
		a.PaymentDay >= 1 && a.PaymentDay <= 31
}
