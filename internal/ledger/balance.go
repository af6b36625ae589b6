// Package ledger implements balance derivation from raw transaction history.
//
// Balances are never stored: every figure here is recomputed from an
// account's opening balance plus the signed sum of its ledger entries, so a
// reordering or re-query of the ledger can never change the result.
package ledger

import (
	"github.com/shopspring/decimal"

	"github.com/Veraticus/coinpurse/internal/model"
)

// Balance derives the authoritative current balance of an account: its
// opening balance, plus the signed sum of every transaction owned by the
// account, plus the net effect of transfers touching it. Transactions and
// transfers for other accounts are ignored, so callers may pass unfiltered
// collections. Pure and order-independent.
func Balance(account *model.Account, transactions []model.Transaction, transfers []model.Transfer) decimal.Decimal {
	total := account.OpeningBalance

	for i := range transactions {
		if transactions[i].AccountID != account.ID {
			continue
		}
		total = total.Add(transactions[i].SignedAmount())
	}

	// Transfers are a dedicated entity excluded from transaction sums:
	// debit the source, credit the destination.
	for i := range transfers {
		if transfers[i].SourceAccountID == account.ID {
			total = total.Sub(transfers[i].Magnitude)
		}
		if transfers[i].DestinationAccountID == account.ID {
			total = total.Add(transfers[i].Magnitude)
		}
	}

	return total
}

// OutstandingDebt returns how much is actually owed on an account:
// max(0, -Balance). Zero for accounts in credit.
func OutstandingDebt(account *model.Account, transactions []model.Transaction, transfers []model.Transfer) decimal.Decimal {
	balance := Balance(account, transactions, transfers)
	if balance.Sign() >= 0 {
		return decimal.Zero
	}
	return balance.Neg()
}

// LiquidNetWorth sums the derived balances of liquid accounts only,
// excluding credit-card debt. This is the "spendable today" figure, distinct
// from total net worth.
func LiquidNetWorth(accounts []model.Account, transactions []model.Transaction, transfers []model.Transfer) decimal.Decimal {
	total := decimal.Zero
	for i := range accounts {
		if !accounts[i].IsLiquid() {
			continue
		}
		total = total.Add(Balance(&accounts[i], transactions, transfers))
	}
	return total
}

// NetWorth sums the derived balances of every account, credit debt included.
func NetWorth(accounts []model.Account, transactions []model.Transaction, transfers []model.Transfer) decimal.Decimal {
	total := decimal.Zero
	for i := range accounts {
		total = total.Add(Balance(&accounts[i], transactions, transfers))
	}
	return total
}
