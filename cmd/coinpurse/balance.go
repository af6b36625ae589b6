package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Veraticus/coinpurse/internal/ledger"
)

func balanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show derived balances and net worth",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			accounts := l.Accounts()
			transactions := l.Transactions()
			transfers := l.Transfers()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "Account\tKind\tBalance\n")
			for i := range accounts {
				balance := ledger.Balance(&accounts[i], transactions, transfers)
				fmt.Fprintf(w, "%s\t%s\t%s\n", accounts[i].Name, accounts[i].Kind, balance.StringFixed(2))
			}
			_ = w.Flush()

			fmt.Printf("\nLiquid net worth: %s\n",
				ledger.LiquidNetWorth(accounts, transactions, transfers).StringFixed(2))
			fmt.Printf("Total net worth:  %s\n",
				ledger.NetWorth(accounts, transactions, transfers).StringFixed(2))
			return nil
		},
	}
}
