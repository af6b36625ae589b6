package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/coinpurse/internal/ledger"
	"github.com/Veraticus/coinpurse/internal/model"
	"github.com/Veraticus/coinpurse/internal/service"
)

func accountCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage accounts",
		Long:  `Add and list tracked accounts. Balances are always derived from transaction history.`,
	}

	cmd.AddCommand(addAccountCmd())
	cmd.AddCommand(listAccountsCmd())
	cmd.AddCommand(setBalanceCmd())

	return cmd
}

func addAccountCmd() *cobra.Command {
	var (
		kind        string
		currency    string
		opening     string
		creditLimit string
		cutoffDay   int
		paymentDay  int
		handlingFee string
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a new account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			account := model.Account{
				Name:       args[0],
				Kind:       model.AccountKind(kind),
				Currency:   currency,
				CutoffDay:  cutoffDay,
				PaymentDay: paymentDay,
			}
			if account.OpeningBalance, err = decimal.NewFromString(opening); err != nil {
				return fmt.Errorf("invalid opening balance %q: %w", opening, err)
			}
			if account.CreditLimit, err = decimal.NewFromString(creditLimit); err != nil {
				return fmt.Errorf("invalid credit limit %q: %w", creditLimit, err)
			}
			if account.HandlingFee, err = decimal.NewFromString(handlingFee); err != nil {
				return fmt.Errorf("invalid handling fee %q: %w", handlingFee, err)
			}

			outcome, err := applyWithRetry(ctx, func() (service.MutationOutcome, error) {
				return l.AddAccount(ctx, account)
			})
			if err != nil {
				return err
			}

			fmt.Printf("Added account %s (%s)\n", args[0], outcome.EntityID)
			return nil
		},
	}

	cmd.Flags().StringVar(&kind, "kind", "bank", "account kind (bank, cash, wallet, credit)")
	cmd.Flags().StringVar(&currency, "currency", "USD", "account currency")
	cmd.Flags().StringVar(&opening, "opening", "0", "opening balance before any tracked transaction")
	cmd.Flags().StringVar(&creditLimit, "credit-limit", "0", "credit limit (credit accounts)")
	cmd.Flags().IntVar(&cutoffDay, "cutoff-day", 0, "statement cutoff day of month (credit accounts)")
	cmd.Flags().IntVar(&paymentDay, "payment-day", 0, "payment day of month (credit accounts)")
	cmd.Flags().StringVar(&handlingFee, "fee", "0", "flat handling fee per cycle (credit accounts)")

	return cmd
}

func listAccountsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts with derived balances",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			accounts := l.Accounts()
			if len(accounts) == 0 {
				fmt.Println("No accounts found. Use 'coinpurse account add' to create one.")
				return nil
			}

			transactions := l.Transactions()
			transfers := l.Transfers()

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "ID\tName\tKind\tCurrency\tBalance\n")
			for i := range accounts {
				balance := ledger.Balance(&accounts[i], transactions, transfers)
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
					accounts[i].ID,
					accounts[i].Name,
					accounts[i].Kind,
					accounts[i].Currency,
					balance.StringFixed(2))
			}

			return nil
		},
	}
}

func setBalanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-balance <account-id> <amount>",
		Short: "Adjust an account's opening balance so its derived balance matches",
		Long: `Re-expresses a direct balance edit as an opening-balance adjustment.
The transaction history is untouched and the balance stays derived.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			target, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := applyWithRetry(ctx, func() (service.MutationOutcome, error) {
				return l.SetBalance(ctx, args[0], target)
			}); err != nil {
				return err
			}

			fmt.Printf("Balance of %s set to %s\n", args[0], target.StringFixed(2))
			return nil
		},
	}
}
