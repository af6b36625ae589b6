package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/coinpurse/internal/statement"
)

func statementCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "statement <account-id>",
		Short: "Project the next statement for a credit account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			account := l.AccountByID(args[0])
			if account == nil {
				return fmt.Errorf("account %s not found", args[0])
			}

			projection := statement.Project(account, l.Transactions(), l.Transfers(), time.Now())
			if projection == nil {
				fmt.Printf("No statement due for %s\n", account.Name)
				return nil
			}

			fmt.Printf("Next statement for %s\n", account.Name)
			fmt.Printf("  Cutoff:      %s\n", projection.CutoffDate.Format(dateLayout))
			fmt.Printf("  Due:         %s\n", projection.DueDate.Format(dateLayout))
			fmt.Printf("  Amount due:  %s\n", projection.AmountDue.StringFixed(2))
			fmt.Printf("  Outstanding: %s\n", projection.OutstandingDebt.StringFixed(2))
			return nil
		},
	}
}
