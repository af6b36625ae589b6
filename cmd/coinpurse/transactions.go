package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/coinpurse/internal/model"
	"github.com/Veraticus/coinpurse/internal/service"
)

const dateLayout = "2006-01-02"

func txCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Manage transactions",
	}

	cmd.AddCommand(addTxCmd())
	cmd.AddCommand(listTxCmd())
	cmd.AddCommand(deleteTxCmd())

	return cmd
}

func addTxCmd() *cobra.Command {
	var (
		direction    string
		category     string
		note         string
		date         string
		installments int
	)

	cmd := &cobra.Command{
		Use:   "add <account-id> <amount>",
		Short: "Add a transaction",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			magnitude, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			when := time.Now()
			if date != "" {
				if when, err = time.Parse(dateLayout, date); err != nil {
					return fmt.Errorf("invalid date %q: %w", date, err)
				}
			}

			txn := model.Transaction{
				AccountID: args[0],
				Direction: model.TransactionDirection(direction),
				Magnitude: magnitude,
				Date:      when,
				Category:  category,
				Note:      note,
			}
			if installments > 1 {
				txn.Installment = &model.Installment{Index: 1, Total: installments}
			}

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			outcome, err := applyWithRetry(ctx, func() (service.MutationOutcome, error) {
				return l.AddTransaction(ctx, txn)
			})
			if err != nil {
				return err
			}

			fmt.Printf("Added %s transaction %s\n", direction, outcome.EntityID)
			return nil
		},
	}

	cmd.Flags().StringVar(&direction, "direction", "expense", "transaction direction (expense, income)")
	cmd.Flags().StringVar(&category, "category", "", "category label")
	cmd.Flags().StringVar(&note, "note", "", "free-text note")
	cmd.Flags().StringVar(&date, "date", "", "occurrence date (YYYY-MM-DD, default today)")
	cmd.Flags().IntVar(&installments, "installments", 1, "number of statement cycles to amortize over")

	return cmd
}

func listTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [account-id]",
		Short: "List transactions, optionally for one account",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			transactions := l.Transactions()
			if len(args) == 1 {
				filtered := transactions[:0]
				for _, txn := range transactions {
					if txn.AccountID == args[0] {
						filtered = append(filtered, txn)
					}
				}
				transactions = filtered
			}

			if len(transactions) == 0 {
				fmt.Println("No transactions found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "ID\tDate\tAccount\tDirection\tAmount\tCategory\tNote\n")
			for _, txn := range transactions {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					txn.ID,
					txn.Date.Format(dateLayout),
					txn.AccountID,
					txn.Direction,
					txn.Magnitude.StringFixed(2),
					txn.Category,
					txn.Note)
			}

			return nil
		},
	}
}

func deleteTxCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <transaction-id>",
		Short: "Delete a transaction",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := applyWithRetry(ctx, func() (service.MutationOutcome, error) {
				return l.DeleteTransaction(ctx, args[0])
			}); err != nil {
				return err
			}

			fmt.Printf("Deleted transaction %s\n", args[0])
			return nil
		},
	}
}
