package main

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/coinpurse/internal/model"
	"github.com/Veraticus/coinpurse/internal/service"
)

func transferCmd() *cobra.Command {
	var (
		note string
		date string
	)

	cmd := &cobra.Command{
		Use:   "transfer <source-account-id> <destination-account-id> <amount>",
		Short: "Move funds between two accounts",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			magnitude, err := decimal.NewFromString(args[2])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[2], err)
			}

			when := time.Now()
			if date != "" {
				if when, err = time.Parse(dateLayout, date); err != nil {
					return fmt.Errorf("invalid date %q: %w", date, err)
				}
			}

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			outcome, err := applyWithRetry(ctx, func() (service.MutationOutcome, error) {
				return l.AddTransfer(ctx, model.Transfer{
					SourceAccountID:      args[0],
					DestinationAccountID: args[1],
					Magnitude:            magnitude,
					Date:                 when,
					Note:                 note,
				})
			})
			if err != nil {
				return err
			}

			fmt.Printf("Added transfer %s\n", outcome.EntityID)
			return nil
		},
	}

	cmd.Flags().StringVar(&note, "note", "", "free-text note")
	cmd.Flags().StringVar(&date, "date", "", "transfer date (YYYY-MM-DD, default today)")

	return cmd
}
