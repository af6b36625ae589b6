package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/coinpurse/internal/model"
	"github.com/Veraticus/coinpurse/internal/recurring"
	"github.com/Veraticus/coinpurse/internal/service"
)

func recurringCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recurring",
		Short: "Manage recurring obligations",
		Long:  `Add, list, and run subscriptions and bills with a rolling due date.`,
	}

	cmd.AddCommand(addRecurringCmd())
	cmd.AddCommand(listRecurringCmd())
	cmd.AddCommand(runRecurringCmd())
	cmd.AddCommand(setActiveRecurringCmd("pause", false))
	cmd.AddCommand(setActiveRecurringCmd("resume", true))
	cmd.AddCommand(deleteRecurringCmd())

	return cmd
}

func addRecurringCmd() *cobra.Command {
	var (
		frequency string
		due       string
		category  string
		accountID string
	)

	cmd := &cobra.Command{
		Use:   "add <name> <amount>",
		Short: "Add a recurring obligation",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			magnitude, err := decimal.NewFromString(args[1])
			if err != nil {
				return fmt.Errorf("invalid amount %q: %w", args[1], err)
			}

			nextDue := time.Now()
			if due != "" {
				if nextDue, err = time.Parse(dateLayout, due); err != nil {
					return fmt.Errorf("invalid due date %q: %w", due, err)
				}
			}

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			outcome, err := applyWithRetry(ctx, func() (service.MutationOutcome, error) {
				return l.AddObligation(ctx, model.RecurringObligation{
					Name:        args[0],
					Magnitude:   magnitude,
					Frequency:   model.Frequency(frequency),
					NextDueDate: nextDue,
					Category:    category,
					AccountID:   accountID,
					Active:      true,
				})
			})
			if err != nil {
				return err
			}

			fmt.Printf("Added recurring obligation %s (%s)\n", args[0], outcome.EntityID)
			return nil
		},
	}

	cmd.Flags().StringVar(&frequency, "frequency", "monthly", "cadence (weekly, monthly, yearly)")
	cmd.Flags().StringVar(&due, "due", "", "first due date (YYYY-MM-DD, default today)")
	cmd.Flags().StringVar(&category, "category", "", "category label for posted transactions")
	cmd.Flags().StringVar(&accountID, "account", "", "target account id (default: first liquid account)")

	return cmd
}

func listRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recurring obligations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			obligations := l.Obligations()
			if len(obligations) == 0 {
				fmt.Println("No recurring obligations found.")
				return nil
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			defer func() { _ = w.Flush() }()

			fmt.Fprintf(w, "ID\tName\tAmount\tFrequency\tNext due\tActive\n")
			for _, obligation := range obligations {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%t\n",
					obligation.ID,
					obligation.Name,
					obligation.Magnitude.StringFixed(2),
					obligation.Frequency,
					obligation.NextDueDate.Format(dateLayout),
					obligation.Active)
			}

			return nil
		},
	}
}

func runRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Post every obligation due as of today",
		Long: `Posts an expense for each active obligation whose due date has elapsed
and advances its due date by one period. Run repeatedly to catch up
multiple missed periods.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			scheduler := recurring.NewScheduler(l)
			posted, err := scheduler.Run(ctx, time.Now())
			if err != nil {
				return err
			}

			fmt.Printf("Posted %d obligation(s)\n", posted)
			return nil
		},
	}
}

func setActiveRecurringCmd(verb string, active bool) *cobra.Command {
	short := "Pause a recurring obligation without deleting it"
	done := "Paused"
	if active {
		short = "Resume a paused recurring obligation"
		done = "Resumed"
	}

	return &cobra.Command{
		Use:   verb + " <obligation-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			var target *model.RecurringObligation
			for _, obligation := range l.Obligations() {
				if obligation.ID == args[0] {
					o := obligation
					target = &o
					break
				}
			}
			if target == nil {
				return fmt.Errorf("obligation %s not found", args[0])
			}

			target.Active = active
			if _, err := applyWithRetry(ctx, func() (service.MutationOutcome, error) {
				return l.UpdateObligation(ctx, *target)
			}); err != nil {
				return err
			}

			fmt.Printf("%s obligation %s\n", done, args[0])
			return nil
		},
	}
}

func deleteRecurringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <obligation-id>",
		Short: "Delete a recurring obligation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			l, store, err := initLedger(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if _, err := applyWithRetry(ctx, func() (service.MutationOutcome, error) {
				return l.DeleteObligation(ctx, args[0])
			}); err != nil {
				return err
			}

			fmt.Printf("Deleted obligation %s\n", args[0])
			return nil
		},
	}
}
