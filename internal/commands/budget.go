package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
)

func newBudgetCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Plan and track spending",
	}
	cmd.AddCommand(newBudgetCreateCommand(opts), newBudgetStatusCommand(opts))
	return cmd
}

func newBudgetCreateCommand(opts *globalOptions) *cobra.Command {
	var name, start, end string
	var items []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a budget for a period",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			b := model.Budget{OwnerID: a.cfg.Owner.ID, Name: name}
			var err error
			if b.StartDate, err = parseDay(start); err != nil {
				return err
			}
			if b.EndDate, err = parseDay(end); err != nil {
				return err
			}
			for _, it := range items {
				cat, amt, ok := strings.Cut(it, "=")
				if !ok {
					return fmt.Errorf("item %q: want category=amount", it)
				}
				d, err := money.Parse(amt)
				if err != nil {
					return fmt.Errorf("item %q: %w", it, err)
				}
				b.Items = append(b.Items, model.BudgetItem{CategoryID: cat, Amount: d})
			}
			b, err = a.budgets.Save(a.ctx, b)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), b.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "budget name (required)")
	cmd.Flags().StringVar(&start, "start", "", "first day, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&end, "end", "", "last day, YYYY-MM-DD (required)")
	cmd.Flags().StringArrayVar(&items, "item", nil, "category=amount, repeatable")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
	return cmd
}

func newBudgetStatusCommand(opts *globalOptions) *cobra.Command {
	var today string

	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Show spending pace per category",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			day, err := parseDay(today)
			if err != nil {
				return err
			}
			st, err := a.budgets.Status(a.ctx, args[0], day)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: day %d, %d remaining\n", st.Name, st.DaysElapsed, st.DaysRemaining)
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "CATEGORY\tBUDGETED\tSPENT\tEXPECTED\tUSED%\tPACE")
			for _, it := range st.Items {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", it.CategoryID, it.Budgeted.StringFixed(2),
					it.Actual.StringFixed(2), it.Expected.StringFixed(2), it.PercentUsed.StringFixed(2), it.Pace)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "Budgeted %s, spent %s, income %s, savings rate %s%%\n",
				st.TotalBudgeted.StringFixed(2), st.TotalSpent.StringFixed(2), st.Income.StringFixed(2), st.SavingsRate.StringFixed(2))
			return nil
		}),
	}

	cmd.Flags().StringVar(&today, "today", "", "evaluate as of this date, YYYY-MM-DD (default today)")
	return cmd
}
