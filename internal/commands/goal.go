package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
	"github.com/cleared-dev/finstate/internal/pacing"
)

func newGoalCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "goal",
		Short: "Track savings goals",
	}
	cmd.AddCommand(newGoalCreateCommand(opts), newGoalContributeCommand(opts), newGoalStatusCommand(opts))
	return cmd
}

func newGoalCreateCommand(opts *globalOptions) *cobra.Command {
	var name, target, start, by string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a savings goal",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			amt, err := money.Parse(target)
			if err != nil {
				return err
			}
			g := model.Goal{OwnerID: a.cfg.Owner.ID, Name: name, TargetAmount: amt}
			if g.StartDate, err = parseDay(start); err != nil {
				return err
			}
			if by != "" {
				d, err := parseDay(by)
				if err != nil {
					return err
				}
				g.TargetDate = &d
			}
			g, err = a.goals.Create(a.ctx, g)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), g.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "goal name (required)")
	cmd.Flags().StringVar(&target, "target", "", "target amount (required)")
	cmd.Flags().StringVar(&start, "start", "", "start date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&by, "by", "", "target date, YYYY-MM-DD")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("target")
	return cmd
}

func newGoalContributeCommand(opts *globalOptions) *cobra.Command {
	var date, txID, notes, id string

	cmd := &cobra.Command{
		Use:   "contribute <id> <amount>",
		Short: "Add a contribution to a goal",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			amt, err := money.Parse(args[1])
			if err != nil {
				return err
			}
			day, err := parseDay(date)
			if err != nil {
				return err
			}
			c, err := a.goals.Contribute(a.ctx, pacing.ContributeParams{
				ID: id, GoalID: args[0], Date: day, Amount: amt, TransactionID: txID, Notes: notes,
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s: %s of %s\n", c.Goal.Name, c.Goal.CurrentAmount.StringFixed(2), c.Goal.TargetAmount.StringFixed(2))
			if c.Completed {
				fmt.Fprintln(out, "Goal completed")
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&date, "date", "", "contribution date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&txID, "tx", "", "linked transaction ID")
	cmd.Flags().StringVar(&notes, "notes", "", "notes")
	cmd.Flags().StringVar(&id, "id", "", "explicit contribution ID; re-recording it fails")
	return cmd
}

func newGoalStatusCommand(opts *globalOptions) *cobra.Command {
	var today string

	cmd := &cobra.Command{
		Use:   "status <id>",
		Short: "Show goal progress and pace",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			day, err := parseDay(today)
			if err != nil {
				return err
			}
			p, err := a.goals.Status(a.ctx, args[0], day)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			pace := "behind"
			if p.OnTrack {
				pace = "on track"
			}
			fmt.Fprintf(out, "%s: %s of %s (%s%%), %s\n", p.Goal.Name, p.Goal.CurrentAmount.StringFixed(2),
				p.Goal.TargetAmount.StringFixed(2), p.Percent.StringFixed(2), pace)
			fmt.Fprintf(out, "Remaining %s, needs %s per month\n", p.Remaining.StringFixed(2), p.RequiredMonthly.StringFixed(2))
			if p.ProjectedCompletion != nil {
				fmt.Fprintf(out, "Projected completion %s\n", p.ProjectedCompletion.Format(model.DateFormat))
			}

			h, err := a.goals.History(a.ctx, args[0])
			if err != nil {
				return err
			}
			if n := len(h.Contributions); n > 0 {
				last := h.Contributions[n-1]
				fmt.Fprintf(out, "%d contributions totaling %s, last %s on %s\n", n, h.Total().StringFixed(2),
					last.Amount.StringFixed(2), last.Date.Format(model.DateFormat))
			}
			for _, m := range h.Milestones {
				fmt.Fprintf(out, "Milestone %s: %s (%s)\n", m.Date.Format(model.DateFormat), m.Title, m.Amount.StringFixed(2))
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&today, "today", "", "evaluate as of this date, YYYY-MM-DD (default today)")
	return cmd
}
