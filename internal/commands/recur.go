package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
	"github.com/cleared-dev/finstate/internal/recurrence"
)

func newRecurCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "recur",
		Short: "Manage recurring transactions, bills and reports",
	}
	cmd.AddCommand(newRecurAddCommand(opts), newRecurRunCommand(opts), newRecurUpcomingCommand(opts))
	return cmd
}

func newRecurAddCommand(opts *globalOptions) *cobra.Command {
	var name, kind, cadence, start, end string
	var typ, amount, account, to, category string
	var auto, autopay bool
	var remind int

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a schedule",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			c, err := recurrence.ParseCadence(cadence)
			if err != nil {
				return err
			}
			startDay, err := parseDay(start)
			if err != nil {
				return err
			}
			s := model.Schedule{
				OwnerID:    a.cfg.Owner.ID,
				Kind:       model.ScheduleKind(kind),
				Name:       name,
				Cadence:    c,
				StartDate:  startDay,
				AutoCreate: auto,
				IsAutopay:  autopay,

				RemindBeforeDays: remind,
			}
			if end != "" {
				endDay, err := parseDay(end)
				if err != nil {
					return err
				}
				s.EndDate = &endDay
			}
			switch s.Kind {
			case model.ScheduleRecurringTransaction:
				amt, err := money.Parse(amount)
				if err != nil {
					return err
				}
				s.Template = &model.Transaction{
					Type: model.TransactionType(typ), Amount: amt,
					AccountID: account, ToAccountID: to, CategoryID: category,
				}
			case model.ScheduleBill:
				if amount != "" {
					if s.Amount, err = money.Parse(amount); err != nil {
						return err
					}
				}
				s.AccountID = account
			}
			s, err = a.advancer.Add(a.ctx, s)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), s.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "schedule name (required)")
	cmd.Flags().StringVar(&kind, "kind", string(model.ScheduleRecurringTransaction), "recurring_transaction, bill or scheduled_report")
	cmd.Flags().StringVar(&cadence, "cadence", "monthly", "daily, weekly, biweekly, monthly, quarterly or yearly")
	cmd.Flags().StringVar(&start, "start", "", "first due date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&end, "end", "", "last possible date, YYYY-MM-DD")
	cmd.Flags().BoolVar(&auto, "auto", true, "post recurring transactions automatically")
	cmd.Flags().StringVar(&typ, "type", string(model.TxExpense), "template transaction type")
	cmd.Flags().BoolVar(&autopay, "autopay", false, "bill is paid automatically and needs no reminder")
	cmd.Flags().IntVar(&remind, "remind-before", model.DefaultRemindBeforeDays, "days before a due date to start reminding")
	cmd.Flags().StringVar(&amount, "amount", "", "template or bill amount")
	cmd.Flags().StringVar(&account, "account", "", "template or bill account")
	cmd.Flags().StringVar(&to, "to", "", "template destination account")
	cmd.Flags().StringVar(&category, "category", "", "template category")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newRecurRunCommand(opts *globalOptions) *cobra.Command {
	var today string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Post every due occurrence and advance schedules",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			day, err := parseDay(today)
			if err != nil {
				return err
			}
			results, err := a.advancer.RunDue(a.ctx, day)
			out := cmd.OutOrStdout()
			for _, r := range results {
				if len(r.Posted) > 0 {
					a.record(cmd, "posted", fmt.Sprintf("%d occurrences", len(r.Posted)), r.ScheduleID)
				}
				fmt.Fprintf(out, "%s: %d posted, next due %s", r.ScheduleID, len(r.Posted), r.NextDueDate.Format(model.DateFormat))
				if len(r.Reminders) > 0 {
					fmt.Fprintf(out, ", %d to settle by hand", len(r.Reminders))
				}
				if r.Deactivated {
					fmt.Fprint(out, " (ended)")
				}
				fmt.Fprintln(out)
			}
			return err
		}),
	}

	cmd.Flags().StringVar(&today, "today", "", "run as of this date, YYYY-MM-DD (default today)")
	return cmd
}

func newRecurUpcomingCommand(opts *globalOptions) *cobra.Command {
	var today string

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List bills and manual recurring transactions coming due",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			day, err := parseDay(today)
			if err != nil {
				return err
			}
			reminders, err := a.advancer.Upcoming(a.ctx, day)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(reminders) == 0 {
				fmt.Fprintln(out, "Nothing coming due")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DUE\tNAME\tKIND\tAMOUNT\tACCOUNT\tSTATUS")
			for _, r := range reminders {
				status := "upcoming"
				if r.Overdue() {
					status = "overdue"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", r.DueDate.Format(model.DateFormat), r.Name, r.Kind,
					r.Amount.StringFixed(2), r.AccountID, status)
			}
			return w.Flush()
		}),
	}

	cmd.Flags().StringVar(&today, "today", "", "evaluate as of this date, YYYY-MM-DD (default today)")
	return cmd
}
