package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
	"github.com/cleared-dev/finstate/internal/snapshot"
)

func newSnapshotCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Record balance, net worth and portfolio history",
	}
	cmd.AddCommand(newSnapshotRunCommand(opts), newSnapshotHistoryCommand(opts))
	return cmd
}

func newSnapshotRunCommand(opts *globalOptions) *cobra.Command {
	var asOf string
	var force bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Take the daily snapshots",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			day, err := parseDay(asOf)
			if err != nil {
				return err
			}
			rep, err := snapshot.NewAggregator(a.store, snapshot.Options{Force: force}).Run(a.ctx, day)
			out := cmd.OutOrStdout()
			for _, row := range []struct {
				name string
				c    snapshot.Counts
			}{
				{"balances", rep.Balances},
				{"net worth", rep.NetWorth},
				{"portfolios", rep.Portfolios},
			} {
				fmt.Fprintf(out, "%-10s %d written, %d skipped\n", row.name, row.c.Written, row.c.Skipped)
			}
			a.record(cmd, "snapshot", fmt.Sprintf("as of %s, %d failures", day.Format(model.DateFormat), len(rep.Failures)), "")
			return err
		}),
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "snapshot date, YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&force, "force", false, "recompute rows that already exist")
	return cmd
}

func newSnapshotHistoryCommand(opts *globalOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recorded net worth over time",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			var start, end time.Time
			var err error
			if from != "" {
				if start, err = parseDay(from); err != nil {
					return err
				}
			}
			if to != "" {
				if end, err = parseDay(to); err != nil {
					return err
				}
			}
			points, err := snapshot.NewAggregator(a.store, snapshot.Options{}).NetWorthHistory(a.ctx, a.cfg.Owner.ID, start, end)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(points) == 0 {
				fmt.Fprintln(out, "No net worth snapshots")
				return nil
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tASSETS\tLIABILITIES\tNET WORTH\tCHANGE")
			for _, p := range points {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.Date.Format(model.DateFormat),
					money.Format(p.TotalAssets, p.Currency), money.Format(p.TotalLiabilities, p.Currency),
					money.Format(p.NetWorth, p.Currency), money.Format(p.Change, p.Currency))
			}
			return w.Flush()
		}),
	}

	cmd.Flags().StringVar(&from, "from", "", "first date, YYYY-MM-DD")
	cmd.Flags().StringVar(&to, "to", "", "last date, YYYY-MM-DD")
	return cmd
}
