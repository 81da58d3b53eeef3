package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
	"github.com/cleared-dev/finstate/internal/store"
)

func newInvestCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invest",
		Short: "Manage holdings and investment events",
	}
	cmd.AddCommand(
		newInvestOpenCommand(opts),
		newInvestRecordCommand(opts),
		newInvestPriceCommand(opts),
		newInvestListCommand(opts),
	)
	return cmd
}

func newInvestOpenCommand(opts *globalOptions) *cobra.Command {
	var account, ticker, name string

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open an empty holding in an investment account",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			h, err := a.holdings.Open(a.ctx, account, ticker, name)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), h.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&account, "account", "", "investment account (required)")
	cmd.Flags().StringVar(&ticker, "ticker", "", "ticker symbol (required)")
	cmd.Flags().StringVar(&name, "name", "", "security name")
	_ = cmd.MarkFlagRequired("account")
	_ = cmd.MarkFlagRequired("ticker")
	return cmd
}

func newInvestRecordCommand(opts *globalOptions) *cobra.Command {
	var holding, typ, shares, price, fees, commission, total, date, id string

	cmd := &cobra.Command{
		Use:   "record",
		Short: "Apply a buy, sell, dividend, split or transfer to a holding",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			day, err := parseDay(date)
			if err != nil {
				return err
			}
			ev := model.InvestmentTransaction{ID: id, HoldingID: holding, Type: model.InvestmentType(typ), Date: day}
			for _, f := range []struct {
				flag string
				dst  *decimal.Decimal
			}{
				{shares, &ev.Shares},
				{price, &ev.PricePerShare},
				{fees, &ev.Fees},
				{commission, &ev.Commission},
				{total, &ev.TotalAmount},
			} {
				if f.flag == "" {
					continue
				}
				if *f.dst, err = money.Parse(f.flag); err != nil {
					return err
				}
			}

			ev, h, err := a.holdings.Record(a.ctx, ev)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Recorded %s: %s %s shares @ %s avg\n", ev.ID, h.Ticker, h.Shares, h.AverageCost.StringFixed(money.PricePlaces))
			if ev.CapitalGain != nil {
				fmt.Fprintf(out, "Capital gain: %s\n", money.Format(*ev.CapitalGain, h.Currency))
			}
			return nil
		}),
	}

	cmd.Flags().StringVar(&holding, "holding", "", "holding ID (required)")
	cmd.Flags().StringVar(&typ, "type", "", "buy, sell, dividend, split, transfer_in or transfer_out (required)")
	cmd.Flags().StringVar(&shares, "shares", "", "share count, or the ratio for a split")
	cmd.Flags().StringVar(&price, "price", "", "price per share")
	cmd.Flags().StringVar(&fees, "fees", "", "fees")
	cmd.Flags().StringVar(&commission, "commission", "", "commission")
	cmd.Flags().StringVar(&total, "total", "", "total amount (derived when omitted)")
	cmd.Flags().StringVar(&date, "date", "", "date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&id, "id", "", "explicit event ID; re-recording it is a no-op")
	_ = cmd.MarkFlagRequired("holding")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newInvestPriceCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "price <holding> <price>",
		Short: "Set a holding's current price",
		Args:  cobra.ExactArgs(2),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			p, err := money.Parse(args[1])
			if err != nil {
				return err
			}
			h, err := a.holdings.UpdatePrice(a.ctx, args[0], p)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s now %s\n", h.Ticker, h.CurrentPrice.StringFixed(money.PricePlaces))
			return nil
		}),
	}
}

func newInvestListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List holdings with value and unrealized gain",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			var hs []model.Holding
			err := a.store.View(a.ctx, func(tx store.ReadTx) error {
				var err error
				hs, err = tx.Holdings()
				return err
			})
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tACCOUNT\tTICKER\tSHARES\tVALUE\tGAIN\tGAIN%")
			for _, h := range hs {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", h.ID, h.AccountID, h.Ticker, h.Shares,
					money.Format(h.MarketValue(), h.Currency), money.Format(h.GainLoss(), h.Currency),
					money.RoundPercent(h.GainLossPercent()).StringFixed(money.PercentPlaces))
			}
			return w.Flush()
		}),
	}
}
