package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/journal"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
)

func newTxCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tx",
		Short: "Record and remove transactions",
	}
	cmd.AddCommand(
		newTxAddCommand(opts),
		newTxDeleteCommand(opts),
		newTxImportCommand(opts),
		newTxExportCommand(opts),
	)
	return cmd
}

func newTxAddCommand(opts *globalOptions) *cobra.Command {
	var typ, amount, account, to, date, category, desc, id string
	var pending bool

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Record a transaction and update balances",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			amt, err := money.Parse(amount)
			if err != nil {
				return err
			}
			day, err := parseDay(date)
			if err != nil {
				return err
			}
			tx, err := a.ledger.Create(a.ctx, model.Transaction{
				ID:          id,
				OwnerID:     a.cfg.Owner.ID,
				Type:        model.TransactionType(typ),
				Date:        day,
				Amount:      amt,
				AccountID:   account,
				ToAccountID: to,
				CategoryID:  category,
				Description: desc,
				Pending:     pending,
			})
			if err != nil {
				return err
			}
			a.record(cmd, "created", fmt.Sprintf("%s %s", tx.Type, tx.Amount.StringFixed(2)), tx.ID)
			fmt.Fprintln(cmd.OutOrStdout(), tx.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&typ, "type", "", "transaction type (required)")
	cmd.Flags().StringVar(&amount, "amount", "", "non-negative amount (required)")
	cmd.Flags().StringVar(&account, "account", "", "source account (required)")
	cmd.Flags().StringVar(&to, "to", "", "destination account for transfers")
	cmd.Flags().StringVar(&date, "date", "", "date, YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&category, "category", "", "category")
	cmd.Flags().StringVar(&desc, "desc", "", "description")
	cmd.Flags().StringVar(&id, "id", "", "explicit transaction ID")
	cmd.Flags().BoolVar(&pending, "pending", false, "record as pending (no balance effect)")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("amount")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}

func newTxDeleteCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a transaction and reverse its effect",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			tx, err := a.ledger.Delete(a.ctx, args[0])
			if err != nil {
				return err
			}
			a.record(cmd, "reversed", fmt.Sprintf("%s %s", tx.Type, tx.Amount.StringFixed(2)), tx.ID)
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s (%s %s)\n", tx.ID, tx.Type, tx.Amount.StringFixed(2))
			return nil
		}),
	}
}

func newTxImportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv>",
		Short: "Replay a transactions CSV through the ledger",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			res, err := a.journal.Import(a.ctx, journal.ImportParams{Path: args[0], OwnerID: a.cfg.Owner.ID})
			summary := fmt.Sprintf("%d created, %d duplicates, %d rejected", len(res.Created), res.Duplicates, len(res.Failed))
			a.record(cmd, "imported", summary, filepath.Base(args[0]))
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d transactions (%d already recorded, %d rejected)\n",
				len(res.Created), res.Duplicates, len(res.Failed))
			return err
		}),
	}
}

func newTxExportCommand(opts *globalOptions) *cobra.Command {
	var from, to string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write monthly transaction CSVs under journal/",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			start, err := parseDay(from)
			if err != nil {
				return err
			}
			end, err := parseDay(to)
			if err != nil {
				return err
			}
			paths, err := a.journal.Export(a.ctx, a.dir, a.cfg.Owner.ID, start, end)
			for _, p := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return err
		}),
	}

	cmd.Flags().StringVar(&from, "from", "", "first date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&to, "to", "", "last date, YYYY-MM-DD (default today)")
	_ = cmd.MarkFlagRequired("from")
	return cmd
}
