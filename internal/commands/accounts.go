package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
)

func newAccountsCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accounts",
		Short: "Manage accounts",
	}
	cmd.AddCommand(
		newAccountsListCommand(opts),
		newAccountsOpenCommand(opts),
		newAccountsImportCommand(opts),
		newAccountsExportCommand(opts),
	)
	return cmd
}

func newAccountsListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List accounts and balances",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			all, err := a.accounts.All(a.ctx)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tBALANCE\tAVAILABLE CREDIT\tSTATUS")
			for _, acct := range all {
				credit := "-"
				if avail, ok := acct.AvailableCredit(); ok {
					credit = money.Format(avail, acct.Currency)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", acct.ID, acct.Name, acct.Type,
					money.Format(acct.CurrentBalance, acct.Currency), credit, acct.Status)
			}
			return w.Flush()
		}),
	}
}

func newAccountsOpenCommand(opts *globalOptions) *cobra.Command {
	var name, typ, balance, currency string
	var excluded bool

	cmd := &cobra.Command{
		Use:   "open",
		Short: "Open a new account",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			acct := model.Account{
				OwnerID:            a.cfg.Owner.ID,
				Name:               name,
				Type:               model.AccountType(typ),
				Currency:           currency,
				ExcludedFromTotals: excluded,
			}
			if acct.Currency == "" {
				acct.Currency = a.cfg.Owner.BaseCurrency
			}
			if balance != "" {
				b, err := money.Parse(balance)
				if err != nil {
					return err
				}
				acct.CurrentBalance = b
			}
			acct, err := a.accounts.Open(a.ctx, acct)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Opened %s (%s)\n", acct.ID, acct.Name)
			return nil
		}),
	}

	cmd.Flags().StringVar(&name, "name", "", "account name (required)")
	cmd.Flags().StringVar(&typ, "type", "", "cash, savings, credit, investment, asset, liability or loan (required)")
	cmd.Flags().StringVar(&balance, "balance", "", "opening balance")
	cmd.Flags().StringVar(&currency, "currency", "", "currency (defaults to the base currency)")
	cmd.Flags().BoolVar(&excluded, "exclude", false, "exclude from net worth totals")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newAccountsImportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <csv>",
		Short: "Create the accounts listed in an accounts CSV",
		Args:  cobra.ExactArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			n, err := a.accounts.Import(a.ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d accounts\n", n)
			return nil
		}),
	}
}

func newAccountsExportCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Write accounts/accounts.csv",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			return a.accounts.Export(a.ctx, opts.dir)
		}),
	}
}
