package commands

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/importer"
)

func newStatementCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "statement",
		Short: "Import bank statement exports",
	}
	cmd.AddCommand(newStatementImportCommand(opts))
	return cmd
}

func newStatementImportCommand(opts *globalOptions) *cobra.Command {
	var format, account string

	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Record a bank statement against an account",
		Long: "Record a bank statement against an account. Without a file, every CSV in\n" +
			"the project's import/ directory is imported and moved to import/processed/.",
		Args: cobra.MaximumNArgs(1),
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, args []string) error {
			params := importer.Params{Format: format, OwnerID: a.cfg.Owner.ID, AccountID: account}
			var (
				results []importer.Result
				err     error
			)
			if len(args) == 1 {
				var res importer.Result
				res, err = a.statements.ImportFile(a.ctx, args[0], params)
				results = append(results, res)
			} else {
				results, err = a.statements.ImportPending(a.ctx, a.dir, params)
			}
			if len(results) == 0 && err == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No statements in %s\n", filepath.Join(a.dir, importer.Dir))
				return nil
			}
			for _, r := range results {
				summary := fmt.Sprintf("%s: %d recorded, %d already recorded, %d rejected, %d categorized",
					filepath.Base(r.File), len(r.Created), r.Duplicates, r.Failed, r.Categorized)
				a.record(cmd, "imported", summary, account)
				fmt.Fprintln(cmd.OutOrStdout(), summary)
			}
			if err != nil {
				return errors.Join(errors.New("statement import incomplete"), err)
			}
			return nil
		}),
	}
	cmd.Flags().StringVar(&format, "format", "chase", "statement format (chase, simple)")
	cmd.Flags().StringVar(&account, "account", "", "account the statement belongs to")
	_ = cmd.MarkFlagRequired("account")
	return cmd
}
