package commands

import (
	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/buildinfo"
)

// NewRootCommand builds the finstate command tree. Every subcommand except
// init operates on the project selected by --dir.
func NewRootCommand() *cobra.Command {
	opts := &globalOptions{}
	rootCmd := &cobra.Command{
		Use:     "finstate",
		Short:   "Personal finance ledger, investments and planning",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVarP(&opts.dir, "dir", "C", ".", "project directory")

	rootCmd.AddCommand(
		newInitCommand(),
		newAccountsCommand(opts),
		newTxCommand(opts),
		newStatementCommand(opts),
		newRuleCommand(opts),
		newInvestCommand(opts),
		newSnapshotCommand(opts),
		newRecurCommand(opts),
		newBudgetCommand(opts),
		newGoalCommand(opts),
		newCommitCommand(opts),
		newLogCommand(opts),
	)

	return rootCmd
}
