package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/activity"
	"github.com/cleared-dev/finstate/internal/config"
	"github.com/cleared-dev/finstate/internal/gitops"
	"github.com/cleared-dev/finstate/internal/model"
)

const defaultCommitEmail = "finstate@localhost"

func commitAuthor(cfg *config.Config) gitops.Author {
	a := gitops.Author{Name: cfg.Owner.Name, Email: cfg.Owner.Email}
	if a.Name == "" {
		a.Name = cfg.Owner.ID
	}
	if a.Email == "" {
		a.Email = defaultCommitEmail
	}
	return a
}

func newCommitCommand(opts *globalOptions) *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Export accounts and this year's journal, then commit them to git",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			if !gitops.IsRepo(a.dir) {
				return fmt.Errorf("%s is not a git repository (run init --git or git init)", a.dir)
			}
			if err := a.accounts.Export(a.ctx, a.dir); err != nil {
				return err
			}
			now := time.Now()
			from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
			if _, err := a.journal.Export(a.ctx, a.dir, a.cfg.Owner.ID, from, model.Day(now)); err != nil {
				return err
			}

			if message == "" {
				message = "update: " + now.Format(model.DateFormat)
			}
			hash, err := gitops.CommitAll(a.ctx, a.dir, message, commitAuthor(a.cfg))
			if errors.Is(err, gitops.ErrNothingToCommit) {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to commit")
				return nil
			}
			if err != nil {
				return err
			}
			entry := activity.Entry{Time: time.Now(), Command: "commit", Action: "committed", Details: message, Commit: hash}
			if err := activity.Append(a.dir, entry); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Committed %s\n", hash)
			return nil
		}),
	}
	cmd.Flags().StringVarP(&message, "message", "m", "", "commit message")
	return cmd
}
