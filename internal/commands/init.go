package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/accounts"
	"github.com/cleared-dev/finstate/internal/config"
	"github.com/cleared-dev/finstate/internal/gitops"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/money"
	"github.com/cleared-dev/finstate/internal/store/sqlite"
)

func newInitCommand() *cobra.Command {
	var name string
	var currency string
	var git bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new finstate project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd, absDir, name, currency, git)
		},
	}

	cmd.Flags().StringVar(&name, "owner", "", "owner name (required)")
	_ = cmd.MarkFlagRequired("owner")
	cmd.Flags().StringVar(&currency, "currency", "USD", "base currency (ISO 4217)")
	cmd.Flags().BoolVar(&git, "git", false, "initialize a git repository and commit the project files")

	return cmd
}

func runInit(cmd *cobra.Command, dir, name, currency string, git bool) error {
	if !money.ValidCurrency(currency) {
		return fmt.Errorf("unknown currency %q", currency)
	}
	if _, err := os.Stat(filepath.Join(dir, config.FileName)); err == nil {
		return fmt.Errorf("%s already exists in %s", config.FileName, dir)
	}

	for _, d := range []string{"accounts", "journal", "import"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write finstate.yaml.
	cfg := config.Default(name, currency)
	if err := config.Save(filepath.Join(dir, config.FileName), cfg); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	// Write .gitignore.
	gitignore := cfg.Database.Path + "*\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Create the database and seed the default accounts.
	ctx := logger.ToContext(cmd.Context(), logger.New(cmd.ErrOrStderr(), cfg.Log.Level, cfg.Log.Format))
	st, err := sqlite.Open(ctx, filepath.Join(dir, cfg.Database.Path), cfg.Database.BusyTimeout)
	if err != nil {
		return err
	}
	defer st.Close()

	svc := accounts.NewService(st)
	if _, err := svc.Seed(ctx, accounts.DefaultAccounts(cfg.Owner.ID, currency)); err != nil {
		return fmt.Errorf("seeding accounts: %w", err)
	}
	if err := svc.Export(ctx, dir); err != nil {
		return fmt.Errorf("writing accounts: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Initialized finstate project at %s\n", dir)

	if git {
		if err := gitops.Init(ctx, dir); err != nil {
			return err
		}
		hash, err := gitops.CommitAll(ctx, dir, "init: finstate project for "+name, commitAuthor(cfg))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Committed %s\n", hash)
	}
	return nil
}
