package commands

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/cleared-dev/finstate/internal/model"
)

func newRuleCommand(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Categorize imported transactions automatically",
	}
	cmd.AddCommand(newRuleAddCommand(opts), newRuleListCommand(opts))
	return cmd
}

func newRuleAddCommand(opts *globalOptions) *cobra.Command {
	var (
		r        model.Rule
		field    string
		operator string
		inactive bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a categorization rule",
		Long: "Add a categorization rule. Statement imports try active rules from the\n" +
			"highest priority down and apply the first whose condition matches.",
		Args: cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			r.OwnerID = a.cfg.Owner.ID
			r.Field = model.RuleField(field)
			r.Operator = model.RuleOperator(operator)
			r.Active = !inactive
			saved, err := a.rules.Save(a.ctx, r)
			if err != nil {
				return err
			}
			a.record(cmd, "created", fmt.Sprintf("rule %s: %s %s %q", saved.Name, saved.Field, saved.Operator, saved.Value), saved.ID)
			fmt.Fprintln(cmd.OutOrStdout(), saved.ID)
			return nil
		}),
	}

	cmd.Flags().StringVar(&r.Name, "name", "", "rule name (required)")
	cmd.Flags().StringVar(&field, "field", string(model.RuleFieldDescription), "field to test (description, payee, amount)")
	cmd.Flags().StringVar(&operator, "operator", string(model.RuleContains),
		"contains, starts_with, ends_with, equals, greater_than or less_than")
	cmd.Flags().StringVar(&r.Value, "value", "", "value to compare against (required)")
	cmd.Flags().StringVar(&r.CategoryID, "category", "", "category to assign")
	cmd.Flags().StringVar(&r.Payee, "payee", "", "payee to assign")
	cmd.Flags().IntVar(&r.Priority, "priority", 0, "higher priority rules are tried first")
	cmd.Flags().BoolVar(&inactive, "inactive", false, "save the rule without applying it")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newRuleListCommand(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List rules in the order they are tried",
		Args:  cobra.NoArgs,
		RunE: withApp(opts, func(cmd *cobra.Command, a *app, _ []string) error {
			rs, err := a.rules.Rules(a.ctx, a.cfg.Owner.ID)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRIORITY\tCONDITION\tCATEGORY\tPAYEE\tACTIVE")
			for _, r := range rs {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s %s %q\t%s\t%s\t%t\n", r.ID, r.Name, r.Priority,
					r.Field, r.Operator, r.Value, r.CategoryID, r.Payee, r.Active)
			}
			return w.Flush()
		}),
	}
}
