// Package rules categorizes transactions with owner-defined match rules.
package rules

import (
	"cmp"
	"errors"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/model"
)

// Validate reports every problem with a rule definition.
func Validate(r model.Rule) error {
	var errs []error
	if r.Name == "" {
		errs = append(errs, model.Invalid("name", "required"))
	}
	if r.Value == "" {
		errs = append(errs, model.Invalid("value", "required"))
	}
	if r.CategoryID == "" && r.Payee == "" {
		errs = append(errs, model.Invalid("action", "a rule must set a category or a payee"))
	}
	if !slices.Contains(model.RuleOperators, r.Operator) {
		errs = append(errs, model.Invalid("operator", "unknown operator %q", r.Operator))
	}

	switch r.Field {
	case model.RuleFieldDescription, model.RuleFieldPayee:
		if r.Operator == model.RuleGreaterThan || r.Operator == model.RuleLessThan {
			errs = append(errs, model.Invalid("operator", "%s only applies to amount", r.Operator))
		}
	case model.RuleFieldAmount:
		switch r.Operator {
		case model.RuleContains, model.RuleStartsWith, model.RuleEndsWith:
			errs = append(errs, model.Invalid("operator", "%s does not apply to amount", r.Operator))
		}
		if _, err := decimal.NewFromString(r.Value); err != nil && r.Value != "" {
			errs = append(errs, model.Invalid("value", "%q is not a number", r.Value))
		}
	default:
		errs = append(errs, model.Invalid("field", "unknown field %q", r.Field))
	}
	return errors.Join(errs...)
}

// Sort orders rules the way they are tried: highest priority first, then
// by name and ID.
func Sort(rs []model.Rule) {
	slices.SortStableFunc(rs, func(a, b model.Rule) int {
		if c := cmp.Compare(b.Priority, a.Priority); c != 0 {
			return c
		}
		if c := strings.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
}

// Matches reports whether tx satisfies r. Text comparisons ignore case;
// amount comparisons are numeric. Inactive rules never match.
func Matches(r model.Rule, tx model.Transaction) bool {
	if !r.Active {
		return false
	}
	if r.Field == model.RuleFieldAmount {
		want, err := decimal.NewFromString(r.Value)
		if err != nil {
			return false
		}
		switch r.Operator {
		case model.RuleEquals:
			return tx.Amount.Equal(want)
		case model.RuleGreaterThan:
			return tx.Amount.GreaterThan(want)
		case model.RuleLessThan:
			return tx.Amount.LessThan(want)
		}
		return false
	}

	var got string
	switch r.Field {
	case model.RuleFieldDescription:
		got = tx.Description
	case model.RuleFieldPayee:
		got = tx.Payee
	default:
		return false
	}
	got, want := strings.ToLower(got), strings.ToLower(r.Value)
	switch r.Operator {
	case model.RuleContains:
		return strings.Contains(got, want)
	case model.RuleStartsWith:
		return strings.HasPrefix(got, want)
	case model.RuleEndsWith:
		return strings.HasSuffix(got, want)
	case model.RuleEquals:
		return got == want
	}
	return false
}

// Match returns the first rule, in Sort order, that tx satisfies.
func Match(rs []model.Rule, tx model.Transaction) (model.Rule, bool) {
	ordered := slices.Clone(rs)
	Sort(ordered)
	for _, r := range ordered {
		if Matches(r, tx) {
			return r, true
		}
	}
	return model.Rule{}, false
}

// Apply sets the category and payee of the first matching rule on tx. A
// rule leaves fields it does not set untouched.
func Apply(rs []model.Rule, tx model.Transaction) (model.Transaction, bool) {
	r, ok := Match(rs, tx)
	if !ok {
		return tx, false
	}
	if r.CategoryID != "" {
		tx.CategoryID = r.CategoryID
	}
	if r.Payee != "" {
		tx.Payee = r.Payee
	}
	return tx, true
}
