package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/cleared-dev/finstate/internal/id"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/rules"
)

// Recorder creates transactions and applies their balance effect.
// ledger.Engine implements it.
type Recorder interface {
	Create(ctx context.Context, tx model.Transaction) (model.Transaction, error)
}

// RuleSource lists an owner's categorization rules. rules.Service
// implements it.
type RuleSource interface {
	Rules(ctx context.Context, ownerID string) ([]model.Rule, error)
}

// Transactions maps statement lines to transactions on accountID. Deposits
// become income and withdrawals expenses of the absolute amount. IDs derive
// from the account and line reference, numbered when a reference repeats in
// the same statement, so importing a statement twice records nothing new.
func Transactions(lines []Line, ownerID, accountID string) []model.Transaction {
	seen := make(map[string]int)
	out := make([]model.Transaction, 0, len(lines))
	for _, l := range lines {
		seen[l.Reference]++
		key := accountID + "|" + l.Reference + "#" + strconv.Itoa(seen[l.Reference])
		tx := model.Transaction{
			ID:          id.FromKey(id.PrefixTransaction, key),
			OwnerID:     ownerID,
			Type:        model.TxIncome,
			Date:        model.Day(l.Date),
			Amount:      l.Amount,
			AccountID:   accountID,
			Description: l.Description,
		}
		if l.Amount.IsNegative() {
			tx.Type = model.TxExpense
			tx.Amount = l.Amount.Abs()
		}
		out = append(out, tx)
	}
	return out
}

// Service records bank statements through the ledger, categorizing each
// line with the owner's rules first.
type Service struct {
	recorder Recorder
	registry Registry
	rules    RuleSource
}

// NewService creates a Service. A nil registry means DefaultRegistry; a nil
// rule source leaves imported lines uncategorized.
func NewService(recorder Recorder, registry Registry, src RuleSource) *Service {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Service{recorder: recorder, registry: registry, rules: src}
}

// Params selects the statement format and the account it belongs to.
type Params struct {
	Format    string
	OwnerID   string
	AccountID string
}

// Result summarizes one statement import.
type Result struct {
	File       string
	Created    []string
	Duplicates int
	Failed     int
	// Categorized counts created transactions a rule assigned.
	Categorized int
}

// ImportFile records every line of one statement. An unparseable file
// records nothing. Lines already recorded count as duplicates; a rejected
// line does not stop the rest and is returned in the joined error.
func (s *Service) ImportFile(ctx context.Context, path string, p Params) (Result, error) {
	res := Result{File: path}
	parser, err := s.registry.Lookup(p.Format)
	if err != nil {
		return res, err
	}
	if p.AccountID == "" {
		return res, model.Invalid("account_id", "required")
	}

	f, err := os.Open(path)
	if err != nil {
		return res, fmt.Errorf("opening statement: %w", err)
	}
	defer f.Close()
	lines, err := parser.Parse(f)
	if err != nil {
		return res, fmt.Errorf("parsing %s: %w", path, err)
	}

	var rs []model.Rule
	if s.rules != nil {
		if rs, err = s.rules.Rules(ctx, p.OwnerID); err != nil {
			return res, fmt.Errorf("loading rules: %w", err)
		}
	}

	log := logger.FromContext(ctx).With("file", path, "account", p.AccountID)
	var errs []error
	for i, line := range Transactions(lines, p.OwnerID, p.AccountID) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		tx, matched := rules.Apply(rs, line)
		created, err := s.recorder.Create(ctx, tx)
		switch {
		case errors.Is(err, model.ErrDuplicate):
			res.Duplicates++
		case err != nil:
			res.Failed++
			errs = append(errs, fmt.Errorf("line %d (%s): %w", i+1, lines[i].Reference, err))
			log.Warn("statement line rejected", "line", i+1, "error", err)
		default:
			res.Created = append(res.Created, created.ID)
			if matched {
				res.Categorized++
			}
		}
	}
	log.Info("statement imported", "created", len(res.Created), "categorized", res.Categorized, "duplicates", res.Duplicates, "failed", res.Failed)
	return res, errors.Join(errs...)
}

// ImportPending imports every statement waiting in <root>/import/. A file
// whose lines were all recorded, or already present, moves to
// import/processed/; a file with failures stays for another attempt.
func (s *Service) ImportPending(ctx context.Context, root string, p Params) ([]Result, error) {
	files, err := Scan(root)
	if err != nil {
		return nil, err
	}
	var (
		results []Result
		errs    []error
	)
	for _, fi := range files {
		res, err := s.ImportFile(ctx, fi.Path, p)
		results = append(results, res)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", fi.Name, err))
			continue
		}
		if err := MarkProcessed(root, fi.Name); err != nil {
			errs = append(errs, err)
		}
	}
	return results, errors.Join(errs...)
}
