package rules

import (
	"context"

	"github.com/cleared-dev/finstate/internal/id"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/store"
)

// Service keeps categorization rules in a store.
type Service struct {
	store store.Store
}

// NewService creates a Service.
func NewService(s store.Store) *Service {
	return &Service{store: s}
}

// Save creates or replaces a rule. An empty ID is assigned.
func (s *Service) Save(ctx context.Context, r model.Rule) (model.Rule, error) {
	if r.ID == "" {
		r.ID = id.New(id.PrefixRule)
	}
	if err := Validate(r); err != nil {
		return r, err
	}
	if err := s.store.Update(ctx, func(tx store.Tx) error {
		return tx.PutRule(r)
	}); err != nil {
		return r, err
	}
	logger.FromContext(ctx).Info("rule saved", "rule", r.ID, "field", r.Field, "operator", r.Operator)
	return r, nil
}

// Rules returns the owner's rules in the order they are tried.
func (s *Service) Rules(ctx context.Context, ownerID string) ([]model.Rule, error) {
	var out []model.Rule
	err := s.store.View(ctx, func(tx store.ReadTx) (err error) {
		out, err = tx.Rules(ownerID)
		return err
	})
	Sort(out)
	return out, err
}
