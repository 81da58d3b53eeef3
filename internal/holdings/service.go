package holdings

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/finstate/internal/id"
	"github.com/cleared-dev/finstate/internal/lock"
	"github.com/cleared-dev/finstate/internal/logger"
	"github.com/cleared-dev/finstate/internal/model"
	"github.com/cleared-dev/finstate/internal/money"
	"github.com/cleared-dev/finstate/internal/store"
)

// Service records investment events against stored holdings.
type Service struct {
	store store.Store
	locks *lock.Manager
}

// NewService creates a holdings Service.
func NewService(s store.Store, locks *lock.Manager) *Service {
	if locks == nil {
		locks = lock.NewManager(lock.DefaultTimeout)
	}
	return &Service{store: s, locks: locks}
}

// HoldingKey is the lock key guarding a holding's shares and cost.
func HoldingKey(holdingID string) string { return "holding:" + holdingID }

// Open creates an empty holding for ticker in an investment account.
func (s *Service) Open(ctx context.Context, accountID, ticker, name string) (model.Holding, error) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if ticker == "" {
		return model.Holding{}, model.Invalid("ticker", "must not be empty")
	}
	h := model.Holding{ID: id.New(id.PrefixHolding), AccountID: accountID, Ticker: ticker, Name: name}
	err := s.store.Update(ctx, func(tx store.Tx) error {
		a, err := tx.Account(accountID)
		if err != nil {
			return err
		}
		if a.Type != model.AccountTypeInvestment {
			return model.Invalid("account", "%s is a %s account, not investment", accountID, a.Type)
		}
		h.Currency = a.Currency
		return tx.PutHolding(h)
	})
	if err != nil {
		return model.Holding{}, err
	}
	h.Version = 1
	return h, nil
}

// Record applies ev to its holding and appends ev. The holding update and
// the event are committed together. An ev.ID that was already recorded fails
// with model.ErrDuplicate and changes nothing, so a retried call is safe.
func (s *Service) Record(ctx context.Context, ev model.InvestmentTransaction) (model.InvestmentTransaction, model.Holding, error) {
	if ev.ID == "" {
		ev.ID = id.New(id.PrefixInvestment)
	}
	ev.Date = model.Day(ev.Date)
	if err := ValidateEvent(ev); err != nil {
		return ev, model.Holding{}, err
	}

	release, err := s.locks.Acquire(ctx, HoldingKey(ev.HoldingID))
	if err != nil {
		return ev, model.Holding{}, err
	}
	defer release()

	var next model.Holding
	err = s.store.Update(ctx, func(tx store.Tx) error {
		h, err := tx.Holding(ev.HoldingID)
		if err != nil {
			return err
		}
		var gain decimal.Decimal
		next, gain, err = Apply(h, ev)
		if err != nil {
			return err
		}
		if ev.Type == model.InvSell {
			ev.CapitalGain = &gain
		}
		if ev.TotalAmount.IsZero() {
			ev.TotalAmount = TotalAmount(ev)
		}
		if err := tx.AddInvestmentTransaction(ev); err != nil {
			return err
		}
		if err := tx.PutHolding(next); err != nil {
			return err
		}
		next.Version++
		return nil
	})
	if err != nil {
		return ev, model.Holding{}, err
	}

	logger.FromContext(ctx).Info("investment event recorded",
		"holding", next.ID, "event", ev.ID, "type", ev.Type,
		"shares", next.Shares.String(), "average_cost", next.AverageCost.String())
	return ev, next, nil
}

// UpdatePrice sets the holding's current market price.
func (s *Service) UpdatePrice(ctx context.Context, holdingID string, price decimal.Decimal) (model.Holding, error) {
	if price.IsNegative() {
		return model.Holding{}, model.Invalid("price", "%s must not be negative", price)
	}
	release, err := s.locks.Acquire(ctx, HoldingKey(holdingID))
	if err != nil {
		return model.Holding{}, err
	}
	defer release()

	var h model.Holding
	err = s.store.Update(ctx, func(tx store.Tx) error {
		var err error
		if h, err = tx.Holding(holdingID); err != nil {
			return err
		}
		h.CurrentPrice = money.RoundPrice(price)
		if err := tx.PutHolding(h); err != nil {
			return err
		}
		h.Version++
		return nil
	})
	return h, err
}
