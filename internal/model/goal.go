package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoalStatus is the lifecycle state of a goal.
type GoalStatus string

const (
	GoalActive    GoalStatus = "active"
	GoalPaused    GoalStatus = "paused"
	GoalCompleted GoalStatus = "completed"
	GoalAbandoned GoalStatus = "abandoned"
)

// Goal is a savings target. CurrentAmount grows only through contributions.
type Goal struct {
	ID            string
	OwnerID       string
	Name          string
	TargetAmount  decimal.Decimal
	CurrentAmount decimal.Decimal
	StartDate     time.Time
	TargetDate    *time.Time
	Status        GoalStatus
	CompletedAt   *time.Time
}

// Remaining is the amount still needed, never negative.
func (g Goal) Remaining() decimal.Decimal {
	r := g.TargetAmount.Sub(g.CurrentAmount)
	if r.IsNegative() {
		return decimal.Zero
	}
	return r
}

// GoalContribution is an append-only deposit toward a goal.
type GoalContribution struct {
	ID            string
	GoalID        string
	Date          time.Time
	Amount        decimal.Decimal
	TransactionID string
	Notes         string
}

// MilestoneKind names what a milestone marks.
type MilestoneKind string

const MilestoneGoalCompleted MilestoneKind = "goal_completed"

// Milestone is an append-only record of a goal reaching a point of progress.
type Milestone struct {
	ID     string
	GoalID string
	Kind   MilestoneKind
	Title  string
	Date   time.Time
	Amount decimal.Decimal
}
