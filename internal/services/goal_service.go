package services

import (
	"context"
	"fmt"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// GoalService orchestrates savings goal and contribution operations.
type GoalService struct {
	storage *storage.Repository
}

func NewGoalService(storage *storage.Repository) *GoalService {
	return &GoalService{storage: storage}
}

// Create validates and persists a new goal for the user. The target date
// must lie in the future at creation time; defaults are Medium priority,
// Active status and a zero running total unless the request seeds
// currentAmount explicitly.
func (s *GoalService) Create(ctx context.Context, userID string, g *core.Goal) (*core.Goal, error) {
	g.UserID = userID
	if g.Priority == "" {
		g.Priority = core.PriorityMedium
	}
	if g.Status == "" {
		g.Status = core.StatusActive
	}
	if err := g.Validate(time.Now().UTC(), true); err != nil {
		return nil, err
	}
	// A seeded running total can meet the target outright.
	if g.Status == core.StatusActive && g.CurrentAmount.Cents >= g.TargetAmount.Cents {
		g.Status = core.StatusCompleted
	}

	if err := s.storage.CreateGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("save goal: %w", err)
	}
	return g, nil
}

// Get returns the user's goal or core.ErrNotFound.
func (s *GoalService) Get(ctx context.Context, userID, id string) (*core.Goal, error) {
	return s.storage.GoalByID(ctx, userID, id)
}

// List returns the user's goals, optionally filtered by status and
// category.
func (s *GoalService) List(ctx context.Context, userID, status, category string) ([]core.Goal, error) {
	return s.storage.GoalsByOwner(ctx, userID, status, category)
}

// GoalUpdate carries the optional fields of an update request. Nil
// fields leave the stored value untouched. CurrentAmount may be set
// directly to seed a goal with savings held elsewhere.
type GoalUpdate struct {
	Title          *string
	Description    *string
	TargetAmount   *core.Money
	CurrentAmount  *core.Money
	TargetDate     *time.Time
	Category       *string
	Priority       *string
	Status         *string
	AutoContribute *core.AutoContributeSpec
}

// Update applies a partial update to the user's goal. The future-date
// rule applies only when the update changes the target date, so an
// overdue goal can still be edited. Setting currentAmount to or past the
// target completes an Active goal.
func (s *GoalService) Update(ctx context.Context, userID, id string, u GoalUpdate) (*core.Goal, error) {
	g, err := s.storage.GoalByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	dateChanged := false
	if u.Title != nil {
		g.Title = *u.Title
	}
	if u.Description != nil {
		g.Description = *u.Description
	}
	if u.TargetAmount != nil {
		g.TargetAmount = *u.TargetAmount
	}
	if u.CurrentAmount != nil {
		g.CurrentAmount = *u.CurrentAmount
	}
	if u.TargetDate != nil && !u.TargetDate.Equal(g.TargetDate) {
		g.TargetDate = *u.TargetDate
		dateChanged = true
	}
	if u.Category != nil {
		g.Category = *u.Category
	}
	if u.Priority != nil {
		g.Priority = *u.Priority
	}
	if u.Status != nil {
		g.Status = *u.Status
	}
	if u.AutoContribute != nil {
		g.AutoContribute = *u.AutoContribute
	}

	if err := g.Validate(time.Now().UTC(), dateChanged); err != nil {
		return nil, err
	}

	if g.Status == core.StatusActive && g.CurrentAmount.Cents >= g.TargetAmount.Cents {
		g.Status = core.StatusCompleted
	}

	if err := s.storage.UpdateGoal(ctx, g); err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return g, nil
}

// Delete removes the user's goal and its contribution ledger.
func (s *GoalService) Delete(ctx context.Context, userID, id string) error {
	return s.storage.DeleteGoal(ctx, userID, id)
}

// SetStatus overwrites the goal's status with any valid value. Every
// transition is allowed, including reopening a Completed goal.
func (s *GoalService) SetStatus(ctx context.Context, userID, id, status string) (*core.Goal, error) {
	valid := false
	for _, st := range core.GoalStatuses {
		if st == status {
			valid = true
			break
		}
	}
	if !valid {
		verr := &core.ValidationError{}
		verr.Add("status", "Status must be Active, Completed, Paused or Cancelled")
		return nil, verr
	}
	return s.storage.SetGoalStatus(ctx, userID, id, status)
}

// Contribute records a deposit against an Active goal. The goal's
// running total is updated atomically with the ledger insert, and the
// status flips to Completed the moment the target is reached.
// Contributing to a non-Active goal fails with core.ErrConflict.
func (s *GoalService) Contribute(ctx context.Context, userID, goalID string, c *core.Contribution) (*core.Goal, error) {
	if c.Date.IsZero() {
		c.Date = time.Now().UTC()
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return s.storage.AddContribution(ctx, userID, goalID, c)
}

// Contributions returns the goal's ledger, newest first.
func (s *GoalService) Contributions(ctx context.Context, userID, goalID string) ([]core.Contribution, error) {
	return s.storage.Contributions(ctx, userID, goalID)
}
