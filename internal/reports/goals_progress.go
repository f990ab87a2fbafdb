package reports

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/core"
)

// GoalProgress pairs a goal with its derived progress block and full
// contribution history, newest first.
type GoalProgress struct {
	Goal          core.Goal           `json:"goal"`
	Progress      core.Progress       `json:"progress"`
	Contributions []core.Contribution `json:"contributions"`
}

// GoalCategoryRollup aggregates goals sharing a category.
type GoalCategoryRollup struct {
	Category        string     `json:"category"`
	Count           int        `json:"count"`
	TotalTarget     core.Money `json:"totalTargetAmount"`
	TotalCurrent    core.Money `json:"totalCurrentAmount"`
	AverageProgress float64    `json:"averageProgress"`
}

// GoalsProgress is the goals-progress dashboard view.
type GoalsProgress struct {
	Goals      []GoalProgress       `json:"goals"`
	Categories []GoalCategoryRollup `json:"categoryBreakdown"`
	OnTrack    int                  `json:"onTrackCount"`
	Behind     int                  `json:"behindCount"`
}

// GoalsProgress derives the progress block and contribution history for
// every goal the user owns. On-track counting considers Active goals only.
func (e *Engine) GoalsProgress(ctx context.Context, userID string) (*GoalsProgress, error) {
	goals, err := e.goals.GoalsByOwner(ctx, userID, "", "")
	if err != nil {
		return nil, fmt.Errorf("gather goals: %w", err)
	}

	now := e.now()
	out := &GoalsProgress{Goals: make([]GoalProgress, len(goals))}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, goal := range goals {
		g.Go(func() error {
			contributions, err := e.goals.Contributions(gctx, userID, goal.ID)
			if err != nil {
				return fmt.Errorf("gather contributions for goal %s: %w", goal.ID, err)
			}
			out.Goals[i] = GoalProgress{
				Goal:          goal,
				Progress:      goal.ProgressAt(now),
				Contributions: contributions,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byCat := map[string]*GoalCategoryRollup{}
	var order []string
	progressSums := map[string]float64{}
	for _, gp := range out.Goals {
		goal := gp.Goal
		r, seen := byCat[goal.Category]
		if !seen {
			r = &GoalCategoryRollup{Category: goal.Category}
			byCat[goal.Category] = r
			order = append(order, goal.Category)
		}
		r.Count++
		r.TotalTarget.Cents += goal.TargetAmount.Cents
		r.TotalCurrent.Cents += goal.CurrentAmount.Cents
		// A zero target contributes 0% rather than a division by zero.
		progressSums[goal.Category] += goal.ProgressPercent()

		if goal.Status == core.StatusActive {
			if gp.Progress.IsOnTrack {
				out.OnTrack++
			} else {
				out.Behind++
			}
		}
	}
	for _, cat := range order {
		r := byCat[cat]
		r.AverageProgress = round2(progressSums[cat] / float64(r.Count))
		out.Categories = append(out.Categories, *r)
	}
	return out, nil
}
