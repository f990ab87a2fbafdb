package core

import (
	"math"
	"time"
)

// Progress is the derived state of a goal at a point in time. It is
// computed on demand from the stored amounts and never persisted, so it
// cannot go stale.
type Progress struct {
	Percentage      float64 `json:"percentage"`
	Remaining       Money   `json:"remainingAmount"`
	DaysRemaining   int     `json:"daysRemaining"`
	IsOnTrack       bool    `json:"isOnTrack"`
	RequiredMonthly Money   `json:"requiredMonthlyContribution"`
}

// ProgressAt derives the progress block for the goal as of now.
//
// A goal is on track when the fraction of the target already saved is at
// least the fraction of the goal's lifetime already elapsed; equality
// counts as on track. The required monthly contribution divides what is
// left by the months remaining, floored at 0.1 so the figure stays finite
// as the deadline arrives or passes.
func (g Goal) ProgressAt(now time.Time) Progress {
	p := Progress{
		Percentage: g.ProgressPercent(),
		Remaining:  g.RemainingAmount(),
	}

	p.DaysRemaining = daysUntil(now, g.TargetDate)

	var amountFrac float64
	if g.TargetAmount.Cents > 0 {
		amountFrac = float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents)
	}
	lifetime := g.TargetDate.Sub(g.CreatedAt)
	if lifetime > 0 {
		elapsedFrac := float64(now.Sub(g.CreatedAt)) / float64(lifetime)
		p.IsOnTrack = amountFrac >= elapsedFrac
	} else {
		// Degenerate lifetime: only a met target counts as on track.
		p.IsOnTrack = amountFrac >= 1
	}

	months := math.Max(float64(p.DaysRemaining)/30.0, 0.1)
	p.RequiredMonthly = Money{Cents: int64(math.Round(float64(p.Remaining.Cents) / months))}

	return p
}

// ProgressPercent returns the saved share of the target capped at 100,
// or 0 for a non-positive target.
func (g Goal) ProgressPercent() float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	pct := float64(g.CurrentAmount.Cents) / float64(g.TargetAmount.Cents) * 100
	return math.Min(pct, 100)
}

// RemainingAmount returns the distance to the target, never negative.
func (g Goal) RemainingAmount() Money {
	rem := g.TargetAmount.Cents - g.CurrentAmount.Cents
	if rem < 0 {
		rem = 0
	}
	return Money{Cents: rem}
}

// daysUntil returns ceil(target-now) in days; negative once overdue.
func daysUntil(now, target time.Time) int {
	return int(math.Ceil(target.Sub(now).Hours() / 24))
}
