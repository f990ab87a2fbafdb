package reports

import (
	"context"
	"fmt"
	"sort"
	"time"

	"fintrack/internal/core"
)

// TrendBucket is one time-windowed grouping in a spending trend.
type TrendBucket struct {
	Year       int        `json:"year"`
	Month      int        `json:"month,omitempty"`
	Day        int        `json:"day,omitempty"`
	Week       int        `json:"week,omitempty"`
	Total      core.Money `json:"totalAmount"`
	Count      int        `json:"count"`
	Categories []string   `json:"categories"`
}

// TrendSummary rolls the buckets up.
type TrendSummary struct {
	TotalPeriods     int        `json:"totalPeriods"`
	TotalAmount      core.Money `json:"totalAmount"`
	AveragePerPeriod core.Money `json:"averagePerPeriod"`
}

// Trends is the spending-trends view.
type Trends struct {
	Period  string        `json:"period"`
	GroupBy string        `json:"groupBy"`
	Buckets []TrendBucket `json:"trends"`
	Summary TrendSummary  `json:"summary"`
}

var periodDays = map[string]int{
	"7days":  7,
	"30days": 30,
	"90days": 90,
	"1year":  365,
}

type bucketKey struct {
	year, month, day, week int
}

// Trends buckets the user's spending over a trailing window. period picks
// the window length, groupBy the bucket granularity.
func (e *Engine) Trends(ctx context.Context, userID, period, groupBy string) (*Trends, error) {
	if period == "" {
		period = "30days"
	}
	if groupBy == "" {
		groupBy = "day"
	}
	days, ok := periodDays[period]
	if !ok {
		verr := &core.ValidationError{}
		verr.Add("period", "period must be one of 7days, 30days, 90days, 1year")
		return nil, verr
	}
	if groupBy != "day" && groupBy != "week" && groupBy != "month" {
		verr := &core.ValidationError{}
		verr.Add("groupBy", "groupBy must be one of day, week, month")
		return nil, verr
	}

	now := e.now()
	start := now.AddDate(0, 0, -days)
	expenses, err := e.expenses.ExpensesInRange(ctx, userID, start, now)
	if err != nil {
		return nil, fmt.Errorf("gather trend expenses: %w", err)
	}

	buckets := map[bucketKey]*TrendBucket{}
	cats := map[bucketKey]map[string]struct{}{}
	for _, exp := range expenses {
		key, bucket := bucketFor(exp.Date, groupBy)
		b, seen := buckets[key]
		if !seen {
			b = &bucket
			buckets[key] = b
			cats[key] = map[string]struct{}{}
		}
		b.Total.Cents += exp.Amount.Cents
		b.Count++
		cats[key][exp.Category] = struct{}{}
	}

	keys := make([]bucketKey, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if a.year != b.year {
			return a.year < b.year
		}
		if a.month != b.month {
			return a.month < b.month
		}
		if a.week != b.week {
			return a.week < b.week
		}
		return a.day < b.day
	})

	out := make([]TrendBucket, 0, len(keys))
	var total int64
	for _, k := range keys {
		b := buckets[k]
		names := make([]string, 0, len(cats[k]))
		for c := range cats[k] {
			names = append(names, c)
		}
		sort.Strings(names)
		b.Categories = names
		total += b.Total.Cents
		out = append(out, *b)
	}

	return &Trends{
		Period:  period,
		GroupBy: groupBy,
		Buckets: out,
		Summary: TrendSummary{
			TotalPeriods:     len(out),
			TotalAmount:      core.Money{Cents: total},
			AveragePerPeriod: averageCents(total, len(out)),
		},
	}, nil
}

func bucketFor(t time.Time, groupBy string) (bucketKey, TrendBucket) {
	switch groupBy {
	case "week":
		year, week := t.ISOWeek()
		return bucketKey{year: year, week: week},
			TrendBucket{Year: year, Week: week}
	case "month":
		key := bucketKey{year: t.Year(), month: int(t.Month())}
		return key, TrendBucket{Year: key.year, Month: key.month}
	default:
		key := bucketKey{year: t.Year(), month: int(t.Month()), day: t.Day()}
		return key, TrendBucket{Year: key.year, Month: key.month, Day: key.day}
	}
}
