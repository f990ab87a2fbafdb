// Package export defines the outbound port for pushing expenses to an
// external spreadsheet, plus its adapters in subpackages.
package export

import (
	"context"

	"fintrack/internal/core"
)

// ExpenseWriter appends one expense to the export destination and
// returns an adapter-specific row reference.
type ExpenseWriter interface {
	Append(ctx context.Context, e core.Expense) (rowRef string, err error)
}
