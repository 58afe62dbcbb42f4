package ledger

import (
	"context"

	"github.com/healapp/mealtrack/internal/domain/nutrition"
)

// Store persists meal records keyed by day. Past days are retained by the
// backing store as history; the ledger only ever reads and clears the
// current day.
type Store interface {
	Append(ctx context.Context, day string, rec nutrition.MealRecord) error
	// Day returns the records saved for a day in insertion order.
	Day(ctx context.Context, day string) ([]nutrition.MealRecord, error)
	Clear(ctx context.Context, day string) error
}
