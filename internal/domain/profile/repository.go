package profile

import (
	"context"

	"github.com/healapp/mealtrack/internal/domain/nutrition"
)

// Repository persists the profile and budget as two independent records,
// so either may be absent without corrupting the other.
type Repository interface {
	SaveProfile(ctx context.Context, p nutrition.UserProfile) error
	SaveBudget(ctx context.Context, b nutrition.DailyBudget) error
	// LoadProfile reports (profile, found, err). A record that exists but
	// cannot be decoded returns an error with code persistence_corrupt.
	LoadProfile(ctx context.Context) (nutrition.UserProfile, bool, error)
	LoadBudget(ctx context.Context) (nutrition.DailyBudget, bool, error)
}

// BudgetService computes a daily budget for a profile. Implemented by the
// remote Heal API client.
type BudgetService interface {
	ComputeBudget(ctx context.Context, p nutrition.UserProfile) (nutrition.DailyBudget, error)
}
