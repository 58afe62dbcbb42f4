package capture

import (
	"context"

	"github.com/healapp/mealtrack/internal/domain/nutrition"
)

// Estimator turns meal image bytes into a structured food estimate.
// Implemented by the remote Heal API client.
type Estimator interface {
	EstimateMeal(ctx context.Context, imageJPEG []byte) (nutrition.FoodEstimate, error)
}

// CompareRequest carries everything the remote comparison needs: the
// registered targets, the consumed baseline before this meal, and the new
// estimate's totals.
type CompareRequest struct {
	PerMealTargets     nutrition.Macros `json:"per_meal_targets"`
	DailyTargets       nutrition.Macros `json:"daily_targets"`
	DailyConsumedSoFar nutrition.Macros `json:"daily_consumed_so_far"`
	CurrentMeal        nutrition.Macros `json:"current_meal"`
	MealIndex          int              `json:"meal_index"`
	MealsPerDay        int              `json:"meals_per_day"`
	MealName           string           `json:"meal_name,omitempty"`
	DiabetesType       string           `json:"diabetes_type,omitempty"`
}

// Comparer scores an estimate against the user's budget.
type Comparer interface {
	CompareMeal(ctx context.Context, req CompareRequest) (nutrition.MealComparison, error)
}

// SuggestRequest asks for corrective actions given what remains of the
// daily budget.
type SuggestRequest struct {
	Estimate       nutrition.FoodEstimate `json:"estimate"`
	PerMealTargets nutrition.Macros       `json:"per_meal_targets"`
	DailyRemaining nutrition.Macros       `json:"daily_remaining"`
	MealName       string                 `json:"meal_name,omitempty"`
	DiabetesType   string                 `json:"diabetes_type,omitempty"`
}

// Suggester generates corrective actions for a meal.
type Suggester interface {
	SuggestActions(ctx context.Context, req SuggestRequest) (nutrition.MealSuggestions, error)
}

// ImageStore persists saved meal photos by storage key.
type ImageStore interface {
	Put(ctx context.Context, key string, imageJPEG []byte) error
	Delete(ctx context.Context, key string) error
}
