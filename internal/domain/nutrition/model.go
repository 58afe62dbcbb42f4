package nutrition

import (
	"time"

	"github.com/google/uuid"
)

// Profile enumerations accepted by the remote budget computation.
const (
	SexMale   = "male"
	SexFemale = "female"
)

// Exercise levels, least to most active.
var ExerciseLevels = []string{"sedentary", "light", "moderate", "active", "very_active"}

// Diabetes types understood by the remote services.
const (
	DiabetesT1D     = "T1D"
	DiabetesT2D     = "T2D"
	DiabetesUnknown = "unknown"
)

// UserProfile is created once at registration and replaced wholesale on
// re-registration; individual fields are never updated in place.
type UserProfile struct {
	HeightCm      float64  `json:"height_cm"`
	WeightKg      float64  `json:"weight_kg"`
	Age           int      `json:"age"`
	Sex           string   `json:"sex"`
	ExerciseLevel string   `json:"exercise_level"`
	DiabetesType  string   `json:"diabetes_type"`
	MealsPerDay   int      `json:"meals_per_day"`
	MealTimes     []string `json:"meal_times,omitempty"`
}

// MacroSplit holds the protein/carb/fat calorie fractions of a budget.
type MacroSplit struct {
	Protein float64 `json:"protein"`
	Carb    float64 `json:"carb"`
	Fat     float64 `json:"fat"`
}

// DailyBudget is produced exactly once per registration by the remote
// budget service.
type DailyBudget struct {
	DailyBudget    Macros     `json:"daily_budget"`
	PerMealTargets Macros     `json:"per_meal_targets"`
	MacroSplit     MacroSplit `json:"macro_split"`
	MealsPerDay    int        `json:"meals_per_day"`
}

// CalorieRange bounds the estimated calories of a photographed meal.
type CalorieRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}

// FoodItem is one recognized component of an estimated meal. ID is assigned
// locally when the remote response is decoded and carried for the item's
// lifetime, including through persistence.
type FoodItem struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	DisplayName      string    `json:"display_name"`
	Category         string    `json:"category"`
	CookingMethod    string    `json:"cooking_method"`
	Grams            float64   `json:"grams"`
	Kcal             float64   `json:"kcal"`
	NutritionPer100g Macros    `json:"nutrition_per_100g"`
	Confidence       float64   `json:"confidence"`
	Notes            []string  `json:"notes"`
}

// FoodEstimate is the structured output of the remote vision estimation.
// Never mutated after receipt.
type FoodEstimate struct {
	Items         []FoodItem   `json:"items"`
	Totals        Macros       `json:"totals"`
	CaloriesRange CalorieRange `json:"calories_range"`
	Assumptions   []string     `json:"assumptions"`
	Warnings      []string     `json:"warnings"`
	ModelInfo     string       `json:"model_info"`
}

// NutrientStatus evaluates a single macro against its per-meal target.
type NutrientStatus struct {
	Target          float64 `json:"target"`
	Actual          float64 `json:"actual"`
	Difference      float64 `json:"difference"`
	Status          string  `json:"status"`
	PercentOfTarget float64 `json:"percent_of_target"`
}

// MacroEvaluation groups per-meal nutrient statuses.
type MacroEvaluation struct {
	ProteinG NutrientStatus `json:"protein_g"`
	CarbG    NutrientStatus `json:"carb_g"`
	FatG     NutrientStatus `json:"fat_g"`
}

// DailyNutrientStatus evaluates a macro against the daily budget after the
// current meal would be consumed.
type DailyNutrientStatus struct {
	TargetDaily                   float64 `json:"target_daily"`
	ConsumedSoFar                 float64 `json:"consumed_so_far"`
	AfterMeal                     float64 `json:"after_meal"`
	Remaining                     float64 `json:"remaining"`
	WillExceedBy                  float64 `json:"will_exceed_by"`
	PercentOfDailyTargetAfterMeal float64 `json:"percent_of_daily_target_after_meal"`
}

// DailyEvaluation groups post-meal daily nutrient statuses.
type DailyEvaluation struct {
	ProteinG DailyNutrientStatus `json:"protein_g"`
	CarbG    DailyNutrientStatus `json:"carb_g"`
	FatG     DailyNutrientStatus `json:"fat_g"`
}

// ComparisonFlags names the macros that exceeded per-meal or daily limits.
type ComparisonFlags struct {
	PerMealExceededAny bool     `json:"per_meal_exceeded_any"`
	DailyExceededAny   bool     `json:"daily_exceeded_any"`
	OverPerMeal        []string `json:"over_per_meal"`
	OverDaily          []string `json:"over_daily"`
}

// ProgressPercent carries normalized progress-bar percentages per macro.
type ProgressPercent struct {
	ProteinG float64 `json:"protein_g"`
	CarbG    float64 `json:"carb_g"`
	FatG     float64 `json:"fat_g"`
}

// ProgressBars bundles the per-meal and post-meal daily progress values.
type ProgressBars struct {
	PerMealPercent        ProgressPercent `json:"per_meal_percent"`
	DailyPercentAfterMeal ProgressPercent `json:"daily_percent_after_meal"`
}

// MealComparison is a pure read model produced by the remote comparison
// service; it is displayed, never re-derived locally.
type MealComparison struct {
	PerMealEvaluation       MacroEvaluation `json:"per_meal_evaluation"`
	DailyEvaluationPostMeal DailyEvaluation `json:"daily_evaluation_post_meal"`
	Flags                   ComparisonFlags `json:"flags"`
	ProgressBars            ProgressBars    `json:"progress_bars"`
	Notes                   []string        `json:"notes"`
	ModelInfo               string          `json:"model_info"`
}

// Action kinds a suggestion may carry.
const (
	ActionPortion = "portion"
	ActionSwap    = "swap"
	ActionAdd     = "add"
	ActionRemove  = "remove"
	ActionTiming  = "timing"
	ActionOrder   = "order"
	ActionOther   = "other"
)

// Action is one corrective adjustment recommended by the suggestion
// service. ID follows the same local-assignment rule as FoodItem.ID.
type Action struct {
	ID              uuid.UUID `json:"id"`
	Kind            string    `json:"kind"`
	Text            string    `json:"text"`
	EstimatedEffect *Macros   `json:"estimated_effect,omitempty"`
}

// MealSuggestions holds the ordered corrective actions for a meal.
type MealSuggestions struct {
	Actions                    []Action `json:"actions"`
	AdjustedMacrosAfterActions Macros   `json:"adjusted_macros_after_actions"`
	Rationale                  []string `json:"rationale"`
	ModelInfo                  string   `json:"model_info"`
}

// MealRecord is created only on explicit save and immutable afterwards.
// Macros always equals Estimate.Totals at save time.
type MealRecord struct {
	ID        uuid.UUID    `json:"id"`
	Timestamp time.Time    `json:"timestamp"`
	MealIndex int          `json:"meal_index"`
	MealName  string       `json:"meal_name"`
	Estimate  FoodEstimate `json:"estimate"`
	Macros    Macros       `json:"macros"`
	ImageKey  string       `json:"image_key,omitempty"`
}

// MacroOverview is the free-text macro recap of a daily summary.
type MacroOverview struct {
	ProteinG string `json:"protein_g"`
	CarbG    string `json:"carb_g"`
	FatG     string `json:"fat_g"`
}

// DailySummary is the end-of-day narrative produced on demand from the full
// day's ledger contents. Not persisted by the core.
type DailySummary struct {
	SummaryPoints []string      `json:"summary_points"`
	NextDayFocus  []string      `json:"next_day_focus"`
	MacroOverview MacroOverview `json:"macro_overview"`
	Alerts        []string      `json:"alerts"`
	ModelInfo     string        `json:"model_info"`
}

// ReminderCopy is a short piece of notification text.
type ReminderCopy struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Validate checks the profile against the ranges the remote budget service
// accepts, so a bad profile fails before any network call.
func (p UserProfile) Validate() error {
	switch {
	case p.HeightCm <= 0:
		return errInvalidProfile("height_cm must be positive")
	case p.WeightKg <= 0:
		return errInvalidProfile("weight_kg must be positive")
	case p.Age < 10 || p.Age > 120:
		return errInvalidProfile("age must be between 10 and 120")
	case p.Sex != SexMale && p.Sex != SexFemale:
		return errInvalidProfile("sex must be male or female")
	case p.MealsPerDay < 1 || p.MealsPerDay > 8:
		return errInvalidProfile("meals_per_day must be between 1 and 8")
	}
	if !validExerciseLevel(p.ExerciseLevel) {
		return errInvalidProfile("unknown exercise_level")
	}
	switch p.DiabetesType {
	case DiabetesT1D, DiabetesT2D, DiabetesUnknown:
	default:
		return errInvalidProfile("diabetes_type must be T1D, T2D or unknown")
	}
	return nil
}

func validExerciseLevel(level string) bool {
	for _, l := range ExerciseLevels {
		if l == level {
			return true
		}
	}
	return false
}
