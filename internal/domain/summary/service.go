package summary

import (
	"context"
	"log/slog"
	"time"

	"github.com/healapp/mealtrack/internal/domain/ledger"
	"github.com/healapp/mealtrack/internal/domain/nutrition"
	"github.com/healapp/mealtrack/internal/domain/profile"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
	"github.com/healapp/mealtrack/pkg/util"
)

// Request carries the full day's ledger contents to the remote summarizer.
type Request struct {
	Date          string           `json:"date,omitempty"`
	DiabetesType  string           `json:"diabetes_type,omitempty"`
	Meals         []MealEntry      `json:"meals"`
	DailyTargets  nutrition.Macros `json:"daily_targets"`
	TotalConsumed nutrition.Macros `json:"total_consumed"`
}

// MealEntry is one saved meal as the summarizer expects it.
type MealEntry struct {
	Timestamp string                 `json:"timestamp"`
	MealName  string                 `json:"meal_name"`
	Macros    nutrition.Macros       `json:"macros"`
	Estimate  nutrition.FoodEstimate `json:"estimate"`
}

// Summarizer is the remote end-of-day narrative generator.
type Summarizer interface {
	SummarizeDay(ctx context.Context, req Request) (nutrition.DailySummary, error)
}

// Cache stores one summary per day until the day ends; summaries are cheap
// to discard and expensive to regenerate.
type Cache interface {
	Get(ctx context.Context, day string) (nutrition.DailySummary, bool, error)
	Set(ctx context.Context, day string, s nutrition.DailySummary, ttl time.Duration) error
}

// Service produces the end-of-day narrative from the ledger on demand.
type Service struct {
	profiles   *profile.Store
	meals      *ledger.Service
	summarizer Summarizer
	cache      Cache
	location   *time.Location
	logger     *slog.Logger
	now        func() time.Time
}

// NewService wires up the daily summary domain.
func NewService(profiles *profile.Store, meals *ledger.Service, summarizer Summarizer, cache Cache, location *time.Location, logger *slog.Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		profiles:   profiles,
		meals:      meals,
		summarizer: summarizer,
		cache:      cache,
		location:   location,
		logger:     logger.With("component", "summary.service"),
		now:        time.Now,
	}
}

// SetNow overrides the clock for tests.
func (s *Service) SetNow(now func() time.Time) { s.now = now }

// Summarize builds today's summary, serving a cached copy unless force is
// set. The cache entry expires at the end of the day.
func (s *Service) Summarize(ctx context.Context, force bool) (nutrition.DailySummary, error) {
	snap := s.profiles.Snapshot()
	if !snap.Registered {
		return nutrition.DailySummary{}, apperrors.Wrap(apperrors.CodeNotRegistered, "register a profile before requesting a summary", nil)
	}

	now := s.now()
	day := util.DayKey(now, s.location)

	if !force && s.cache != nil {
		if cached, ok, err := s.cache.Get(ctx, day); err != nil {
			s.logger.Warn("summary cache read failed", "error", err)
		} else if ok {
			s.logger.Debug("summary served from cache", "day", day)
			return cached, nil
		}
	}

	records, err := s.meals.Today(ctx)
	if err != nil {
		return nutrition.DailySummary{}, err
	}
	if len(records) == 0 {
		return nutrition.DailySummary{}, apperrors.Wrap(apperrors.CodeInvalidInput, "no meals saved today", nil)
	}
	consumed, err := s.meals.ConsumedSoFar(ctx)
	if err != nil {
		return nutrition.DailySummary{}, err
	}

	entries := make([]MealEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, MealEntry{
			Timestamp: rec.Timestamp.UTC().Format(time.RFC3339),
			MealName:  rec.MealName,
			Macros:    rec.Macros,
			Estimate:  rec.Estimate,
		})
	}

	result, err := s.summarizer.SummarizeDay(ctx, Request{
		Date:          day,
		DiabetesType:  snap.Profile.DiabetesType,
		Meals:         entries,
		DailyTargets:  snap.Budget.DailyBudget,
		TotalConsumed: consumed,
	})
	if err != nil {
		return nutrition.DailySummary{}, err
	}

	if s.cache != nil {
		ttl := util.EndOfDay(now, s.location).Sub(now)
		if err := s.cache.Set(ctx, day, result, ttl); err != nil {
			s.logger.Warn("summary cache write failed", "error", err)
		}
	}
	return result, nil
}
