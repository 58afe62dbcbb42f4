package summary_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/healapp/mealtrack/internal/domain/ledger"
	"github.com/healapp/mealtrack/internal/domain/nutrition"
	"github.com/healapp/mealtrack/internal/domain/profile"
	"github.com/healapp/mealtrack/internal/domain/summary"
	"github.com/healapp/mealtrack/internal/infra/mealrepo"
	"github.com/healapp/mealtrack/internal/infra/profilerepo"
	"github.com/healapp/mealtrack/internal/infra/summarycache"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
	"github.com/healapp/mealtrack/pkg/logger"
)

type stubSummarizer struct {
	calls  int
	got    summary.Request
	result nutrition.DailySummary
	err    error
}

func (s *stubSummarizer) SummarizeDay(_ context.Context, req summary.Request) (nutrition.DailySummary, error) {
	s.calls++
	s.got = req
	if s.err != nil {
		return nutrition.DailySummary{}, s.err
	}
	return s.result, nil
}

type stubBudgets struct{}

func (stubBudgets) ComputeBudget(context.Context, nutrition.UserProfile) (nutrition.DailyBudget, error) {
	return nutrition.DailyBudget{}, nil
}

func validProfile() nutrition.UserProfile {
	return nutrition.UserProfile{
		HeightCm: 172, WeightKg: 70, Age: 34, Sex: "male",
		ExerciseLevel: "moderate", DiabetesType: "T2D", MealsPerDay: 3,
	}
}

type fixture struct {
	service    *summary.Service
	meals      *ledger.Service
	summarizer *stubSummarizer
	cache      *summarycache.MemoryCache
	now        time.Time
}

func newFixture(t *testing.T, registered bool) *fixture {
	t.Helper()
	log := logger.New()
	profiles := profile.NewStore(profilerepo.NewMemoryRepository(), stubBudgets{}, log)
	if registered {
		budget := nutrition.DailyBudget{
			DailyBudget: nutrition.Macros{ProteinG: 120, FatG: 70, CarbG: 200, Kcal: 2000},
			MealsPerDay: 3,
		}
		require.NoError(t, profiles.Register(context.Background(), validProfile(), budget))
	}

	meals := ledger.NewService(mealrepo.NewMemoryStore(), time.UTC, log)
	summarizer := &stubSummarizer{result: nutrition.DailySummary{
		SummaryPoints: []string{"protein on target"},
		ModelInfo:     "test-model",
	}}
	cache := summarycache.NewMemoryCache()
	svc := summary.NewService(profiles, meals, summarizer, cache, time.UTC, log)

	now := time.Date(2026, 3, 14, 19, 30, 0, 0, time.UTC)
	meals.SetNow(func() time.Time { return now })
	svc.SetNow(func() time.Time { return now })
	cache.SetNow(func() time.Time { return now })
	return &fixture{service: svc, meals: meals, summarizer: summarizer, cache: cache, now: now}
}

func (f *fixture) saveMeal(t *testing.T, index int, m nutrition.Macros) {
	t.Helper()
	require.NoError(t, f.meals.Append(context.Background(), nutrition.MealRecord{
		ID:        uuid.New(),
		Timestamp: f.now,
		MealIndex: index,
		MealName:  "Breakfast",
		Estimate:  nutrition.FoodEstimate{Totals: m},
		Macros:    m,
	}))
}

func TestSummarizeBuildsRequestFromLedger(t *testing.T) {
	f := newFixture(t, true)
	f.saveMeal(t, 1, nutrition.Macros{ProteinG: 30, FatG: 15, CarbG: 50, Kcal: 500})

	out, err := f.service.Summarize(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, []string{"protein on target"}, out.SummaryPoints)

	req := f.summarizer.got
	require.Equal(t, "2026-03-14", req.Date)
	require.Equal(t, "T2D", req.DiabetesType)
	require.Len(t, req.Meals, 1)
	require.Equal(t, float64(2000), req.DailyTargets.Kcal)
	require.Equal(t, float64(500), req.TotalConsumed.Kcal)
}

func TestSummarizeServesCachedCopy(t *testing.T) {
	f := newFixture(t, true)
	f.saveMeal(t, 1, nutrition.Macros{ProteinG: 30, Kcal: 500})

	_, err := f.service.Summarize(context.Background(), false)
	require.NoError(t, err)
	_, err = f.service.Summarize(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 1, f.summarizer.calls)
}

func TestSummarizeForceBypassesCache(t *testing.T) {
	f := newFixture(t, true)
	f.saveMeal(t, 1, nutrition.Macros{ProteinG: 30, Kcal: 500})

	_, err := f.service.Summarize(context.Background(), false)
	require.NoError(t, err)
	_, err = f.service.Summarize(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, 2, f.summarizer.calls)
}

func TestSummarizeCacheExpiresAtEndOfDay(t *testing.T) {
	f := newFixture(t, true)
	f.saveMeal(t, 1, nutrition.Macros{ProteinG: 30, Kcal: 500})

	_, err := f.service.Summarize(context.Background(), false)
	require.NoError(t, err)

	// Past midnight the cached entry is gone.
	f.cache.SetNow(func() time.Time { return f.now.Add(6 * time.Hour) })
	_, ok, err := f.cache.Get(context.Background(), "2026-03-14")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSummarizeRequiresRegistration(t *testing.T) {
	f := newFixture(t, false)
	_, err := f.service.Summarize(context.Background(), false)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeNotRegistered))
	require.Zero(t, f.summarizer.calls)
}

func TestSummarizeEmptyDayIsRejected(t *testing.T) {
	f := newFixture(t, true)
	_, err := f.service.Summarize(context.Background(), false)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Zero(t, f.summarizer.calls)
}

func TestSummarizerFailureIsNotCached(t *testing.T) {
	f := newFixture(t, true)
	f.saveMeal(t, 1, nutrition.Macros{ProteinG: 30, Kcal: 500})
	f.summarizer.err = apperrors.Wrap(apperrors.CodeRemoteFailure, "model unavailable", nil)

	_, err := f.service.Summarize(context.Background(), false)
	require.True(t, apperrors.IsCode(err, apperrors.CodeRemoteFailure))

	f.summarizer.err = nil
	_, err = f.service.Summarize(context.Background(), false)
	require.NoError(t, err)
	require.Equal(t, 2, f.summarizer.calls)
}
