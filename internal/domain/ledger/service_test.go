package ledger_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/healapp/mealtrack/internal/domain/ledger"
	"github.com/healapp/mealtrack/internal/domain/nutrition"
	"github.com/healapp/mealtrack/internal/infra/mealrepo"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func record(index int, macros nutrition.Macros) nutrition.MealRecord {
	return nutrition.MealRecord{
		ID:        uuid.New(),
		Timestamp: time.Date(2026, 3, 14, 8+4*index, 0, 0, 0, time.UTC),
		MealIndex: index,
		MealName:  fmt.Sprintf("Meal %d", index),
		Macros:    macros,
	}
}

func fixedClock(svc *ledger.Service, at time.Time) {
	svc.SetNow(func() time.Time { return at })
}

func TestConsumedSoFarEqualsFieldwiseSum(t *testing.T) {
	svc := ledger.NewService(mealrepo.NewMemoryStore(), time.UTC, testLogger())
	fixedClock(svc, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	meals := []nutrition.Macros{
		{ProteinG: 50, FatG: 20, CarbG: 80, Kcal: 750},
		{ProteinG: 30, FatG: 15, CarbG: 60, Kcal: 510},
		{ProteinG: 25, FatG: 10, CarbG: 45, Kcal: 370},
	}
	for i, m := range meals {
		require.NoError(t, svc.Append(ctx, record(i+1, m)))
	}

	consumed, err := svc.ConsumedSoFar(ctx)
	require.NoError(t, err)
	require.Equal(t, nutrition.SumMacros(meals), consumed)

	today, err := svc.Today(ctx)
	require.NoError(t, err)
	require.Len(t, today, 3)
	for i, rec := range today {
		require.Equal(t, i+1, rec.MealIndex)
	}
}

func TestAppendRejectsStaleMealIndex(t *testing.T) {
	svc := ledger.NewService(mealrepo.NewMemoryStore(), time.UTC, testLogger())
	fixedClock(svc, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, record(1, nutrition.Macros{Kcal: 500})))

	// Index computed before another save landed: rejected, not renumbered.
	err := svc.Append(ctx, record(1, nutrition.Macros{Kcal: 400}))
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	err = svc.Append(ctx, record(5, nutrition.Macros{Kcal: 400}))
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	today, err := svc.Today(ctx)
	require.NoError(t, err)
	require.Len(t, today, 1)
}

func TestAppendRejectsNegativeMacros(t *testing.T) {
	svc := ledger.NewService(mealrepo.NewMemoryStore(), time.UTC, testLogger())
	fixedClock(svc, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC))

	rec := record(1, nutrition.Macros{ProteinG: -1})
	err := svc.Append(context.Background(), rec)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestResetDayClearsRecordsAndAggregate(t *testing.T) {
	svc := ledger.NewService(mealrepo.NewMemoryStore(), time.UTC, testLogger())
	fixedClock(svc, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, record(1, nutrition.Macros{ProteinG: 50, FatG: 20, CarbG: 80, Kcal: 750})))
	require.NoError(t, svc.ResetDay(ctx))

	today, err := svc.Today(ctx)
	require.NoError(t, err)
	require.Empty(t, today)

	consumed, err := svc.ConsumedSoFar(ctx)
	require.NoError(t, err)
	require.True(t, consumed.IsZero())
}

func TestDayRolloverStartsFreshAndKeepsHistory(t *testing.T) {
	store := mealrepo.NewMemoryStore()
	svc := ledger.NewService(store, time.UTC, testLogger())
	fixedClock(svc, time.Date(2026, 3, 14, 20, 0, 0, 0, time.UTC))
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, record(1, nutrition.Macros{Kcal: 900})))

	// Midnight passes.
	fixedClock(svc, time.Date(2026, 3, 15, 7, 0, 0, 0, time.UTC))

	today, err := svc.Today(ctx)
	require.NoError(t, err)
	require.Empty(t, today)

	consumed, err := svc.ConsumedSoFar(ctx)
	require.NoError(t, err)
	require.True(t, consumed.IsZero())

	idx, err := svc.NextMealIndex(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, idx)

	// Yesterday survives in the backing store.
	history, err := store.Day(ctx, "2026-03-14")
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestMealIndexSequentialAcrossSaves(t *testing.T) {
	svc := ledger.NewService(mealrepo.NewMemoryStore(), time.UTC, testLogger())
	fixedClock(svc, time.Date(2026, 3, 14, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()

	for k := 1; k <= 5; k++ {
		idx, err := svc.NextMealIndex(ctx)
		require.NoError(t, err)
		require.Equal(t, k, idx)
		require.NoError(t, svc.Append(ctx, record(idx, nutrition.Macros{Kcal: float64(100 * k)})))
	}
}
