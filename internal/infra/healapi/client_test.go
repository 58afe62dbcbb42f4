package healapi

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/healapp/mealtrack/internal/domain/capture"
	"github.com/healapp/mealtrack/internal/domain/nutrition"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
	"github.com/healapp/mealtrack/pkg/logger"
)

func testClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(Config{
		BaseURL:     server.URL,
		Timeout:     2 * time.Second,
		MaxAttempts: 2,
		Backoff:     time.Millisecond,
	}, logger.New())
	return client, server
}

func TestComputeBudgetPostsProfileFields(t *testing.T) {
	var got map[string]any
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/budget", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		json.NewEncoder(w).Encode(nutrition.DailyBudget{
			DailyBudget:    nutrition.Macros{ProteinG: 120, FatG: 70, CarbG: 200, Kcal: 2000},
			PerMealTargets: nutrition.Macros{ProteinG: 40, FatG: 23, CarbG: 67, Kcal: 667},
			MealsPerDay:    3,
		})
	}))

	budget, err := client.ComputeBudget(context.Background(), nutrition.UserProfile{
		HeightCm: 172, WeightKg: 70, Age: 34, Sex: "male",
		ExerciseLevel: "moderate", DiabetesType: "T2D", MealsPerDay: 3,
	})
	require.NoError(t, err)
	require.Equal(t, float64(2000), budget.DailyBudget.Kcal)
	require.Equal(t, 3, budget.MealsPerDay)

	require.Equal(t, float64(172), got["height_cm"])
	require.Equal(t, "T2D", got["diabetes_type"])
	require.Equal(t, float64(3), got["meals_per_day"])
	// The profile's meal schedule is local state, never sent upstream.
	require.NotContains(t, got, "meal_times")
}

func TestEstimateMealUploadsMultipartImage(t *testing.T) {
	image := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x01, 0x02}
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/estimate", r.URL.Path)
		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		require.Equal(t, "photo.jpg", header.Filename)
		require.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
		uploaded, err := io.ReadAll(file)
		require.NoError(t, err)
		require.Equal(t, image, uploaded)

		json.NewEncoder(w).Encode(nutrition.FoodEstimate{
			Items: []nutrition.FoodItem{
				{Name: "grilled chicken", Grams: 150},
				{Name: "rice", Grams: 200},
			},
			Totals: nutrition.Macros{ProteinG: 48, FatG: 10, CarbG: 58, Kcal: 520},
		})
	}))

	est, err := client.EstimateMeal(context.Background(), image)
	require.NoError(t, err)
	require.Len(t, est.Items, 2)
	for _, item := range est.Items {
		require.NotEqual(t, uuid.Nil, item.ID)
	}
	require.NotEqual(t, est.Items[0].ID, est.Items[1].ID)
}

func TestSuggestActionsAssignsActionIdentity(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/llm/suggestions", r.URL.Path)
		json.NewEncoder(w).Encode(nutrition.MealSuggestions{
			Actions: []nutrition.Action{
				{Kind: nutrition.ActionPortion, Text: "leave half the rice"},
			},
			Rationale: []string{"carbs over per-meal target"},
		})
	}))

	out, err := client.SuggestActions(context.Background(), capture.SuggestRequest{})
	require.NoError(t, err)
	require.Len(t, out.Actions, 1)
	require.NotEqual(t, uuid.Nil, out.Actions[0].ID)
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, `{"detail":"invalid image"}`, http.StatusUnprocessableEntity)
	}))

	_, err := client.EstimateMeal(context.Background(), []byte{0xFF, 0xD8})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeRemoteFailure))
	require.Contains(t, err.Error(), "status=422")
	require.Equal(t, int32(1), calls.Load())
}

func TestServerErrorIsRetriedOnce(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream model unavailable", http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(nutrition.MealComparison{
			Flags: nutrition.ComparisonFlags{PerMealExceededAny: true},
		})
	}))

	cmp, err := client.CompareMeal(context.Background(), capture.CompareRequest{MealIndex: 1})
	require.NoError(t, err)
	require.True(t, cmp.Flags.PerMealExceededAny)
	require.Equal(t, int32(2), calls.Load())
}

func TestServerErrorExhaustsAttempts(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "still down", http.StatusInternalServerError)
	}))

	_, err := client.CompareMeal(context.Background(), capture.CompareRequest{})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeRemoteFailure))
	require.Equal(t, int32(2), calls.Load())
}

func TestMalformedResponseIsDecodeFailure(t *testing.T) {
	var calls atomic.Int32
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.WriteString(w, `{"actions": "not a list"`)
	}))

	_, err := client.SuggestActions(context.Background(), capture.SuggestRequest{})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeDecodeFailure))
	require.Equal(t, int32(1), calls.Load())
}

func TestTransportFailureIsRemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	client := NewClient(Config{
		BaseURL:     server.URL,
		Timeout:     time.Second,
		MaxAttempts: 2,
		Backoff:     time.Millisecond,
	}, logger.New())

	_, err := client.ComputeBudget(context.Background(), nutrition.UserProfile{})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeRemoteFailure))
}
