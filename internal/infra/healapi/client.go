package healapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/healapp/mealtrack/internal/domain/capture"
	"github.com/healapp/mealtrack/internal/domain/nutrition"
	"github.com/healapp/mealtrack/internal/domain/profile"
	"github.com/healapp/mealtrack/internal/domain/reminder"
	"github.com/healapp/mealtrack/internal/domain/summary"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
)

const defaultBaseURL = "http://localhost:8000"

// Config controls the remote call policy. Every call gets an explicit
// timeout and at most one retry on transport or server failures.
type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MaxAttempts int
	Backoff     time.Duration
}

// Client performs HTTP requests against the Heal nutrition API. It is the
// single implementation of every remote service contract in the domain.
type Client struct {
	baseURL     string
	maxAttempts int
	backoff     time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient constructs the API client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 2
	}
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 250 * time.Millisecond
	}
	return &Client{
		baseURL:     strings.TrimRight(baseURL, "/"),
		maxAttempts: attempts,
		backoff:     backoff,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger.With("component", "healapi.client"),
	}
}

type budgetRequest struct {
	HeightCm      float64 `json:"height_cm"`
	WeightKg      float64 `json:"weight_kg"`
	Age           int     `json:"age"`
	Sex           string  `json:"sex"`
	ExerciseLevel string  `json:"exercise_level"`
	DiabetesType  string  `json:"diabetes_type"`
	MealsPerDay   int     `json:"meals_per_day"`
}

// ComputeBudget derives the daily budget for a profile.
func (c *Client) ComputeBudget(ctx context.Context, p nutrition.UserProfile) (nutrition.DailyBudget, error) {
	var out nutrition.DailyBudget
	err := c.postJSON(ctx, "/budget", budgetRequest{
		HeightCm:      p.HeightCm,
		WeightKg:      p.WeightKg,
		Age:           p.Age,
		Sex:           p.Sex,
		ExerciseLevel: p.ExerciseLevel,
		DiabetesType:  p.DiabetesType,
		MealsPerDay:   p.MealsPerDay,
	}, &out)
	return out, err
}

// EstimateMeal uploads the meal photo as multipart form data and returns
// the structured estimate. Each decoded item receives its local identity
// here, exactly once.
func (c *Client) EstimateMeal(ctx context.Context, imageJPEG []byte) (nutrition.FoodEstimate, error) {
	var out nutrition.FoodEstimate
	body, err := c.doRetry(ctx, "/estimate", func() (*http.Request, error) {
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="image"; filename="photo.jpg"`)
		header.Set("Content-Type", "image/jpeg")
		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("build multipart form: %w", err)
		}
		if _, err := part.Write(imageJPEG); err != nil {
			return nil, fmt.Errorf("write image part: %w", err)
		}
		if err := writer.Close(); err != nil {
			return nil, fmt.Errorf("finish multipart form: %w", err)
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/estimate", &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req, nil
	})
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return nutrition.FoodEstimate{}, decodeFailure("/estimate", err)
	}
	assignItemIdentity(out.Items)
	return out, nil
}

// CompareMeal scores the estimate against the registered budget.
func (c *Client) CompareMeal(ctx context.Context, req capture.CompareRequest) (nutrition.MealComparison, error) {
	var out nutrition.MealComparison
	err := c.postJSON(ctx, "/llm/compare", req, &out)
	return out, err
}

// SuggestActions generates corrective actions for the meal. Each decoded
// action receives its local identity here, exactly once.
func (c *Client) SuggestActions(ctx context.Context, req capture.SuggestRequest) (nutrition.MealSuggestions, error) {
	var out nutrition.MealSuggestions
	if err := c.postJSON(ctx, "/llm/suggestions", req, &out); err != nil {
		return nutrition.MealSuggestions{}, err
	}
	assignActionIdentity(out.Actions)
	return out, nil
}

// SummarizeDay produces the end-of-day narrative.
func (c *Client) SummarizeDay(ctx context.Context, req summary.Request) (nutrition.DailySummary, error) {
	var out nutrition.DailySummary
	err := c.postJSON(ctx, "/llm/daily_summary", req, &out)
	return out, err
}

// ReminderCopy generates short notification text.
func (c *Client) ReminderCopy(ctx context.Context, req reminder.Request) (nutrition.ReminderCopy, error) {
	var out nutrition.ReminderCopy
	err := c.postJSON(ctx, "/llm/copy", req, &out)
	return out, err
}

func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s request: %w", path, err)
	}
	body, err := c.doRetry(ctx, path, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(encoded))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return decodeFailure(path, err)
	}
	return nil
}

// doRetry executes the request, retrying once on transport errors and
// server-side (5xx) statuses. Client errors and undecodable responses are
// never retried.
func (c *Client) doRetry(ctx context.Context, path string, build func() (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, apperrors.Wrap(apperrors.CodeRemoteFailure, path+" cancelled", ctx.Err())
			case <-time.After(c.backoff):
			}
			c.logger.Debug("retrying remote call", "path", path, "attempt", attempt)
		}

		req, err := build()
		if err != nil {
			return nil, fmt.Errorf("build %s request: %w", path, err)
		}
		body, retryable, err := c.do(req, path)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) do(req *http.Request, path string) (body []byte, retryable bool, err error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, false, apperrors.Wrap(apperrors.CodeRemoteFailure, path+" cancelled", err)
		}
		return nil, true, apperrors.Wrap(apperrors.CodeRemoteFailure, path+" request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		err := apperrors.Wrap(apperrors.CodeRemoteFailure,
			fmt.Sprintf("%s failed: status=%d body=%s", path, resp.StatusCode, strings.TrimSpace(string(payload))), nil)
		return nil, resp.StatusCode >= 500, err
	}

	body, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, apperrors.Wrap(apperrors.CodeRemoteFailure, "read "+path+" response", err)
	}
	return body, false, nil
}

func decodeFailure(path string, err error) error {
	return apperrors.Wrap(apperrors.CodeDecodeFailure, "decode "+path+" response", err)
}

func assignItemIdentity(items []nutrition.FoodItem) {
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
	}
}

func assignActionIdentity(actions []nutrition.Action) {
	for i := range actions {
		if actions[i].ID == uuid.Nil {
			actions[i].ID = uuid.New()
		}
	}
}

// Compile-time checks that the client satisfies every remote contract.
var (
	_ profile.BudgetService = (*Client)(nil)
	_ capture.Estimator     = (*Client)(nil)
	_ capture.Comparer      = (*Client)(nil)
	_ capture.Suggester     = (*Client)(nil)
	_ summary.Summarizer    = (*Client)(nil)
	_ reminder.CopyWriter   = (*Client)(nil)
)
