package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/healapp/mealtrack/internal/domain/nutrition"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
	"github.com/healapp/mealtrack/pkg/util"
)

// Service is the append-only per-day meal ledger. The consumed aggregate is
// always recomputed from the day's records, never drifted incrementally.
type Service struct {
	mu       sync.Mutex
	day      string
	store    Store
	location *time.Location
	logger   *slog.Logger
	now      func() time.Time
}

// NewService wires up the ledger for the given timezone.
func NewService(store Store, location *time.Location, logger *slog.Logger) *Service {
	if location == nil {
		location = time.UTC
	}
	return &Service{
		store:    store,
		location: location,
		logger:   logger.With("component", "ledger.service"),
		now:      time.Now,
	}
}

// SetNow overrides the ledger clock for tests.
func (s *Service) SetNow(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Today returns the current day's records in insertion order, rolling the
// ledger over first if the calendar day has changed.
func (s *Service) Today(ctx context.Context) ([]nutrition.MealRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.todayLocked(ctx)
}

// ConsumedSoFar is the field-wise sum over today's records.
func (s *Service) ConsumedSoFar(ctx context.Context) (nutrition.Macros, error) {
	records, err := s.Today(ctx)
	if err != nil {
		return nutrition.Macros{}, err
	}
	macros := make([]nutrition.Macros, len(records))
	for i, rec := range records {
		macros[i] = rec.Macros
	}
	return nutrition.SumMacros(macros), nil
}

// NextMealIndex is the 1-based index a capture starting now would get.
func (s *Service) NextMealIndex(ctx context.Context) (int, error) {
	records, err := s.Today(ctx)
	if err != nil {
		return 0, err
	}
	return len(records) + 1, nil
}

// Append adds a saved meal. The record's MealIndex must equal the ledger
// size plus one at the time of the call; a record carrying a stale index is
// rejected rather than renumbered, so the caller can re-run its capture
// against the fresh ledger state.
func (s *Service) Append(ctx context.Context, rec nutrition.MealRecord) error {
	if !rec.Macros.Valid() {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "meal macros cannot be negative", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.todayLocked(ctx)
	if err != nil {
		return err
	}
	if want := len(records) + 1; rec.MealIndex != want {
		return apperrors.Wrap(apperrors.CodeInvalidInput,
			fmt.Sprintf("meal index %d conflicts with ledger size %d", rec.MealIndex, len(records)), nil)
	}
	if err := s.store.Append(ctx, s.day, rec); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageFailure, "persist meal record", err)
	}
	s.logger.Info("meal saved", "day", s.day, "meal_index", rec.MealIndex, "meal_name", rec.MealName, "kcal", rec.Macros.Kcal)
	return nil
}

// ResetDay clears today's records; the consumed aggregate follows since it
// is derived from them.
func (s *Service) ResetDay(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.todayLocked(ctx); err != nil {
		return err
	}
	if err := s.store.Clear(ctx, s.day); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageFailure, "clear ledger day", err)
	}
	s.logger.Info("ledger day reset", "day", s.day)
	return nil
}

// todayLocked resolves the current day key, rolling over when the calendar
// day changed. Records of past days stay in the store as history.
func (s *Service) todayLocked(ctx context.Context) ([]nutrition.MealRecord, error) {
	day := util.DayKey(s.now(), s.location)
	if s.day != day {
		if s.day != "" {
			s.logger.Info("ledger rolled over", "from", s.day, "to", day)
		}
		s.day = day
	}
	records, err := s.store.Day(ctx, day)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeStorageFailure, "load ledger day", err)
	}
	return records, nil
}
