package reminder

import (
	"context"
	"log/slog"

	"github.com/healapp/mealtrack/internal/domain/nutrition"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
)

// Reminder copy kinds understood by the remote service.
const (
	KindPhotoReminder = "photo_reminder"
	KindOverLimit     = "over_limit"
)

// Request asks the remote service for a short piece of notification text.
type Request struct {
	Type        string             `json:"type"`
	Locale      string             `json:"locale,omitempty"`
	MealName    string             `json:"meal_name,omitempty"`
	MealsPerDay int                `json:"meals_per_day,omitempty"`
	Tone        string             `json:"tone,omitempty"`
	OverLimit   map[string]float64 `json:"over_limit,omitempty"`
}

// CopyWriter generates the notification copy remotely.
type CopyWriter interface {
	ReminderCopy(ctx context.Context, req Request) (nutrition.ReminderCopy, error)
}

// Config carries the voice settings applied to every request.
type Config struct {
	Tone   string
	Locale string
}

// Service produces notification copy for meal-time nudges and over-limit
// alerts.
type Service struct {
	cfg    Config
	writer CopyWriter
	logger *slog.Logger
}

// NewService wires up the reminder copy domain.
func NewService(cfg Config, writer CopyWriter, logger *slog.Logger) *Service {
	return &Service{cfg: cfg, writer: writer, logger: logger.With("component", "reminder.service")}
}

// PhotoReminder asks for a nudge to photograph the named meal.
func (s *Service) PhotoReminder(ctx context.Context, mealName string, mealsPerDay int) (nutrition.ReminderCopy, error) {
	return s.generate(ctx, Request{
		Type:        KindPhotoReminder,
		MealName:    mealName,
		MealsPerDay: mealsPerDay,
	})
}

// OverLimit asks for an alert naming the macros that went over, e.g.
// {"protein_g": 12, "carb_g": 30}.
func (s *Service) OverLimit(ctx context.Context, mealName string, overBy map[string]float64) (nutrition.ReminderCopy, error) {
	if len(overBy) == 0 {
		return nutrition.ReminderCopy{}, apperrors.Wrap(apperrors.CodeInvalidInput, "over_limit reminder needs at least one exceeded macro", nil)
	}
	return s.generate(ctx, Request{
		Type:      KindOverLimit,
		MealName:  mealName,
		OverLimit: overBy,
	})
}

func (s *Service) generate(ctx context.Context, req Request) (nutrition.ReminderCopy, error) {
	req.Tone = s.cfg.Tone
	req.Locale = s.cfg.Locale
	text, err := s.writer.ReminderCopy(ctx, req)
	if err != nil {
		return nutrition.ReminderCopy{}, err
	}
	s.logger.Debug("reminder copy generated", "type", req.Type, "meal_name", req.MealName)
	return text, nil
}
