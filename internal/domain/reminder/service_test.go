package reminder_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/healapp/mealtrack/internal/domain/nutrition"
	"github.com/healapp/mealtrack/internal/domain/reminder"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
	"github.com/healapp/mealtrack/pkg/logger"
)

type stubWriter struct {
	calls int
	got   reminder.Request
	text  nutrition.ReminderCopy
}

func (s *stubWriter) ReminderCopy(_ context.Context, req reminder.Request) (nutrition.ReminderCopy, error) {
	s.calls++
	s.got = req
	return s.text, nil
}

func TestPhotoReminderCarriesVoiceSettings(t *testing.T) {
	writer := &stubWriter{text: nutrition.ReminderCopy{Title: "Lunch time", Body: "Snap your plate"}}
	svc := reminder.NewService(reminder.Config{Tone: "friendly", Locale: "en"}, writer, logger.New())

	out, err := svc.PhotoReminder(context.Background(), "Lunch", 3)
	require.NoError(t, err)
	require.Equal(t, "Lunch time", out.Title)

	require.Equal(t, reminder.KindPhotoReminder, writer.got.Type)
	require.Equal(t, "Lunch", writer.got.MealName)
	require.Equal(t, 3, writer.got.MealsPerDay)
	require.Equal(t, "friendly", writer.got.Tone)
	require.Equal(t, "en", writer.got.Locale)
}

func TestOverLimitNamesExceededMacros(t *testing.T) {
	writer := &stubWriter{text: nutrition.ReminderCopy{Title: "Heads up"}}
	svc := reminder.NewService(reminder.Config{}, writer, logger.New())

	_, err := svc.OverLimit(context.Background(), "Dinner", map[string]float64{"carb_g": 30})
	require.NoError(t, err)
	require.Equal(t, reminder.KindOverLimit, writer.got.Type)
	require.Equal(t, map[string]float64{"carb_g": 30}, writer.got.OverLimit)
}

func TestOverLimitRequiresExceededMacros(t *testing.T) {
	writer := &stubWriter{}
	svc := reminder.NewService(reminder.Config{}, writer, logger.New())

	_, err := svc.OverLimit(context.Background(), "Dinner", nil)
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	require.Zero(t, writer.calls)
}
