package http

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/healapp/mealtrack/internal/domain/capture"
	"github.com/healapp/mealtrack/internal/domain/ledger"
	"github.com/healapp/mealtrack/internal/domain/nutrition"
	"github.com/healapp/mealtrack/internal/domain/profile"
	"github.com/healapp/mealtrack/internal/domain/reminder"
	"github.com/healapp/mealtrack/internal/domain/summary"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
)

// Photos larger than this are rejected before touching the pipeline.
const maxImageBytes = 10 << 20

// Handler wires the HTTP transport to domain services.
type Handler struct {
	profiles  *profile.Store
	meals     *ledger.Service
	pipeline  *capture.Pipeline
	summaries *summary.Service
	reminders *reminder.Service
	logger    *slog.Logger
}

// NewHandler constructs the root HTTP handler.
func NewHandler(profiles *profile.Store, meals *ledger.Service, pipeline *capture.Pipeline, summaries *summary.Service, reminders *reminder.Service, logger *slog.Logger) *Handler {
	return &Handler{
		profiles:  profiles,
		meals:     meals,
		pipeline:  pipeline,
		summaries: summaries,
		reminders: reminders,
		logger:    logger.With("component", "http.handler"),
	}
}

// Register computes a budget for the submitted profile and stores the pair.
func (h *Handler) Register(c *gin.Context) {
	var req nutrition.UserProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	budget, err := h.profiles.RegisterProfile(c.Request.Context(), req)
	if err != nil {
		abortDomainError(c, err, "register_failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{"registered": true, "budget": budget})
}

// State returns the registration snapshot.
func (h *Handler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.profiles.Snapshot())
}

// MealsToday lists today's saved meals with the consumed and remaining totals.
func (h *Handler) MealsToday(c *gin.Context) {
	records, err := h.meals.Today(c.Request.Context())
	if err != nil {
		abortDomainError(c, err, "ledger_failed")
		return
	}
	consumed, err := h.meals.ConsumedSoFar(c.Request.Context())
	if err != nil {
		abortDomainError(c, err, "ledger_failed")
		return
	}

	resp := gin.H{
		"meals":           records,
		"consumed_so_far": consumed,
		"next_meal_index": len(records) + 1,
	}
	if snap := h.profiles.Snapshot(); snap.Registered {
		resp["daily_remaining"] = snap.Budget.DailyBudget.Sub(consumed)
	}
	c.JSON(http.StatusOK, resp)
}

// MealsReset clears today's ledger.
func (h *Handler) MealsReset(c *gin.Context) {
	if err := h.meals.ResetDay(c.Request.Context()); err != nil {
		abortDomainError(c, err, "ledger_failed")
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// Capture accepts a meal photo and runs the full evaluation pipeline.
func (h *Handler) Capture(c *gin.Context) {
	file, _, err := c.Request.FormFile("image")
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "multipart field 'image' is required", err))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "read image upload", err))
		return
	}
	if len(image) > maxImageBytes {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_image", "image exceeds "+strconv.Itoa(maxImageBytes)+" bytes", nil))
		return
	}

	result, err := h.pipeline.Capture(c.Request.Context(), image)
	if err != nil {
		abortDomainError(c, err, "capture_failed")
		return
	}
	c.JSON(http.StatusOK, result)
}

// CaptureSave commits the completed evaluation to the ledger.
func (h *Handler) CaptureSave(c *gin.Context) {
	rec, err := h.pipeline.Save(c.Request.Context())
	if err != nil {
		abortDomainError(c, err, "save_failed")
		return
	}
	c.JSON(http.StatusOK, rec)
}

// CaptureRetake discards the current attempt.
func (h *Handler) CaptureRetake(c *gin.Context) {
	h.pipeline.Retake()
	c.JSON(http.StatusOK, h.pipeline.Status())
}

// CaptureStatus reports the pipeline state, including the ready result.
func (h *Handler) CaptureStatus(c *gin.Context) {
	status := h.pipeline.Status()
	resp := gin.H{"status": status}
	if result, ok := h.pipeline.Result(); ok {
		resp["result"] = result
	}
	c.JSON(http.StatusOK, resp)
}

// SummaryToday produces the end-of-day narrative; ?force=true bypasses the cache.
func (h *Handler) SummaryToday(c *gin.Context) {
	force := c.Query("force") == "true" || c.Query("force") == "1"
	out, err := h.summaries.Summarize(c.Request.Context(), force)
	if err != nil {
		abortDomainError(c, err, "summary_failed")
		return
	}
	c.JSON(http.StatusOK, out)
}

type reminderRequest struct {
	Type        string             `json:"type"`
	MealName    string             `json:"meal_name"`
	MealsPerDay int                `json:"meals_per_day"`
	OverLimit   map[string]float64 `json:"over_limit"`
}

// Reminder generates short notification copy.
func (h *Handler) Reminder(c *gin.Context) {
	var req reminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", errMessage(err), err))
		return
	}

	var (
		out nutrition.ReminderCopy
		err error
	)
	switch req.Type {
	case reminder.KindPhotoReminder:
		out, err = h.reminders.PhotoReminder(c.Request.Context(), req.MealName, req.MealsPerDay)
	case reminder.KindOverLimit:
		out, err = h.reminders.OverLimit(c.Request.Context(), req.MealName, req.OverLimit)
	default:
		abortWithError(c, NewHTTPError(http.StatusBadRequest, "invalid_request", "type must be photo_reminder or over_limit", nil))
		return
	}
	if err != nil {
		abortDomainError(c, err, "reminder_failed")
		return
	}
	c.JSON(http.StatusOK, out)
}

// abortDomainError maps domain error codes onto HTTP statuses.
func abortDomainError(c *gin.Context, err error, fallbackCode string) {
	status := http.StatusInternalServerError
	code := apperrors.Code(err)
	switch {
	case apperrors.IsCode(err, apperrors.CodeInvalidInput),
		apperrors.IsCode(err, apperrors.CodeInvalidImage):
		status = http.StatusBadRequest
	case apperrors.IsCode(err, apperrors.CodeNotRegistered),
		apperrors.IsCode(err, apperrors.CodeInvalidState),
		apperrors.IsCode(err, apperrors.CodeStaleAttempt):
		status = http.StatusConflict
	case apperrors.IsCode(err, apperrors.CodeRemoteFailure),
		apperrors.IsCode(err, apperrors.CodeDecodeFailure):
		status = http.StatusBadGateway
	}
	if code == "" {
		code = fallbackCode
	}
	abortWithError(c, NewHTTPError(status, code, errMessage(err), err))
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
