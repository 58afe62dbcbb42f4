package capture

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/healapp/mealtrack/internal/domain/ledger"
	"github.com/healapp/mealtrack/internal/domain/nutrition"
	"github.com/healapp/mealtrack/internal/domain/profile"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
	"github.com/healapp/mealtrack/pkg/metrics"
)

// State names one node of the per-capture state machine.
type State string

const (
	StateIdle       State = "idle"
	StateEstimating State = "estimating"
	StateComparing  State = "comparing"
	StateSuggesting State = "suggesting"
	StateReady      State = "ready"
	StateFailed     State = "failed"
)

// Stage names used in failures and diagnostics.
const (
	StageEstimate = "estimate"
	StageCompare  = "compare"
	StageSuggest  = "suggest"
)

var jpegMagic = []byte{0xFF, 0xD8}

// Result is the completed triple held in the Ready state, available for an
// explicit save.
type Result struct {
	MealIndex      int                       `json:"meal_index"`
	MealName       string                    `json:"meal_name"`
	Estimate       nutrition.FoodEstimate    `json:"estimate"`
	Comparison     nutrition.MealComparison  `json:"comparison"`
	Suggestions    nutrition.MealSuggestions `json:"suggestions"`
	ConsumedBefore nutrition.Macros          `json:"consumed_before"`
	DailyRemaining nutrition.Macros          `json:"daily_remaining"`
	Timings        metrics.StageTimings      `json:"timings"`
}

// Failure records which stage aborted the attempt.
type Failure struct {
	Stage string `json:"stage"`
	Err   error  `json:"-"`
}

// Status is the observable pipeline state.
type Status struct {
	State        State  `json:"state"`
	FailedStage  string `json:"failed_stage,omitempty"`
	FailureError string `json:"failure_error,omitempty"`
}

// Pipeline drives one capture-to-save cycle through the three remote
// evaluation stages. Captures are serialized: starting a new capture
// discards any attempt still in flight, and every stage completion is
// guarded by a per-attempt token so a stale remote response can never
// advance a newer attempt.
type Pipeline struct {
	mu      sync.Mutex
	state   State
	attempt uuid.UUID
	image   []byte
	result  *Result
	failure *Failure

	profiles  *profile.Store
	meals     *ledger.Service
	estimator Estimator
	comparer  Comparer
	suggester Suggester
	images    ImageStore
	logger    *slog.Logger
	now       func() time.Time
}

// NewPipeline wires up the meal evaluation pipeline.
func NewPipeline(profiles *profile.Store, meals *ledger.Service, estimator Estimator, comparer Comparer, suggester Suggester, images ImageStore, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		state:     StateIdle,
		profiles:  profiles,
		meals:     meals,
		estimator: estimator,
		comparer:  comparer,
		suggester: suggester,
		images:    images,
		logger:    logger.With("component", "capture.pipeline"),
		now:       time.Now,
	}
}

// SetNow overrides the pipeline clock for tests.
func (p *Pipeline) SetNow(now func() time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.now = now
}

// Status reports the current state for display.
func (p *Pipeline) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	st := Status{State: p.state}
	if p.failure != nil {
		st.FailedStage = p.failure.Stage
		if p.failure.Err != nil {
			st.FailureError = p.failure.Err.Error()
		}
	}
	return st
}

// Result returns the Ready triple, or false when no save is permitted.
func (p *Pipeline) Result() (Result, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != StateReady || p.result == nil {
		return Result{}, false
	}
	return *p.result, true
}

// Retake discards all in-progress and completed results from any state.
// The attempt token rotates, so a remote response still in flight is
// ignored when it eventually lands.
func (p *Pipeline) Retake() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.resetLocked()
}

func (p *Pipeline) resetLocked() {
	p.state = StateIdle
	p.attempt = uuid.New()
	p.image = nil
	p.result = nil
	p.failure = nil
}

// Capture runs the full estimate → compare → suggest sequence for one meal
// photo and leaves the pipeline Ready on success. The three stages are
// deliberately sequential: comparison needs the estimate, and the
// suggestion's remaining budget must share the comparison's consumed
// baseline.
func (p *Pipeline) Capture(ctx context.Context, imageJPEG []byte) (Result, error) {
	if len(imageJPEG) == 0 || !bytes.HasPrefix(imageJPEG, jpegMagic) {
		return Result{}, apperrors.Wrap(apperrors.CodeInvalidImage, "capture produced no usable JPEG bytes", nil)
	}
	snap := p.profiles.Snapshot()
	if !snap.Registered {
		return Result{}, apperrors.Wrap(apperrors.CodeNotRegistered, "register a profile before capturing meals", nil)
	}

	// Baseline before this meal: consumed total and the 1-based index this
	// capture will occupy, both fixed at capture begin.
	consumed, err := p.meals.ConsumedSoFar(ctx)
	if err != nil {
		return Result{}, err
	}
	mealIndex, err := p.meals.NextMealIndex(ctx)
	if err != nil {
		return Result{}, err
	}
	mealName := MealName(mealIndex)

	p.mu.Lock()
	if p.state != StateIdle {
		// A newer capture supersedes whatever was in flight.
		p.resetLocked()
	}
	p.state = StateEstimating
	p.attempt = uuid.New()
	p.image = imageJPEG
	token := p.attempt
	p.mu.Unlock()

	p.logger.Info("capture started", "meal_index", mealIndex, "meal_name", mealName, "image_bytes", len(imageJPEG))

	var timings metrics.StageTimings

	started := p.now()
	estimate, err := p.estimator.EstimateMeal(ctx, imageJPEG)
	timings.EstimateMs = p.now().Sub(started).Milliseconds()
	if err != nil {
		return Result{}, p.fail(token, StageEstimate, err)
	}
	if !p.advance(token, StateComparing) {
		return Result{}, staleAttempt()
	}

	started = p.now()
	comparison, err := p.comparer.CompareMeal(ctx, CompareRequest{
		PerMealTargets:     snap.Budget.PerMealTargets,
		DailyTargets:       snap.Budget.DailyBudget,
		DailyConsumedSoFar: consumed,
		CurrentMeal:        estimate.Totals,
		MealIndex:          mealIndex,
		MealsPerDay:        snap.Profile.MealsPerDay,
		MealName:           mealName,
		DiabetesType:       snap.Profile.DiabetesType,
	})
	timings.CompareMs = p.now().Sub(started).Milliseconds()
	if err != nil {
		return Result{}, p.fail(token, StageCompare, err)
	}
	if !p.advance(token, StateSuggesting) {
		return Result{}, staleAttempt()
	}

	remaining := snap.Budget.DailyBudget.Sub(consumed)
	started = p.now()
	suggestions, err := p.suggester.SuggestActions(ctx, SuggestRequest{
		Estimate:       estimate,
		PerMealTargets: snap.Budget.PerMealTargets,
		DailyRemaining: remaining,
		MealName:       mealName,
		DiabetesType:   snap.Profile.DiabetesType,
	})
	timings.SuggestMs = p.now().Sub(started).Milliseconds()
	if err != nil {
		return Result{}, p.fail(token, StageSuggest, err)
	}

	result := Result{
		MealIndex:      mealIndex,
		MealName:       mealName,
		Estimate:       estimate,
		Comparison:     comparison,
		Suggestions:    suggestions,
		ConsumedBefore: consumed,
		DailyRemaining: remaining,
		Timings:        timings,
	}

	p.mu.Lock()
	if p.attempt != token {
		p.mu.Unlock()
		return Result{}, staleAttempt()
	}
	p.state = StateReady
	p.result = &result
	p.mu.Unlock()

	p.logger.Info("capture ready", "meal_index", mealIndex, "kcal", estimate.Totals.Kcal, "total_ms", timings.TotalMs())
	return result, nil
}

// Save turns the Ready triple into a MealRecord, persists the photo and
// appends the record to the ledger, then returns the pipeline to Idle.
func (p *Pipeline) Save(ctx context.Context) (nutrition.MealRecord, error) {
	p.mu.Lock()
	if p.state != StateReady || p.result == nil {
		state := p.state
		p.mu.Unlock()
		return nutrition.MealRecord{}, apperrors.Wrap(apperrors.CodeInvalidState,
			fmt.Sprintf("save requires a completed evaluation, pipeline is %s", state), nil)
	}
	result := *p.result
	image := p.image
	p.mu.Unlock()

	rec := nutrition.MealRecord{
		ID:        uuid.New(),
		Timestamp: p.now(),
		MealIndex: result.MealIndex,
		MealName:  result.MealName,
		Estimate:  result.Estimate,
		Macros:    result.Estimate.Totals,
	}
	if len(image) > 0 && p.images != nil {
		key := fmt.Sprintf("meals/%s.jpg", rec.ID)
		if err := p.images.Put(ctx, key, image); err != nil {
			return nutrition.MealRecord{}, apperrors.Wrap(apperrors.CodeStorageFailure, "store meal photo", err)
		}
		rec.ImageKey = key
	}

	if err := p.meals.Append(ctx, rec); err != nil {
		if rec.ImageKey != "" {
			if delErr := p.images.Delete(ctx, rec.ImageKey); delErr != nil {
				p.logger.Warn("orphaned meal photo not removed", "key", rec.ImageKey, "error", delErr)
			}
		}
		return nutrition.MealRecord{}, err
	}

	p.mu.Lock()
	p.resetLocked()
	p.mu.Unlock()
	return rec, nil
}

// advance moves to the next stage iff the attempt is still current.
func (p *Pipeline) advance(token uuid.UUID, next State) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.attempt != token {
		return false
	}
	p.state = next
	return true
}

// fail records the aborting stage iff the attempt is still current; a stale
// attempt's failure is discarded entirely.
func (p *Pipeline) fail(token uuid.UUID, stage string, err error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.attempt != token {
		return staleAttempt()
	}
	p.state = StateFailed
	p.failure = &Failure{Stage: stage, Err: err}
	p.logger.Warn("capture failed", "stage", stage, "error", err)
	code := apperrors.Code(err)
	if code == "" {
		code = apperrors.CodeRemoteFailure
	}
	return apperrors.Wrap(code, fmt.Sprintf("%s stage failed", stage), err)
}

func staleAttempt() error {
	return apperrors.Wrap(apperrors.CodeStaleAttempt, "capture superseded by a newer attempt", nil)
}
