package profile

import (
	"context"
	"log/slog"
	"sync"

	"github.com/healapp/mealtrack/internal/domain/nutrition"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
)

// Snapshot is the read view of the store handed to subscribers and callers.
type Snapshot struct {
	Registered bool                  `json:"registered"`
	Profile    nutrition.UserProfile `json:"profile"`
	Budget     nutrition.DailyBudget `json:"budget"`
}

// Store owns the user's profile and daily budget. It is the only mutation
// path for registration state; observers subscribe rather than reading
// shared globals.
type Store struct {
	mu         sync.RWMutex
	registered bool
	profile    nutrition.UserProfile
	budget     nutrition.DailyBudget

	repo    Repository
	budgets BudgetService
	logger  *slog.Logger

	subMu sync.Mutex
	subs  []chan Snapshot
}

// NewStore wires up the profile state container.
func NewStore(repo Repository, budgets BudgetService, logger *slog.Logger) *Store {
	return &Store{
		repo:    repo,
		budgets: budgets,
		logger:  logger.With("component", "profile.store"),
	}
}

// Restore loads a previously persisted (profile, budget) pair. Absence of
// either record leaves the store unregistered without error; a record that
// is present but undecodable is logged so corruption is distinguishable
// from a first run.
func (s *Store) Restore(ctx context.Context) {
	prof, foundProfile, err := s.repo.LoadProfile(ctx)
	if err != nil {
		s.logger.Warn("stored profile unusable, starting unregistered", "code", apperrors.Code(err), "error", err)
		return
	}
	budget, foundBudget, err := s.repo.LoadBudget(ctx)
	if err != nil {
		s.logger.Warn("stored budget unusable, starting unregistered", "code", apperrors.Code(err), "error", err)
		return
	}
	if !foundProfile || !foundBudget {
		s.logger.Info("no persisted registration found")
		return
	}

	s.mu.Lock()
	s.profile = prof
	s.budget = budget
	s.registered = true
	s.mu.Unlock()

	s.logger.Info("registration restored", "meals_per_day", prof.MealsPerDay)
	s.notify()
}

// RegisterProfile validates the profile, asks the remote service for a
// budget and registers the pair. A budget failure stores nothing.
func (s *Store) RegisterProfile(ctx context.Context, p nutrition.UserProfile) (nutrition.DailyBudget, error) {
	if err := p.Validate(); err != nil {
		return nutrition.DailyBudget{}, err
	}
	budget, err := s.budgets.ComputeBudget(ctx, p)
	if err != nil {
		return nutrition.DailyBudget{}, err
	}
	if err := s.Register(ctx, p, budget); err != nil {
		return nutrition.DailyBudget{}, err
	}
	return budget, nil
}

// Register stores profile and budget durably, then flips the registered
// flag, so a restart can never observe "registered" without a persisted
// record. Registering again replaces the previous pair wholesale.
func (s *Store) Register(ctx context.Context, p nutrition.UserProfile, b nutrition.DailyBudget) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if !b.DailyBudget.Valid() || !b.PerMealTargets.Valid() {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "budget macros cannot be negative", nil)
	}
	if err := s.repo.SaveProfile(ctx, p); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageFailure, "persist profile", err)
	}
	if err := s.repo.SaveBudget(ctx, b); err != nil {
		return apperrors.Wrap(apperrors.CodeStorageFailure, "persist budget", err)
	}

	s.mu.Lock()
	s.profile = p
	s.budget = b
	s.registered = true
	s.mu.Unlock()

	s.logger.Info("registered", "meals_per_day", p.MealsPerDay, "diabetes_type", p.DiabetesType)
	s.notify()
	return nil
}

// Snapshot returns the current registration state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{Registered: s.registered, Profile: s.profile, Budget: s.budget}
}

// IsRegistered is true iff both a profile and a budget are present.
func (s *Store) IsRegistered() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.registered
}

// Subscribe returns a channel that receives a snapshot after every state
// change. Slow subscribers miss intermediate snapshots rather than
// blocking mutations.
func (s *Store) Subscribe() <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	s.subMu.Lock()
	s.subs = append(s.subs, ch)
	s.subMu.Unlock()
	return ch
}

func (s *Store) notify() {
	snap := s.Snapshot()
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// drop the stale snapshot and leave the fresh one
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
