package profilerepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/healapp/mealtrack/internal/domain/nutrition"
	"github.com/healapp/mealtrack/internal/domain/profile"
	apperrors "github.com/healapp/mealtrack/pkg/errors"
)

// SQLiteRepository persists the profile and budget as two independently
// keyed JSON records in a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens (or creates) the database at path.
func NewSQLiteRepository(path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open profile database: %w", err)
	}
	repo := &SQLiteRepository{db: db}
	if err := repo.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize profile schema: %w", err)
	}
	return repo, nil
}

// Close releases the database handle.
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepository) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS registration (
        key TEXT PRIMARY KEY,
        payload TEXT NOT NULL,
        updated_at TEXT NOT NULL
    );
    `
	if _, err := r.db.Exec(schema); err != nil {
		return fmt.Errorf("create registration schema: %w", err)
	}
	return nil
}

// SaveProfile stores the profile record, replacing any previous one.
func (r *SQLiteRepository) SaveProfile(ctx context.Context, p nutrition.UserProfile) error {
	return r.save(ctx, keyProfile, p)
}

// SaveBudget stores the budget record, replacing any previous one.
func (r *SQLiteRepository) SaveBudget(ctx context.Context, b nutrition.DailyBudget) error {
	return r.save(ctx, keyBudget, b)
}

// LoadProfile restores the profile record if present.
func (r *SQLiteRepository) LoadProfile(ctx context.Context) (nutrition.UserProfile, bool, error) {
	var p nutrition.UserProfile
	found, err := r.load(ctx, keyProfile, &p)
	return p, found, err
}

// LoadBudget restores the budget record if present.
func (r *SQLiteRepository) LoadBudget(ctx context.Context) (nutrition.DailyBudget, bool, error) {
	var b nutrition.DailyBudget
	found, err := r.load(ctx, keyBudget, &b)
	return b, found, err
}

func (r *SQLiteRepository) save(ctx context.Context, key string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s record: %w", key, err)
	}
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO registration (key, payload, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
    `, key, string(payload), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("store %s record: %w", key, err)
	}
	return nil
}

func (r *SQLiteRepository) load(ctx context.Context, key string, v any) (bool, error) {
	var payload string
	err := r.db.QueryRowContext(ctx, `SELECT payload FROM registration WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s record: %w", key, err)
	}
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return false, apperrors.Wrap(apperrors.CodePersistenceCorrupt, "decode "+key+" record", err)
	}
	return true, nil
}

var _ profile.Repository = (*SQLiteRepository)(nil)
