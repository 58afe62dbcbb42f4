package mealrepo

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/healapp/mealtrack/internal/domain/ledger"
	"github.com/healapp/mealtrack/internal/domain/nutrition"
)

// SQLiteStore persists meal records in a local SQLite database. Rows are
// keyed by day so past days accumulate as history.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open meal database: %w", err)
	}
	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize meal schema: %w", err)
	}
	return store, nil
}

// Close releases the database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS meals (
        id TEXT PRIMARY KEY,
        day TEXT NOT NULL,
        meal_index INTEGER NOT NULL,
        meal_name TEXT NOT NULL,
        timestamp TEXT NOT NULL,
        protein_g REAL NOT NULL,
        fat_g REAL NOT NULL,
        carb_g REAL NOT NULL,
        kcal REAL NOT NULL,
        estimate TEXT NOT NULL,
        image_key TEXT NOT NULL DEFAULT ''
    );

    CREATE INDEX IF NOT EXISTS idx_meals_day ON meals(day, meal_index);
    `
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create meal schema: %w", err)
	}
	return nil
}

// Append inserts one saved meal.
func (s *SQLiteStore) Append(ctx context.Context, day string, rec nutrition.MealRecord) error {
	estimate, err := json.Marshal(rec.Estimate)
	if err != nil {
		return fmt.Errorf("encode estimate: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
        INSERT INTO meals (id, day, meal_index, meal_name, timestamp, protein_g, fat_g, carb_g, kcal, estimate, image_key)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `, rec.ID.String(), day, rec.MealIndex, rec.MealName, rec.Timestamp.UTC().Format(time.RFC3339Nano),
		rec.Macros.ProteinG, rec.Macros.FatG, rec.Macros.CarbG, rec.Macros.Kcal, string(estimate), rec.ImageKey)
	if err != nil {
		return fmt.Errorf("insert meal: %w", err)
	}
	return nil
}

// Day returns the day's meals ordered by meal index.
func (s *SQLiteStore) Day(ctx context.Context, day string) ([]nutrition.MealRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT id, meal_index, meal_name, timestamp, protein_g, fat_g, carb_g, kcal, estimate, image_key
        FROM meals
        WHERE day = ?
        ORDER BY meal_index
    `, day)
	if err != nil {
		return nil, fmt.Errorf("query meals: %w", err)
	}
	defer rows.Close()

	var records []nutrition.MealRecord
	for rows.Next() {
		var (
			rec          nutrition.MealRecord
			id           string
			timestampStr string
			estimateJSON string
		)
		if err := rows.Scan(&id, &rec.MealIndex, &rec.MealName, &timestampStr,
			&rec.Macros.ProteinG, &rec.Macros.FatG, &rec.Macros.CarbG, &rec.Macros.Kcal,
			&estimateJSON, &rec.ImageKey); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		if rec.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse meal id: %w", err)
		}
		if rec.Timestamp, err = time.Parse(time.RFC3339Nano, timestampStr); err != nil {
			return nil, fmt.Errorf("parse meal timestamp: %w", err)
		}
		if err := json.Unmarshal([]byte(estimateJSON), &rec.Estimate); err != nil {
			return nil, fmt.Errorf("decode estimate: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear removes a day's meals.
func (s *SQLiteStore) Clear(ctx context.Context, day string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM meals WHERE day = ?`, day); err != nil {
		return fmt.Errorf("clear meals: %w", err)
	}
	return nil
}

var _ ledger.Store = (*SQLiteStore)(nil)
