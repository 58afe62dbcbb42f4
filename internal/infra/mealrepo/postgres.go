package mealrepo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healapp/mealtrack/internal/domain/ledger"
	"github.com/healapp/mealtrack/internal/domain/nutrition"
)

// PostgresStore persists meal records in Postgres for deployments where the
// tracker state should survive the device.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates the store and its schema.
func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	store := &PostgresStore{pool: pool}
	if err := store.initSchema(ctx); err != nil {
		return nil, fmt.Errorf("initialize meal schema: %w", err)
	}
	return store, nil
}

func (s *PostgresStore) initSchema(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS meals (
			id UUID PRIMARY KEY,
			day TEXT NOT NULL,
			meal_index INT NOT NULL,
			meal_name TEXT NOT NULL,
			ts TIMESTAMPTZ NOT NULL,
			protein_g DOUBLE PRECISION NOT NULL,
			fat_g DOUBLE PRECISION NOT NULL,
			carb_g DOUBLE PRECISION NOT NULL,
			kcal DOUBLE PRECISION NOT NULL,
			estimate JSONB NOT NULL,
			image_key TEXT NOT NULL DEFAULT ''
		);
		CREATE INDEX IF NOT EXISTS idx_meals_day ON meals(day, meal_index);
	`)
	return err
}

// Append inserts one saved meal.
func (s *PostgresStore) Append(ctx context.Context, day string, rec nutrition.MealRecord) error {
	estimate, err := json.Marshal(rec.Estimate)
	if err != nil {
		return fmt.Errorf("encode estimate: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO meals (id, day, meal_index, meal_name, ts, protein_g, fat_g, carb_g, kcal, estimate, image_key)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, rec.ID, day, rec.MealIndex, rec.MealName, rec.Timestamp.UTC(),
		rec.Macros.ProteinG, rec.Macros.FatG, rec.Macros.CarbG, rec.Macros.Kcal, estimate, rec.ImageKey)
	if err != nil {
		return fmt.Errorf("insert meal: %w", err)
	}
	return nil
}

// Day returns the day's meals ordered by meal index.
func (s *PostgresStore) Day(ctx context.Context, day string) ([]nutrition.MealRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, meal_index, meal_name, ts, protein_g, fat_g, carb_g, kcal, estimate, image_key
		FROM meals
		WHERE day = $1
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
			id           uuid.UUID
			ts           time.Time
			estimateJSON []byte
		)
		if err := rows.Scan(&id, &rec.MealIndex, &rec.MealName, &ts,
			&rec.Macros.ProteinG, &rec.Macros.FatG, &rec.Macros.CarbG, &rec.Macros.Kcal,
			&estimateJSON, &rec.ImageKey); err != nil {
			return nil, fmt.Errorf("scan meal: %w", err)
		}
		rec.ID = id
		rec.Timestamp = ts.UTC()
		if err := json.Unmarshal(estimateJSON, &rec.Estimate); err != nil {
			return nil, fmt.Errorf("decode estimate: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Clear removes a day's meals.
func (s *PostgresStore) Clear(ctx context.Context, day string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM meals WHERE day = $1`, day); err != nil {
		return fmt.Errorf("clear meals: %w", err)
	}
	return nil
}

var _ ledger.Store = (*PostgresStore)(nil)
