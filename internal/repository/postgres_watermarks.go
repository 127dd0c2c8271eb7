package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/vitrum-connect/5gla-sensor-integration-services/internal/domain"
)

type PostgresWatermarksRepo struct {
	db *sql.DB
}

func NewPostgresWatermarksRepo(db *sql.DB) *PostgresWatermarksRepo {
	return &PostgresWatermarksRepo{db: db}
}

func (r *PostgresWatermarksRepo) GetLastRun(ctx context.Context, manufacturer domain.Manufacturer) (time.Time, bool, error) {
	q := `
		SELECT last_run
		FROM import_watermarks
		WHERE manufacturer = $1`
	var lastRun time.Time
	err := r.db.QueryRowContext(ctx, q, string(manufacturer)).Scan(&lastRun)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return lastRun, true, nil
}

func (r *PostgresWatermarksRepo) SetLastRun(ctx context.Context, manufacturer domain.Manufacturer, lastRun time.Time) error {
	q := `
		INSERT INTO import_watermarks (manufacturer, last_run)
		VALUES ($1, $2)
		ON CONFLICT (manufacturer) DO UPDATE SET last_run = EXCLUDED.last_run`
	_, err := r.db.ExecContext(ctx, q, string(manufacturer), lastRun)
	return err
}
