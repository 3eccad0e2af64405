package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const preferencesSchema = `
	CREATE TABLE IF NOT EXISTS preferences (
		device_id  TEXT        NOT NULL,
		key        TEXT        NOT NULL,
		value      TEXT        NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (device_id, key)
	)`

// PreferenceRepository stores one device's key-value preferences.
// Several agents can share a database as long as their device ids differ.
type PreferenceRepository struct {
	pool     *pgxpool.Pool
	deviceID string
}

func NewPreferenceRepository(pool *pgxpool.Pool, deviceID string) *PreferenceRepository {
	return &PreferenceRepository{pool: pool, deviceID: deviceID}
}

func (r *PreferenceRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, preferencesSchema); err != nil {
		return fmt.Errorf("create preferences table: %w", err)
	}
	return nil
}

func (r *PreferenceRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.pool.QueryRow(ctx,
		`SELECT value FROM preferences WHERE device_id = $1 AND key = $2`,
		r.deviceID, key,
	).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrPreferenceNotFound
		}
		return "", fmt.Errorf("get preference %q: %w", key, err)
	}
	return value, nil
}

func (r *PreferenceRepository) Set(ctx context.Context, key, value string) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO preferences (device_id, key, value)
		VALUES ($1, $2, $3)
		ON CONFLICT (device_id, key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = NOW()`,
		r.deviceID, key, value,
	)
	if err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	return nil
}

func (r *PreferenceRepository) Delete(ctx context.Context, key string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM preferences WHERE device_id = $1 AND key = $2`,
		r.deviceID, key,
	)
	if err != nil {
		return fmt.Errorf("delete preference %q: %w", key, err)
	}
	return nil
}

func (r *PreferenceRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
