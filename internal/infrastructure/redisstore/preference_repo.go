package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/redis/go-redis/v9"
)

// PreferenceRepository keeps a device's preferences in a single redis hash
// so the agent and the sweeper can share state.
type PreferenceRepository struct {
	client *redis.Client
	hash   string
}

func NewClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

func NewPreferenceRepository(client *redis.Client, deviceID string) *PreferenceRepository {
	return &PreferenceRepository{client: client, hash: "circl:prefs:" + deviceID}
}

func (r *PreferenceRepository) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.HGet(ctx, r.hash, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domain.ErrPreferenceNotFound
		}
		return "", fmt.Errorf("get preference %q: %w", key, err)
	}
	return v, nil
}

func (r *PreferenceRepository) Set(ctx context.Context, key, value string) error {
	if err := r.client.HSet(ctx, r.hash, key, value).Err(); err != nil {
		return fmt.Errorf("set preference %q: %w", key, err)
	}
	return nil
}

func (r *PreferenceRepository) Delete(ctx context.Context, key string) error {
	if err := r.client.HDel(ctx, r.hash, key).Err(); err != nil {
		return fmt.Errorf("delete preference %q: %w", key, err)
	}
	return nil
}

func (r *PreferenceRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
