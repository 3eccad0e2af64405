// Package prefstore selects the preference store backend.
package prefstore

import (
	"context"
	"fmt"

	"github.com/circlapp/circl-link-agent/internal/infrastructure/memory"
	"github.com/circlapp/circl-link-agent/internal/infrastructure/postgres"
	"github.com/circlapp/circl-link-agent/internal/infrastructure/redisstore"
	"github.com/circlapp/circl-link-agent/internal/repository"
)

const (
	BackendMemory   = "memory"
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
)

// Store is a preference repository that can report its own reachability.
type Store interface {
	repository.PreferenceRepository
	Ping(ctx context.Context) error
}

type Options struct {
	Backend     string
	DatabaseURL string
	RedisURL    string
	DeviceID    string
}

// Open connects the configured backend. The returned close func releases
// its connections and is safe to call once.
func Open(ctx context.Context, opts Options) (Store, func(), error) {
	switch opts.Backend {
	case BackendMemory, "":
		return memory.NewPreferenceRepository(), func() {}, nil

	case BackendPostgres:
		pool, err := postgres.NewPool(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db: %w", err)
		}
		repo := postgres.NewPreferenceRepository(pool, opts.DeviceID)
		if err := repo.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return repo, pool.Close, nil

	case BackendRedis:
		client, err := redisstore.NewClient(ctx, opts.RedisURL)
		if err != nil {
			return nil, nil, fmt.Errorf("redis: %w", err)
		}
		return redisstore.NewPreferenceRepository(client, opts.DeviceID), func() { _ = client.Close() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}

// Shared reports whether the backend outlives the process and can be read
// by a second process such as the sweeper.
func Shared(backend string) bool {
	return backend == BackendPostgres || backend == BackendRedis
}
