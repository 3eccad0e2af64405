// Package memory holds the in-process preference store used when the agent
// runs without a database (STORE_BACKEND=memory) and in tests.
package memory

import (
	"context"
	"sync"

	"github.com/circlapp/circl-link-agent/internal/domain"
)

type PreferenceRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewPreferenceRepository() *PreferenceRepository {
	return &PreferenceRepository{values: make(map[string]string)}
}

func (r *PreferenceRepository) Get(_ context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	if !ok {
		return "", domain.ErrPreferenceNotFound
	}
	return v, nil
}

func (r *PreferenceRepository) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	r.values[key] = value
	r.mu.Unlock()
	return nil
}

func (r *PreferenceRepository) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.values, key)
	r.mu.Unlock()
	return nil
}

// Ping always succeeds; it lets the health checker treat every store alike.
func (r *PreferenceRepository) Ping(_ context.Context) error {
	return nil
}
