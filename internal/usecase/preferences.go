package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/circlapp/circl-link-agent/internal/domain"
	"github.com/circlapp/circl-link-agent/internal/repository"
)

// readUserID returns the stored user id, or zero when none is stored.
// A value that does not parse as an integer also reads as zero.
func readUserID(ctx context.Context, prefs repository.PreferenceRepository) (domain.UserID, error) {
	raw, err := readOptional(ctx, prefs, repository.KeyUserID)
	if err != nil || raw == "" {
		return 0, err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, nil
	}
	return domain.UserID(id), nil
}

// readOptional maps a missing key to "".
func readOptional(ctx context.Context, prefs repository.PreferenceRepository, key string) (string, error) {
	v, err := prefs.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrPreferenceNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return v, nil
}
