package requestid

import (
	"context"

	"github.com/google/uuid"
)

type (
	requestKey  struct{}
	deliveryKey struct{}
)

// New generates a random UUID v4 identifier.
func New() string {
	return uuid.NewString()
}

// WithRequestID returns a copy of ctx with the request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestKey{}, id)
}

// FromContext extracts the request ID from ctx. Returns "" if absent.
func FromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestKey{}).(string)
	return id
}

// WithDeliveryID tags ctx with the id of one deep-link delivery. The
// delivery outlives the HTTP request that carried it, so both ids are kept.
func WithDeliveryID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, deliveryKey{}, id)
}

func DeliveryIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(deliveryKey{}).(string)
	return id
}
