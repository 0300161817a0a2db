package payment

import (
	"context"
)

// Repository defines the interface for the payment audit trail
type Repository interface {
	// Create records a capture exactly once; a replayed payment id fails
	// with ErrAlreadyExists and must not mutate entitlement state again
	Create(ctx context.Context, record *Record) error

	Get(ctx context.Context, paymentID string) (*Record, error)
}
