package entitlement

import (
	"context"
	"time"
)

// Repository defines the interface for entitlement storage operations
type Repository interface {
	// Create persists a new record; it fails with ErrAlreadyExists when
	// the account already has one
	Create(ctx context.Context, entitlement *Entitlement) error
	Get(ctx context.Context, accountID string) (*Entitlement, error)
	Update(ctx context.Context, entitlement *Entitlement) error

	// ListExpiring returns trial and active records whose relevant end
	// date has passed the given instant. Used by the expiry sweeper.
	ListExpiring(ctx context.Context, now time.Time) ([]*Entitlement, error)
}
