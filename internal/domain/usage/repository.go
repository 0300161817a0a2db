package usage

import (
	"context"
)

// Repository defines the interface for usage counter storage operations
type Repository interface {
	// Get returns the account's counter record, ErrNotFound when the
	// account has never used a metered feature
	Get(ctx context.Context, accountID string) (*Record, error)

	// Save persists the full counter record, creating it if needed
	Save(ctx context.Context, record *Record) error
}
