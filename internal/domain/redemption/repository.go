package redemption

import (
	"context"
)

// Repository defines the interface for the per-account coupon ledger
type Repository interface {
	// Create appends a ledger row. It fails with ErrAlreadyExists when a
	// row for the same (account, code) pair is already present, which is
	// what makes one-time-per-user redemption at-most-once under
	// concurrent attempts.
	Create(ctx context.Context, redemption *Redemption) error

	// Delete removes the account's ledger row for the code. Used to roll
	// back a row whose paired counter increment never happened.
	Delete(ctx context.Context, accountID, couponCode string) error

	// Exists reports whether the account has already redeemed the code
	Exists(ctx context.Context, accountID, couponCode string) (bool, error)

	// ListByAccount returns the account's full redemption history
	ListByAccount(ctx context.Context, accountID string) ([]*Redemption, error)
}
