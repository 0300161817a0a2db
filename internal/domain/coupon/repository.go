package coupon

import (
	"context"
)

// Repository defines the interface for coupon data access
type Repository interface {
	Create(ctx context.Context, coupon *Coupon) error
	Get(ctx context.Context, code string) (*Coupon, error)
	List(ctx context.Context) ([]*Coupon, error)
	Update(ctx context.Context, coupon *Coupon) error
	Delete(ctx context.Context, code string) error

	// IncrementUsage atomically bumps CurrentUsageCount by one, guarded
	// by the coupon's max usage cap. It fails with ErrVersionConflict
	// when the cap would be exceeded; callers surface that as a
	// usage-limit validation failure. This is the only write in the
	// system that must not be a plain read-modify-write.
	IncrementUsage(ctx context.Context, code string) error
}
