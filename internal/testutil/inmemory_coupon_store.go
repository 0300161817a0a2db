package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/edumitra/entitlements/internal/domain/coupon"
	ierr "github.com/edumitra/entitlements/internal/errors"
)

// InMemoryCouponStore implements coupon.Repository
type InMemoryCouponStore struct {
	*InMemoryStore[*coupon.Coupon]

	// incMu serializes IncrementUsage so the cap check and the bump are
	// atomic, mirroring the conditional write of the real store
	incMu sync.Mutex
}

// NewInMemoryCouponStore creates a new in-memory coupon store
func NewInMemoryCouponStore() *InMemoryCouponStore {
	return &InMemoryCouponStore{
		InMemoryStore: NewInMemoryStore[*coupon.Coupon](),
	}
}

func copyCoupon(c *coupon.Coupon) *coupon.Coupon {
	if c == nil {
		return nil
	}
	copied := *c
	copied.ValidUntil = copyTimePtr(c.ValidUntil)
	if c.MaxUsageCount != nil {
		m := *c.MaxUsageCount
		copied.MaxUsageCount = &m
	}
	return &copied
}

func (s *InMemoryCouponStore) Create(ctx context.Context, c *coupon.Coupon) error {
	if c == nil {
		return ierr.NewError("coupon cannot be nil").
			WithHint("Coupon cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := s.InMemoryStore.Create(ctx, c.Code, copyCoupon(c)); err != nil {
		return ierr.NewError("coupon already exists").
			WithHint("A coupon with this code already exists").
			WithReportableDetails(map[string]any{
				"code": c.Code,
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryCouponStore) Get(ctx context.Context, code string) (*coupon.Coupon, error) {
	c, err := s.InMemoryStore.Get(ctx, code)
	if err != nil {
		return nil, ierr.NewError("coupon not found").
			WithHint("No coupon exists with this code").
			WithReportableDetails(map[string]any{
				"code": code,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyCoupon(c), nil
}

func (s *InMemoryCouponStore) List(ctx context.Context) ([]*coupon.Coupon, error) {
	items, err := s.InMemoryStore.List(ctx, nil,
		func(i, j *coupon.Coupon) bool {
			return i.Code < j.Code
		},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*coupon.Coupon, 0, len(items))
	for _, c := range items {
		result = append(result, copyCoupon(c))
	}
	return result, nil
}

func (s *InMemoryCouponStore) Update(ctx context.Context, c *coupon.Coupon) error {
	if c == nil {
		return ierr.NewError("coupon cannot be nil").
			WithHint("Coupon cannot be nil").
			Mark(ierr.ErrValidation)
	}
	c.UpdatedAt = time.Now().UTC()
	if err := s.InMemoryStore.Update(ctx, c.Code, copyCoupon(c)); err != nil {
		return ierr.NewError("coupon not found").
			WithHint("No coupon exists with this code").
			WithReportableDetails(map[string]any{
				"code": c.Code,
			}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryCouponStore) Delete(ctx context.Context, code string) error {
	if err := s.InMemoryStore.Delete(ctx, code); err != nil {
		return ierr.NewError("coupon not found").
			WithHint("No coupon exists with this code").
			WithReportableDetails(map[string]any{
				"code": code,
			}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryCouponStore) IncrementUsage(ctx context.Context, code string) error {
	s.incMu.Lock()
	defer s.incMu.Unlock()

	c, err := s.Get(ctx, code)
	if err != nil {
		return err
	}
	if c.RedemptionLimitReached() {
		return ierr.NewError("coupon usage limit reached").
			WithHint("Coupon usage limit reached").
			WithReportableDetails(map[string]any{
				"code": code,
			}).
			Mark(ierr.ErrVersionConflict)
	}

	c.CurrentUsageCount++
	return s.Update(ctx, c)
}
