package testutil

import (
	"context"
	"fmt"

	"github.com/edumitra/entitlements/internal/domain/redemption"
	ierr "github.com/edumitra/entitlements/internal/errors"
)

// InMemoryRedemptionStore implements redemption.Repository
type InMemoryRedemptionStore struct {
	*InMemoryStore[*redemption.Redemption]
}

// NewInMemoryRedemptionStore creates a new in-memory redemption store
func NewInMemoryRedemptionStore() *InMemoryRedemptionStore {
	return &InMemoryRedemptionStore{
		InMemoryStore: NewInMemoryStore[*redemption.Redemption](),
	}
}

func redemptionKey(accountID, couponCode string) string {
	return fmt.Sprintf("%s:%s", accountID, couponCode)
}

func copyRedemption(r *redemption.Redemption) *redemption.Redemption {
	if r == nil {
		return nil
	}
	copied := *r
	return &copied
}

func (s *InMemoryRedemptionStore) Create(ctx context.Context, r *redemption.Redemption) error {
	if r == nil {
		return ierr.NewError("redemption cannot be nil").
			WithHint("Redemption cannot be nil").
			Mark(ierr.ErrValidation)
	}
	key := redemptionKey(r.AccountID, r.CouponCode)
	if err := s.InMemoryStore.Create(ctx, key, copyRedemption(r)); err != nil {
		return ierr.NewError("redemption already exists").
			WithHint("Coupon already redeemed by this account").
			WithReportableDetails(map[string]any{
				"account_id":  r.AccountID,
				"coupon_code": r.CouponCode,
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryRedemptionStore) Delete(ctx context.Context, accountID, couponCode string) error {
	// Deleting an absent row is a no-op, matching DeleteItem semantics
	key := redemptionKey(accountID, couponCode)
	if !s.InMemoryStore.Exists(ctx, key) {
		return nil
	}
	return s.InMemoryStore.Delete(ctx, key)
}

func (s *InMemoryRedemptionStore) Exists(ctx context.Context, accountID, couponCode string) (bool, error) {
	return s.InMemoryStore.Exists(ctx, redemptionKey(accountID, couponCode)), nil
}

func (s *InMemoryRedemptionStore) ListByAccount(ctx context.Context, accountID string) ([]*redemption.Redemption, error) {
	items, err := s.InMemoryStore.List(ctx,
		func(_ context.Context, r *redemption.Redemption) bool {
			return r.AccountID == accountID
		},
		func(i, j *redemption.Redemption) bool {
			return i.RedeemedAt.Before(j.RedeemedAt)
		},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*redemption.Redemption, 0, len(items))
	for _, r := range items {
		result = append(result, copyRedemption(r))
	}
	return result, nil
}
