package testutil

import (
	"context"
	"time"

	"github.com/edumitra/entitlements/internal/domain/entitlement"
	ierr "github.com/edumitra/entitlements/internal/errors"
)

// InMemoryEntitlementStore implements entitlement.Repository
type InMemoryEntitlementStore struct {
	*InMemoryStore[*entitlement.Entitlement]
}

// NewInMemoryEntitlementStore creates a new in-memory entitlement store
func NewInMemoryEntitlementStore() *InMemoryEntitlementStore {
	return &InMemoryEntitlementStore{
		InMemoryStore: NewInMemoryStore[*entitlement.Entitlement](),
	}
}

func copyEntitlement(e *entitlement.Entitlement) *entitlement.Entitlement {
	if e == nil {
		return nil
	}
	copied := *e
	copied.Plan = copyStringPtr(e.Plan)
	copied.TrialStartDate = copyTimePtr(e.TrialStartDate)
	copied.TrialEndDate = copyTimePtr(e.TrialEndDate)
	copied.SubscriptionStartDate = copyTimePtr(e.SubscriptionStartDate)
	copied.SubscriptionEndDate = copyTimePtr(e.SubscriptionEndDate)
	copied.GracePeriodEndDate = copyTimePtr(e.GracePeriodEndDate)
	copied.LastPaymentDate = copyTimePtr(e.LastPaymentDate)
	return &copied
}

func copyTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func copyStringPtr(s *string) *string {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func (s *InMemoryEntitlementStore) Create(ctx context.Context, e *entitlement.Entitlement) error {
	if e == nil {
		return ierr.NewError("entitlement cannot be nil").
			WithHint("Entitlement cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := s.InMemoryStore.Create(ctx, e.AccountID, copyEntitlement(e)); err != nil {
		return ierr.NewError("entitlement already exists").
			WithHint("Entitlement already exists for this account").
			WithReportableDetails(map[string]any{
				"account_id": e.AccountID,
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryEntitlementStore) Get(ctx context.Context, accountID string) (*entitlement.Entitlement, error) {
	e, err := s.InMemoryStore.Get(ctx, accountID)
	if err != nil {
		return nil, ierr.NewError("entitlement not found").
			WithHint("No entitlement record exists for this account").
			WithReportableDetails(map[string]any{
				"account_id": accountID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyEntitlement(e), nil
}

func (s *InMemoryEntitlementStore) Update(ctx context.Context, e *entitlement.Entitlement) error {
	if e == nil {
		return ierr.NewError("entitlement cannot be nil").
			WithHint("Entitlement cannot be nil").
			Mark(ierr.ErrValidation)
	}
	e.UpdatedAt = time.Now().UTC()
	if err := s.InMemoryStore.Update(ctx, e.AccountID, copyEntitlement(e)); err != nil {
		return ierr.NewError("entitlement not found").
			WithHint("No entitlement record exists for this account").
			WithReportableDetails(map[string]any{
				"account_id": e.AccountID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return nil
}

func (s *InMemoryEntitlementStore) ListExpiring(ctx context.Context, now time.Time) ([]*entitlement.Entitlement, error) {
	items, err := s.InMemoryStore.List(ctx,
		func(_ context.Context, e *entitlement.Entitlement) bool {
			return e.ExpiryDue(now)
		},
		func(i, j *entitlement.Entitlement) bool {
			return i.AccountID < j.AccountID
		},
	)
	if err != nil {
		return nil, err
	}

	result := make([]*entitlement.Entitlement, 0, len(items))
	for _, e := range items {
		result = append(result, copyEntitlement(e))
	}
	return result, nil
}
