package testutil

import (
	"context"

	"github.com/edumitra/entitlements/internal/domain/usage"
	ierr "github.com/edumitra/entitlements/internal/errors"
)

// InMemoryUsageStore implements usage.Repository
type InMemoryUsageStore struct {
	*InMemoryStore[*usage.Record]
}

// NewInMemoryUsageStore creates a new in-memory usage store
func NewInMemoryUsageStore() *InMemoryUsageStore {
	return &InMemoryUsageStore{
		InMemoryStore: NewInMemoryStore[*usage.Record](),
	}
}

func copyUsageRecord(r *usage.Record) *usage.Record {
	if r == nil {
		return nil
	}
	copied := *r
	return &copied
}

func (s *InMemoryUsageStore) Get(ctx context.Context, accountID string) (*usage.Record, error) {
	r, err := s.InMemoryStore.Get(ctx, accountID)
	if err != nil {
		return nil, ierr.NewError("usage record not found").
			WithHint("No usage has been recorded for this account").
			WithReportableDetails(map[string]any{
				"account_id": accountID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyUsageRecord(r), nil
}

func (s *InMemoryUsageStore) Save(ctx context.Context, record *usage.Record) error {
	if record == nil {
		return ierr.NewError("usage record cannot be nil").
			WithHint("Usage record cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if s.InMemoryStore.Exists(ctx, record.AccountID) {
		return s.InMemoryStore.Update(ctx, record.AccountID, copyUsageRecord(record))
	}
	return s.InMemoryStore.Create(ctx, record.AccountID, copyUsageRecord(record))
}
