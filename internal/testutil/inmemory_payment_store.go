package testutil

import (
	"context"

	"github.com/edumitra/entitlements/internal/domain/payment"
	ierr "github.com/edumitra/entitlements/internal/errors"
)

// InMemoryPaymentStore implements payment.Repository
type InMemoryPaymentStore struct {
	*InMemoryStore[*payment.Record]
}

// NewInMemoryPaymentStore creates a new in-memory payment store
func NewInMemoryPaymentStore() *InMemoryPaymentStore {
	return &InMemoryPaymentStore{
		InMemoryStore: NewInMemoryStore[*payment.Record](),
	}
}

func copyPaymentRecord(r *payment.Record) *payment.Record {
	if r == nil {
		return nil
	}
	copied := *r
	return &copied
}

func (s *InMemoryPaymentStore) Create(ctx context.Context, record *payment.Record) error {
	if record == nil {
		return ierr.NewError("payment record cannot be nil").
			WithHint("Payment record cannot be nil").
			Mark(ierr.ErrValidation)
	}
	if err := s.InMemoryStore.Create(ctx, record.PaymentID, copyPaymentRecord(record)); err != nil {
		return ierr.NewError("payment already recorded").
			WithHint("Payment has already been processed").
			WithReportableDetails(map[string]any{
				"payment_id": record.PaymentID,
			}).
			Mark(ierr.ErrAlreadyExists)
	}
	return nil
}

func (s *InMemoryPaymentStore) Get(ctx context.Context, paymentID string) (*payment.Record, error) {
	r, err := s.InMemoryStore.Get(ctx, paymentID)
	if err != nil {
		return nil, ierr.NewError("payment record not found").
			WithHint("No payment exists with this ID").
			WithReportableDetails(map[string]any{
				"payment_id": paymentID,
			}).
			Mark(ierr.ErrNotFound)
	}
	return copyPaymentRecord(r), nil
}
