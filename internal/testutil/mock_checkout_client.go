package testutil

import (
	"context"
	"sync"

	"github.com/edumitra/entitlements/internal/checkout"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/types"
)

// MockCheckoutClient implements checkout.Client against no gateway.
// Signature checks pass unless the test flips the flags.
type MockCheckoutClient struct {
	mu sync.Mutex

	Orders           []checkout.OrderRequest
	FailCreateOrder  bool
	RejectSignatures bool
}

// NewMockCheckoutClient creates a mock gateway client
func NewMockCheckoutClient() *MockCheckoutClient {
	return &MockCheckoutClient{}
}

func (m *MockCheckoutClient) CreateOrder(ctx context.Context, req checkout.OrderRequest) (*checkout.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.FailCreateOrder {
		return nil, ierr.NewError("gateway unavailable").
			WithHint("Failed to create payment order").
			Mark(ierr.ErrHTTPClient)
	}

	m.Orders = append(m.Orders, req)
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	return &checkout.Order{
		ID:       types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ORDER),
		Amount:   req.Amount,
		Currency: currency,
		Status:   "created",
	}, nil
}

func (m *MockCheckoutClient) VerifyWebhookSignature(body []byte, signature string) bool {
	return !m.RejectSignatures
}

func (m *MockCheckoutClient) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return !m.RejectSignatures
}
