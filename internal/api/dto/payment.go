package dto

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	ierr "github.com/edumitra/entitlements/internal/errors"
)

// CreateOrderRequest represents the request to open a checkout order
type CreateOrderRequest struct {
	Plan string `json:"plan" validate:"required"`
	// Amount in the smallest currency unit (paise)
	Amount int64 `json:"amount" validate:"required,gt=0"`
	// CouponCode optionally discounts the order before it reaches the gateway
	CouponCode string `json:"coupon_code,omitempty"`
}

func (r *CreateOrderRequest) Validate() error {
	if r.Plan == "" {
		return ierr.NewError("plan is required").
			WithHint("Please choose a plan").
			Mark(ierr.ErrValidation)
	}
	if r.Amount <= 0 {
		return ierr.NewError("amount must be positive").
			WithHint("Invalid order amount").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CreateOrderResponse carries the gateway order the client completes
// checkout against
type CreateOrderResponse struct {
	OrderID string          `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
	// FinalAmount is the amount after coupon discount, equal to Amount
	// when no coupon applied
	FinalAmount decimal.Decimal `json:"final_amount"`
	Currency    string          `json:"currency"`
	KeyID       string          `json:"key_id"`
}

// EventPaymentCaptured is the only gateway event that moves entitlement
// state
const EventPaymentCaptured = "payment.captured"

// ParseWebhookEvent decodes a verified webhook body
func ParseWebhookEvent(body []byte) (*PaymentCapturedEvent, error) {
	var event PaymentCapturedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Invalid webhook payload").
			Mark(ierr.ErrValidation)
	}
	return &event, nil
}

// PaymentCapturedEvent is the payment.captured webhook payload subset we
// consume. The gateway metadata notes carry the purchasing account.
type PaymentCapturedEvent struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
				Amount  int64  `json:"amount"`
				Status  string `json:"status"`
				Notes   struct {
					AccountID string `json:"account_id"`
					Plan      string `json:"plan"`
				} `json:"notes"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// AccountID returns the purchasing account from the payment notes
func (e *PaymentCapturedEvent) AccountID() string {
	return e.Payload.Payment.Entity.Notes.AccountID
}

// Confirmation flattens the event into the activation input
func (e *PaymentCapturedEvent) Confirmation() *PaymentConfirmation {
	entity := e.Payload.Payment.Entity
	return &PaymentConfirmation{
		PaymentID: entity.ID,
		OrderID:   entity.OrderID,
		Amount:    decimal.NewFromInt(entity.Amount),
		Plan:      entity.Notes.Plan,
	}
}
