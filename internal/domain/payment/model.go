package payment

import (
	"time"

	"github.com/shopspring/decimal"

	ierr "github.com/edumitra/entitlements/internal/errors"
)

// Record is the audit trail of one gateway payment capture, keyed by the
// gateway's payment id. A record is written exactly once per capture;
// its presence is what makes webhook replays idempotent.
type Record struct {
	PaymentID  string          `json:"payment_id"`
	OrderID    string          `json:"order_id"`
	AccountID  string          `json:"account_id"`
	Plan       string          `json:"plan"`
	Amount     decimal.Decimal `json:"amount"`
	CapturedAt time.Time       `json:"captured_at"`
}

// Validate performs validation on the payment record
func (r *Record) Validate() error {
	if r.PaymentID == "" {
		return ierr.NewError("payment_id is required").
			WithHint("Please provide a valid payment ID").
			Mark(ierr.ErrValidation)
	}
	if r.AccountID == "" {
		return ierr.NewError("account_id is required").
			WithHint("Please provide a valid account ID").
			Mark(ierr.ErrValidation)
	}
	if r.Amount.IsNegative() {
		return ierr.NewError("amount cannot be negative").
			WithHint("Invalid payment amount").
			Mark(ierr.ErrValidation)
	}
	return nil
}
