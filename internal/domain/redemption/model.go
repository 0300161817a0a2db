package redemption

import (
	"time"

	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/types"
)

// Redemption is one row of an account's coupon ledger: which code was
// redeemed and when. For one-time-per-user coupons at most one row may
// exist per (account, code) pair; the repository enforces that on create.
type Redemption struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"account_id"`
	CouponCode string    `json:"coupon_code"`
	RedeemedAt time.Time `json:"redeemed_at"`
}

// New returns a ledger row for a successful redemption
func New(accountID, couponCode string, now time.Time) *Redemption {
	return &Redemption{
		ID:         types.GenerateUUIDWithPrefix(types.UUID_PREFIX_REDEMPTION),
		AccountID:  accountID,
		CouponCode: couponCode,
		RedeemedAt: now.UTC(),
	}
}

// Validate performs validation on the ledger row
func (r *Redemption) Validate() error {
	if r.AccountID == "" {
		return ierr.NewError("account_id is required").
			WithHint("Please provide a valid account ID").
			Mark(ierr.ErrValidation)
	}
	if r.CouponCode == "" {
		return ierr.NewError("coupon_code is required").
			WithHint("Please provide a coupon code").
			Mark(ierr.ErrValidation)
	}
	return nil
}
