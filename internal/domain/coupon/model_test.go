package coupon

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/edumitra/entitlements/internal/types"
)

func TestCanonicalCode(t *testing.T) {
	assert.Equal(t, "SAVE50", CanonicalCode("  save50 "))
	assert.Equal(t, "SAVE50", CanonicalCode("Save50"))
	assert.Equal(t, "", CanonicalCode("   "))
}

func TestApplyDiscount(t *testing.T) {
	tests := []struct {
		name     string
		coupon   Coupon
		price    int64
		want     int64
	}{
		{
			name:   "percentage half off",
			coupon: Coupon{Type: types.CouponTypePercentage, Discount: decimal.NewFromInt(50)},
			price:  1950,
			want:   975,
		},
		{
			name:   "percentage full discount",
			coupon: Coupon{Type: types.CouponTypePercentage, Discount: decimal.NewFromInt(100)},
			price:  1950,
			want:   0,
		},
		{
			name:   "flat discount",
			coupon: Coupon{Type: types.CouponTypeFlat, Discount: decimal.NewFromInt(500)},
			price:  1950,
			want:   1450,
		},
		{
			name:   "flat discount floors at zero",
			coupon: Coupon{Type: types.CouponTypeFlat, Discount: decimal.NewFromInt(500)},
			price:  300,
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.coupon.ApplyDiscount(decimal.NewFromInt(tt.price))
			assert.True(t, got.Equal(decimal.NewFromInt(tt.want)), "got %s, want %d", got, tt.want)
		})
	}
}

func TestIsExpired(t *testing.T) {
	now := time.Date(2025, time.March, 10, 9, 30, 0, 0, time.UTC)

	c := Coupon{}
	assert.False(t, c.IsExpired(now), "no validity window never expires")

	c.ValidUntil = &now
	assert.False(t, c.IsExpired(now), "deadline instant is still valid")
	assert.True(t, c.IsExpired(now.Add(time.Second)))
}

func TestRedemptionLimitReached(t *testing.T) {
	c := Coupon{CurrentUsageCount: 1000}
	assert.False(t, c.RedemptionLimitReached(), "no cap means unlimited")

	cap := int64(3)
	c = Coupon{MaxUsageCount: &cap, CurrentUsageCount: 2}
	assert.False(t, c.RedemptionLimitReached())
	c.CurrentUsageCount = 3
	assert.True(t, c.RedemptionLimitReached())
}

func TestValidate(t *testing.T) {
	valid := Coupon{
		Code:     "SAVE50",
		Active:   true,
		Discount: decimal.NewFromInt(50),
		Type:     types.CouponTypePercentage,
	}
	assert.NoError(t, valid.Validate())

	c := valid
	c.Code = "save50"
	assert.Error(t, c.Validate(), "lowercase code")

	c = valid
	c.Discount = decimal.NewFromInt(150)
	assert.Error(t, c.Validate(), "percentage above 100")

	c = valid
	c.Type = types.CouponTypeFlat
	c.Discount = decimal.NewFromInt(150)
	assert.NoError(t, c.Validate(), "flat discounts are uncapped")

	zero := int64(0)
	c = valid
	c.MaxUsageCount = &zero
	assert.Error(t, c.Validate(), "non-positive cap")
}
