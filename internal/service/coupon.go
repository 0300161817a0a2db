package service

import (
	"context"
	"time"

	"github.com/edumitra/entitlements/internal/api/dto"
	"github.com/edumitra/entitlements/internal/domain/coupon"
	"github.com/edumitra/entitlements/internal/types"
)

// CouponService manages coupon definitions (admin surface)
type CouponService interface {
	CreateCoupon(ctx context.Context, req dto.CreateCouponRequest) (*dto.CouponResponse, error)
	GetCoupon(ctx context.Context, code string) (*dto.CouponResponse, error)
	ListCoupons(ctx context.Context) (*dto.ListCouponsResponse, error)
	UpdateCoupon(ctx context.Context, code string, req dto.UpdateCouponRequest) (*dto.CouponResponse, error)
	DeleteCoupon(ctx context.Context, code string) error
}

type couponService struct {
	ServiceParams
}

// NewCouponService creates a new coupon service
func NewCouponService(params ServiceParams) CouponService {
	return &couponService{
		ServiceParams: params,
	}
}

func (s *couponService) CreateCoupon(ctx context.Context, req dto.CreateCouponRequest) (*dto.CouponResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	c := req.ToCoupon(types.GetAccountID(ctx))
	if err := c.Validate(); err != nil {
		return nil, err
	}

	if err := s.CouponRepo.Create(ctx, c); err != nil {
		return nil, err
	}

	s.Logger.Infow("created coupon",
		"code", c.Code,
		"type", c.Type,
		"discount", c.Discount)

	return &dto.CouponResponse{Coupon: c}, nil
}

func (s *couponService) GetCoupon(ctx context.Context, code string) (*dto.CouponResponse, error) {
	c, err := s.CouponRepo.Get(ctx, coupon.CanonicalCode(code))
	if err != nil {
		return nil, err
	}
	return &dto.CouponResponse{Coupon: c}, nil
}

func (s *couponService) ListCoupons(ctx context.Context) (*dto.ListCouponsResponse, error) {
	coupons, err := s.CouponRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	items := make([]*dto.CouponResponse, 0, len(coupons))
	for _, c := range coupons {
		items = append(items, &dto.CouponResponse{Coupon: c})
	}

	return &dto.ListCouponsResponse{
		Items: items,
		Total: len(items),
	}, nil
}

func (s *couponService) UpdateCoupon(ctx context.Context, code string, req dto.UpdateCouponRequest) (*dto.CouponResponse, error) {
	c, err := s.CouponRepo.Get(ctx, coupon.CanonicalCode(code))
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		c.Name = *req.Name
	}
	if req.Active != nil {
		c.Active = *req.Active
	}
	if req.ValidUntil != nil {
		c.ValidUntil = req.ValidUntil
	}
	if req.Discount != nil {
		c.Discount = *req.Discount
	}
	if req.MaxUsageCount != nil {
		c.MaxUsageCount = req.MaxUsageCount
	}
	if req.OneTimePerUser != nil {
		c.OneTimePerUser = *req.OneTimePerUser
	}
	c.UpdatedAt = time.Now().UTC()

	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.CouponRepo.Update(ctx, c); err != nil {
		return nil, err
	}

	s.Logger.Infow("updated coupon", "code", c.Code)
	return &dto.CouponResponse{Coupon: c}, nil
}

func (s *couponService) DeleteCoupon(ctx context.Context, code string) error {
	canonical := coupon.CanonicalCode(code)
	if err := s.CouponRepo.Delete(ctx, canonical); err != nil {
		return err
	}
	s.Logger.Infow("deleted coupon", "code", canonical)
	return nil
}
