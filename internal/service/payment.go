package service

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/edumitra/entitlements/internal/api/dto"
	"github.com/edumitra/entitlements/internal/checkout"
	ierr "github.com/edumitra/entitlements/internal/errors"
)

// PaymentService bridges the checkout collaborator and the entitlement
// state machine. Only the server-verified webhook mutates entitlements;
// the client-side success callback is a navigation hint and has no
// server surface.
type PaymentService interface {
	CreateOrder(ctx context.Context, accountID string, req dto.CreateOrderRequest) (*dto.CreateOrderResponse, error)

	// HandlePaymentCaptured consumes a verified payment.captured event.
	// Amounts at or below the trial threshold carry trial semantics;
	// everything above is a full activation.
	HandlePaymentCaptured(ctx context.Context, event *dto.PaymentCapturedEvent) error
}

type paymentService struct {
	ServiceParams
	entitlements EntitlementService
	coupons      CouponValidationService
}

// NewPaymentService creates a new payment service
func NewPaymentService(params ServiceParams, entitlements EntitlementService, coupons CouponValidationService) PaymentService {
	return &paymentService{
		ServiceParams: params,
		entitlements:  entitlements,
		coupons:       coupons,
	}
}

func (s *paymentService) CreateOrder(ctx context.Context, accountID string, req dto.CreateOrderRequest) (*dto.CreateOrderResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	amount := decimal.NewFromInt(req.Amount)
	finalAmount := amount

	// A coupon is redeemed at order time so its global counter moves
	// before the gateway sees the discounted amount.
	if req.CouponCode != "" {
		result, err := s.coupons.RedeemCoupon(ctx, req.CouponCode, accountID, &amount)
		if err != nil {
			return nil, err
		}
		if !result.Valid {
			return nil, ierr.NewError("coupon rejected").
				WithHint(result.Message).
				WithReportableDetails(map[string]any{
					"code":   req.CouponCode,
					"reason": result.Reason,
				}).
				Mark(ierr.ErrValidation)
		}
		finalAmount = *result.FinalPrice
	}

	order, err := s.Checkout.CreateOrder(ctx, checkout.OrderRequest{
		Amount:    finalAmount.IntPart(),
		AccountID: accountID,
		Plan:      req.Plan,
	})
	if err != nil {
		return nil, err
	}

	return &dto.CreateOrderResponse{
		OrderID:     order.ID,
		Amount:      amount,
		FinalAmount: finalAmount,
		Currency:    order.Currency,
		KeyID:       s.Config.Razorpay.KeyID,
	}, nil
}

func (s *paymentService) HandlePaymentCaptured(ctx context.Context, event *dto.PaymentCapturedEvent) error {
	accountID := event.AccountID()
	if accountID == "" {
		return ierr.NewError("payment notes carry no account id").
			WithHint("Unable to map payment to an account").
			WithReportableDetails(map[string]any{
				"payment_id": event.Payload.Payment.Entity.ID,
			}).
			Mark(ierr.ErrValidation)
	}

	confirmation := event.Confirmation()
	if err := confirmation.Validate(); err != nil {
		return err
	}

	threshold := s.Config.Razorpay.TrialThreshold()
	if confirmation.Amount.LessThanOrEqual(threshold) {
		// Trial-priced purchase: start the trial off the confirmed
		// payment instead of granting a full paid period.
		_, err := s.entitlements.StartTrial(ctx, accountID, confirmation.Plan)
		if err != nil && ierr.IsInvalidOperation(err) {
			s.Logger.Warnw("trial-priced payment for account with used trial",
				"account_id", accountID,
				"payment_id", confirmation.PaymentID)
			return err
		}
		return err
	}

	_, err := s.entitlements.ActivateSubscription(ctx, accountID, confirmation)
	return err
}
