package v1

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"

	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/rest/middleware"
	"github.com/edumitra/entitlements/internal/service"
	"github.com/edumitra/entitlements/internal/testutil"
	"github.com/edumitra/entitlements/internal/types"
)

type PaymentHandlerSuite struct {
	testutil.BaseServiceTestSuite
	router       *gin.Engine
	entitlements service.EntitlementService
}

func TestPaymentHandler(t *testing.T) {
	suite.Run(t, new(PaymentHandlerSuite))
}

func (s *PaymentHandlerSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()

	stores := s.GetStores()
	params := service.ServiceParams{
		Logger:          s.GetLogger(),
		Config:          s.GetConfig(),
		EntitlementRepo: stores.EntitlementRepo,
		UsageRepo:       stores.UsageRepo,
		CouponRepo:      stores.CouponRepo,
		RedemptionRepo:  stores.RedemptionRepo,
		PaymentRepo:     stores.PaymentRepo,
		Checkout:        s.GetCheckout(),
		Tutor:           s.GetTutor(),
	}
	s.entitlements = service.NewEntitlementService(params)
	coupons := service.NewCouponValidationService(params)
	payments := service.NewPaymentService(params, s.entitlements, coupons)
	handler := NewPaymentHandler(payments, s.GetCheckout(), s.GetLogger())

	gin.SetMode(gin.TestMode)
	s.router = gin.New()
	s.router.Use(middleware.ErrorHandler())
	s.router.POST("/v1/webhooks/razorpay", handler.HandleWebhook)
}

func (s *PaymentHandlerSuite) postWebhook(body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/razorpay", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Razorpay-Signature", "sig")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func capturedBody(paymentID, accountID string, amount int64) string {
	return fmt.Sprintf(`{
		"event": "payment.captured",
		"payload": {"payment": {"entity": {
			"id": %q,
			"order_id": "order_1",
			"amount": %d,
			"status": "captured",
			"notes": {"account_id": %q, "plan": "jee-2026"}
		}}}
	}`, paymentID, amount, accountID)
}

func (s *PaymentHandlerSuite) TestWebhookActivatesOnCapture() {
	w := s.postWebhook(capturedBody("pay_1", "acc_1", 195000))
	s.Equal(http.StatusOK, w.Code)

	resp := s.entitlements.GetStatus(s.GetContext(), "acc_1")
	s.Equal(types.EntitlementStatusActive, resp.Status)
}

func (s *PaymentHandlerSuite) TestWebhookSignatureMismatchMutatesNothing() {
	s.GetCheckout().RejectSignatures = true

	w := s.postWebhook(capturedBody("pay_1", "acc_1", 195000))
	s.Equal(http.StatusForbidden, w.Code)

	// The entitlement record was never touched
	_, err := s.GetStores().EntitlementRepo.Get(s.GetContext(), "acc_1")
	s.Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *PaymentHandlerSuite) TestWebhookIgnoresOtherEvents() {
	w := s.postWebhook(`{"event": "payment.failed"}`)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), "ignored")

	_, err := s.GetStores().EntitlementRepo.Get(s.GetContext(), "acc_1")
	s.Error(err)
}

func (s *PaymentHandlerSuite) TestWebhookRejectsMalformedBody() {
	w := s.postWebhook(`{not json`)
	s.Equal(http.StatusBadRequest, w.Code)
}
