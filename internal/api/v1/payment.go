package v1

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edumitra/entitlements/internal/api/dto"
	"github.com/edumitra/entitlements/internal/checkout"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/logger"
	"github.com/edumitra/entitlements/internal/service"
	"github.com/edumitra/entitlements/internal/types"
)

const headerWebhookSignature = "X-Razorpay-Signature"

type PaymentHandler struct {
	paymentService service.PaymentService
	checkout       checkout.Client
	logger         *logger.Logger
}

func NewPaymentHandler(paymentService service.PaymentService, checkoutClient checkout.Client, logger *logger.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		checkout:       checkoutClient,
		logger:         logger,
	}
}

// @Summary Create a checkout order
// @Description Opens a gateway order for the calling account
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body dto.CreateOrderRequest true "Order request"
// @Success 201 {object} dto.CreateOrderResponse
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 401 {object} middleware.ErrorResponse
// @Router /orders [post]
// @Security BearerAuth
func (h *PaymentHandler) CreateOrder(c *gin.Context) {
	accountID := types.GetAccountID(c.Request.Context())
	if accountID == "" {
		c.Error(ierr.NewError("missing account context").
			WithHint("Unauthorized").
			Mark(ierr.ErrPermissionDenied))
		return
	}

	var req dto.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}
	if err := req.Validate(); err != nil {
		c.Error(err)
		return
	}

	response, err := h.paymentService.CreateOrder(c.Request.Context(), accountID, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, response)
}

// @Summary Razorpay webhook
// @Description Consumes gateway events. The HMAC over the raw body is
// verified before anything is parsed; a mismatch rejects the request
// with no state change. Activation happens only through this path.
// @Tags Payments
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string
// @Failure 400 {object} middleware.ErrorResponse
// @Failure 403 {object} middleware.ErrorResponse
// @Router /webhooks/razorpay [post]
func (h *PaymentHandler) HandleWebhook(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Could not read webhook body").
			Mark(ierr.ErrValidation))
		return
	}

	signature := c.GetHeader(headerWebhookSignature)
	if !h.checkout.VerifyWebhookSignature(body, signature) {
		h.logger.Warnw("webhook signature mismatch", "request_id", types.GetRequestID(c.Request.Context()))
		c.Error(ierr.NewError("invalid webhook signature").
			WithHint("Webhook signature verification failed").
			Mark(ierr.ErrPermissionDenied))
		return
	}

	event, err := dto.ParseWebhookEvent(body)
	if err != nil {
		c.Error(err)
		return
	}

	// Only payment.captured moves entitlement state; everything else is
	// acknowledged and dropped.
	if event.Event != dto.EventPaymentCaptured {
		h.logger.Debugw("ignoring webhook event", "event", event.Event)
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	if err := h.paymentService.HandlePaymentCaptured(c.Request.Context(), event); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
