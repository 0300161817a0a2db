package checkout

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/edumitra/entitlements/internal/config"
	ierr "github.com/edumitra/entitlements/internal/errors"
	"github.com/edumitra/entitlements/internal/logger"
	"github.com/edumitra/entitlements/internal/types"
)

// Order is the gateway order the client completes checkout against
type Order struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// OrderRequest is the input for opening a gateway order
type OrderRequest struct {
	// Amount in the smallest currency unit (paise)
	Amount    int64
	Currency  string
	AccountID string
	Plan      string
}

// Client is the consumed payment-gateway collaborator. The entitlement
// service never trusts it directly; activation only happens off the
// verified webhook.
type Client interface {
	CreateOrder(ctx context.Context, req OrderRequest) (*Order, error)

	// VerifyWebhookSignature checks the gateway's HMAC over the raw
	// webhook body. A mismatch must reject the request with no state
	// mutation.
	VerifyWebhookSignature(body []byte, signature string) bool

	// VerifyPaymentSignature checks the checkout callback HMAC over
	// orderID|paymentID. Used only as a UI-navigation hint.
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
}

type razorpayClient struct {
	cfg    config.RazorpayConfig
	http   *retryablehttp.Client
	logger *logger.Logger
}

// NewRazorpayClient builds the production gateway client
func NewRazorpayClient(cfg *config.Configuration, log *logger.Logger) Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.RetryWaitMin = 500 * time.Millisecond
	rc.RetryWaitMax = 5 * time.Second
	rc.Logger = nil

	return &razorpayClient{
		cfg:    cfg.Razorpay,
		http:   rc,
		logger: log,
	}
}

type createOrderPayload struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes"`
}

func (c *razorpayClient) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}

	payload := createOrderPayload{
		Amount:   req.Amount,
		Currency: currency,
		Receipt:  types.GenerateUUIDWithPrefix(types.UUID_PREFIX_ORDER),
		Notes: map[string]string{
			"account_id": req.AccountID,
			"plan":       req.Plan,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to build order request").
			Mark(ierr.ErrSystem)
	}

	httpReq, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/orders", bytes.NewReader(body))
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to build order request").
			Mark(ierr.ErrSystem)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.cfg.KeyID, c.cfg.KeySecret)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHint("Payment gateway is unreachable").
			Mark(ierr.ErrHTTPClient)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ierr.NewError(fmt.Sprintf("gateway returned status %d", resp.StatusCode)).
			WithHint("Payment gateway rejected the order").
			WithReportableDetails(map[string]any{
				"status": resp.StatusCode,
			}).
			Mark(ierr.ErrHTTPClient)
	}

	var order Order
	if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
		return nil, ierr.WithError(err).
			WithHint("Failed to decode gateway response").
			Mark(ierr.ErrHTTPClient)
	}

	c.logger.Infow("created gateway order",
		"order_id", order.ID,
		"account_id", req.AccountID,
		"amount", req.Amount)

	return &order, nil
}

func (c *razorpayClient) VerifyWebhookSignature(body []byte, signature string) bool {
	return verifyHMAC(body, signature, c.cfg.WebhookSecret)
}

func (c *razorpayClient) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	payload := fmt.Sprintf("%s|%s", orderID, paymentID)
	return verifyHMAC([]byte(payload), signature, c.cfg.KeySecret)
}

// verifyHMAC compares the hex-encoded HMAC-SHA256 of payload against the
// provided signature in constant time
func verifyHMAC(payload []byte, signature, secret string) bool {
	if signature == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
