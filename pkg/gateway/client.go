package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"

	"github.com/harnoorlabs/aromas-backend/pkg/config"
	pkgerrors "github.com/harnoorlabs/aromas-backend/pkg/errors"
	"github.com/harnoorlabs/aromas-backend/pkg/logger"
)

const (
	ordersPath = "/v1/orders"

	createMaxRetries     = 2
	createInitialBackoff = 250 * time.Millisecond
)

var (
	errBaseURLRequired   = errors.New("gateway base url is required")
	errKeyIDRequired     = errors.New("gateway key id is required")
	errKeySecretRequired = errors.New("gateway key secret is required")
)

// Client talks to the hosted payment gateway over HTTP. Requests are
// authenticated with key id/secret basic auth and every call is bounded by the
// configured timeout; a timed-out call is reported as a gateway error.
type Client struct {
	httpClient *http.Client
	baseURL    string
	keyID      string
	keySecret  string
	currency   string
}

// CreateOrderInput describes the order to register with the gateway before
// the shopper is redirected to pay.
type CreateOrderInput struct {
	Amount  decimal.Decimal
	Receipt string
	Notes   map[string]string
}

// GatewayOrder is the gateway's record of a pending payment.
type GatewayOrder struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
	Receipt  string `json:"receipt"`
}

// NewClient validates the gateway credentials and builds an HTTP client with
// the configured timeout.
func NewClient(ctx context.Context, cfg config.GatewayConfig, logg *logger.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errBaseURLRequired
	}
	keyID := strings.TrimSpace(cfg.KeyID)
	if keyID == "" {
		return nil, errKeyIDRequired
	}
	keySecret := strings.TrimSpace(cfg.KeySecret)
	if keySecret == "" {
		return nil, errKeySecretRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	if logg != nil {
		logg.Info(ctx, fmt.Sprintf("payment gateway client initialized (%s)", baseURL))
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		keyID:      keyID,
		keySecret:  keySecret,
		currency:   strings.ToUpper(strings.TrimSpace(cfg.Currency)),
	}, nil
}

// Currency reports the ISO currency code the client charges in.
func (c *Client) Currency() string {
	if c == nil {
		return ""
	}
	return c.currency
}

// CreateOrder registers a gateway order for the given amount. The amount is
// converted to minor units (paise for INR). Transient gateway failures are
// retried with exponential backoff before giving up.
func (c *Client) CreateOrder(ctx context.Context, input CreateOrderInput) (*GatewayOrder, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodePaymentGateway, "gateway client not initialized")
	}
	if input.Amount.Sign() <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "gateway order amount must be positive")
	}

	payload := map[string]any{
		"amount":   MinorUnits(input.Amount),
		"currency": c.currency,
		"receipt":  input.Receipt,
	}
	if len(input.Notes) > 0 {
		payload["notes"] = input.Notes
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encoding gateway order")
	}

	var order GatewayOrder
	backoff := retry.WithMaxRetries(createMaxRetries, retry.NewExponential(createInitialBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		return c.postOrder(ctx, body, &order)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (c *Client) postOrder(ctx context.Context, body []byte, out *GatewayOrder) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building gateway request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Network failures and timeouts are worth another attempt.
		return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodePaymentGateway, err, "gateway unreachable"))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return retry.RetryableError(pkgerrors.Wrap(pkgerrors.CodePaymentGateway, err, "reading gateway response"))
	}

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		gwErr := pkgerrors.New(pkgerrors.CodePaymentGateway, fmt.Sprintf("gateway returned %d", resp.StatusCode)).
			WithDetails(errorDetails(respBody))
		return retry.RetryableError(gwErr)
	case resp.StatusCode >= http.StatusBadRequest:
		return pkgerrors.New(pkgerrors.CodePaymentGateway, fmt.Sprintf("gateway rejected order (%d)", resp.StatusCode)).
			WithDetails(errorDetails(respBody))
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodePaymentGateway, err, "decoding gateway order")
	}
	if strings.TrimSpace(out.ID) == "" {
		return pkgerrors.New(pkgerrors.CodePaymentGateway, "gateway order id missing in response")
	}
	return nil
}

// VerifyPaymentSignature checks the HMAC-SHA256 signature the gateway sends
// back after the shopper completes payment. The signed message is the gateway
// order id and payment id joined with a pipe.
func (c *Client) VerifyPaymentSignature(gatewayOrderID, gatewayPaymentID, signature string) bool {
	if c == nil {
		return false
	}
	if gatewayOrderID == "" || gatewayPaymentID == "" || signature == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(gatewayOrderID + "|" + gatewayPaymentID))
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(strings.ToLower(strings.TrimSpace(signature))))
}

// MinorUnits converts a decimal amount to the gateway's integer minor units
// (e.g. rupees to paise).
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func errorDetails(body []byte) map[string]any {
	var decoded map[string]any
	if err := json.Unmarshal(body, &decoded); err != nil || len(decoded) == 0 {
		return nil
	}
	return decoded
}
