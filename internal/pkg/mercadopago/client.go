package mercadopago

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/headshop-br/headshop/internal/pkg/env"
)

const defaultAPIBaseURL = "https://api.mercadopago.com"

// ErrNotFound is returned when the gateway does not know the requested entity.
var ErrNotFound = errors.New("mercadopago: entity not found")

// Client is an explicitly constructed gateway client. Handlers receive it via
// injection so tests can point it at an httptest server.
type Client struct {
	AccessToken string
	APIBaseURL  string

	HTTPClient *http.Client
}

// NewClientFromEnv builds a client from process environment. The base URL is
// overridable for sandboxes and tests.
func NewClientFromEnv() *Client {
	return &Client{
		AccessToken: strings.TrimSpace(env.GetEnv("MERCADOPAGO_ACCESS_TOKEN", "")),
		APIBaseURL:  strings.TrimRight(env.GetEnv("MERCADOPAGO_API_BASE_URL", defaultAPIBaseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// CreatePayment issues a charge (PIX or tokenized card). Each call carries a
// fresh idempotency key so gateway-side retries cannot double-charge.
func (c *Client) CreatePayment(ctx context.Context, req *PaymentRequest) (*Payment, []byte, error) {
	if req == nil {
		return nil, nil, errors.New("payment request is required")
	}
	if req.TransactionAmount <= 0 {
		return nil, nil, errors.New("transaction_amount must be positive")
	}

	headers := map[string]string{"X-Idempotency-Key": uuid.New().String()}
	var out Payment
	raw, err := c.do(ctx, http.MethodPost, "/v1/payments", req, headers, &out)
	if err != nil {
		return nil, raw, err
	}
	return &out, raw, nil
}

// GetPayment fetches the authoritative payment state by id.
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*Payment, []byte, error) {
	id := strings.TrimSpace(paymentID)
	if id == "" {
		return nil, nil, errors.New("payment id is required")
	}
	var out Payment
	raw, err := c.do(ctx, http.MethodGet, "/v1/payments/"+id, nil, nil, &out)
	if err != nil {
		return nil, raw, err
	}
	return &out, raw, nil
}

// CreatePreapproval opens a recurring-billing agreement against a card token.
func (c *Client) CreatePreapproval(ctx context.Context, req *PreapprovalRequest) (*Preapproval, []byte, error) {
	if req == nil {
		return nil, nil, errors.New("preapproval request is required")
	}
	if req.AutoRecurring.TransactionAmount <= 0 {
		return nil, nil, errors.New("auto_recurring.transaction_amount must be positive")
	}
	var out Preapproval
	raw, err := c.do(ctx, http.MethodPost, "/preapproval", req, nil, &out)
	if err != nil {
		return nil, raw, err
	}
	return &out, raw, nil
}

// GetPreapproval fetches the authoritative agreement state by id.
func (c *Client) GetPreapproval(ctx context.Context, preapprovalID string) (*Preapproval, []byte, error) {
	id := strings.TrimSpace(preapprovalID)
	if id == "" {
		return nil, nil, errors.New("preapproval id is required")
	}
	var out Preapproval
	raw, err := c.do(ctx, http.MethodGet, "/preapproval/"+id, nil, nil, &out)
	if err != nil {
		return nil, raw, err
	}
	return &out, raw, nil
}

// UpdatePreapprovalStatus pauses, resumes ("authorized") or cancels an
// agreement. Retry of failed recurring charges is the gateway's own policy
// (up to 4 attempts over 10 days, auto-cancel after 3 consecutive failures);
// this backend only observes the outcome via webhooks.
func (c *Client) UpdatePreapprovalStatus(ctx context.Context, preapprovalID, status string) (*Preapproval, error) {
	id := strings.TrimSpace(preapprovalID)
	if id == "" {
		return nil, errors.New("preapproval id is required")
	}
	switch status {
	case PreapprovalStatusAuthorized, PreapprovalStatusPaused, PreapprovalStatusCancelled:
	default:
		return nil, fmt.Errorf("unsupported preapproval status %q", status)
	}

	body := map[string]string{"status": status}
	var out Preapproval
	if _, err := c.do(ctx, http.MethodPut, "/preapproval/"+id, body, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) ([]byte, error) {
	if strings.TrimSpace(c.AccessToken) == "" {
		return nil, errors.New("MERCADOPAGO_ACCESS_TOKEN is not configured")
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode == http.StatusNotFound {
		return raw, ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr apiError
		if jsonErr := json.Unmarshal(raw, &apiErr); jsonErr == nil && apiErr.Message != "" {
			return raw, fmt.Errorf("mercadopago %s %s failed: status=%d message=%s", method, path, resp.StatusCode, apiErr.Message)
		}
		return raw, fmt.Errorf("mercadopago %s %s failed: status=%d body=%s", method, path, resp.StatusCode, string(raw))
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return raw, fmt.Errorf("mercadopago %s %s returned malformed payload: %w", method, path, err)
		}
	}
	return raw, nil
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}
