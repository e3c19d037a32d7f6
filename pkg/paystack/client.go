package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vetlink/backend/pkg/config"
	pkgerrors "github.com/vetlink/backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://api.paystack.co"
	responseBodyReadLimit int64 = 1024
)

// SignatureHeader carries the HMAC-SHA512 digest Paystack computes over the
// raw webhook body.
const SignatureHeader = "x-paystack-signature"

// Client wraps the Paystack transaction APIs used for subscription billing.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secret     string
	callback   string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured Paystack base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Paystack client from configuration.
func NewClient(cfg config.PaystackConfig, opts ...Option) (*Client, error) {
	secret := strings.TrimSpace(cfg.Secret)
	if secret == "" {
		return nil, fmt.Errorf("paystack secret is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	client := &Client{
		secret:     secret,
		callback:   strings.TrimSpace(cfg.CallbackURL),
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
	if trimmed := strings.TrimSpace(cfg.BaseURL); trimmed != "" {
		client.baseURL = trimmed
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// InitializeRequest describes a transaction-initialize call. Amount is in
// naira; the client converts to kobo on the wire.
type InitializeRequest struct {
	Email     string
	Amount    decimal.Decimal
	Reference string
	Metadata  map[string]any
}

// InitializeResult holds the checkout handle returned by Paystack.
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string
}

// VerifyResult is the settlement status of a transaction reference.
type VerifyResult struct {
	Status        string
	Reference     string
	TransactionID string
	AmountKobo    int64
	PaidAt        string
	Channel       string
}

// Succeeded reports whether the gateway settled the transaction.
func (v VerifyResult) Succeeded() bool {
	return v.Status == "success"
}

// Initialize opens a checkout session for the given amount and reference.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paystack client not configured")
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer email is required")
	}
	if !req.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}

	body := map[string]any{
		"email":  req.Email,
		"amount": req.Amount.Mul(decimal.NewFromInt(100)).IntPart(),
	}
	if req.Reference != "" {
		body["reference"] = req.Reference
	}
	if c.callback != "" {
		body["callback_url"] = c.callback
	}
	if len(req.Metadata) > 0 {
		body["metadata"] = req.Metadata
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal initialize request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.buildURL("transaction/initialize"), bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build initialize request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute initialize request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "initialize request failed")
	}

	var apiResp struct {
		Status  bool   `json:"status"`
		Message string `json:"message"`
		Data    struct {
			AuthorizationURL string `json:"authorization_url"`
			AccessCode       string `json:"access_code"`
			Reference        string `json:"reference"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode initialize response")
	}
	if !apiResp.Status {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("paystack rejected initialize: %s", apiResp.Message))
	}

	return &InitializeResult{
		AuthorizationURL: apiResp.Data.AuthorizationURL,
		AccessCode:       apiResp.Data.AccessCode,
		Reference:        apiResp.Data.Reference,
	}, nil
}

// Verify fetches the settlement status for a transaction reference.
func (c *Client) Verify(ctx context.Context, reference string) (*VerifyResult, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "paystack client not configured")
	}
	trimmed := strings.TrimSpace(reference)
	if trimmed == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction reference is required")
	}

	endpoint := c.buildURL("transaction/verify/" + url.PathEscape(trimmed))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build verify request")
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute verify request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction reference not found")
	}
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "verify request failed")
	}

	var apiResp struct {
		Status bool `json:"status"`
		Data   struct {
			ID      int64  `json:"id"`
			Status  string `json:"status"`
			Ref     string `json:"reference"`
			Amount  int64  `json:"amount"`
			PaidAt  string `json:"paid_at"`
			Channel string `json:"channel"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode verify response")
	}

	return &VerifyResult{
		Status:        apiResp.Data.Status,
		Reference:     apiResp.Data.Ref,
		TransactionID: fmt.Sprintf("%d", apiResp.Data.ID),
		AmountKobo:    apiResp.Data.Amount,
		PaidAt:        apiResp.Data.PaidAt,
		Channel:       apiResp.Data.Channel,
	}, nil
}

// ValidSignature verifies the webhook digest over the raw request body using
// constant-time comparison.
func (c *Client) ValidSignature(body []byte, signature string) bool {
	if c == nil || signature == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(c.secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (c *Client) buildURL(path string) string {
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}
