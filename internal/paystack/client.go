// Package paystack is a small client for the two Paystack transaction
// endpoints the bookstore checkout uses: initialize and verify.
package paystack

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrGateway is returned when Paystack answers with status=false or a
// non-2xx response.
var ErrGateway = errors.New("paystack gateway error")

const DefaultBaseURL = "https://api.paystack.co"

// Client calls the Paystack REST API with the merchant secret key.
type Client struct {
	baseURL   string
	secretKey string
	http      *http.Client
}

func NewClient(baseURL, secretKey string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		secretKey: secretKey,
		http:      &http.Client{Timeout: timeout},
	}
}

// Metadata travels with the transaction and comes back on verify and webhook.
type Metadata struct {
	BookID string `json:"book_id,omitempty"`
}

type Customer struct {
	Email string `json:"email"`
}

type InitializeRequest struct {
	Email       string   `json:"email"`
	Amount      int64    `json:"amount"`
	CallbackURL string   `json:"callback_url,omitempty"`
	Metadata    Metadata `json:"metadata"`
}

type InitializeResult struct {
	AuthorizationURL string `json:"authorization_url"`
	AccessCode       string `json:"access_code"`
	Reference        string `json:"reference"`
}

// Transaction is the data block returned by verify and carried by
// charge.success webhooks. Amount is in minor units.
type Transaction struct {
	Reference string   `json:"reference"`
	Status    string   `json:"status"`
	Amount    int64    `json:"amount"`
	Currency  string   `json:"currency,omitempty"`
	Customer  Customer `json:"customer"`
	Metadata  Metadata `json:"metadata"`
}

// Succeeded reports whether the gateway marked the transaction paid.
func (t *Transaction) Succeeded() bool {
	return t != nil && t.Status == "success"
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize creates a transaction and returns the hosted checkout URL.
func (c *Client) Initialize(ctx context.Context, in InitializeRequest) (*InitializeResult, error) {
	body, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encode initialize: %w", err)
	}
	var out InitializeResult
	if err := c.do(ctx, http.MethodPost, "/transaction/initialize", bytes.NewReader(body), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Verify fetches the transaction for reference. A transaction that exists but
// did not succeed is returned without error; callers check Succeeded.
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	if reference == "" {
		return nil, fmt.Errorf("%w: empty reference", ErrGateway)
	}
	var out Transaction
	if err := c.do(ctx, http.MethodGet, "/transaction/verify/"+url.PathEscape(reference), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("paystack %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("%w: %s returned %d with undecodable body", ErrGateway, path, resp.StatusCode)
	}
	if resp.StatusCode/100 != 2 || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return fmt.Errorf("%w: %s", ErrGateway, msg)
	}
	if len(env.Data) == 0 || out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s data: %w", path, err)
	}
	return nil
}

// Event is an inbound webhook payload.
type Event struct {
	Event string      `json:"event"`
	Data  Transaction `json:"data"`
}

const EventChargeSuccess = "charge.success"

// ParseEvent decodes a webhook body. It does not check the signature.
func ParseEvent(body []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, fmt.Errorf("decode webhook event: %w", err)
	}
	return &ev, nil
}
