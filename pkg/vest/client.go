package vest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jcgs2503/vestbridge/pkg/model"
)

// Client talks to one VestBridge tool server.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// NewClient creates a client for the server at baseURL
// (e.g. "http://localhost:8080").
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health is the server's liveness report.
type Health struct {
	Status  string `json:"status"`
	AgentID string `json:"agent_id"`
}

// OrderParams is the input to PlaceOrder. Side is required; OrderType
// and AssetType default server-side to market/equity.
type OrderParams struct {
	Symbol     string  `json:"symbol"`
	Qty        float64 `json:"qty"`
	Side       string  `json:"side"`
	OrderType  string  `json:"order_type,omitempty"`
	LimitPrice float64 `json:"limit_price,omitempty"`
	AssetType  string  `json:"asset_type,omitempty"`
}

// OrderOutcome is the result of PlaceOrder: either a broker result, or
// the mandate's refusal with the full check breakdown.
type OrderOutcome struct {
	Blocked bool
	Reason  string
	Message string
	Checks  []model.CheckResult
	Result  *model.OrderResult
}

// Action is one entry from the agent's recent-action view.
type Action struct {
	Action        string         `json:"action"`
	Timestamp     time.Time      `json:"timestamp"`
	Params        map[string]any `json:"params"`
	MandateCheck  string         `json:"mandate_check,omitempty"`
	MandateReason string         `json:"mandate_reason,omitempty"`
	Status        string         `json:"status,omitempty"`
}

// Healthz reports server liveness and the serving agent.
func (c *Client) Healthz(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.get(ctx, "/healthz", &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// GetQuote fetches the current quote for a symbol.
func (c *Client) GetQuote(ctx context.Context, symbol string) (*model.Quote, error) {
	var q model.Quote
	if err := c.get(ctx, "/v1/quote/"+url.PathEscape(symbol), &q); err != nil {
		return nil, err
	}
	return &q, nil
}

// GetPositions lists the agent's current holdings.
func (c *Client) GetPositions(ctx context.Context) ([]model.Position, error) {
	var positions []model.Position
	if err := c.get(ctx, "/v1/positions", &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// GetAccount fetches the account summary.
func (c *Client) GetAccount(ctx context.Context) (*model.Account, error) {
	var a model.Account
	if err := c.get(ctx, "/v1/account", &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// PlaceOrder submits an order. A mandate block is reported in the
// outcome, not as an error.
func (c *Client) PlaceOrder(ctx context.Context, params OrderParams) (*OrderOutcome, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var result model.OrderResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("decode order result: %w", err)
		}
		return &OrderOutcome{Result: &result}, nil
	case http.StatusForbidden:
		var blocked struct {
			Reason  string              `json:"reason"`
			Message string              `json:"message"`
			Checks  []model.CheckResult `json:"checks"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&blocked); err != nil {
			return nil, fmt.Errorf("decode blocked response: %w", err)
		}
		return &OrderOutcome{
			Blocked: true,
			Reason:  blocked.Reason,
			Message: blocked.Message,
			Checks:  blocked.Checks,
		}, nil
	default:
		return nil, readError(resp)
	}
}

// CancelOrder cancels a pending order by ID.
func (c *Client) CancelOrder(ctx context.Context, orderID string) (*model.CancelResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete,
		c.baseURL+"/v1/orders/"+url.PathEscape(orderID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readError(resp)
	}
	var result model.CancelResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode cancel result: %w", err)
	}
	return &result, nil
}

// RecentActions returns the agent's last n audited actions.
func (c *Client) RecentActions(ctx context.Context, n int) ([]Action, error) {
	var actions []Action
	if err := c.get(ctx, "/v1/actions?n="+strconv.Itoa(n), &actions); err != nil {
		return nil, err
	}
	return actions, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return readError(resp)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func readError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("server returned %s: %s", resp.Status, payload.Error)
	}
	return fmt.Errorf("server returned %s", resp.Status)
}
