// Package backend is the typed HTTP client for the upstream trading backend.
// It owns JSON serialization, bearer-token forwarding and the error taxonomy;
// it performs no retries — transient failures are the caller's problem.
package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps the trading backend base URL.
type Client struct {
	http *resty.Client
}

// New builds a Client for baseURL with a whole-call timeout.
func New(baseURL string, timeout time.Duration) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json")
	return &Client{http: rc}
}

type callStartKey struct{}

// Instrument registers an observer invoked after every upstream call with the
// call duration and whether it failed (transport error or non-2xx status). The
// start time rides the request context because resty only tracks timings for
// calls that produce a response.
func (c *Client) Instrument(observe func(d time.Duration, failed bool)) {
	c.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetContext(context.WithValue(req.Context(), callStartKey{}, time.Now()))
		return nil
	})
	c.http.OnAfterResponse(func(_ *resty.Client, resp *resty.Response) error {
		observe(resp.Time(), resp.IsError())
		return nil
	})
	c.http.OnError(func(req *resty.Request, _ error) {
		var d time.Duration
		if start, ok := req.Context().Value(callStartKey{}).(time.Time); ok {
			d = time.Since(start)
		}
		observe(d, true)
	})
}

// do issues one JSON call. A supplied token is forwarded as Bearer
// authorization. 401 maps to ErrUnauthorized, other non-2xx to StatusError,
// transport failures to UnavailableError.
func (c *Client) do(ctx context.Context, method, path, token string, query map[string]string, body, out any) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if token != "" {
		req.SetAuthToken(token)
	}
	if query != nil {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return &UnavailableError{Op: method + " " + path, Err: err}
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusUnauthorized:
		return ErrUnauthorized
	case status < 200 || status > 299:
		return newStatusError(status, resp.Body())
	}

	// Some writes answer 200/204 with no body; that is not a decode failure.
	if out != nil && len(resp.Body()) > 0 {
		if err := json.Unmarshal(resp.Body(), out); err != nil {
			return fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}
	return nil
}

// Raw relays a request verbatim and returns the upstream status and body
// untouched. Proxy handlers use it so pass-through routes stay mechanical.
func (c *Client) Raw(ctx context.Context, method, path, token string, body []byte) (int, []byte, error) {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json")
	if token != "" {
		req.SetAuthToken(token)
	}
	if len(body) > 0 {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return 0, nil, &UnavailableError{Op: method + " " + path, Err: err}
	}
	return resp.StatusCode(), resp.Body(), nil
}

// ListModels returns the user's AI-model configurations.
func (c *Client) ListModels(ctx context.Context, token string) ([]AIModel, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/models", token, nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[AIModel](raw, "models")
}

// UpdateModel upserts one model configuration.
func (c *Client) UpdateModel(ctx context.Context, token, modelID string, upd AIModelUpdate) error {
	return c.do(ctx, http.MethodPut, "/api/models/"+modelID, token, nil, upd, nil)
}

// ListExchanges returns the user's exchange configurations.
func (c *Client) ListExchanges(ctx context.Context, token string) ([]Exchange, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/exchanges", token, nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Exchange](raw, "exchanges")
}

// UpsertExchange creates or replaces one exchange configuration.
func (c *Client) UpsertExchange(ctx context.Context, token string, ex Exchange) error {
	return c.do(ctx, http.MethodPut, "/api/exchanges/"+ex.ID, token, nil, ex, nil)
}

// CreateTrader persists a new trader and returns the backend's record.
func (c *Client) CreateTrader(ctx context.Context, token string, spec TraderSpec) (*Trader, error) {
	var trader Trader
	if err := c.do(ctx, http.MethodPost, "/api/traders", token, nil, spec, &trader); err != nil {
		return nil, err
	}
	return &trader, nil
}

// UpdateTrader resends the full trader field set.
func (c *Client) UpdateTrader(ctx context.Context, token, traderID string, spec TraderSpec) (*Trader, error) {
	var trader Trader
	if err := c.do(ctx, http.MethodPut, "/api/traders/"+traderID, token, nil, spec, &trader); err != nil {
		return nil, err
	}
	return &trader, nil
}

// StartTrader transitions a stopped trader to running.
func (c *Client) StartTrader(ctx context.Context, token, traderID string) (map[string]any, error) {
	out := map[string]any{}
	if err := c.do(ctx, http.MethodPost, "/api/traders/"+traderID+"/start", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// StopTrader transitions a running trader to stopped. Open positions are not
// closed; they remain until closed separately or hit a stop inside the backend.
func (c *Client) StopTrader(ctx context.Context, token, traderID string) (map[string]any, error) {
	out := map[string]any{}
	if err := c.do(ctx, http.MethodPost, "/api/traders/"+traderID+"/stop", token, nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteTrader removes a trader permanently.
func (c *Client) DeleteTrader(ctx context.Context, token, traderID string) error {
	return c.do(ctx, http.MethodDelete, "/api/traders/"+traderID, token, nil, nil, nil)
}

// TraderConfig fetches the detailed configuration for one trader.
func (c *Client) TraderConfig(ctx context.Context, token, traderID string) (*TraderConfig, error) {
	var cfg TraderConfig
	if err := c.do(ctx, http.MethodGet, "/api/traders/"+traderID+"/config", token, nil, nil, &cfg); err != nil {
		return nil, err
	}
	if cfg.TraderID == "" {
		cfg.TraderID = traderID
	}
	return &cfg, nil
}

// MyTraders lists the authenticated user's traders.
func (c *Client) MyTraders(ctx context.Context, token string) ([]Trader, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/my-traders", token, nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Trader](raw, "traders")
}

// Competition lists all public leaderboard entries.
func (c *Client) Competition(ctx context.Context) ([]CompetitionTrader, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/competition", "", nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[CompetitionTrader](raw, "traders")
}

// Account fetches the live account snapshot for one trader.
func (c *Client) Account(ctx context.Context, traderID string) (json.RawMessage, error) {
	return c.read(ctx, "/api/account", traderID)
}

// Positions fetches the open positions for one trader.
func (c *Client) Positions(ctx context.Context, traderID string) (json.RawMessage, error) {
	return c.read(ctx, "/api/positions", traderID)
}

// AllPositions fetches every open position across traders.
func (c *Client) AllPositions(ctx context.Context) ([]Position, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/api/positions/all", "", nil, nil, &raw); err != nil {
		return nil, err
	}
	return decodeList[Position](raw, "positions")
}

// EquityHistory fetches the equity curve for one trader.
func (c *Client) EquityHistory(ctx context.Context, traderID string) (json.RawMessage, error) {
	return c.read(ctx, "/api/equity-history", traderID)
}

// Performance fetches performance analytics for one trader.
func (c *Client) Performance(ctx context.Context, traderID string) (json.RawMessage, error) {
	return c.read(ctx, "/api/performance", traderID)
}

// Statistics fetches cycle statistics for one trader.
func (c *Client) Statistics(ctx context.Context, traderID string) (json.RawMessage, error) {
	return c.read(ctx, "/api/statistics", traderID)
}

// read issues one trader-keyed GET and returns the provider-shaped document.
func (c *Client) read(ctx context.Context, path, traderID string) (json.RawMessage, error) {
	var raw json.RawMessage
	query := map[string]string{"trader_id": traderID}
	if err := c.do(ctx, http.MethodGet, path, "", query, nil, &raw); err != nil {
		return nil, err
	}
	return raw, nil
}

// decodeList accepts either a bare JSON array or an object wrapping the array
// under wrapKey. The backend has returned both shapes across versions.
func decodeList[T any](raw json.RawMessage, wrapKey string) ([]T, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []T
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	inner, ok := wrapped[wrapKey]
	if !ok {
		return nil, nil
	}
	if err := json.Unmarshal(inner, &list); err != nil {
		return nil, fmt.Errorf("decode %s list: %w", wrapKey, err)
	}
	return list, nil
}
