// Package gateway implements the remote-platform bridge over HTTP.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"querydesk/internal/domain"
)

// DefaultTimeout is the per-call budget for remote metadata operations.
const DefaultTimeout = 10 * time.Second

var _ domain.RemoteGateway = (*Client)(nil)

// Client talks to the external marketing-automation platform's REST API.
// Responses are returned undecoded beyond raw JSON; the calling core owns
// all defensive parsing. A token-bucket limiter applies backpressure so
// bursts of blast-radius fetches stay inside the platform's rate limits.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	timeout time.Duration
}

// Options configures a Client.
type Options struct {
	BaseURL string
	Timeout time.Duration // 0 means DefaultTimeout
	RPS     float64       // sustained requests per second (0 disables limiting)
	Burst   int
}

// New creates a Client.
func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = int(opts.RPS)
			if burst < 1 {
				burst = 1
			}
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	return &Client{
		baseURL: opts.BaseURL,
		http:    &http.Client{Timeout: timeout},
		limiter: limiter,
		timeout: timeout,
	}
}

// Request performs one remote call with the fixed timeout budget. A
// timeout surfaces as an ordinary error; the caller decides whether it is
// fatal (discovery, publish) or degradable (detail enrichment).
func (c *Client) Request(ctx context.Context, scope domain.Scope, req domain.RemoteRequest) (domain.RawDocument, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	method, path, body, err := c.route(req)
	if err != nil {
		return nil, err
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(callCtx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	httpReq.Header.Set("X-Tenant-Id", scope.TenantID)
	httpReq.Header.Set("X-Business-Unit-Id", scope.BusinessUnitID)
	httpReq.Header.Set("X-User-Id", scope.UserID)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("remote call %s: %w", req.Kind, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read remote response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("remote call %s: status %d: %s", req.Kind, resp.StatusCode, truncate(payload, 256))
	}

	if len(payload) == 0 {
		return domain.RawDocument{}, nil
	}
	var doc domain.RawDocument
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("decode remote response: %w", err)
	}
	return doc, nil
}

// route maps a request spec to an HTTP method, path, and optional body.
func (c *Client) route(req domain.RemoteRequest) (method, path string, body interface{}, err error) {
	switch req.Kind {
	case domain.RemoteGetAutomationList:
		query := url.Values{}
		query.Set("$page", strconv.Itoa(req.Page))
		query.Set("$pageSize", strconv.Itoa(req.PageSize))
		return http.MethodGet, "/automation/v1/automations?" + query.Encode(), nil, nil

	case domain.RemoteGetAutomationDetail:
		if req.AutomationID == "" {
			return "", "", nil, fmt.Errorf("automation id is required")
		}
		return http.MethodGet, "/automation/v1/automations/" + url.PathEscape(req.AutomationID), nil, nil

	case domain.RemoteUpdateQueryText:
		if req.RemoteObjectID == "" {
			return "", "", nil, fmt.Errorf("remote object id is required")
		}
		return http.MethodPatch, "/automation/v1/queries/" + url.PathEscape(req.RemoteObjectID),
			map[string]string{"queryText": req.SQLText}, nil

	case domain.RemoteGetQueryDetail:
		if req.RemoteKey == "" {
			return "", "", nil, fmt.Errorf("remote key is required")
		}
		return http.MethodGet, "/automation/v1/queries/key:" + url.PathEscape(req.RemoteKey), nil, nil

	default:
		return "", "", nil, fmt.Errorf("unsupported remote request kind %q", req.Kind)
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
