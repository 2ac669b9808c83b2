// Package rpcclient provides the JSON-RPC 2.0 client for Rooch nodes and
// the façade operations built on it.
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rooch-network/rooch-go/config"
	klog "github.com/rooch-network/rooch-go/internal/log"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Client is a JSON-RPC 2.0 HTTP client. It is safe for concurrent use.
type Client struct {
	endpoint string
	http     *http.Client
	limiter  *rate.Limiter // nil = unlimited
	metrics  *Metrics      // nil = disabled
	logger   zerolog.Logger
	nextID   atomic.Uint64
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the HTTP timeout of each call.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithRateLimit caps the request rate. A non-positive rps disables the
// limiter.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics records per-method request metrics.
func WithMetrics(m *Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithLogger sets the logger for request tracing.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a new RPC client targeting the given endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	c := &Client{
		endpoint: endpoint,
		http:     &http.Client{Timeout: 10 * time.Second},
		logger:   klog.WithComponent("rpc"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewWithTimeout creates a new RPC client with a custom HTTP timeout.
func NewWithTimeout(endpoint string, timeout time.Duration) *Client {
	return New(endpoint, WithTimeout(timeout))
}

// NewFromConfig creates a client from the rpc config section.
func NewFromConfig(cfg config.RPCConfig, opts ...Option) *Client {
	base := []Option{WithTimeout(cfg.Timeout), WithRateLimit(cfg.RateLimit, cfg.Burst)}
	return New(cfg.URL, append(base, opts...)...)
}

// Endpoint returns the node URL.
func (c *Client) Endpoint() string { return c.endpoint }

// request is a JSON-RPC 2.0 request.
type request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      uint64      `json:"id"`
}

// response is a JSON-RPC 2.0 response.
type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// rpcError is a JSON-RPC 2.0 error.
type rpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Call invokes a JSON-RPC method and unmarshals the result into the provided pointer.
// If result is nil, the response result is discarded. Params are sent as
// given; nil becomes an empty positional list.
func (c *Client) Call(ctx context.Context, method string, params, result interface{}) (err error) {
	start := time.Now()
	defer func() { c.observe(method, start, err) }()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	if params == nil {
		params = []interface{}{}
	}
	req := request{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	var rpcResp response
	if err := json.Unmarshal(data, &rpcResp); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("http status %d", resp.StatusCode)
		}
		return fmt.Errorf("decode response: %w", err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Code:    rpcResp.Error.Code,
			Message: rpcResp.Error.Message,
			Data:    rpcResp.Error.Data,
		}
	}
	if rpcResp.ID != req.ID {
		return fmt.Errorf("response id %d does not match request id %d", rpcResp.ID, req.ID)
	}

	if result != nil && rpcResp.Result != nil {
		if err := json.Unmarshal(rpcResp.Result, result); err != nil {
			return fmt.Errorf("decode result: %w", err)
		}
	}

	return nil
}

func (c *Client) observe(method string, start time.Time, err error) {
	outcome := outcomeOK
	var rpcErr *RPCError
	switch {
	case err == nil:
	case errors.As(err, &rpcErr):
		outcome = outcomeRPCError
	default:
		outcome = outcomeTransportError
	}

	elapsed := time.Since(start)
	if c.metrics != nil {
		c.metrics.Requests.WithLabelValues(method, outcome).Inc()
		c.metrics.Duration.WithLabelValues(method).Observe(elapsed.Seconds())
	}
	c.logger.Debug().
		Str("method", method).
		Str("outcome", outcome).
		Dur("elapsed", elapsed).
		Err(err).
		Msg("RPC call")
}
