package transport

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
)

// Default client tuning.
const (
	DefaultMaxIdleConns        = 100
	DefaultMaxIdleConnsPerHost = 10
	DefaultIdleConnTimeout     = 90 * time.Second
	DefaultMaxResponseBytes    = 10 << 20 // 10 MiB
	DefaultMaxRedirects        = 3
)

// Config holds HTTP client tuning.
type Config struct {
	// MaxIdleConns caps pooled connections across all hosts
	MaxIdleConns int

	// MaxIdleConnsPerHost caps pooled connections per provider host
	MaxIdleConnsPerHost int

	// IdleConnTimeout is how long an idle pooled connection survives
	IdleConnTimeout time.Duration

	// MaxResponseBytes bounds how much of a response body is read
	MaxResponseBytes int64

	// PropagateTrace injects W3C trace-context headers into outbound
	// requests when a span is active on the context
	PropagateTrace bool

	// TLS configures client-side TLS for custom or self-hosted endpoints
	TLS TLSOptions
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = DefaultMaxIdleConns
	}
	if c.MaxIdleConnsPerHost <= 0 {
		c.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	}
	if c.IdleConnTimeout <= 0 {
		c.IdleConnTimeout = DefaultIdleConnTimeout
	}
	if c.MaxResponseBytes <= 0 {
		c.MaxResponseBytes = DefaultMaxResponseBytes
	}
}

// Response is a captured provider response: status, bounded body, and
// headers. A Response is only returned for 2xx statuses; everything else
// becomes a classified error.
type Response struct {
	Status int
	Body   []byte
	Header http.Header
}

// Client wraps an http.Client with JSON conventions, bounded redirects,
// bounded body capture, and error classification into the chat taxonomy.
type Client struct {
	http      *http.Client
	maxBody   int64
	propagate bool
	logger    *slog.Logger
}

// New builds a client. Deadlines come from the per-attempt context, not a
// client-wide timeout, so the retry executor stays in charge of timing.
func New(cfg Config) (*Client, error) {
	cfg.ApplyDefaults()

	tlsConfig, err := cfg.TLS.Build()
	if err != nil {
		return nil, fmt.Errorf("transport: %w", err)
	}

	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		TLSClientConfig:     tlsConfig,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		http: &http.Client{
			Transport: transport,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= DefaultMaxRedirects {
					return fmt.Errorf("stopped after %d redirects", DefaultMaxRedirects)
				}
				return nil
			},
		},
		maxBody:   cfg.MaxResponseBytes,
		propagate: cfg.PropagateTrace,
		logger:    slog.Default().With("component", "transport"),
	}, nil
}

// PostJSON sends a JSON body and returns the 2xx response, or a classified
// *chat.Error for everything else.
func (c *Client) PostJSON(ctx context.Context, url string, body []byte, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, body, headers)
}

// Get fetches a URL (model catalogs) with the same classification rules.
func (c *Client) Get(ctx context.Context, url string, headers map[string]string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, nil, headers)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte, headers map[string]string) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, classifyTransportError(ctx, fmt.Errorf("build request: %w", err))
	}

	for key, value := range headers {
		req.Header.Set(key, value)
	}
	if body != nil && req.Header.Get("Content-Type") == "" {
		req.Header.Set("Content-Type", "application/json")
	}

	if c.propagate {
		otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	captured, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody))
	if err != nil {
		return nil, classifyTransportError(ctx, fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return &Response{
			Status: resp.StatusCode,
			Body:   captured,
			Header: resp.Header,
		}, nil
	}

	return nil, classifyStatus(resp.StatusCode, resp.Header, captured)
}
