// Package sink is the HTTP client of the telemetry ingestion service.
package sink

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/arloliu/msdsim/machine"
	"github.com/go-resty/resty/v2"
	"github.com/vmihailenco/msgpack/v5"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

// ErrStatus is returned when the sink answers with a non-2xx status.
var ErrStatus = errors.New("sink: unexpected response status")

// Request paths relative to the base URL.
const (
	SchemaPath = "/schema"
	DataPath   = "/data"
)

// ContentType selects the body encoding.
type ContentType string

const (
	JSON    ContentType = "json"
	MsgPack ContentType = "msgpack"
)

func (c ContentType) mime() string {
	if c == MsgPack {
		return "application/msgpack"
	}

	return "application/json"
}

type clientConfig struct {
	timeout     time.Duration
	contentType ContentType
	transport   http.RoundTripper
	logger      *zap.Logger
}

// Option configures a Client.
type Option func(*clientConfig)

// WithTimeout bounds each request. Zero means no client-side timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) { c.timeout = d }
}

// WithContentType selects JSON (default) or MessagePack bodies.
func WithContentType(ct ContentType) Option {
	return func(c *clientConfig) { c.contentType = ct }
}

// WithTransport replaces the base transport. It is still wrapped by otelhttp.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *clientConfig) { c.transport = rt }
}

// WithLogger sets the logger for request debugging.
func WithLogger(l *zap.Logger) Option {
	return func(c *clientConfig) { c.logger = l }
}

// Client posts schema and data messages. It never retries.
type Client struct {
	http        *resty.Client
	contentType ContentType
	logger      *zap.Logger
}

// New creates a Client for the sink at baseURL, e.g. "http://localhost:8081/services/mid".
func New(baseURL string, opts ...Option) *Client {
	cfg := clientConfig{
		timeout:     10 * time.Second,
		contentType: JSON,
		transport:   http.DefaultTransport,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	rc := resty.New().
		SetBaseURL(baseURL).
		SetTransport(otelhttp.NewTransport(cfg.transport)).
		SetHeader("Accept", "application/json")
	if cfg.timeout > 0 {
		rc.SetTimeout(cfg.timeout)
	}

	return &Client{
		http:        rc,
		contentType: cfg.contentType,
		logger:      cfg.logger,
	}
}

// SendSchema posts msg to the schema endpoint.
func (c *Client) SendSchema(ctx context.Context, msg machine.SchemaMessage) error {
	return c.post(ctx, SchemaPath, msg)
}

// SendData posts msg to the data endpoint.
func (c *Client) SendData(ctx context.Context, msg machine.DataMessage) error {
	return c.post(ctx, DataPath, msg)
}

func (c *Client) post(ctx context.Context, path string, body any) error {
	payload, err := c.encode(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", c.contentType.mime()).
		SetBody(payload).
		Post(path)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: post %s returned %d", ErrStatus, path, resp.StatusCode())
	}

	c.logger.Debug("sink accepted message",
		zap.String("path", path),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)

	return nil
}

// encode returns body as bytes in the configured encoding.
func (c *Client) encode(body any) (any, error) {
	if c.contentType == MsgPack {
		return msgpack.Marshal(body)
	}

	return body, nil
}
