// Package portalapi is the HTTP client for the portal service that owns
// themes and process records. Every call goes through one circuit
// breaker; failures come back as *ClientError.
package portalapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"agora/internal/theme/models"
	"agora/pkg/domain"
	"agora/pkg/platform/circuit"
)

// maxBodyBytes caps how much of a response is read.
const maxBodyBytes = 16 << 20

type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	breaker    *circuit.Breaker
	logger     *slog.Logger
	metrics    *Metrics
	tracer     trace.Tracer
}

type Option func(*Client)

// WithHTTPClient replaces the default client, e.g. for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout of the default client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(c *Client) {
		c.breaker = b
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

func WithMetrics(m *Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// New creates a client for the portal service rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse portal base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("portal base url must be http(s), got %q", baseURL)
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    u,
		breaker:    circuit.New("portal"),
		logger:     slog.Default(),
		tracer:     otel.Tracer("agora/portalapi"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FetchTheme reads one theme. An unknown id yields a ClientError in the
// not_found category, which matches sentinel.ErrNotFound.
func (c *Client) FetchTheme(ctx context.Context, id domain.ThemeID) (*models.Theme, error) {
	body, err := c.get(ctx, "theme", "themes", id.String())
	if err != nil {
		return nil, err
	}
	var theme models.Theme
	if err := json.Unmarshal(body, &theme); err != nil {
		return nil, NewClientError(ErrorBadData, "theme", "decode theme", err)
	}
	return &theme, nil
}

// FetchThemes reads every theme.
func (c *Client) FetchThemes(ctx context.Context) ([]models.Theme, error) {
	body, err := c.get(ctx, "themes", "themes")
	if err != nil {
		return nil, err
	}
	raws, err := decodeList(body)
	if err != nil {
		return nil, NewClientError(ErrorBadData, "themes", "decode theme list", err)
	}
	themes := make([]models.Theme, 0, len(raws))
	for _, raw := range raws {
		var t models.Theme
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, NewClientError(ErrorBadData, "themes", "decode theme", err)
		}
		themes = append(themes, t)
	}
	return themes, nil
}

// FetchCollection reads the raw records of one process kind. Records are
// returned undecoded so one malformed record does not fail the others.
func (c *Client) FetchCollection(ctx context.Context, kind domain.ProcessKind) ([]json.RawMessage, error) {
	if !kind.IsValid() {
		return nil, NewClientError(ErrorInternal, kind.String(), "unknown process kind", nil)
	}
	body, err := c.get(ctx, kind.String(), kind.Slug())
	if err != nil {
		return nil, err
	}
	raws, err := decodeList(body)
	if err != nil {
		return nil, NewClientError(ErrorBadData, kind.String(), "decode collection", err)
	}
	return raws, nil
}

func (c *Client) get(ctx context.Context, resource string, segments ...string) ([]byte, error) {
	ctx, span := c.tracer.Start(ctx, "portalapi.get", trace.WithAttributes(attribute.String("portal.resource", resource)))
	defer span.End()

	start := time.Now()
	body, err := c.do(ctx, resource, segments)
	c.metrics.observe(resource, categoryOrEmpty(err), start)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(CategoryOf(err)))
	}
	return body, err
}

func (c *Client) do(ctx context.Context, resource string, segments []string) ([]byte, error) {
	if !c.breaker.Allow() {
		return nil, NewClientError(ErrorCircuitOpen, resource, "portal circuit open", nil)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.JoinPath(segments...).String(), nil)
	if err != nil {
		return nil, NewClientError(ErrorInternal, resource, "build request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		c.recordFailure(ctx, resource)
		if isTimeout(err) {
			return nil, NewClientError(ErrorTimeout, resource, "request timed out", err)
		}
		return nil, NewClientError(ErrorOutage, resource, "request failed", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.recordSuccess(ctx)
		return nil, NewClientError(ErrorNotFound, resource, "not found", nil)
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		c.recordFailure(ctx, resource)
		return nil, NewClientError(ErrorOutage, resource, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	case resp.StatusCode != http.StatusOK:
		c.recordSuccess(ctx)
		return nil, NewClientError(ErrorBadData, resource, fmt.Sprintf("unexpected status %d", resp.StatusCode), nil)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		c.recordFailure(ctx, resource)
		return nil, NewClientError(ErrorOutage, resource, "read response", err)
	}
	c.recordSuccess(ctx)
	return body, nil
}

func (c *Client) recordFailure(ctx context.Context, resource string) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.metrics.breaker(true)
		c.logger.WarnContext(ctx, "portal circuit opened",
			"breaker", c.breaker.Name(),
			"resource", resource,
		)
	}
}

func (c *Client) recordSuccess(ctx context.Context) {
	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.metrics.breaker(false)
		c.logger.InfoContext(ctx, "portal circuit closed", "breaker", c.breaker.Name())
	}
}

// decodeList accepts a bare JSON array or an object wrapping it under
// "items" or "data".
func decodeList(body []byte) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var raws []json.RawMessage
		if err := json.Unmarshal(trimmed, &raws); err != nil {
			return nil, err
		}
		return raws, nil
	}
	var envelope struct {
		Items []json.RawMessage `json:"items"`
		Data  []json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	switch {
	case envelope.Items != nil:
		return envelope.Items, nil
	case envelope.Data != nil:
		return envelope.Data, nil
	}
	return nil, errors.New("response is neither a list nor a list envelope")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func categoryOrEmpty(err error) ErrorCategory {
	if err == nil {
		return ""
	}
	return CategoryOf(err)
}
