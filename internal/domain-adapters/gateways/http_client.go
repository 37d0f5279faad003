package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/ochairo/slime/internal/domain/errs"
	"github.com/ochairo/slime/internal/domain/interfaces"
)

const (
	// Initial backoff duration
	initialBackoff = 500 * time.Millisecond
	// Max backoff duration
	maxBackoff = 8 * time.Second
	// Max error body kept in messages
	maxErrorBody = 4 << 10

	requestIDHeader = "X-Request-ID"
	userAgent       = "slime/1.0"
)

// Options configures the HTTP gateways
type Options struct {
	BaseURL                    string
	Timeout                    time.Duration
	MaxRetries                 int
	AssistantRequestsPerMinute int

	// InitialBackoff overrides the first retry delay.
	InitialBackoff time.Duration

	HTTPClient     *http.Client
	Logger         interfaces.Logger
	Registerer     prometheus.Registerer
	TracerProvider trace.TracerProvider
}

// httpClient is the transport shared by every sub-gateway
type httpClient struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	backoff    time.Duration
	logger     interfaces.Logger
	metrics    *Metrics
	tracer     trace.Tracer
	limiter    *rate.Limiter
	lists      singleflight.Group
}

func newHTTPClient(opts Options) (*httpClient, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		return nil, errs.Validation("NewGateway", "backend base URL is required")
	}

	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	provider := opts.TracerProvider
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	backoff := opts.InitialBackoff
	if backoff <= 0 {
		backoff = initialBackoff
	}

	limit := rate.Inf
	burst := 1
	if opts.AssistantRequestsPerMinute > 0 {
		limit = rate.Limit(float64(opts.AssistantRequestsPerMinute) / 60)
		burst = opts.AssistantRequestsPerMinute
	}

	return &httpClient{
		baseURL:    base,
		client:     client,
		maxRetries: max(opts.MaxRetries, 0),
		backoff:    backoff,
		logger:     logger,
		metrics:    NewMetrics(opts.Registerer),
		tracer:     provider.Tracer("github.com/ochairo/slime/gateways"),
		limiter:    rate.NewLimiter(limit, burst),
	}, nil
}

// isRetryableError checks if an HTTP status code is retryable
func isRetryableError(statusCode int) bool {
	switch statusCode {
	case http.StatusTooManyRequests, // 429
		http.StatusInternalServerError, // 500
		http.StatusBadGateway,          // 502
		http.StatusServiceUnavailable,  // 503
		http.StatusGatewayTimeout:      // 504
		return true
	default:
		return false
	}
}

// calculateBackoff returns the backoff duration for a retry attempt
func (c *httpClient) calculateBackoff(attempt int) time.Duration {
	backoff := float64(c.backoff) * math.Pow(2, float64(attempt))
	if backoff > float64(maxBackoff) {
		backoff = float64(maxBackoff)
	}
	return time.Duration(backoff)
}

// call is one backend request
type call struct {
	op     string
	method string
	path   string
	body   any
}

// do executes the call and returns the body of a 2xx response. Only GETs
// are retried.
func (c *httpClient) do(ctx context.Context, cl call) (data []byte, err error) {
	requestID := uuid.NewString()
	ctx, span := c.tracer.Start(ctx, "gateway."+cl.op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", cl.method),
			attribute.String("http.route", cl.path),
			attribute.String("slime.request_id", requestID),
		))
	start := time.Now()
	defer func() {
		c.metrics.duration.WithLabelValues(cl.op).Observe(time.Since(start).Seconds())
		outcome := "ok"
		if err != nil {
			outcome = string(errs.KindOf(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			c.logger.Debug("backend request failed",
				interfaces.F("op", cl.op),
				interfaces.F("request_id", requestID),
				interfaces.F("error", err))
		} else {
			span.SetStatus(codes.Ok, "")
		}
		c.metrics.requests.WithLabelValues(cl.op, outcome).Inc()
		span.End()
	}()

	var payload []byte
	if cl.body != nil {
		payload, err = json.Marshal(cl.body)
		if err != nil {
			return nil, errs.Wrap(errs.KindParseError, cl.op, fmt.Errorf("failed to marshal request: %w", err))
		}
	}

	retries := 0
	if cl.method == http.MethodGet {
		retries = c.maxRetries
	}

	var (
		status int
		body   []byte
	)
	for attempt := 0; attempt <= retries; attempt++ {
		if attempt > 0 {
			c.metrics.retries.WithLabelValues(cl.op).Inc()
			c.logger.Warn("retrying backend request",
				interfaces.F("op", cl.op),
				interfaces.F("attempt", attempt),
				interfaces.F("request_id", requestID))
			if err := sleep(ctx, c.calculateBackoff(attempt-1)); err != nil {
				return nil, errs.Wrap(errs.KindNetworkFailure, cl.op, err)
			}
		}

		status, body, err = c.roundTrip(ctx, cl, payload, requestID)
		if err != nil {
			if ctx.Err() != nil || attempt == retries {
				return nil, errs.Wrap(errs.KindNetworkFailure, cl.op, err)
			}
			continue
		}
		if !isRetryableError(status) || attempt == retries {
			break
		}
	}

	span.SetAttributes(attribute.Int("http.status_code", status))
	if status < 200 || status > 299 {
		return nil, statusError(cl.op, status, body)
	}
	return body, nil
}

func (c *httpClient) roundTrip(ctx context.Context, cl call, payload []byte, requestID string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set(requestIDHeader, requestID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// getShared collapses concurrent identical GETs into one request
func (c *httpClient) getShared(ctx context.Context, op, path string) ([]byte, error) {
	v, err, _ := c.lists.Do(path, func() (any, error) {
		return c.do(ctx, call{op: op, method: http.MethodGet, path: path})
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// throttle waits for an assistant request slot
func (c *httpClient) throttle(ctx context.Context, op string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return errs.Wrap(errs.KindNetworkFailure, op, fmt.Errorf("rate limiter: %w", err))
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backendMessage is the error body of the backend
type backendMessage struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func statusError(op string, status int, body []byte) error {
	msg := errorMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}
	if status == http.StatusNotFound {
		return &errs.Error{Kind: errs.KindNotFound, Op: op, Status: status, Message: msg}
	}
	return errs.Rejection(op, status, msg)
}

func errorMessage(body []byte) string {
	var m backendMessage
	if err := json.Unmarshal(body, &m); err == nil {
		if m.Error != "" {
			return m.Error
		}
		if m.Message != "" {
			return m.Message
		}
	}
	text := strings.TrimSpace(string(body))
	if len(text) > maxErrorBody {
		text = text[:maxErrorBody]
	}
	return text
}

// decode unmarshals a response body, mapping failures to ParseError
func decode(op string, body []byte, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		var parseErr *errs.Error
		if errors.As(err, &parseErr) {
			return parseErr
		}
		return errs.Wrap(errs.KindParseError, op, fmt.Errorf("failed to decode response: %w", err))
	}
	return nil
}

// carriesEntity reports whether an acknowledgement body also holds an
// entity, which the backend signals with an id field
func carriesEntity(body []byte) bool {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return false
	}
	id, ok := fields["id"]
	return ok && !bytes.Equal(bytes.TrimSpace(id), []byte("null"))
}
