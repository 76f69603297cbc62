package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/helashop/storefront-go/pkg/config"
	pkgerrors "github.com/helashop/storefront-go/pkg/errors"
	"github.com/helashop/storefront-go/pkg/logger"
	"github.com/helashop/storefront-go/pkg/metrics"
)

const defaultTimeout = 30 * time.Second

var errLoggerRequired = errors.New("http client logger is required")

// Options shapes a single API request.
type Options struct {
	Method  string
	Body    any
	Headers map[string]string
	Timeout time.Duration
}

// Response is a decoded 2xx API response. Data always holds valid JSON: when
// the server returns a non-JSON body, the raw text is wrapped as
// {"message": rawText} instead of being discarded.
type Response struct {
	Status int
	OK     bool
	Data   json.RawMessage
}

// Client issues JSON requests against the configured API base URL with
// uniform timeout handling and error classification. It is stateless.
type Client struct {
	baseURL string
	timeout time.Duration
	httpc   *http.Client
	logger  *logger.Logger
	metrics *metrics.RequestMetrics
}

// New builds an API client for the configured base URL.
func New(cfg config.APIConfig, logg *logger.Logger, reqMetrics *metrics.RequestMetrics) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("api base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		baseURL: baseURL,
		timeout: timeout,
		httpc:   &http.Client{},
		logger:  logg,
		metrics: reqMetrics,
	}, nil
}

// Request performs one API call. Failures are always typed: deadline overruns
// surface as TIMEOUT, transport failures before any response as
// NETWORK_UNREACHABLE, and non-2xx responses as SERVER_ERROR carrying the
// decoded body and status code so callers can branch on status.
func (c *Client) Request(ctx context.Context, endpoint string, opts Options) (*Response, error) {
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}

	endpoint = strings.TrimLeft(endpoint, "/")
	label := metricLabel(endpoint)
	ctx = c.logger.WithRequestID(ctx, uuid.NewString())
	ctx = c.logger.WithEndpoint(ctx, endpoint)

	reqBody, err := encodeBody(opts.Body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "encode request body")
	}

	reqCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, c.baseURL+"/"+endpoint, reqBody)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "build request")
	}
	req.Header.Set("Accept", "application/json")
	if reqBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}

	c.log(ctx, "request", map[string]any{"method": method})

	start := time.Now()
	resp, err := c.httpc.Do(req)
	c.metrics.ObserveDuration(label, time.Since(start))
	if err != nil {
		typed := classifyTransportError(err)
		c.metrics.IncFailure(label, string(typed.Code()))
		c.log(ctx, "error", map[string]any{"error": typed.Error()})
		return nil, typed
	}
	defer resp.Body.Close()

	data, err := decodeBody(resp.Body)
	if err != nil {
		typed := classifyTransportError(err)
		c.metrics.IncFailure(label, string(typed.Code()))
		c.log(ctx, "error", map[string]any{"error": typed.Error()})
		return nil, typed
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body map[string]any
		_ = json.Unmarshal(data, &body)
		typed := pkgerrors.Server(resp.StatusCode, body)
		c.metrics.IncFailure(label, string(typed.Code()))
		c.log(ctx, "error", map[string]any{"status": resp.StatusCode, "error": typed.Error()})
		return nil, typed
	}

	c.metrics.IncSuccess(label)
	c.log(ctx, "response", map[string]any{"status": resp.StatusCode})

	return &Response{
		Status: resp.StatusCode,
		OK:     true,
		Data:   data,
	}, nil
}

func encodeBody(body any) (io.Reader, error) {
	switch value := body.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return bytes.NewReader(value), nil
	case []byte:
		return bytes.NewReader(value), nil
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		return bytes.NewReader(encoded), nil
	}
}

// decodeBody normalizes the response payload to JSON. Bodies that fail to
// parse are wrapped rather than dropped so the caller still sees the text.
// A read error is a transport failure and propagates for classification.
func decodeBody(r io.Reader) (json.RawMessage, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return json.RawMessage(`{}`), nil
	}
	if json.Valid(raw) {
		return raw, nil
	}
	wrapped, err := json.Marshal(map[string]string{"message": string(raw)})
	if err != nil {
		return json.RawMessage(`{}`), nil
	}
	return wrapped, nil
}

func classifyTransportError(err error) *pkgerrors.Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "request deadline exceeded")
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "request deadline exceeded")
	}
	if errors.Is(err, context.Canceled) {
		return pkgerrors.Wrap(pkgerrors.CodeNetworkUnreachable, err, "request canceled")
	}
	return pkgerrors.Wrap(pkgerrors.CodeNetworkUnreachable, err, "transport failure")
}

// Routes that carry a record identifier as the trailing path segment. The
// identifier is collapsed out of the metrics label to keep cardinality
// bounded.
var pathParamRoutes = []string{
	"order/my-orders/",
	"order/cancel/",
	"payment/vnpay/verify/",
}

func metricLabel(endpoint string) string {
	if idx := strings.IndexByte(endpoint, '?'); idx >= 0 {
		endpoint = endpoint[:idx]
	}
	for _, route := range pathParamRoutes {
		if strings.HasPrefix(endpoint, route) {
			return route + ":id"
		}
	}
	return endpoint
}

var sensitiveFields = []string{"password", "token", "authorization", "secret", "card"}

func (c *Client) log(ctx context.Context, phase string, fields map[string]any) {
	if c == nil || c.logger == nil {
		return
	}
	logFields := map[string]any{"phase": phase}
	for k, v := range fields {
		logFields[k] = redact(k, v)
	}
	ctx = c.logger.WithFields(ctx, logFields)
	switch phase {
	case "error":
		c.logger.Error(ctx, "api request failed", errors.New(fmt.Sprint(fields["error"])))
	default:
		c.logger.Info(ctx, "api "+phase)
	}
}

func redact(key string, value any) any {
	lower := strings.ToLower(key)
	for _, sensitive := range sensitiveFields {
		if strings.Contains(lower, sensitive) {
			return "[REDACTED]"
		}
	}
	return value
}
