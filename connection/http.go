package connection

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jkaberg/go-echarger/internal/netutil"
	"github.com/jkaberg/go-echarger/status"
	"github.com/sirupsen/logrus"
)

const (
	statusPath = "/status"
	setPath    = "/mqtt"

	// The v1 firmware accepts writes under a custom SET method.
	methodSet = "SET"

	defaultHTTPTimeout = 10 * time.Second
)

// HTTP talks to the charger's local HTTP API.
type HTTP struct {
	baseURL    *url.URL
	httpClient *http.Client
	timeout    time.Duration
	logger     *logrus.Logger
}

var _ Connection = (*HTTP)(nil)

// HTTPOption customises an HTTP connection.
type HTTPOption func(*HTTP)

// WithHTTPClient replaces the default client, e.g. to share a transport.
// The client is never modified.
func WithHTTPClient(c *http.Client) HTTPOption {
	return func(h *HTTP) { h.httpClient = c }
}

// WithTimeout sets the request timeout. Combined with WithHTTPClient it
// applies to a copy of that client, in either order.
func WithTimeout(timeout time.Duration) HTTPOption {
	return func(h *HTTP) { h.timeout = timeout }
}

// NewHTTP creates a connection for the charger at host, which may be a bare
// host[:port] or a full http:// URL.
func NewHTTP(host string, logger *logrus.Logger, opts ...HTTPOption) (*HTTP, error) {
	base, err := parseBaseURL(host)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	h := &HTTP{baseURL: base, logger: logger}
	for _, opt := range opts {
		opt(h)
	}

	switch {
	case h.httpClient == nil:
		timeout := h.timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		h.httpClient = netutil.NewHTTPClient(timeout, logger)
	case h.timeout > 0:
		client := *h.httpClient
		client.Timeout = h.timeout
		h.httpClient = &client
	}
	return h, nil
}

// Host returns the host[:port] this connection talks to.
func (h *HTTP) Host() string { return h.baseURL.Host }

// FetchStatus performs GET /status.
func (h *HTTP) FetchStatus(ctx context.Context) (*status.Payload, error) {
	endpoint := h.baseURL.ResolveReference(&url.URL{Path: statusPath}).String()

	body, err := h.do(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, wrapTransport(opFetch, endpoint, err)
	}

	payload, err := status.ParsePayload(body)
	if err != nil {
		return nil, &TransportError{Op: opFetch, Endpoint: endpoint, Err: err}
	}
	return payload, nil
}

// WriteKey performs SET /mqtt?payload=key=value. The charger answers with a
// full status document, which must decode but is otherwise ignored.
func (h *HTTP) WriteKey(ctx context.Context, key, value string) error {
	query := url.Values{}
	query.Set("payload", key+"="+value)
	endpoint := h.baseURL.ResolveReference(&url.URL{Path: setPath, RawQuery: query.Encode()}).String()

	h.logger.WithFields(logrus.Fields{
		"host":  h.baseURL.Host,
		"key":   key,
		"value": value,
	}).Debug("Writing charger key")

	body, err := h.do(ctx, methodSet, endpoint)
	if err != nil {
		return wrapTransport(opWrite, endpoint, err)
	}
	if _, err := status.ParsePayload(body); err != nil {
		return &TransportError{Op: opWrite, Endpoint: endpoint, Err: fmt.Errorf("unexpected acknowledgement: %w", err)}
	}
	return nil
}

// statusCodeError carries a non-200 reply out of do.
type statusCodeError struct {
	code   int
	status string
}

func (e *statusCodeError) Error() string {
	return fmt.Sprintf("API returned status %d: %s", e.code, e.status)
}

func (h *HTTP) do(ctx context.Context, method, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	h.logger.WithFields(logrus.Fields{
		"method": method,
		"url":    endpoint,
	}).Debug("Making charger request")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusCodeError{code: resp.StatusCode, status: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"status_code":   resp.StatusCode,
		"response_size": len(body),
	}).Debug("Received charger response")

	return body, nil
}

func wrapTransport(op, endpoint string, err error) error {
	te := &TransportError{Op: op, Endpoint: endpoint, Err: err}
	if sc, ok := err.(*statusCodeError); ok {
		te.StatusCode = sc.code
	}
	return te
}

func parseBaseURL(host string) (*url.URL, error) {
	trimmed := strings.TrimSpace(host)
	if trimmed == "" {
		return nil, fmt.Errorf("charger host is empty")
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse charger host %q: %w", host, err)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("parse charger host %q: missing host", host)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
