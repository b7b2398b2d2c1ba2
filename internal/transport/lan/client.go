package lan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrHTTPStatus is returned when the device answers with a non-200 code.
var ErrHTTPStatus = errors.New("lan: unexpected HTTP status")

// defaultTimeout bounds a device request when no client is supplied.
const defaultTimeout = 10 * time.Second

// Logger interface for optional logging support.
// Compatible with logging.Logger and slog.Logger.
type Logger interface {
	Debug(msg string, args ...any)
	Warn(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}

// Client talks to one Oasis device over its local HTTP endpoint.
type Client struct {
	baseURL string
	http    *http.Client
	owned   bool
	logger  Logger
}

// NewClient creates an HTTP transport bound to the device at address
// (host or host:port, no scheme). When httpClient is nil an owned client
// with a default timeout is created and torn down on Close; a supplied
// client is left untouched.
func NewClient(address string, httpClient *http.Client) *Client {
	owned := false
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
		owned = true
	}
	return &Client{
		baseURL: "http://" + address,
		http:    httpClient,
		owned:   owned,
		logger:  noopLogger{},
	}
}

// SetLogger sets a logger for request tracing.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

// Close releases connection resources if the client owns them.
func (c *Client) Close() {
	if c.owned {
		c.http.CloseIdleConnections()
	}
}

// sendCommand issues one GET with the given query parameters.
//
// The response decoding follows the content type: JSON bodies are parsed,
// plain text is returned verbatim, anything else is discarded as nil.
// Non-200 responses return ErrHTTPStatus.
func (c *Client) sendCommand(ctx context.Context, params url.Values) (any, error) {
	reqURL := c.baseURL + "/?" + params.Encode()
	c.logger.Debug("device request", "url", reqURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building device request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("device request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrHTTPStatus, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading device response: %w", err)
	}

	contentType := resp.Header.Get("Content-Type")
	switch {
	case strings.Contains(contentType, "application/json"):
		var decoded any
		if err := json.Unmarshal(body, &decoded); err != nil {
			return nil, fmt.Errorf("decoding device response: %w", err)
		}
		return decoded, nil
	case strings.Contains(contentType, "text/plain"):
		return string(body), nil
	default:
		c.logger.Debug("discarding response with unhandled content type", "content_type", contentType)
		return nil, nil
	}
}
