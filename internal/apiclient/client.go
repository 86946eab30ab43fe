// Package apiclient talks to a running "sshsearch serve" instance.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gitlab.bluewillows.net/root/sshsearch/internal/server"
	"gitlab.bluewillows.net/root/sshsearch/pkg/source"
)

// Default client configuration values.
const (
	// DefaultTimeout is the default HTTP client timeout. The server is on
	// loopback, so anything slower means it is not answering.
	DefaultTimeout = 5 * time.Second

	// DefaultUserAgent is used when no custom user agent is specified.
	DefaultUserAgent = "sshsearch/1.0"
)

// ClientConfig contains configuration for creating a Client.
type ClientConfig struct {
	// BaseURL is the server root, e.g. "http://127.0.0.1:8622". A bare
	// host:port is accepted.
	BaseURL string

	// Timeout is the HTTP client timeout. Defaults to 5 seconds.
	Timeout time.Duration

	// UserAgent is the User-Agent header to set on requests.
	UserAgent string

	// Logger enables debug logging for HTTP requests.
	// If nil, no debug logging is performed.
	Logger *slog.Logger
}

// StatusError is returned when the server answers with a non-success status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.StatusCode)
	}
	return fmt.Sprintf("server returned %d: %s", e.StatusCode, e.Message)
}

// userAgentTransport wraps an http.RoundTripper to add User-Agent header
// and optionally log requests at debug level.
type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
	logger    *slog.Logger
}

// RoundTrip implements http.RoundTripper.
func (t *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" && t.userAgent != "" {
		req.Header.Set("User-Agent", t.userAgent)
	}

	if t.logger != nil {
		t.logger.Debug("HTTP request",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
		)
	}

	resp, err := t.base.RoundTrip(req)

	if t.logger != nil && resp != nil {
		t.logger.Debug("HTTP response",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.Int("status", resp.StatusCode),
		)
	}

	return resp, err
}

// Client calls the search API.
type Client struct {
	base *url.URL
	http *http.Client
}

// New creates a Client for cfg.BaseURL.
func New(cfg ClientConfig) (*Client, error) {
	raw := cfg.BaseURL
	if raw == "" {
		return nil, fmt.Errorf("server URL is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing server URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	return &Client{
		base: base,
		http: &http.Client{
			Timeout: timeout,
			Transport: &userAgentTransport{
				base:      http.DefaultTransport,
				userAgent: userAgent,
				logger:    cfg.Logger,
			},
		},
	}, nil
}

// Search runs a query on the server. Terms are joined with spaces, which
// the server splits again.
func (c *Client) Search(ctx context.Context, terms []string) (source.HostRecords, error) {
	u := c.base.JoinPath("search")
	u.RawQuery = url.Values{"q": {strings.Join(terms, " ")}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	var results []server.SearchResult
	if err := c.do(req, http.StatusOK, &results); err != nil {
		return nil, err
	}

	records := make(source.HostRecords, 0, len(results))
	for _, r := range results {
		records = append(records, source.HostRecord{User: r.User, Host: r.Host, Port: r.Port})
	}
	return records, nil
}

// Activate asks the server to open a terminal for rec.
func (c *Client) Activate(ctx context.Context, rec source.HostRecord) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encoding record: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base.JoinPath("activate").String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, http.StatusAccepted, nil)
}

func (c *Client) do(req *http.Request, want int, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		var e server.ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(data, &e) != nil {
			e.Error = strings.TrimSpace(string(data))
		}
		return &StatusError{StatusCode: resp.StatusCode, Message: e.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
