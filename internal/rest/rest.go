// Package rest holds the request plumbing shared by the Atlassian clients.
package rest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andywolf/uprava/internal/logging"
)

// DefaultTimeout bounds every remote call.
const DefaultTimeout = 30 * time.Second

// Authenticator signs outgoing requests.
type Authenticator interface {
	Apply(ctx context.Context, req *http.Request) error
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %d: %s", e.Method, e.URL, e.StatusCode, e.Body)
}

// IsNotFound reports whether err carries a 404.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Endpoint joins path onto base, keeping any context path of base. path is
// already escaped; segments built from keys or ids go through url.PathEscape.
func Endpoint(base *url.URL, path string, params url.Values) *url.URL {
	u := *base
	raw := strings.TrimRight(u.EscapedPath(), "/") + "/" + strings.TrimLeft(path, "/")
	if p, err := url.PathUnescape(raw); err == nil {
		u.Path = p
		u.RawPath = raw
	} else {
		u.Path = raw
		u.RawPath = ""
	}
	u.RawQuery = ""
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return &u
}

// Request describes one call.
type Request struct {
	Method string
	Path   string
	Params url.Values
	Header http.Header
	Body   io.Reader
}

// Client performs authenticated requests against one base URL.
type Client struct {
	BaseURL *url.URL
	HTTP    *http.Client
	Auth    Authenticator
	Logger  logging.Logger
	Timeout time.Duration
}

// Do sends r and returns the response body of a 2xx answer.
func (c *Client) Do(ctx context.Context, r Request) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	u := Endpoint(c.BaseURL, r.Path, r.Params)

	req, err := http.NewRequestWithContext(ctx, method, u.String(), r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range r.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.Auth != nil {
		if err := c.Auth.Apply(ctx, req); err != nil {
			return nil, fmt.Errorf("failed to authenticate request: %w", err)
		}
	}

	c.logger().Debug("http request", logging.F("method", method), logging.F("url", u.String()))

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			URL:        u.String(),
			StatusCode: resp.StatusCode,
			Body:       truncate(string(body), 512),
		}
	}
	return body, nil
}

func (c *Client) logger() logging.Logger {
	if c.Logger == nil {
		return logging.Nop{}
	}
	return c.Logger
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
