package cli

import (
	"fmt"
	"net/url"
	"strings"
)

// splitRequest parses a "path?query" argument of the get arbitrary
// commands into a REST path and its parameters.
func splitRequest(arg string) (string, url.Values, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", nil, fmt.Errorf("request path is required")
	}
	u, err := url.Parse("http://a/" + strings.TrimLeft(arg, "/"))
	if err != nil {
		return "", nil, fmt.Errorf("invalid request %q: %w", arg, err)
	}
	return u.EscapedPath(), u.Query(), nil
}
