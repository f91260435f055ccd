package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/andywolf/uprava/internal/auth"
	"github.com/andywolf/uprava/internal/logging"
	"github.com/andywolf/uprava/internal/rest"
)

const (
	// ValidateWarn makes Jira skip keys that do not exist or are not visible.
	ValidateWarn = "warn"

	// SearchPageSize is the page size used by SearchAll.
	SearchPageSize = 1000

	// KeysPerQuery caps the number of keys in one batch JQL query.
	KeysPerQuery = 100
)

// SearchParams are the query parameters of /rest/api/2/search.
type SearchParams struct {
	JQL        string
	StartAt    int
	MaxResults int
	Fields     []string
	Expand     []string

	// ValidateQuery is "strict" (the server default), "warn" or "none".
	// With "warn" unknown or hidden keys are dropped instead of failing
	// the whole query.
	ValidateQuery string
}

func (p SearchParams) values() url.Values {
	v := url.Values{}
	v.Set("jql", NormalizeJQL(p.JQL))
	v.Set("startAt", strconv.Itoa(p.StartAt))
	if p.MaxResults > 0 {
		v.Set("maxResults", strconv.Itoa(p.MaxResults))
	}
	if len(p.Fields) > 0 {
		v.Set("fields", strings.Join(p.Fields, ","))
	}
	if len(p.Expand) > 0 {
		v.Set("expand", strings.Join(p.Expand, ","))
	}
	if p.ValidateQuery != "" {
		v.Set("validateQuery", p.ValidateQuery)
	}
	return v
}

// Client talks to a single Jira instance.
type Client struct {
	instance *Instance
	rest     *rest.Client
}

// ClientOption configures a Client.
type ClientOption func(*rest.Client)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *rest.Client) {
		c.HTTP = h
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logging.Logger) ClientOption {
	return func(c *rest.Client) {
		c.Logger = l
	}
}

// NewClient creates a client for inst. authn may be nil for anonymous access.
func NewClient(inst *Instance, authn *auth.Authenticator, opts ...ClientOption) *Client {
	rc := &rest.Client{
		BaseURL: inst.BaseURL,
		HTTP:    &http.Client{Timeout: rest.DefaultTimeout},
		Logger:  logging.Nop{},
	}
	if authn != nil {
		rc.Auth = authn
	}
	for _, opt := range opts {
		opt(rc)
	}
	return &Client{instance: inst, rest: rc}
}

// Instance returns the instance this client is bound to.
func (c *Client) Instance() *Instance {
	return c.instance
}

// Get performs an authenticated GET on path and returns the raw body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.rest.Do(ctx, rest.Request{Path: path, Params: params})
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, out interface{}) error {
	body, err := c.Get(ctx, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// Issue fetches one issue by key.
func (c *Client) Issue(ctx context.Context, key string, expand ...string) (*Issue, error) {
	var params url.Values
	if len(expand) > 0 {
		params = url.Values{"expand": {strings.Join(expand, ",")}}
	}
	var issue Issue
	if err := c.getJSON(ctx, "rest/api/2/issue/"+url.PathEscape(key), params, &issue); err != nil {
		return nil, err
	}
	return &issue, nil
}

// Search fetches one page of JQL results.
func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResults, error) {
	var res SearchResults
	if err := c.getJSON(ctx, "rest/api/2/search", p.values(), &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SearchAll pages through a JQL query until an empty or short page.
func (c *Client) SearchAll(ctx context.Context, p SearchParams) ([]Issue, error) {
	var all []Issue
	for {
		page := p
		page.StartAt = len(all)
		page.MaxResults = SearchPageSize

		res, err := c.Search(ctx, page)
		if err != nil {
			return nil, err
		}
		all = append(all, res.Issues...)

		if len(res.Issues) == 0 {
			break
		}
		limit := res.MaxResults
		if limit <= 0 {
			limit = SearchPageSize
		}
		if len(res.Issues) < limit {
			break
		}
	}
	return all, nil
}

// NormalizeJQL folds a multi-line query from YAML into one line.
func NormalizeJQL(jql string) string {
	jql = strings.ReplaceAll(jql, "\r", "")
	return strings.TrimSpace(strings.ReplaceAll(jql, "\n", " "))
}

// KeysQuery builds a JQL query selecting exactly keys.
func KeysQuery(keys []string) string {
	clauses := make([]string, len(keys))
	for i, k := range keys {
		clauses[i] = "key = " + strconv.Quote(k)
	}
	return strings.Join(clauses, " OR ")
}

// FetchKeys retrieves keys in batch queries of at most KeysPerQuery keys.
// Keys the server omits, including unknown or hidden ones, are simply
// absent from the result.
func (c *Client) FetchKeys(ctx context.Context, keys []string) ([]Issue, error) {
	var out []Issue
	for start := 0; start < len(keys); start += KeysPerQuery {
		end := start + KeysPerQuery
		if end > len(keys) {
			end = len(keys)
		}
		issues, err := c.SearchAll(ctx, SearchParams{
			JQL:           KeysQuery(keys[start:end]),
			ValidateQuery: ValidateWarn,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, issues...)
	}
	return out, nil
}
