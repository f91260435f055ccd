package confluence

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/andywolf/uprava/internal/auth"
	"github.com/andywolf/uprava/internal/logging"
	"github.com/andywolf/uprava/internal/rest"
)

// ErrPageNotFound is returned when a space has no page with the title.
var ErrPageNotFound = errors.New("page not found")

// ClientOption configures a Client.
type ClientOption func(*rest.Client)

func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *rest.Client) {
		c.HTTP = h
	}
}

func WithLogger(l logging.Logger) ClientOption {
	return func(c *rest.Client) {
		c.Logger = l
	}
}

// Client talks to one Confluence instance.
type Client struct {
	instance *Instance
	rest     *rest.Client
}

// NewClient creates a client for inst. authn may be nil.
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

func (c *Client) Instance() *Instance {
	return c.instance
}

// Get performs an authenticated GET and returns the raw body.
func (c *Client) Get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	return c.rest.Do(ctx, rest.Request{Path: path, Params: params})
}

// GetContent searches pages of space by exact title.
func (c *Client) GetContent(ctx context.Context, space, title string) (*ContentPage, error) {
	params := url.Values{}
	params.Set("spaceKey", space)
	params.Set("title", title)
	params.Set("expand", "body.storage,version")

	body, err := c.Get(ctx, "rest/api/content", params)
	if err != nil {
		return nil, err
	}
	var page ContentPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}
	return &page, nil
}

// FindPage returns the first page of space titled title.
func (c *Client) FindPage(ctx context.Context, space, title string) (*Content, error) {
	res, err := c.GetContent(ctx, space, title)
	if err != nil {
		return nil, err
	}
	if len(res.Results) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrPageNotFound, space, title)
	}
	return &res.Results[0], nil
}

// UpdateContent replaces the content of page id.
func (c *Client) UpdateContent(ctx context.Context, id string, update Update) (*Content, error) {
	data, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal update: %w", err)
	}

	body, err := c.rest.Do(ctx, rest.Request{
		Method: http.MethodPut,
		Path:   "rest/api/content/" + url.PathEscape(id),
		Header: http.Header{"Content-Type": {"application/json"}},
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update content %s: %w", id, err)
	}

	var updated Content
	if err := json.Unmarshal(body, &updated); err != nil {
		return nil, fmt.Errorf("failed to decode updated content: %w", err)
	}
	return &updated, nil
}

// UploadAttachment creates or replaces the attachment filename on page id.
func (c *Client) UploadAttachment(ctx context.Context, id, filename string, r io.Reader) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("failed to read attachment: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finish multipart body: %w", err)
	}

	_, err = c.rest.Do(ctx, rest.Request{
		Method: http.MethodPut,
		Path:   "rest/api/content/" + url.PathEscape(id) + "/child/attachment",
		Header: http.Header{
			"Content-Type":      {mw.FormDataContentType()},
			"X-Atlassian-Token": {"no-check"},
		},
		Body: &buf,
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s to %s: %w", filename, id, err)
	}
	return nil
}
