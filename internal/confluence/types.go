// Package confluence is a minimal Confluence REST client used to publish
// report pages.
package confluence

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/andywolf/uprava/internal/auth"
)

const (
	ContentTypePage = "page"

	RepresentationStorage = "storage"
	RepresentationWiki    = "wiki"
)

// Instance is one configured Confluence deployment.
type Instance struct {
	Name    string
	BaseURL *url.URL
	Access  auth.Access
}

// NewInstance parses rawURL and strips any trailing slash.
func NewInstance(name, rawURL string) (*Instance, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(rawURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse confluence url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("confluence url %q must be absolute", rawURL)
	}
	return &Instance{Name: name, BaseURL: u}, nil
}

func (i *Instance) ID() string {
	return i.BaseURL.String()
}

type Storage struct {
	Value          string `json:"value"`
	Representation string `json:"representation"`
}

type Body struct {
	Storage Storage `json:"storage"`
}

type Version struct {
	When      time.Time `json:"when,omitempty"`
	Number    int       `json:"number"`
	MinorEdit bool      `json:"minorEdit,omitempty"`
	Hidden    bool      `json:"hidden,omitempty"`
}

// Content is a page as returned with expand=body.storage,version.
type Content struct {
	ID      string  `json:"id"`
	Type    string  `json:"type"`
	Status  string  `json:"status"`
	Title   string  `json:"title"`
	Body    Body    `json:"body"`
	Version Version `json:"version"`
}

// ContentPage is one page of content search results.
type ContentPage struct {
	Results []Content `json:"results"`
	Start   int       `json:"start"`
	Limit   int       `json:"limit"`
	Size    int       `json:"size"`
}

// UpdateVersion is the version block of an update request.
type UpdateVersion struct {
	Number int `json:"number"`
}

// Update is the body of PUT /rest/api/content/{id}.
type Update struct {
	Version UpdateVersion `json:"version"`
	Title   string        `json:"title"`
	Type    string        `json:"type"`
	Body    Body          `json:"body"`
}

// WikiUpdate replaces page's body with wiki markup, bumping its version.
func WikiUpdate(page *Content, wiki string) Update {
	return Update{
		Version: UpdateVersion{Number: page.Version.Number + 1},
		Title:   page.Title,
		Type:    ContentTypePage,
		Body: Body{Storage: Storage{
			Value:          wiki,
			Representation: RepresentationWiki,
		}},
	}
}

var wikiReplacer = strings.NewReplacer("\r", "", "\n", `\\`, "{", "", "}", "")

// WikiEscape makes s safe inside a wiki table cell.
func WikiEscape(s string) string {
	return wikiReplacer.Replace(strings.TrimSpace(s))
}
