// Package jira is a small Jira REST v2 client plus the issue model shared
// by the graph engine and the report renderers.
package jira

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/andywolf/uprava/internal/auth"
	"github.com/andywolf/uprava/internal/rest"
)

const customFieldPrefix = "customfield_"

// Issue is the subset of a Jira issue document uprava reads.
type Issue struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Self   string `json:"self,omitempty"`
	Fields Fields `json:"fields"`
}

// Fields holds well-known issue fields. Every customfield_* entry of the
// document is kept verbatim in Custom.
type Fields struct {
	Summary     string       `json:"summary"`
	Description string       `json:"description,omitempty"`
	Status      *Status      `json:"status,omitempty"`
	IssueType   *IssueType   `json:"issuetype,omitempty"`
	Assignee    *User        `json:"assignee,omitempty"`
	Reporter    *User        `json:"reporter,omitempty"`
	Creator     *User        `json:"creator,omitempty"`
	Labels      []string     `json:"labels,omitempty"`
	Created     string       `json:"created,omitempty"`
	Updated     string       `json:"updated,omitempty"`
	IssueLinks  []IssueLink  `json:"issuelinks,omitempty"`
	Comment     *CommentPage `json:"comment,omitempty"`
	Worklog     *WorklogPage `json:"worklog,omitempty"`

	Custom map[string]json.RawMessage `json:"-"`
}

type fieldsAlias Fields

// UnmarshalJSON decodes the known fields and collects customfield_* values.
func (f *Fields) UnmarshalJSON(data []byte) error {
	var known fieldsAlias
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*f = Fields(known)
	for k, v := range all {
		if !strings.HasPrefix(k, customFieldPrefix) {
			continue
		}
		if f.Custom == nil {
			f.Custom = make(map[string]json.RawMessage)
		}
		f.Custom[k] = v
	}
	return nil
}

// MarshalJSON writes the known fields followed by the custom field bag.
func (f Fields) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(fieldsAlias(f))
	if err != nil {
		return nil, err
	}
	if len(f.Custom) == 0 {
		return data, nil
	}

	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range f.Custom {
		merged[k] = v
	}
	return json.Marshal(merged)
}

type Status struct {
	Name           string          `json:"name"`
	StatusCategory *StatusCategory `json:"statusCategory,omitempty"`
}

// StatusCategory key is one of "new", "indeterminate" or "done".
type StatusCategory struct {
	Key  string `json:"key"`
	Name string `json:"name,omitempty"`
}

type IssueType struct {
	Name    string `json:"name"`
	Subtask bool   `json:"subtask,omitempty"`
}

type User struct {
	Name         string `json:"name,omitempty"`
	AccountID    string `json:"accountId,omitempty"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress,omitempty"`
	Active       *bool  `json:"active,omitempty"`
}

// IsActive treats a missing flag as active.
func (u *User) IsActive() bool {
	return u.Active == nil || *u.Active
}

// IssueLink is a native Jira link. Exactly one of InwardIssue and
// OutwardIssue is set.
type IssueLink struct {
	ID           string       `json:"id,omitempty"`
	Type         LinkType     `json:"type"`
	InwardIssue  *LinkedIssue `json:"inwardIssue,omitempty"`
	OutwardIssue *LinkedIssue `json:"outwardIssue,omitempty"`
}

type LinkType struct {
	Name    string `json:"name"`
	Inward  string `json:"inward"`
	Outward string `json:"outward"`
}

type LinkedIssue struct {
	ID  string `json:"id,omitempty"`
	Key string `json:"key"`
}

type CommentPage struct {
	Comments   []Comment `json:"comments"`
	MaxResults int       `json:"maxResults"`
	StartAt    int       `json:"startAt"`
	Total      int       `json:"total"`
}

type Comment struct {
	ID      string `json:"id,omitempty"`
	Author  *User  `json:"author,omitempty"`
	Body    string `json:"body"`
	Created string `json:"created"`
	Updated string `json:"updated,omitempty"`

	UpdateAuthor *User `json:"updateAuthor,omitempty"`
}

type WorklogPage struct {
	Worklogs   []Worklog `json:"worklogs"`
	MaxResults int       `json:"maxResults"`
	StartAt    int       `json:"startAt"`
	Total      int       `json:"total"`
}

type Worklog struct {
	Author           *User  `json:"author,omitempty"`
	Comment          string `json:"comment,omitempty"`
	Started          string `json:"started"`
	TimeSpentSeconds int64  `json:"timeSpentSeconds"`
}

// SearchResults is one page of /rest/api/2/search.
type SearchResults struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// RelationAlias maps a link wording onto one of the classifier's terms.
type RelationAlias struct {
	Term string `mapstructure:"term" yaml:"term"`
	As   string `mapstructure:"as" yaml:"as"`
}

// Instance is one configured Jira deployment. Its base URL is the identity
// used across the graph.
type Instance struct {
	Name         string
	BaseURL      *url.URL
	Access       auth.Access
	CustomFields CustomFieldsConfig
	RelationsMap []RelationAlias
}

// NewInstance parses rawURL and normalizes it to have no trailing slash.
func NewInstance(name, rawURL string) (*Instance, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(rawURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("failed to parse jira url %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("jira url %q must be absolute", rawURL)
	}
	return &Instance{Name: name, BaseURL: u}, nil
}

// ID is the canonical base URL string.
func (i *Instance) ID() string {
	return i.BaseURL.String()
}

// Remap applies the first matching relations_map alias to term.
func (i *Instance) Remap(term string) string {
	for _, a := range i.RelationsMap {
		if a.Term == term {
			return a.As
		}
	}
	return term
}

// BrowseURL is the human-facing page of key.
func (i *Instance) BrowseURL(key string) string {
	return i.ID() + "/browse/" + key
}

// Endpoint joins a REST path onto the base URL.
func (i *Instance) Endpoint(path string, params url.Values) *url.URL {
	return rest.Endpoint(i.BaseURL, path, params)
}
