package report

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/andywolf/uprava/internal/config"
	"github.com/andywolf/uprava/internal/confluence"
	"github.com/andywolf/uprava/internal/jira"
)

const testJira = "https://jira.example.com"

var testNow = time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)

type fakeTracker struct {
	mu       sync.Mutex
	issues   map[string]jira.Issue
	queries  map[string][]string
	fetched  [][]string
	searches []string
}

func newFakeTracker(issues ...jira.Issue) *fakeTracker {
	t := &fakeTracker{issues: make(map[string]jira.Issue), queries: make(map[string][]string)}
	for _, issue := range issues {
		t.issues[issue.Key] = issue
	}
	return t
}

func (f *fakeTracker) query(jql string, keys ...string) *fakeTracker {
	f.queries[jql] = keys
	return f
}

func (f *fakeTracker) Search(_ context.Context, _ *jira.Instance, jql string) ([]jira.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searches = append(f.searches, jql)
	var out []jira.Issue
	for _, k := range f.queries[jql] {
		out = append(out, f.issues[k])
	}
	return out, nil
}

func (f *fakeTracker) FetchBatch(_ context.Context, _ *jira.Instance, keys []string) ([]jira.Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, keys)
	var out []jira.Issue
	for _, k := range keys {
		if issue, ok := f.issues[k]; ok {
			out = append(out, issue)
		}
	}
	return out, nil
}

type fakeWiki struct {
	mu          sync.Mutex
	page        confluence.Content
	updates     []confluence.Update
	attachments map[string][]byte
	events      []string
}

func newFakeWiki() *fakeWiki {
	return &fakeWiki{
		page:        confluence.Content{ID: "42", Title: "Roadmap", Version: confluence.Version{Number: 7}},
		attachments: make(map[string][]byte),
	}
}

func (w *fakeWiki) FindPage(_ context.Context, space, title string) (*confluence.Content, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if space != "TEAM" || title != w.page.Title {
		return nil, confluence.ErrPageNotFound
	}
	page := w.page
	return &page, nil
}

func (w *fakeWiki) UpdateContent(_ context.Context, id string, update confluence.Update) (*confluence.Content, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.updates = append(w.updates, update)
	w.events = append(w.events, "update "+id)
	w.page.Version.Number = update.Version.Number
	page := w.page
	return &page, nil
}

func (w *fakeWiki) UploadAttachment(_ context.Context, id, filename string, r io.Reader) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var b bytes.Buffer
	if _, err := b.ReadFrom(r); err != nil {
		return err
	}
	w.attachments[filename] = b.Bytes()
	w.events = append(w.events, "upload "+id)
	return nil
}

func testConfig(reports map[string]config.ReportConfig) *config.Config {
	return &config.Config{
		DefaultJiraInstance: config.JiraInstanceConfig{
			BaseURL: testJira,
			CustomFields: jira.CustomFieldsConfig{
				Reason:       "customfield_reason",
				EpicLink:     "customfield_epic",
				EpicName:     "customfield_epicname",
				PlannedStart: "customfield_start",
				PlannedEnd:   "customfield_end",
			},
		},
		DefaultConfluenceInstance: config.ConfluenceInstanceConfig{BaseURL: "https://wiki.example.com"},
		Reports:                   reports,
	}
}

func newTestRunner(t *testing.T, cfg *config.Config, tracker *fakeTracker, wiki *fakeWiki) (*Runner, *bytes.Buffer) {
	t.Helper()
	reg, err := cfg.Registry()
	require.NoError(t, err)
	var out bytes.Buffer
	return &Runner{
		Config:   cfg,
		Registry: reg,
		Tracker:  tracker,
		Wiki:     func(*confluence.Instance) Wiki { return wiki },
		Graphviz: func(_ context.Context, dot []byte) ([]byte, error) {
			return append([]byte("<svg>"), dot...), nil
		},
		Out: &out,
		Now: func() time.Time { return testNow },
	}, &out
}

type issueOption func(*jira.Issue)

func newIssue(key, summary string, opts ...issueOption) jira.Issue {
	issue := jira.Issue{Key: key, Fields: jira.Fields{Summary: summary, Created: "2026-01-01T10:00:00.000+0000"}}
	for _, opt := range opts {
		opt(&issue)
	}
	return issue
}

func custom(field string, value interface{}) issueOption {
	return func(i *jira.Issue) {
		b, _ := json.Marshal(value)
		if i.Fields.Custom == nil {
			i.Fields.Custom = make(map[string]json.RawMessage)
		}
		i.Fields.Custom[field] = b
	}
}

func plan(start, end string) issueOption {
	return func(i *jira.Issue) {
		if start != "" {
			custom("customfield_start", start)(i)
		}
		if end != "" {
			custom("customfield_end", end)(i)
		}
	}
}

func inEpic(key string) issueOption { return custom("customfield_epic", key) }

func assignee(name string, active bool) issueOption {
	return func(i *jira.Issue) {
		i.Fields.Assignee = &jira.User{DisplayName: name, Active: &active}
	}
}

func status(name, category string) issueOption {
	return func(i *jira.Issue) {
		i.Fields.Status = &jira.Status{Name: name, StatusCategory: &jira.StatusCategory{Key: category}}
	}
}

func blocks(other string) issueOption {
	return func(i *jira.Issue) {
		i.Fields.IssueLinks = append(i.Fields.IssueLinks, jira.IssueLink{
			Type:         jira.LinkType{Name: "Blocks", Inward: "is blocked by", Outward: "blocks"},
			OutwardIssue: &jira.LinkedIssue{Key: other},
		})
	}
}

func epic(key, name string) jira.Issue {
	return newIssue(key, name+" summary", custom("customfield_epicname", name), custom("customfield_reason", name+" goal"))
}
