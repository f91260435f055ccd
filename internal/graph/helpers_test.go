package graph

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andywolf/uprava/internal/jira"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) FetchBatch(ctx context.Context, inst *jira.Instance, keys []string) ([]jira.Issue, error) {
	args := m.Called(ctx, inst, keys)
	var out []jira.Issue
	if v := args.Get(0); v != nil {
		out = v.([]jira.Issue)
	}
	return out, args.Error(1)
}

func newTestInstance(t *testing.T, rawURL string) *jira.Instance {
	t.Helper()
	inst, err := jira.NewInstance("test", rawURL)
	require.NoError(t, err)
	inst.CustomFields = jira.CustomFieldsConfig{EpicLink: "customfield_epic"}
	return inst
}

func blockedBy(other string) jira.IssueLink {
	return jira.IssueLink{
		Type:        jira.LinkType{Name: "Blocks", Inward: "is blocked by", Outward: "blocks"},
		InwardIssue: &jira.LinkedIssue{Key: other},
	}
}

func blocks(other string) jira.IssueLink {
	return jira.IssueLink{
		Type:         jira.LinkType{Name: "Blocks", Inward: "is blocked by", Outward: "blocks"},
		OutwardIssue: &jira.LinkedIssue{Key: other},
	}
}

func linkWithTerm(term, other string) jira.IssueLink {
	return jira.IssueLink{
		Type:        jira.LinkType{Name: term, Inward: term, Outward: term},
		InwardIssue: &jira.LinkedIssue{Key: other},
	}
}

func rawIssue(key string, links ...jira.IssueLink) jira.Issue {
	return jira.Issue{Key: key, Fields: jira.Fields{Summary: key, IssueLinks: links}}
}

func withEpic(raw jira.Issue, epic string) jira.Issue {
	b, _ := json.Marshal(epic)
	raw.Fields.Custom = map[string]json.RawMessage{"customfield_epic": b}
	return raw
}

func withRawEpic(raw jira.Issue, value string) jira.Issue {
	raw.Fields.Custom = map[string]json.RawMessage{"customfield_epic": json.RawMessage(value)}
	return raw
}

func member(t *testing.T, inst *jira.Instance, raw jira.Issue) *Issue {
	t.Helper()
	issue, err := NewIssue(inst, &raw, ReportMember)
	require.NoError(t, err)
	return issue
}
