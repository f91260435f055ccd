package graph

import (
	"fmt"

	"github.com/andywolf/uprava/internal/jira"
)

// EntityKind tags why an issue is part of a report run.
type EntityKind int

const (
	// ReportMember issues were returned by the report's own queries.
	ReportMember EntityKind = iota
	// ExternalDependency issues were pulled in through a relation.
	ExternalDependency
	// Epic issues were pulled in as a parent grouping.
	Epic
)

func (k EntityKind) String() string {
	switch k {
	case ReportMember:
		return "report_member"
	case ExternalDependency:
		return "external_dependency"
	case Epic:
		return "epic"
	}
	return fmt.Sprintf("EntityKind(%d)", int(k))
}

// Issue is a fetched issue together with its extracted custom fields.
type Issue struct {
	Instance *jira.Instance
	Raw      *jira.Issue
	Fields   jira.CustomFields
	Kind     EntityKind
}

// NewIssue wraps raw and extracts the instance's configured custom fields.
// Extraction errors are configuration mismatches and are always returned.
func NewIssue(inst *jira.Instance, raw *jira.Issue, kind EntityKind) (*Issue, error) {
	fields, err := inst.CustomFields.Extract(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to extract custom fields of %s: %w", raw.Key, err)
	}
	return &Issue{
		Instance: inst,
		Raw:      raw,
		Fields:   fields,
		Kind:     kind,
	}, nil
}

func (i *Issue) Key() string {
	return i.Raw.Key
}

func (i *Issue) Identity() Identity {
	return IdentityOf(i.Instance, i.Raw.Key)
}

func (i *Issue) Subject() Subject {
	return Subject{Instance: i.Instance, Key: i.Raw.Key}
}

// EpicSubject returns the epic referenced by the epic link field. Epics
// always live on the issue's own instance.
func (i *Issue) EpicSubject() (Subject, bool) {
	if i.Fields.EpicLink == "" {
		return Subject{}, false
	}
	return Subject{Instance: i.Instance, Key: i.Fields.EpicLink}, true
}

// URL is the browse link of the issue.
func (i *Issue) URL() string {
	return i.Instance.BrowseURL(i.Raw.Key)
}
