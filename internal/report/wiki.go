package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andywolf/uprava/internal/confluence"
	"github.com/andywolf/uprava/internal/graph"
)

const (
	wikiBreak   = `\\`
	tasksHeader = "|| Task || Epic || Jira issue || Schedule ||"
	epicsHeader = "|| Epic || Epic description ||"

	// planWarningDays is how close a planned date must be to be highlighted.
	planWarningDays = 3
)

// Highlight is the colour of a schedule relative to today.
type Highlight int

const (
	HighlightNone Highlight = iota
	HighlightStarting
	HighlightOverdue
)

// PlanHighlight flags an issue whose planned end is at most three days
// away as overdue, or whose planned start is at most three days away as
// starting.
func PlanHighlight(issue *graph.Issue, now time.Time) Highlight {
	today := truncateDay(now)
	if end := issue.Fields.PlannedEnd; end != nil && end.AddDate(0, 0, -planWarningDays).Before(today) {
		return HighlightOverdue
	}
	if start := issue.Fields.PlannedStart; start != nil && start.AddDate(0, 0, -planWarningDays).Before(today) {
		return HighlightStarting
	}
	return HighlightNone
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// wikiSchedule is the plan column with colour markup.
func wikiSchedule(issue *graph.Issue, now time.Time) string {
	plan := issue.Fields.Plan()
	switch PlanHighlight(issue, now) {
	case HighlightOverdue:
		return "{color:red}" + plan + "{color}"
	case HighlightStarting:
		return "{color:green}" + plan + "{color}"
	}
	return plan
}

// wikiTask is the description column: bold summary, the reason and
// optionally the assignee.
func wikiTask(issue *graph.Issue, withAssignee bool) string {
	var b strings.Builder
	fmt.Fprintf(&b, " *%s*", confluence.WikiEscape(issue.Raw.Fields.Summary))
	if reason := issue.Fields.Reason; reason != "" {
		b.WriteString(wikiBreak + " " + wikiBreak + confluence.WikiEscape(reason))
	}
	if a := issue.Raw.Fields.Assignee; withAssignee && a != nil {
		b.WriteString(wikiBreak + " " + wikiBreak + " Assignee")
		if a.DisplayName != "" {
			b.WriteString(" " + confluence.WikiEscape(a.DisplayName))
		}
		if !a.IsActive() {
			b.WriteString(" *inactive!*")
		}
	}
	return b.String()
}

func statusName(issue *graph.Issue) string {
	if s := issue.Raw.Fields.Status; s != nil {
		return s.Name
	}
	return ""
}

// wikiIssueLink links the issue and shows its status.
func wikiIssueLink(issue *graph.Issue, lineBreak bool) string {
	sep := " "
	if lineBreak {
		sep = " " + wikiBreak + " "
	}
	return fmt.Sprintf("[%s|%s]%s%s", issue.Key(), issue.URL(), sep, confluence.WikiEscape(statusName(issue)))
}

// epicName is the name of the issue's resolved epic, or "".
func epicName(data *graph.ReportData, issue *graph.Issue) string {
	epic, ok := data.EpicOf(issue)
	if !ok {
		return ""
	}
	return epic.Fields.EpicName
}

// wikiEpicLink links an epic by its name.
func wikiEpicLink(epic *graph.Issue) string {
	return fmt.Sprintf("[%s|%s]", confluence.WikiEscape(epic.Fields.EpicName), epic.URL())
}

func wikiRow(cols ...string) string {
	return "| " + strings.Join(cols, " | ") + " |"
}

// writeEpics renders the epics table for epics with a name.
func writeEpics(b *strings.Builder, epics []*graph.Issue) {
	fmt.Fprintf(b, "\nh1. Epics\n\n%s\n", epicsHeader)
	for _, epic := range epics {
		if epic.Fields.EpicName == "" {
			continue
		}
		fmt.Fprintln(b, wikiRow(wikiEpicLink(epic), confluence.WikiEscape(epic.Fields.Reason)))
	}
}

// sortBySchedule orders issues by planned end, planned start, then
// creation time. Missing dates sort last.
func sortBySchedule(issues []*graph.Issue) {
	sort.SliceStable(issues, func(i, j int) bool {
		a, b := issues[i], issues[j]
		if c := compareDates(a.Fields.PlannedEnd, b.Fields.PlannedEnd); c != 0 {
			return c < 0
		}
		if c := compareDates(a.Fields.PlannedStart, b.Fields.PlannedStart); c != 0 {
			return c < 0
		}
		return a.Raw.Fields.Created < b.Raw.Fields.Created
	})
}

func compareDates(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	}
	return 0
}
