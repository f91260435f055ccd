package report

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/andywolf/uprava/internal/config"
	"github.com/andywolf/uprava/internal/confluence"
	"github.com/andywolf/uprava/internal/graph"
	"github.com/andywolf/uprava/internal/logging"
)

// AttachmentName is the file name of the dependency graph on roadmap pages.
const AttachmentName = "dependency_graph.svg"

// scheduled returns the report members ordered by plan.
func scheduled(data *graph.ReportData) []*graph.Issue {
	issues := data.Members()
	sortBySchedule(issues)
	return issues
}

func writeTasks(b *strings.Builder, data *graph.ReportData, issues []*graph.Issue, now time.Time) {
	fmt.Fprintf(b, "\nh1. Tasks\n\n%s\n", tasksHeader)
	for _, issue := range issues {
		fmt.Fprintln(b, wikiRow(
			wikiTask(issue, true),
			epicName(data, issue),
			wikiIssueLink(issue, true),
			wikiSchedule(issue, now),
		))
	}
}

// referencedEpics lists resolved epics of issues in identity order.
func referencedEpics(data *graph.ReportData, issues []*graph.Issue) []*graph.Issue {
	seen := make(map[graph.Identity]struct{})
	var epics []*graph.Issue
	for _, issue := range issues {
		epic, ok := data.EpicOf(issue)
		if !ok {
			continue
		}
		if _, dup := seen[epic.Identity()]; dup {
			continue
		}
		seen[epic.Identity()] = struct{}{}
		epics = append(epics, epic)
	}
	sort.Slice(epics, func(i, j int) bool {
		a, b := epics[i].Identity(), epics[j].Identity()
		if a.Instance != b.Instance {
			return a.Instance < b.Instance
		}
		return a.Key < b.Key
	})
	return epics
}

func writeTeam(b *strings.Builder, data *graph.ReportData, issues []*graph.Issue, now time.Time) {
	byAssignee := make(map[string][]*graph.Issue)
	for _, issue := range issues {
		name := ""
		if a := issue.Raw.Fields.Assignee; a != nil {
			name = a.DisplayName
		}
		byAssignee[name] = append(byAssignee[name], issue)
	}
	names := make([]string, 0, len(byAssignee))
	for name := range byAssignee {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprint(b, "\nh1. Team\n")
	for _, name := range names {
		assigned := byAssignee[name]
		title := name
		if title == "" {
			title = "Unassigned"
		}
		fmt.Fprintf(b, "\nh2. %s (%d tasks)\n\n%s\n", confluence.WikiEscape(title), len(assigned), tasksHeader)
		for _, issue := range assigned {
			fmt.Fprintln(b, wikiRow(
				confluence.WikiEscape(issue.Raw.Fields.Summary),
				epicName(data, issue),
				wikiIssueLink(issue, false),
				wikiSchedule(issue, now),
			))
		}
	}
}

// RenderRoadmap renders the tasks and epics tables.
func RenderRoadmap(data *graph.ReportData, now time.Time) string {
	issues := scheduled(data)

	var b strings.Builder
	writeTasks(&b, data, issues, now)
	writeEpics(&b, referencedEpics(data, issues))
	return b.String()
}

// RenderConfluenceRoadmap renders the full roadmap page: tasks, epics,
// one table per assignee and the dependency graph attachment.
func RenderConfluenceRoadmap(data *graph.ReportData, now time.Time) string {
	issues := scheduled(data)

	var b strings.Builder
	writeTasks(&b, data, issues, now)
	writeEpics(&b, referencedEpics(data, issues))
	writeTeam(&b, data, issues, now)
	fmt.Fprintf(&b, "\nh1. Dependency graph\n\n!%s!\n", AttachmentName)
	return b.String()
}

func (r *Runner) roadmap(ctx context.Context, log logging.Logger, rep config.ReportConfig) error {
	data, err := r.assemble(ctx, log, rep.Queries, rep, rep.Depth())
	if err != nil {
		return err
	}
	_, err = io.WriteString(r.out(), RenderRoadmap(data, r.now()))
	return err
}

func (r *Runner) confluenceRoadmap(ctx context.Context, log logging.Logger, rep config.ReportConfig) error {
	data, err := r.assemble(ctx, log, rep.Queries, rep, rep.Depth())
	if err != nil {
		return err
	}
	svg, err := r.graphviz()(ctx, []byte(RenderDOT(data, r.now())))
	if err != nil {
		return err
	}

	wiki := RenderConfluenceRoadmap(data, r.now())
	return r.publish(ctx, log, rep, wiki, func(client Wiki, page *confluence.Content) error {
		log.Debug("Uploading dependency graph", logging.F("page_id", page.ID), logging.F("bytes", len(svg)))
		return client.UploadAttachment(ctx, page.ID, AttachmentName, bytes.NewReader(svg))
	})
}
