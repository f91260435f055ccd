package report

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/andywolf/uprava/internal/config"
	"github.com/andywolf/uprava/internal/graph"
	"github.com/andywolf/uprava/internal/logging"
)

const (
	memberColor   = "#8CB3FF"
	externalColor = "#80FFD2"
	epicColor     = "#C0D5FF"
)

var edgeStyles = map[graph.RelationKind]string{
	graph.Dependance: `color="#2E56A6", style=solid`,
	graph.Block:      `color="#A65229", style=bold`,
	graph.Mention:    `color="#7F94BF", style=dashed`,
}

var dotStringEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// statusColor maps a Jira status category to a label colour.
func statusColor(issue *graph.Issue) string {
	s := issue.Raw.Fields.Status
	if s == nil || s.StatusCategory == nil {
		return "red"
	}
	switch s.StatusCategory.Key {
	case "new":
		return "#42526e"
	case "done":
		return "green"
	case "indeterminate":
		return "blue"
	}
	return "red"
}

type cluster struct {
	instance string
	epicLink string
	issues   []*graph.Issue
}

// clusters groups non-epic issues by instance and epic link.
func clusters(data *graph.ReportData) []*cluster {
	index := make(map[[2]string]*cluster)
	var out []*cluster
	for _, issue := range data.Issues.Sorted() {
		if issue.Kind == graph.Epic {
			continue
		}
		k := [2]string{issue.Instance.ID(), issue.Fields.EpicLink}
		c, ok := index[k]
		if !ok {
			c = &cluster{instance: k[0], epicLink: k[1]}
			index[k] = c
			out = append(out, c)
		}
		c.issues = append(c.issues, issue)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].instance != out[j].instance {
			return out[i].instance < out[j].instance
		}
		return out[i].epicLink < out[j].epicLink
	})
	return out
}

func nodeLabel(issue *graph.Issue, now time.Time) string {
	var b strings.Builder
	if issue.Kind == graph.ExternalDependency {
		b.WriteString("External task<br/>")
	}
	b.WriteString(html.EscapeString(issue.Raw.Fields.Summary))

	if a := issue.Raw.Fields.Assignee; a != nil && a.DisplayName != "" {
		b.WriteString("<br/>Assignee " + html.EscapeString(a.DisplayName))
	}

	if plan := issue.Fields.Plan(); plan != "" {
		duration := "<br/>Plan: " + plan
		switch PlanHighlight(issue, now) {
		case HighlightOverdue:
			duration = `<font color="red">` + duration + "</font>"
		case HighlightStarting:
			duration = `<font color="green">` + duration + "</font>"
		}
		b.WriteString(duration)
	}

	status := ""
	if name := statusName(issue); name != "" {
		status = "<br/>" + html.EscapeString(name)
	}
	fmt.Fprintf(&b, `<i><font color="%s">%s</font></i>`, statusColor(issue), status)
	return b.String()
}

func writeNode(b *bytes.Buffer, issue *graph.Issue, now time.Time) {
	fill := memberColor
	if issue.Kind == graph.ExternalDependency {
		fill = externalColor
	}
	fmt.Fprintf(b, "    %s [fillcolor=%q;label=<%s>;href=\"%s\"]\n",
		issue.Identity().StableString(), fill, nodeLabel(issue, now), dotStringEscaper.Replace(issue.URL()))
}

// RenderDOT renders the issue graph as Graphviz source. Issues are
// clustered by epic, epics themselves are not drawn.
func RenderDOT(data *graph.ReportData, now time.Time) string {
	var b bytes.Buffer
	b.WriteString("digraph dependency_graph {\n")
	b.WriteString("graph [layout=dot, rankdir=LR, ranksep=1.2]\n")
	b.WriteString("node [style=filled, shape=box]\n")
	b.WriteString("edge [penwidth=2]\n")

	for i, c := range clusters(data) {
		var epic *graph.Issue
		if c.epicLink != "" {
			epic, _ = data.EpicOf(c.issues[0])
		}
		if epic != nil {
			fmt.Fprintf(&b, " subgraph cluster_%d { style=filled; color=%q; label=\"EPIC: %s\"; href=\"%s\"\n",
				i, epicColor, dotStringEscaper.Replace(epic.Raw.Fields.Summary), dotStringEscaper.Replace(epic.URL()))
		}
		for _, issue := range c.issues {
			writeNode(&b, issue, now)
		}
		if epic != nil {
			b.WriteString("  }\n")
		}
	}

	for _, rel := range data.Relations.Sorted() {
		fmt.Fprintf(&b, "%s -> %s [%s]\n", rel.From.StableString(), rel.To.StableString(), edgeStyles[rel.Kind])
	}
	b.WriteString("}\n")
	return b.String()
}

func (r *Runner) dependencyGraph(ctx context.Context, log logging.Logger, rep config.ReportConfig) error {
	data, err := r.assemble(ctx, log, rep.Queries, rep, rep.Depth())
	if err != nil {
		return err
	}

	out := []byte(RenderDOT(data, r.now()))
	if strings.HasSuffix(rep.Output, ".svg") {
		if out, err = r.graphviz()(ctx, out); err != nil {
			return err
		}
	}

	if rep.Output == "-" {
		_, err = r.out().Write(out)
		return err
	}
	if err := os.WriteFile(rep.Output, out, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", rep.Output, err)
	}
	log.Info("Wrote dependency graph", logging.F("path", rep.Output), logging.F("nodes", data.Issues.Len()), logging.F("edges", data.Relations.Len()))
	return nil
}
