package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/andywolf/uprava/internal/config"
	"github.com/andywolf/uprava/internal/graph"
	"github.com/andywolf/uprava/internal/jira"
	"github.com/andywolf/uprava/internal/logging"
)

var groupColumns = map[string]string{
	config.GroupByReporter: "Reporter",
	config.GroupByAssignee: "Assignee",
	config.GroupByEpic:     "Epic",
	config.GroupByLabel:    "Label",
}

// groupTitles names the rows an issue's points count towards.
func groupTitles(groupBy string, issue *graph.Issue, data *graph.ReportData) []string {
	f := issue.Raw.Fields
	switch groupBy {
	case config.GroupByReporter:
		if f.Reporter != nil && f.Reporter.DisplayName != "" {
			return []string{f.Reporter.DisplayName}
		}
		if f.Creator != nil && f.Creator.DisplayName != "" {
			return []string{f.Creator.DisplayName}
		}
		return []string{"not set"}
	case config.GroupByAssignee:
		if f.Assignee != nil && f.Assignee.DisplayName != "" {
			return []string{f.Assignee.DisplayName}
		}
		return []string{"unassigned"}
	case config.GroupByEpic:
		if epic, ok := data.EpicOf(issue); ok {
			return []string{wikiEpicLink(epic)}
		}
		return []string{""}
	case config.GroupByLabel:
		return f.Labels
	}
	return nil
}

type pointsRow struct {
	title string
	sum   int64
}

// sumPoints totals the story points field per group title. Issues
// without points count as zero.
func sumPoints(m memberData) ([]pointsRow, error) {
	field := jira.CustomField(m.member.StoryPointsField)
	sums := make(map[string]int64)
	for _, issue := range m.data.Members() {
		points, _, err := field.Number(issue.Raw)
		if err != nil {
			return nil, err
		}
		for _, title := range groupTitles(m.member.GroupBy, issue, m.data) {
			sums[title] += int64(points)
		}
	}

	rows := make([]pointsRow, 0, len(sums))
	for title, sum := range sums {
		rows = append(rows, pointsRow{title: title, sum: sum})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].sum != rows[j].sum {
			return rows[i].sum > rows[j].sum
		}
		return rows[i].title < rows[j].title
	})
	return rows, nil
}

// renderStoryPoints renders one points table per member.
func renderStoryPoints(description string, members []memberData) (string, error) {
	return renderMembers(description, members, func(b *strings.Builder, m memberData) error {
		rows, err := sumPoints(m)
		if err != nil {
			return err
		}
		fmt.Fprintf(b, "|| %s || Story points ||\n", groupColumns[m.member.GroupBy])
		for _, row := range rows {
			fmt.Fprintln(b, wikiRow(row.title, fmt.Sprint(row.sum)))
		}
		return nil
	})
}

func (r *Runner) storyPoints(ctx context.Context, log logging.Logger, rep config.ReportConfig) error {
	members, err := r.members(ctx, log, rep)
	if err != nil {
		return err
	}
	wiki, err := renderStoryPoints(rep.Description, members)
	if err != nil {
		return err
	}
	return r.publish(ctx, log, rep, wiki, nil)
}
