package report

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andywolf/uprava/internal/config"
	"github.com/andywolf/uprava/internal/logging"
)

// renderWorklog renders one task table per member.
func renderWorklog(description string, members []memberData, now time.Time) string {
	out, _ := renderMembers(description, members, func(b *strings.Builder, m memberData) error {
		fmt.Fprintln(b, tasksHeader)
		for _, issue := range m.data.Members() {
			fmt.Fprintln(b, wikiRow(
				wikiTask(issue, false),
				epicName(m.data, issue),
				wikiIssueLink(issue, false),
				wikiSchedule(issue, now),
			))
		}
		return nil
	})
	return out
}

func (r *Runner) worklog(ctx context.Context, log logging.Logger, rep config.ReportConfig) error {
	members, err := r.members(ctx, log, rep)
	if err != nil {
		return err
	}
	return r.publish(ctx, log, rep, renderWorklog(rep.Description, members, r.now()), nil)
}
