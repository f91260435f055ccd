package report

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/andywolf/uprava/internal/config"
	"github.com/andywolf/uprava/internal/graph"
	"github.com/andywolf/uprava/internal/logging"
)

type memberData struct {
	member config.MemberConfig
	data   *graph.ReportData
}

// members assembles every member's issues concurrently without following
// links. Results are ordered by member name.
func (r *Runner) members(ctx context.Context, log logging.Logger, rep config.ReportConfig) ([]memberData, error) {
	results := make([]memberData, len(rep.Members))

	g, gctx := errgroup.WithContext(ctx)
	for i, m := range rep.Members {
		i, m := i, m
		g.Go(func() error {
			data, err := r.assemble(gctx, log.With(map[string]string{"member": m.Name}), m.Queries, rep, 0)
			if err != nil {
				return fmt.Errorf("member %s: %w", m.Name, err)
			}
			results[i] = memberData{member: m, data: data}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].member.Name < results[j].member.Name
	})
	return results, nil
}

// renderMembers joins the report description with one section per member.
func renderMembers(description string, members []memberData, section func(*strings.Builder, memberData) error) (string, error) {
	var b strings.Builder
	if description != "" {
		b.WriteString(description + "\n")
	}
	for _, m := range members {
		fmt.Fprintf(&b, "\nh1. %s\n\n", m.member.Name)
		if m.member.Description != "" {
			b.WriteString(m.member.Description + "\n")
		}
		if err := section(&b, m); err != nil {
			return "", fmt.Errorf("member %s: %w", m.member.Name, err)
		}
	}
	return b.String(), nil
}
