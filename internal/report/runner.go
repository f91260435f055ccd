// Package report turns configured report definitions into issue graphs
// and renders them to stdout, files or Confluence pages.
package report

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/andywolf/uprava/internal/config"
	"github.com/andywolf/uprava/internal/confluence"
	"github.com/andywolf/uprava/internal/graph"
	"github.com/andywolf/uprava/internal/jira"
	"github.com/andywolf/uprava/internal/logging"
)

// Tracker searches and batch-fetches issues on any configured instance.
type Tracker interface {
	graph.Fetcher
	Search(ctx context.Context, inst *jira.Instance, jql string) ([]jira.Issue, error)
}

// Wiki is the part of a Confluence client reports publish through.
type Wiki interface {
	FindPage(ctx context.Context, space, title string) (*confluence.Content, error)
	UpdateContent(ctx context.Context, id string, update confluence.Update) (*confluence.Content, error)
	UploadAttachment(ctx context.Context, id, filename string, r io.Reader) error
}

// Runner executes reports declared in Config.
type Runner struct {
	Config   *config.Config
	Registry *config.Registry
	Tracker  Tracker
	// Wiki returns the client for a Confluence instance.
	Wiki     func(*confluence.Instance) Wiki
	Graphviz Graphviz
	Logger   logging.Logger
	// Out receives reports written to stdout.
	Out io.Writer
	Now func() time.Time
}

func (r *Runner) logger() logging.Logger {
	if r.Logger == nil {
		return logging.Nop{}
	}
	return r.Logger
}

func (r *Runner) out() io.Writer {
	if r.Out == nil {
		return os.Stdout
	}
	return r.Out
}

func (r *Runner) now() time.Time {
	if r.Now == nil {
		return time.Now()
	}
	return r.Now()
}

// RunAll runs every report in name order and stops at the first failure.
func (r *Runner) RunAll(ctx context.Context) error {
	for _, name := range r.Config.ReportNames() {
		if err := r.Run(ctx, name); err != nil {
			return err
		}
	}
	return nil
}

// Run runs the named report.
func (r *Runner) Run(ctx context.Context, name string) error {
	rep, err := r.Config.Report(name)
	if err != nil {
		return err
	}
	log := r.logger().With(map[string]string{"report": name})
	log.Info("Running report", logging.F("kind", rep.Kind))

	start := time.Now()
	switch rep.Kind {
	case config.KindRoadmap:
		err = r.roadmap(ctx, log, rep)
	case config.KindDependencyGraph:
		err = r.dependencyGraph(ctx, log, rep)
	case config.KindConfluenceRoadmap:
		err = r.confluenceRoadmap(ctx, log, rep)
	case config.KindWorklog:
		err = r.worklog(ctx, log, rep)
	case config.KindStoryPoints:
		err = r.storyPoints(ctx, log, rep)
	default:
		err = fmt.Errorf("invalid kind: %s", rep.Kind)
	}
	if err != nil {
		return fmt.Errorf("report %s: %w", name, err)
	}

	log.Info("Report finished", logging.F("duration", time.Since(start).String()))
	return nil
}

// seed runs queries concurrently and wraps every result as a report
// member. Issues keep query order.
func (r *Runner) seed(ctx context.Context, queries []config.QueryConfig) ([]*graph.Issue, error) {
	results := make([][]*graph.Issue, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	for i, q := range queries {
		i, q := i, q
		inst, err := r.Registry.Jira(q.Jira)
		if err != nil {
			return nil, err
		}
		g.Go(func() error {
			raws, err := r.Tracker.Search(gctx, inst, q.Query)
			if err != nil {
				return fmt.Errorf("query %q on %s: %w", jira.NormalizeJQL(q.Query), inst.ID(), err)
			}
			issues := make([]*graph.Issue, 0, len(raws))
			for j := range raws {
				issue, err := graph.NewIssue(inst, &raws[j], graph.ReportMember)
				if err != nil {
					return err
				}
				issues = append(issues, issue)
			}
			results[i] = issues
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var seed []*graph.Issue
	for _, issues := range results {
		seed = append(seed, issues...)
	}
	return seed, nil
}

func (r *Runner) foreign(rep config.ReportConfig) ([]graph.ForeignRelation, error) {
	out := make([]graph.ForeignRelation, 0, len(rep.ForeignRelations))
	for _, fr := range rep.ForeignRelations {
		from, err := r.Registry.Jira(fr.From.Jira)
		if err != nil {
			return nil, err
		}
		to, err := r.Registry.Jira(fr.To.Jira)
		if err != nil {
			return nil, err
		}
		out = append(out, graph.ForeignRelation{
			From: graph.Subject{Instance: from, Key: fr.From.Issue},
			To:   graph.Subject{Instance: to, Key: fr.To.Issue},
			Kind: fr.Kind,
		})
	}
	return out, nil
}

// assemble seeds and expands the issue graph of one query set.
func (r *Runner) assemble(ctx context.Context, log logging.Logger, queries []config.QueryConfig, rep config.ReportConfig, depth int) (*graph.ReportData, error) {
	seed, err := r.seed(ctx, queries)
	if err != nil {
		return nil, err
	}
	foreign, err := r.foreign(rep)
	if err != nil {
		return nil, err
	}
	log.Debug("Seeded report", logging.F("issues", len(seed)), logging.F("foreign_relations", len(foreign)))

	engine := &graph.Engine{
		Fetcher:  r.Tracker,
		Logger:   log,
		Depth:    depth,
		Tolerant: rep.IgnoreFetchErrors,
	}
	return engine.Assemble(ctx, seed, foreign)
}

// publish replaces the body of the report page with wiki markup.
func (r *Runner) publish(ctx context.Context, log logging.Logger, rep config.ReportConfig, wiki string, attach func(Wiki, *confluence.Content) error) error {
	inst, err := r.Registry.Confluence(rep.Confluence)
	if err != nil {
		return err
	}
	client := r.Wiki(inst)

	page, err := client.FindPage(ctx, rep.Space, rep.Title)
	if err != nil {
		return err
	}
	if attach != nil {
		if err := attach(client, page); err != nil {
			return err
		}
	}
	updated, err := client.UpdateContent(ctx, page.ID, confluence.WikiUpdate(page, wiki))
	if err != nil {
		return err
	}

	log.Info("Published report",
		logging.F("space", rep.Space),
		logging.F("title", rep.Title),
		logging.F("page_id", updated.ID),
		logging.F("version", updated.Version.Number))
	return nil
}
