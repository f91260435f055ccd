package graph

import (
	"context"
	"fmt"

	"github.com/andywolf/uprava/internal/logging"
)

// DefaultDepth is the number of expansion rounds when none is configured.
const DefaultDepth = 1

// Engine expands a seed set of issues into ReportData.
type Engine struct {
	Fetcher Fetcher
	Logger  logging.Logger

	// Depth bounds the number of expansion rounds. Zero disables expansion.
	Depth int

	// Tolerant skips failed fetches instead of aborting. Relations whose
	// endpoint could not be fetched are dropped.
	Tolerant bool
}

func (e *Engine) logger() logging.Logger {
	if e.Logger == nil {
		return logging.Nop{}
	}
	return e.Logger
}

// Assemble builds the relation graph around seed, then resolves epics.
//
// Each round classifies the links of the current frontier, records the
// relations, and fetches every unknown endpoint with one batched query per
// instance. Newly fetched issues form the next frontier. An issue enters a
// frontier at most once, so issues seen in earlier rounds are never
// re-expanded.
func (e *Engine) Assemble(ctx context.Context, seed []*Issue, foreign []ForeignRelation) (*ReportData, error) {
	if e.Depth < 0 {
		return nil, fmt.Errorf("dependencies depth must not be negative, got %d", e.Depth)
	}

	store := NewStore()
	for _, issue := range seed {
		store.Insert(issue)
	}

	relations := RelationSet{}
	failed := make(map[Identity]struct{})
	frontier := store.Sorted()

	e.logger().Info("fetching relations for issues list", logging.F("issues", store.Len()))

	for level := 1; level <= e.Depth && len(frontier) > 0; level++ {
		e.logger().Info("fetching relations", logging.F("level", level), logging.F("frontier", len(frontier)))

		queue := newBatchQueue()
		for _, issue := range frontier {
			links := LinksOf(issue, foreign)
			e.logger().Debug("classifying links", logging.F("issue", issue.Key()), logging.F("links", len(links)))

			for _, link := range links {
				class, ok := Classify(link.Term)
				if !ok {
					e.logger().Warning("unknown relation kind",
						logging.F("issue", issue.Key()),
						logging.F("other", link.Other.Key),
						logging.F("term", link.Term),
					)
					continue
				}

				first, second := link.Pair(issue.Identity())
				relations.Add(class.Orient(first, second))

				other := link.Other.Identity()
				if _, bad := failed[other]; bad || store.Has(other) {
					continue
				}
				queue.add(link.Other)
			}
		}

		fetched, err := e.fetch(ctx, queue, ExternalDependency, failed)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch relations at level %d: %w", level, err)
		}

		var next []*Issue
		for _, issue := range fetched {
			if store.Insert(issue) {
				next = append(next, issue)
			}
		}
		frontier = next
	}

	epics, err := e.resolveEpics(ctx, store, failed)
	if err != nil {
		return nil, err
	}

	for r := range relations {
		if !store.Has(r.From) || !store.Has(r.To) {
			delete(relations, r)
		}
	}

	return &ReportData{
		Issues:    store,
		Epics:     epics,
		Relations: relations,
	}, nil
}
