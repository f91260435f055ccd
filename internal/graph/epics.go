package graph

import (
	"context"
	"fmt"

	"github.com/andywolf/uprava/internal/logging"
)

// resolveEpics makes sure every referenced epic is present in both the
// returned epic store and store. Epics missing from store are fetched in
// one batch per instance, so each distinct epic is requested once.
func (e *Engine) resolveEpics(ctx context.Context, store *Store, failed map[Identity]struct{}) (*Store, error) {
	e.logger().Info("fetching epics for issues list")

	epics := NewStore()
	queue := newBatchQueue()

	for _, issue := range store.Sorted() {
		subject, ok := issue.EpicSubject()
		if !ok {
			continue
		}
		id := subject.Identity()
		if existing, ok := store.Get(id); ok {
			epics.Insert(existing)
			continue
		}
		if _, bad := failed[id]; bad {
			continue
		}
		queue.add(subject)
	}

	fetched, err := e.fetch(ctx, queue, Epic, failed)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch epics: %w", err)
	}
	for _, epic := range fetched {
		if !store.Insert(epic) {
			epic, _ = store.Get(epic.Identity())
		}
		epics.Insert(epic)
	}

	e.logger().Debug("epics resolved", logging.F("epics", epics.Len()), logging.F("fetched", len(fetched)))
	return epics, nil
}
