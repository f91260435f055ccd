package graph

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/andywolf/uprava/internal/jira"
	"github.com/andywolf/uprava/internal/logging"
)

// ErrIssueNotReturned marks a requested key missing from a batch response.
var ErrIssueNotReturned = errors.New("issue not returned by search")

// Fetcher retrieves many issues of one instance in a single batched query.
type Fetcher interface {
	FetchBatch(ctx context.Context, inst *jira.Instance, keys []string) ([]jira.Issue, error)
}

// FetchError identifies a failed batch.
type FetchError struct {
	Instance string
	Keys     []string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch %s from %s: %v", strings.Join(e.Keys, ", "), e.Instance, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type batch struct {
	instance *jira.Instance
	keys     []string
	seen     map[string]struct{}
}

// batchQueue groups pending keys by instance, keeping first-seen order.
type batchQueue struct {
	batches map[string]*batch
}

func newBatchQueue() *batchQueue {
	return &batchQueue{batches: make(map[string]*batch)}
}

func (q *batchQueue) add(s Subject) {
	id := s.Instance.ID()
	b, ok := q.batches[id]
	if !ok {
		b = &batch{instance: s.Instance, seen: make(map[string]struct{})}
		q.batches[id] = b
	}
	if _, dup := b.seen[s.Key]; dup {
		return
	}
	b.seen[s.Key] = struct{}{}
	b.keys = append(b.keys, s.Key)
}

func (q *batchQueue) len() int {
	return len(q.batches)
}

// list returns batches ordered by instance.
func (q *batchQueue) list() []*batch {
	out := make([]*batch, 0, len(q.batches))
	for _, b := range q.batches {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].instance.ID() < out[j].instance.ID() })
	return out
}

// fetch runs one query per instance concurrently and joins before
// returning. In strict mode the first failure aborts the phase. In tolerant
// mode failed identities are recorded in failed and skipped.
func (e *Engine) fetch(ctx context.Context, q *batchQueue, kind EntityKind, failed map[Identity]struct{}) ([]*Issue, error) {
	if q.len() == 0 {
		return nil, nil
	}

	batches := q.list()
	results := make([][]jira.Issue, len(batches))
	errs := make([]error, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	for i, b := range batches {
		i, b := i, b
		g.Go(func() error {
			issues, err := e.Fetcher.FetchBatch(gctx, b.instance, b.keys)
			if err != nil {
				errs[i] = &FetchError{Instance: b.instance.ID(), Keys: b.keys, Err: err}
				if !e.Tolerant {
					return errs[i]
				}
				return nil
			}
			results[i] = issues
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []*Issue
	for i, b := range batches {
		if errs[i] != nil {
			e.tolerate(errs[i], b.instance, b.keys, failed)
			continue
		}

		returned := make(map[string]struct{}, len(results[i]))
		for j := range results[i] {
			raw := &results[i][j]
			issue, err := NewIssue(b.instance, raw, kind)
			if err != nil {
				return nil, err
			}
			returned[raw.Key] = struct{}{}
			out = append(out, issue)
		}

		var missing []string
		for _, k := range b.keys {
			if _, ok := returned[k]; !ok {
				missing = append(missing, k)
			}
		}
		if len(missing) == 0 {
			continue
		}
		ferr := &FetchError{Instance: b.instance.ID(), Keys: missing, Err: ErrIssueNotReturned}
		if !e.Tolerant {
			return nil, ferr
		}
		e.tolerate(ferr, b.instance, missing, failed)
	}
	return out, nil
}

func (e *Engine) tolerate(err error, inst *jira.Instance, keys []string, failed map[Identity]struct{}) {
	e.logger().Warning("fetch failed, skipping issues because fetch errors are ignored",
		logging.F("instance", inst.ID()),
		logging.F("keys", keys),
		logging.F("error", err),
	)
	for _, k := range keys {
		failed[IdentityOf(inst, k)] = struct{}{}
	}
}
