package graph

import (
	"sort"

	"github.com/andywolf/uprava/internal/jira"
)

// Store maps identities to issues. Insert is first-write-wins: once an
// identity is present its issue is never replaced, so callers must not
// expect refreshed data from a second insert.
type Store struct {
	issues map[Identity]*Issue
}

func NewStore() *Store {
	return &Store{issues: make(map[Identity]*Issue)}
}

// Insert adds issue unless its identity is already stored. It reports
// whether the issue was added.
func (s *Store) Insert(issue *Issue) bool {
	id := issue.Identity()
	if _, ok := s.issues[id]; ok {
		return false
	}
	s.issues[id] = issue
	return true
}

func (s *Store) Get(id Identity) (*Issue, bool) {
	issue, ok := s.issues[id]
	return issue, ok
}

func (s *Store) Has(id Identity) bool {
	_, ok := s.issues[id]
	return ok
}

// Lookup finds key on inst.
func (s *Store) Lookup(inst *jira.Instance, key string) (*Issue, bool) {
	return s.Get(IdentityOf(inst, key))
}

// All returns a copy of the identity to issue mapping.
func (s *Store) All() map[Identity]*Issue {
	out := make(map[Identity]*Issue, len(s.issues))
	for id, issue := range s.issues {
		out[id] = issue
	}
	return out
}

func (s *Store) Len() int {
	return len(s.issues)
}

// Sorted lists issues ordered by instance then key.
func (s *Store) Sorted() []*Issue {
	ids := make([]Identity, 0, len(s.issues))
	for id := range s.issues {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].less(ids[j]) })

	out := make([]*Issue, len(ids))
	for i, id := range ids {
		out[i] = s.issues[id]
	}
	return out
}
