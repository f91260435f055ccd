package graph

import (
	"fmt"
	"sort"
)

// RelationKind is the normalized kind of a relation.
type RelationKind int

const (
	Dependance RelationKind = iota
	Block
	Mention
)

func (k RelationKind) String() string {
	switch k {
	case Dependance:
		return "dependance"
	case Block:
		return "block"
	case Mention:
		return "mention"
	}
	return fmt.Sprintf("RelationKind(%d)", int(k))
}

// Relation is a directed, typed edge between two issues.
type Relation struct {
	From Identity
	To   Identity
	Kind RelationKind
}

// RelationSet holds relations by value, so equal triples collapse.
type RelationSet map[Relation]struct{}

// Add inserts r and reports whether it was new.
func (s RelationSet) Add(r Relation) bool {
	if _, ok := s[r]; ok {
		return false
	}
	s[r] = struct{}{}
	return true
}

func (s RelationSet) Has(r Relation) bool {
	_, ok := s[r]
	return ok
}

func (s RelationSet) Len() int {
	return len(s)
}

// Sorted lists relations by from, to, then kind.
func (s RelationSet) Sorted() []Relation {
	out := make([]Relation, 0, len(s))
	for r := range s {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.From != b.From {
			return a.From.less(b.From)
		}
		if a.To != b.To {
			return a.To.less(b.To)
		}
		return a.Kind < b.Kind
	})
	return out
}
