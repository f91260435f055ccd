package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreInsertIsFirstWriteWins(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	first := member(t, inst, rawIssue("ABC-1"))
	second := member(t, inst, rawIssue("ABC-1"))
	second.Raw.Fields.Summary = "changed"
	second.Kind = ExternalDependency

	s := NewStore()
	assert.True(t, s.Insert(first))
	assert.False(t, s.Insert(second))

	got, ok := s.Get(first.Identity())
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, "ABC-1", got.Raw.Fields.Summary)
	assert.Equal(t, 1, s.Len())
}

func TestStoreKeepsInstancesApart(t *testing.T) {
	a := newTestInstance(t, "https://a.example.com")
	b := newTestInstance(t, "https://b.example.com")

	s := NewStore()
	s.Insert(member(t, a, rawIssue("ABC-1")))
	s.Insert(member(t, b, rawIssue("ABC-1")))

	assert.Equal(t, 2, s.Len())
	ia, ok := s.Lookup(a, "ABC-1")
	require.True(t, ok)
	ib, ok := s.Lookup(b, "ABC-1")
	require.True(t, ok)
	assert.NotSame(t, ia, ib)

	sorted := s.Sorted()
	require.Len(t, sorted, 2)
	assert.Equal(t, a.ID(), sorted[0].Instance.ID())
}

func TestStoreAllIsACopy(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	s := NewStore()
	s.Insert(member(t, inst, rawIssue("ABC-1")))

	all := s.All()
	delete(all, IdentityOf(inst, "ABC-1"))
	assert.Equal(t, 1, s.Len())
}

func TestIdentityStableString(t *testing.T) {
	id := Identity{Instance: "https://jira.example.com", Key: "ABC-12"}
	assert.Equal(t, "https___jira_example_com_ABC_12", id.StableString())

	odd := Identity{Instance: "https://bot@jira.example.com:8443/~team/a+b%20c", Key: "ABC-12"}
	assert.Regexp(t, `^[A-Za-z0-9_]+$`, odd.StableString())
	assert.Equal(t, "https___bot_jira_example_com_8443__team_a_b_20c_ABC_12", odd.StableString())
	assert.Equal(t, "https://jira.example.com/ABC-12", id.String())
}

func TestRelationSetDedup(t *testing.T) {
	a := Identity{Instance: "i", Key: "A"}
	b := Identity{Instance: "i", Key: "B"}

	s := RelationSet{}
	assert.True(t, s.Add(Relation{From: a, To: b, Kind: Dependance}))
	assert.False(t, s.Add(Relation{From: a, To: b, Kind: Dependance}))
	assert.True(t, s.Add(Relation{From: a, To: b, Kind: Block}))
	assert.True(t, s.Add(Relation{From: b, To: a, Kind: Dependance}))

	assert.Equal(t, 3, s.Len())
	sorted := s.Sorted()
	assert.Equal(t, Relation{From: a, To: b, Kind: Dependance}, sorted[0])
	assert.Equal(t, Relation{From: a, To: b, Kind: Block}, sorted[1])
	assert.Equal(t, Relation{From: b, To: a, Kind: Dependance}, sorted[2])
}
