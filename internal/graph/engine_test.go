package graph

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andywolf/uprava/internal/jira"
	"github.com/andywolf/uprava/internal/logging"
)

func TestAssembleSeedOnlyScenario(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	f := &mockFetcher{}

	seed := []*Issue{
		member(t, inst, rawIssue("ISSUE-1", blocks("ISSUE-2"))),
		member(t, inst, rawIssue("ISSUE-2")),
	}

	e := &Engine{Fetcher: f, Depth: 1}
	data, err := e.Assemble(context.Background(), seed, nil)
	require.NoError(t, err)

	assert.Equal(t, 2, data.Issues.Len())
	assert.Equal(t, 0, data.Epics.Len())
	require.Equal(t, 1, data.Relations.Len())
	assert.True(t, data.Relations.Has(Relation{
		From: IdentityOf(inst, "ISSUE-1"),
		To:   IdentityOf(inst, "ISSUE-2"),
		Kind: Block,
	}))
	f.AssertNotCalled(t, "FetchBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssembleDepthZero(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	f := &mockFetcher{}

	seed := []*Issue{
		member(t, inst, rawIssue("A-1", blocks("A-2"), blockedBy("A-3"))),
	}

	e := &Engine{Fetcher: f, Depth: 0}
	data, err := e.Assemble(context.Background(), seed, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, data.Relations.Len())
	assert.Equal(t, 1, data.Issues.Len())
	_, ok := data.Issues.Get(seed[0].Identity())
	assert.True(t, ok)
	f.AssertNotCalled(t, "FetchBatch", mock.Anything, mock.Anything, mock.Anything)
}

func TestAssembleNegativeDepth(t *testing.T) {
	e := &Engine{Fetcher: &mockFetcher{}, Depth: -1}
	_, err := e.Assemble(context.Background(), nil, nil)
	assert.Error(t, err)
}

func TestAssembleFetchesDependenciesInOneBatch(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	f := &mockFetcher{}
	f.On("FetchBatch", mock.Anything, inst, []string{"A-2", "A-3"}).
		Return([]jira.Issue{rawIssue("A-2"), rawIssue("A-3")}, nil).Once()

	seed := []*Issue{
		member(t, inst, rawIssue("A-1", blocks("A-2"), linkWithTerm("depends on", "A-3"))),
		member(t, inst, rawIssue("A-4", blocks("A-2"))),
	}

	e := &Engine{Fetcher: f, Depth: 1}
	data, err := e.Assemble(context.Background(), seed, nil)
	require.NoError(t, err)
	f.AssertExpectations(t)

	assert.Equal(t, 4, data.Issues.Len())
	dep, ok := data.Issues.Lookup(inst, "A-2")
	require.True(t, ok)
	assert.Equal(t, ExternalDependency, dep.Kind)

	assert.Equal(t, []Relation{
		{From: IdentityOf(inst, "A-1"), To: IdentityOf(inst, "A-2"), Kind: Block},
		{From: IdentityOf(inst, "A-3"), To: IdentityOf(inst, "A-1"), Kind: Dependance},
		{From: IdentityOf(inst, "A-4"), To: IdentityOf(inst, "A-2"), Kind: Block},
	}, data.Relations.Sorted())
}

func TestAssembleDepthBound(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	chain := func() *mockFetcher {
		f := &mockFetcher{}
		f.On("FetchBatch", mock.Anything, inst, []string{"A-2"}).
			Return([]jira.Issue{rawIssue("A-2", blockedBy("A-1"), blocks("A-3"))}, nil).Once()
		f.On("FetchBatch", mock.Anything, inst, []string{"A-3"}).
			Return([]jira.Issue{rawIssue("A-3", blockedBy("A-2"), blocks("A-4"))}, nil).Once()
		return f
	}
	seed := []*Issue{member(t, inst, rawIssue("A-1", blocks("A-2")))}

	shallowFetcher := chain()
	shallow := &Engine{Fetcher: shallowFetcher, Depth: 1}
	data, err := shallow.Assemble(context.Background(), seed, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, data.Issues.Len())
	assert.Equal(t, 1, data.Relations.Len())
	shallowFetcher.AssertNumberOfCalls(t, "FetchBatch", 1)

	deepFetcher := chain()
	deep := &Engine{Fetcher: deepFetcher, Depth: 2}
	data, err = deep.Assemble(context.Background(), seed, nil)
	require.NoError(t, err)
	deepFetcher.AssertExpectations(t)

	// A-3 is fetched in round 2, its own links are never examined.
	assert.Equal(t, 3, data.Issues.Len())
	assert.Equal(t, []Relation{
		{From: IdentityOf(inst, "A-1"), To: IdentityOf(inst, "A-2"), Kind: Block},
		{From: IdentityOf(inst, "A-2"), To: IdentityOf(inst, "A-3"), Kind: Block},
	}, data.Relations.Sorted())
}

func TestAssembleCycleIsSafe(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	f := &mockFetcher{}
	f.On("FetchBatch", mock.Anything, inst, []string{"A-2"}).
		Return([]jira.Issue{rawIssue("A-2", blockedBy("A-1"), blocks("A-1"))}, nil).Once()

	seed := []*Issue{member(t, inst, rawIssue("A-1", blocks("A-2"), blockedBy("A-2")))}

	e := &Engine{Fetcher: f, Depth: 5}
	data, err := e.Assemble(context.Background(), seed, nil)
	require.NoError(t, err)
	f.AssertNumberOfCalls(t, "FetchBatch", 1)

	assert.Equal(t, 2, data.Issues.Len())
	assert.Equal(t, 2, data.Relations.Len())
}

func TestAssembleUnknownTermIsDropped(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	f := &mockFetcher{}
	rec := logging.NewRecorder()

	seed := []*Issue{member(t, inst, rawIssue("A-1", linkWithTerm("clones", "A-2")))}

	e := &Engine{Fetcher: f, Logger: rec, Depth: 1}
	data, err := e.Assemble(context.Background(), seed, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, data.Relations.Len())
	assert.Equal(t, 1, data.Issues.Len())
	f.AssertNotCalled(t, "FetchBatch", mock.Anything, mock.Anything, mock.Anything)

	warnings := rec.BySeverity(logging.SeverityWarning)
	require.Len(t, warnings, 1)
	assert.Equal(t, "unknown relation kind", warnings[0].Message)
	assert.Contains(t, warnings[0].Fields, "term")
	assert.Equal(t, "clones", warnings[0].Fields["term"])
	assert.Equal(t, "A-2", warnings[0].Fields["other"])
}

func TestAssembleRelationsMapRemap(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	inst.RelationsMap = []jira.RelationAlias{{Term: "is required by", As: "dependance for"}}

	seed := []*Issue{
		member(t, inst, rawIssue("A-1", linkWithTerm("is required by", "A-2"))),
		member(t, inst, rawIssue("A-2")),
	}

	e := &Engine{Fetcher: &mockFetcher{}, Depth: 1}
	data, err := e.Assemble(context.Background(), seed, nil)
	require.NoError(t, err)
	assert.True(t, data.Relations.Has(Relation{
		From: IdentityOf(inst, "A-1"),
		To:   IdentityOf(inst, "A-2"),
		Kind: Dependance,
	}))
}

func TestAssembleForeignRelation(t *testing.T) {
	a := newTestInstance(t, "https://a.example.com")
	b := newTestInstance(t, "https://b.example.com")
	f := &mockFetcher{}
	f.On("FetchBatch", mock.Anything, b, []string{"Y-1"}).
		Return([]jira.Issue{rawIssue("Y-1")}, nil).Once()

	seed := []*Issue{member(t, a, rawIssue("X-1"))}
	foreign := []ForeignRelation{{From: Subject{a, "X-1"}, To: Subject{b, "Y-1"}, Kind: "blocks"}}

	e := &Engine{Fetcher: f, Depth: 1}
	data, err := e.Assemble(context.Background(), seed, foreign)
	require.NoError(t, err)
	f.AssertExpectations(t)

	assert.Equal(t, []Relation{
		{From: IdentityOf(a, "X-1"), To: IdentityOf(b, "Y-1"), Kind: Block},
	}, data.Relations.Sorted())
	y, ok := data.Issues.Lookup(b, "Y-1")
	require.True(t, ok)
	assert.Equal(t, ExternalDependency, y.Kind)
}

func TestAssembleForeignRelationFromTargetSide(t *testing.T) {
	a := newTestInstance(t, "https://a.example.com")
	b := newTestInstance(t, "https://b.example.com")

	seed := []*Issue{member(t, a, rawIssue("X-1")), member(t, b, rawIssue("Y-1"))}
	foreign := []ForeignRelation{{From: Subject{a, "X-1"}, To: Subject{b, "Y-1"}, Kind: "blocks"}}

	e := &Engine{Fetcher: &mockFetcher{}, Depth: 1}
	data, err := e.Assemble(context.Background(), seed, foreign)
	require.NoError(t, err)

	// Both endpoints see the declaration but it yields one relation.
	assert.Equal(t, []Relation{
		{From: IdentityOf(a, "X-1"), To: IdentityOf(b, "Y-1"), Kind: Block},
	}, data.Relations.Sorted())
}

func TestAssembleBatchesPerInstance(t *testing.T) {
	a := newTestInstance(t, "https://a.example.com")
	b := newTestInstance(t, "https://b.example.com")
	f := &mockFetcher{}
	f.On("FetchBatch", mock.Anything, a, []string{"A-2"}).Return([]jira.Issue{rawIssue("A-2")}, nil).Once()
	f.On("FetchBatch", mock.Anything, b, []string{"B-1", "B-2"}).
		Return([]jira.Issue{rawIssue("B-1"), rawIssue("B-2")}, nil).Once()

	seed := []*Issue{member(t, a, rawIssue("A-1", blocks("A-2")))}
	foreign := []ForeignRelation{
		{From: Subject{a, "A-1"}, To: Subject{b, "B-1"}, Kind: "mentions"},
		{From: Subject{a, "A-1"}, To: Subject{b, "B-2"}, Kind: "relates to"},
	}

	e := &Engine{Fetcher: f, Depth: 1}
	data, err := e.Assemble(context.Background(), seed, foreign)
	require.NoError(t, err)
	f.AssertExpectations(t)
	assert.Equal(t, 4, data.Issues.Len())
	assert.True(t, data.Relations.Has(Relation{From: IdentityOf(b, "B-1"), To: IdentityOf(a, "A-1"), Kind: Mention}))
	assert.True(t, data.Relations.Has(Relation{From: IdentityOf(a, "A-1"), To: IdentityOf(b, "B-2"), Kind: Mention}))
}

func TestAssembleStrictFetchError(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	boom := errors.New("boom")
	f := &mockFetcher{}
	f.On("FetchBatch", mock.Anything, inst, []string{"A-2"}).Return(nil, boom)

	seed := []*Issue{member(t, inst, rawIssue("A-1", blocks("A-2")))}

	e := &Engine{Fetcher: f, Depth: 1}
	_, err := e.Assemble(context.Background(), seed, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, inst.ID(), ferr.Instance)
	assert.Equal(t, []string{"A-2"}, ferr.Keys)
}

func TestAssembleStrictMissingIssue(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	f := &mockFetcher{}
	f.On("FetchBatch", mock.Anything, inst, []string{"A-2", "A-3"}).Return([]jira.Issue{rawIssue("A-2")}, nil)

	seed := []*Issue{member(t, inst, rawIssue("A-1", blocks("A-2"), blocks("A-3")))}

	e := &Engine{Fetcher: f, Depth: 1}
	_, err := e.Assemble(context.Background(), seed, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrIssueNotReturned)

	var ferr *FetchError
	require.ErrorAs(t, err, &ferr)
	assert.Equal(t, []string{"A-3"}, ferr.Keys)
}

func TestAssembleTolerantPrunesFailedEndpoints(t *testing.T) {
	a := newTestInstance(t, "https://a.example.com")
	b := newTestInstance(t, "https://b.example.com")
	f := &mockFetcher{}
	f.On("FetchBatch", mock.Anything, a, []string{"A-2", "A-3"}).Return([]jira.Issue{rawIssue("A-2")}, nil).Once()
	f.On("FetchBatch", mock.Anything, b, []string{"B-1"}).Return(nil, errors.New("unauthorized")).Once()
	rec := logging.NewRecorder()

	seed := []*Issue{member(t, a, rawIssue("A-1", blocks("A-2"), blocks("A-3")))}
	foreign := []ForeignRelation{{From: Subject{a, "A-1"}, To: Subject{b, "B-1"}, Kind: "blocks"}}

	e := &Engine{Fetcher: f, Logger: rec, Depth: 1, Tolerant: true}
	data, err := e.Assemble(context.Background(), seed, foreign)
	require.NoError(t, err)
	f.AssertExpectations(t)

	assert.Equal(t, 2, data.Issues.Len())
	assert.Equal(t, []Relation{
		{From: IdentityOf(a, "A-1"), To: IdentityOf(a, "A-2"), Kind: Block},
	}, data.Relations.Sorted())
	assert.Len(t, rec.BySeverity(logging.SeverityWarning), 2)

	for r := range data.Relations {
		assert.True(t, data.Issues.Has(r.From))
		assert.True(t, data.Issues.Has(r.To))
	}
}

func TestAssembleFieldErrorAlwaysEscalates(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	f := &mockFetcher{}
	f.On("FetchBatch", mock.Anything, inst, []string{"A-2"}).
		Return([]jira.Issue{withRawEpic(rawIssue("A-2"), `{"not":"a string"}`)}, nil)

	seed := []*Issue{member(t, inst, rawIssue("A-1", blocks("A-2")))}

	e := &Engine{Fetcher: f, Depth: 1, Tolerant: true}
	_, err := e.Assemble(context.Background(), seed, nil)
	require.Error(t, err)

	var ferr *jira.FieldError
	assert.ErrorAs(t, err, &ferr)
}
