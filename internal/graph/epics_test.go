package graph

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/andywolf/uprava/internal/jira"
	"github.com/andywolf/uprava/internal/logging"
)

func TestEpicResolutionIsFetchMinimal(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	f := &mockFetcher{}
	f.On("FetchBatch", mock.Anything, inst, []string{"EPIC-1"}).
		Return([]jira.Issue{rawIssue("EPIC-1")}, nil).Once()

	var seed []*Issue
	for i := 0; i < 10; i++ {
		seed = append(seed, member(t, inst, withEpic(rawIssue(fmt.Sprintf("A-%d", i)), "EPIC-1")))
	}

	e := &Engine{Fetcher: f, Depth: 1}
	data, err := e.Assemble(context.Background(), seed, nil)
	require.NoError(t, err)
	f.AssertExpectations(t)
	f.AssertNumberOfCalls(t, "FetchBatch", 1)

	assert.Equal(t, 1, data.Epics.Len())
	assert.Equal(t, 11, data.Issues.Len())
}

func TestEpicResolutionScenario(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	f := &mockFetcher{}
	f.On("FetchBatch", mock.Anything, inst, []string{"EPIC-9"}).
		Return([]jira.Issue{rawIssue("EPIC-9")}, nil).Once()

	seed := []*Issue{member(t, inst, withEpic(rawIssue("A-1"), "EPIC-9"))}

	e := &Engine{Fetcher: f, Depth: 1}
	data, err := e.Assemble(context.Background(), seed, nil)
	require.NoError(t, err)

	epic, ok := data.Epics.Lookup(inst, "EPIC-9")
	require.True(t, ok)
	assert.Equal(t, Epic, epic.Kind)

	stored, ok := data.Issues.Lookup(inst, "EPIC-9")
	require.True(t, ok)
	assert.Same(t, epic, stored)

	got, ok := data.EpicOf(seed[0])
	require.True(t, ok)
	assert.Same(t, epic, got)
}

func TestEpicAlreadyInStoreIsReused(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	f := &mockFetcher{}

	epic := member(t, inst, rawIssue("EPIC-1"))
	seed := []*Issue{
		member(t, inst, withEpic(rawIssue("A-1"), "EPIC-1")),
		epic,
	}

	e := &Engine{Fetcher: f, Depth: 1}
	data, err := e.Assemble(context.Background(), seed, nil)
	require.NoError(t, err)
	f.AssertNotCalled(t, "FetchBatch", mock.Anything, mock.Anything, mock.Anything)

	got, ok := data.Epics.Lookup(inst, "EPIC-1")
	require.True(t, ok)
	assert.Same(t, epic, got)
	assert.Equal(t, ReportMember, got.Kind)
}

func TestEpicsBatchedAcrossInstances(t *testing.T) {
	a := newTestInstance(t, "https://a.example.com")
	b := newTestInstance(t, "https://b.example.com")
	f := &mockFetcher{}
	f.On("FetchBatch", mock.Anything, a, []string{"EA-1", "EA-2"}).
		Return([]jira.Issue{rawIssue("EA-1"), rawIssue("EA-2")}, nil).Once()
	f.On("FetchBatch", mock.Anything, b, []string{"EB-1"}).
		Return([]jira.Issue{rawIssue("EB-1")}, nil).Once()

	seed := []*Issue{
		member(t, a, withEpic(rawIssue("A-1"), "EA-1")),
		member(t, a, withEpic(rawIssue("A-2"), "EA-2")),
		member(t, a, withEpic(rawIssue("A-3"), "EA-1")),
		member(t, b, withEpic(rawIssue("B-1"), "EB-1")),
	}

	e := &Engine{Fetcher: f, Depth: 0}
	data, err := e.Assemble(context.Background(), seed, nil)
	require.NoError(t, err)
	f.AssertExpectations(t)
	assert.Equal(t, 3, data.Epics.Len())

	// Epics live on the instance of the referencing issue.
	_, ok := data.Epics.Lookup(b, "EA-1")
	assert.False(t, ok)
}

func TestEpicFetchFailure(t *testing.T) {
	inst := newTestInstance(t, "https://a.example.com")
	seed := []*Issue{member(t, inst, withEpic(rawIssue("A-1"), "EPIC-1"))}

	strictFetcher := &mockFetcher{}
	strictFetcher.On("FetchBatch", mock.Anything, inst, []string{"EPIC-1"}).Return([]jira.Issue{}, nil)
	_, err := (&Engine{Fetcher: strictFetcher, Depth: 1}).Assemble(context.Background(), seed, nil)
	assert.ErrorIs(t, err, ErrIssueNotReturned)

	tolerantFetcher := &mockFetcher{}
	tolerantFetcher.On("FetchBatch", mock.Anything, inst, []string{"EPIC-1"}).Return([]jira.Issue{}, nil)
	rec := logging.NewRecorder()
	data, err := (&Engine{Fetcher: tolerantFetcher, Logger: rec, Depth: 1, Tolerant: true}).Assemble(context.Background(), seed, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, data.Epics.Len())
	assert.Len(t, rec.BySeverity(logging.SeverityWarning), 1)
}
