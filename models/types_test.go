// ABOUTME: Tests for CRM data models
// ABOUTME: Covers enum parsing, event time derivation and overdue checks
package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventColor(t *testing.T) {
	assert.Equal(t, "bg-green-600", EventColor(EventMeeting))
	assert.Equal(t, "bg-blue-500", EventColor(EventGeneral))
	assert.Equal(t, "bg-orange-500", EventColor(EventReminder))
	assert.Equal(t, "bg-gray-500", EventColor("party"))
}

func TestEndAfterStartIgnoresDuration(t *testing.T) {
	end, err := EndAfterStart("09:00")
	require.NoError(t, err)
	assert.Equal(t, "10:00", end)

	end, err = EndAfterStart("21:00")
	require.NoError(t, err)
	assert.Equal(t, "22:00", end)

	_, err = EndAfterStart("nine")
	assert.Error(t, err)
}

func TestStartHour(t *testing.T) {
	assert.Equal(t, 14, Event{Start: "14:00"}.StartHour())
	assert.Equal(t, -1, Event{Start: ""}.StartHour())
}

func TestParseStage(t *testing.T) {
	cases := map[string]Stage{
		"To Do":       StageTodo,
		"todo":        StageTodo,
		"to-do":       StageTodo,
		"in_progress": StageInProgress,
		"REVIEW":      StageReview,
		"done":        StageDone,
	}
	for in, want := range cases {
		got, ok := ParseStage(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseStage("archived")
	assert.False(t, ok)
}

func TestPriorityColor(t *testing.T) {
	assert.Equal(t, "bg-purple-100 text-purple-600", PriorityColor(PriorityCritical))
	assert.Equal(t, "bg-red-100 text-red-600", PriorityColor(PriorityHigh))
	assert.Equal(t, "bg-blue-100 text-blue-600", PriorityColor(PriorityMedium))
	assert.Equal(t, "bg-blue-100 text-blue-600", PriorityColor(PriorityLow))
}

func TestTaskIsOverdue(t *testing.T) {
	today := time.Date(2025, 11, 21, 15, 0, 0, 0, time.UTC)

	assert.True(t, Task{DueDate: "2025-11-20", Stage: StageTodo}.IsOverdue(today))
	assert.False(t, Task{DueDate: "2025-11-20", Stage: StageDone}.IsOverdue(today))
	assert.False(t, Task{DueDate: "2025-11-21", Stage: StageReview}.IsOverdue(today))
	assert.False(t, Task{DueDate: "", Stage: StageTodo}.IsOverdue(today))
}

func TestTaskCloneDoesNotAlias(t *testing.T) {
	orig := Task{
		Assignee: []Assignee{{Initials: "JD"}},
		Activity: Activity{CommentsList: []Comment{{ID: "1"}}},
	}
	cp := orig.Clone()
	cp.Assignee[0].Initials = "XX"
	cp.Activity.CommentsList[0].ID = "2"

	assert.Equal(t, "JD", orig.Assignee[0].Initials)
	assert.Equal(t, "1", orig.Activity.CommentsList[0].ID)
}

func TestLeadStatusGroups(t *testing.T) {
	assert.True(t, LeadNew.Active())
	assert.False(t, LeadNew.InProgress())
	assert.True(t, LeadInterested.InProgress())
	assert.False(t, LeadRejected.Active())
}

func TestDealStageClosed(t *testing.T) {
	assert.True(t, DealWon.Closed())
	assert.True(t, DealLost.Closed())
	assert.False(t, DealProposal.Closed())
}
