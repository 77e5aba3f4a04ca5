package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/duelist/internal/taskerr"
)

func TestParseTags(t *testing.T) {
	assert.Equal(t, []string{"home", "errands"}, ParseTags(" home, ,errands,"))
	assert.Empty(t, ParseTags(""))
	assert.Empty(t, ParseTags(" , ,"))
}

func TestPriorityRank(t *testing.T) {
	assert.Less(t, PriorityHigh.Rank(), PriorityMedium.Rank())
	assert.Less(t, PriorityMedium.Rank(), PriorityLow.Rank())

	p, ok := ParsePriority("H")
	require.True(t, ok)
	assert.Equal(t, PriorityHigh, p)

	_, ok = ParsePriority("urgent")
	assert.False(t, ok)
}

func TestIsOverdueIgnoresCompleted(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	due := now.Add(-time.Hour)
	task := Task{DueDate: &due}
	assert.True(t, task.IsOverdue(now))

	task.Completed = true
	assert.False(t, task.IsOverdue(now))

	assert.False(t, (&Task{}).IsOverdue(now))
}

func TestCloneDoesNotAlias(t *testing.T) {
	due := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	orig := Task{Tags: []string{"a"}, DueDate: &due}
	cp := orig.Clone()
	cp.Tags[0] = "b"
	*cp.DueDate = due.Add(time.Hour)

	assert.Equal(t, "a", orig.Tags[0])
	assert.Equal(t, due, *orig.DueDate)
}

func TestCombineDue(t *testing.T) {
	loc := time.UTC

	due, err := CombineDue("2025-06-01", "14:30", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 14, 30, 0, 0, loc), *due)

	due, err = CombineDue("2025-06-01", "", loc)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 6, 1, 23, 59, 0, 0, loc), *due)

	due, err = CombineDue("", "", loc)
	require.NoError(t, err)
	assert.Nil(t, due)

	_, err = CombineDue("", "10:00", loc)
	assert.ErrorIs(t, err, taskerr.ErrValidation)

	_, err = CombineDue("06/01/2025", "", loc)
	assert.ErrorIs(t, err, taskerr.ErrValidation)
}

func TestFilterCycles(t *testing.T) {
	assert.Equal(t, PriorityAll, PriorityAll.Next().Next().Next().Next())
	assert.Equal(t, StatusAll, StatusAll.Next().Next().Next())
	assert.Equal(t, SortDueDate, SortDueDate.Next().Next().Next().Next())
	assert.True(t, DefaultFilters().IsDefault())
}
