// Package query filters, sorts and summarizes task lists. Every function is
// pure: inputs are never mutated and results are fresh slices.
package query

import (
	"math"
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dori/duelist/internal/model"
)

// Apply filters tasks with f and then sorts the result by f.SortBy
func Apply(tasks []model.Task, f model.Filters) []model.Task {
	return Sort(Filter(tasks, f), f.SortBy)
}

// Filter returns the tasks matching every criterion in f (AND logic),
// preserving their relative order.
func Filter(tasks []model.Task, f model.Filters) []model.Task {
	q := strings.ToLower(f.Search)
	result := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		if matches(t, q, f) {
			result = append(result, t)
		}
	}
	return result
}

func matches(t model.Task, q string, f model.Filters) bool {
	if !matchesSearch(t, q) {
		return false
	}
	if f.Priority != "" && f.Priority != model.PriorityAll && model.Priority(f.Priority) != t.Priority {
		return false
	}
	switch f.Status {
	case model.StatusActive:
		return !t.Completed
	case model.StatusCompleted:
		return t.Completed
	}
	return true
}

// matchesSearch performs case-insensitive substring matching across title,
// description, and tags. q must already be lower case.
func matchesSearch(t model.Task, q string) bool {
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(t.Title), q) {
		return true
	}
	if strings.Contains(strings.ToLower(t.Description), q) {
		return true
	}
	for _, tag := range t.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

// Sort returns a stably sorted copy of tasks. Ties keep their prior order.
//
//	due_date:   ascending due timestamp, undated tasks last
//	priority:   high, medium, low
//	created_at: newest first
//	title:      ascending, locale-aware
func Sort(tasks []model.Task, by model.SortBy) []model.Task {
	out := append([]model.Task(nil), tasks...)

	var less func(a, b *model.Task) bool
	switch by {
	case model.SortPriority:
		less = func(a, b *model.Task) bool { return a.Priority.Rank() < b.Priority.Rank() }
	case model.SortCreatedAt:
		less = func(a, b *model.Task) bool { return a.CreatedAt.After(b.CreatedAt) }
	case model.SortTitle:
		c := collate.New(language.Und)
		less = func(a, b *model.Task) bool { return c.CompareString(a.Title, b.Title) < 0 }
	default:
		less = DueLess
	}

	sort.SliceStable(out, func(i, j int) bool { return less(&out[i], &out[j]) })
	return out
}

// DueLess orders tasks by due timestamp with undated tasks after all dated ones.
// It is the single comparator for due ordering everywhere in the program.
func DueLess(a, b *model.Task) bool {
	if a.DueDate == nil {
		return false
	}
	if b.DueDate == nil {
		return true
	}
	return a.DueDate.Before(*b.DueDate)
}

// Stats summarizes a task collection
type Stats struct {
	Total          int `json:"total"`
	Completed      int `json:"completed"`
	Pending        int `json:"pending"`
	Overdue        int `json:"overdue"`
	CompletionRate int `json:"completion_rate"` // whole percent
}

// Summarize counts tasks by state as of now
func Summarize(tasks []model.Task, now time.Time) Stats {
	var s Stats
	s.Total = len(tasks)
	for i := range tasks {
		if tasks[i].Completed {
			s.Completed++
		}
		if tasks[i].IsOverdue(now) {
			s.Overdue++
		}
	}
	s.Pending = s.Total - s.Completed
	if s.Total > 0 {
		s.CompletionRate = int(math.Round(float64(s.Completed) / float64(s.Total) * 100))
	}
	return s
}
