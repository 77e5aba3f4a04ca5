package model

import (
	"strings"
	"time"
)

// Priority represents task priority level
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists the valid priorities from most to least important
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// ParsePriority parses a priority name, accepting the short forms used by quick add
func ParsePriority(s string) (Priority, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "high", "hi", "h":
		return PriorityHigh, true
	case "medium", "med", "m":
		return PriorityMedium, true
	case "low", "l":
		return PriorityLow, true
	}
	return "", false
}

// Rank returns the sort rank of a priority: high 0, medium 1, low 2.
// Unknown values rank with medium.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityLow:
		return 2
	default:
		return 1
	}
}

// Valid reports whether p is one of the known priorities
func (p Priority) Valid() bool {
	return p == PriorityHigh || p == PriorityMedium || p == PriorityLow
}

// Task represents a todo item
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Priority    Priority   `json:"priority"`
	Tags        []string   `json:"tags"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// HasDue returns true if the task carries a due timestamp
func (t *Task) HasDue() bool {
	return t.DueDate != nil
}

// Until returns the time remaining until the task is due.
// The second result is false for tasks without a due timestamp.
func (t *Task) Until(now time.Time) (time.Duration, bool) {
	if t.DueDate == nil {
		return 0, false
	}
	return t.DueDate.Sub(now), true
}

// IsOverdue returns true if the task is past its due date.
// Completed tasks are never overdue.
func (t *Task) IsOverdue(now time.Time) bool {
	if t.DueDate == nil || t.Completed {
		return false
	}
	return now.After(*t.DueDate)
}

// Clone returns a deep copy so callers cannot alias store-owned slices
func (t Task) Clone() Task {
	if t.Tags != nil {
		t.Tags = append([]string(nil), t.Tags...)
	}
	if t.DueDate != nil {
		due := *t.DueDate
		t.DueDate = &due
	}
	return t
}

// ParseTags splits comma-separated tag input, trimming each entry and
// discarding empty ones. Input order is kept for display.
func ParseTags(s string) []string {
	tags := []string{}
	for _, part := range strings.Split(s, ",") {
		if tag := strings.TrimSpace(part); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}

// CleanTags drops empty and whitespace-only entries from an existing tag slice
func CleanTags(in []string) []string {
	tags := make([]string, 0, len(in))
	for _, tag := range in {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	return tags
}
