package model

import "strings"

// PriorityFilter selects tasks by priority; PriorityAll disables the filter
type PriorityFilter string

// StatusFilter selects tasks by completion state
type StatusFilter string

// SortBy names a sort order for the task list
type SortBy string

const (
	PriorityAll PriorityFilter = "all"

	StatusAll       StatusFilter = "all"
	StatusActive    StatusFilter = "active"
	StatusCompleted StatusFilter = "completed"

	SortDueDate   SortBy = "due_date"
	SortPriority  SortBy = "priority"
	SortCreatedAt SortBy = "created_at"
	SortTitle     SortBy = "title"
)

// Filters is the list filter state. It changes only through explicit user
// filter actions and is read on every render.
type Filters struct {
	Search   string
	Priority PriorityFilter
	Status   StatusFilter
	SortBy   SortBy
}

// DefaultFilters returns the cleared filter state
func DefaultFilters() Filters {
	return Filters{
		Priority: PriorityAll,
		Status:   StatusAll,
		SortBy:   SortDueDate,
	}
}

// IsDefault returns true when no filter narrows or reorders the list
func (f Filters) IsDefault() bool {
	return f == DefaultFilters()
}

// ParsePriorityFilter accepts "all" or any priority name
func ParsePriorityFilter(s string) (PriorityFilter, bool) {
	if s == "" || strings.EqualFold(s, string(PriorityAll)) {
		return PriorityAll, true
	}
	p, ok := ParsePriority(s)
	return PriorityFilter(p), ok
}

// ParseStatusFilter accepts all, active, or completed
func ParseStatusFilter(s string) (StatusFilter, bool) {
	switch StatusFilter(strings.ToLower(s)) {
	case "", StatusAll:
		return StatusAll, true
	case StatusActive, "pending":
		return StatusActive, true
	case StatusCompleted, "done":
		return StatusCompleted, true
	}
	return "", false
}

// ParseSortBy accepts the sort names plus a few short aliases
func ParseSortBy(s string) (SortBy, bool) {
	switch strings.ToLower(s) {
	case "", "due_date", "due":
		return SortDueDate, true
	case "priority", "pri":
		return SortPriority, true
	case "created_at", "created":
		return SortCreatedAt, true
	case "title":
		return SortTitle, true
	}
	return "", false
}

// Next cycles all -> high -> medium -> low -> all
func (p PriorityFilter) Next() PriorityFilter {
	switch p {
	case PriorityAll:
		return PriorityFilter(PriorityHigh)
	case PriorityFilter(PriorityHigh):
		return PriorityFilter(PriorityMedium)
	case PriorityFilter(PriorityMedium):
		return PriorityFilter(PriorityLow)
	default:
		return PriorityAll
	}
}

// Next cycles all -> active -> completed -> all
func (s StatusFilter) Next() StatusFilter {
	switch s {
	case StatusAll:
		return StatusActive
	case StatusActive:
		return StatusCompleted
	default:
		return StatusAll
	}
}

// Next cycles through the sort orders
func (s SortBy) Next() SortBy {
	switch s {
	case SortDueDate:
		return SortPriority
	case SortPriority:
		return SortCreatedAt
	case SortCreatedAt:
		return SortTitle
	default:
		return SortDueDate
	}
}
