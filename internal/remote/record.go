package remote

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dori/duelist/internal/model"
)

// record is a task as the collaborator serves it. Ids may arrive as numbers,
// tags as a comma separated string, and timestamps without a zone.
type record struct {
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Notes       *string         `json:"notes"`
	DueDate     string          `json:"due_date"`
	Priority    string          `json:"priority"`
	Tags        json.RawMessage `json:"tags"`
	Completed   bool            `json:"completed"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04",
}

func (r record) task() (model.Task, error) {
	id, err := rawID(r.ID)
	if err != nil {
		return model.Task{}, err
	}

	t := model.Task{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Priority:    model.PriorityMedium,
		Completed:   r.Completed,
	}
	if r.Notes != nil && t.Description == "" {
		t.Description = *r.Notes
	}
	if p, ok := model.ParsePriority(r.Priority); ok {
		t.Priority = p
	}

	if t.Tags, err = rawTags(r.Tags); err != nil {
		return model.Task{}, fmt.Errorf("task %s: %w", id, err)
	}

	if r.DueDate != "" {
		due, err := parseDue(r.DueDate)
		if err != nil {
			return model.Task{}, fmt.Errorf("task %s: bad due_date %q: %w", id, r.DueDate, err)
		}
		t.DueDate = due
	}
	if t.CreatedAt, err = parseTime(r.CreatedAt); err != nil {
		return model.Task{}, fmt.Errorf("task %s: bad created_at %q: %w", id, r.CreatedAt, err)
	}
	if t.UpdatedAt, err = parseTime(r.UpdatedAt); err != nil {
		return model.Task{}, fmt.Errorf("task %s: bad updated_at %q: %w", id, r.UpdatedAt, err)
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	return t, nil
}

func rawID(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return "", fmt.Errorf("record has no id")
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("bad id: %w", err)
		}
		if s == "" {
			return "", fmt.Errorf("record has empty id")
		}
		return s, nil
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", fmt.Errorf("bad id %s: %w", raw, err)
	}
	return n.String(), nil
}

func rawTags(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return []string{}, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("bad tags: %w", err)
		}
		return model.ParseTags(s), nil
	}
	var tags []string
	if err := json.Unmarshal(raw, &tags); err != nil {
		return nil, fmt.Errorf("bad tags: %w", err)
	}
	return model.CleanTags(tags), nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	for _, layout := range timeLayouts {
		// zone-less values are wall-clock times of the collaborator's host
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

func parseDue(s string) (*time.Time, error) {
	if len(s) == len(model.DateLayout) && !strings.Contains(s, "T") {
		return model.CombineDue(s, "", time.Local)
	}
	t, err := parseTime(s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
