// Package transfer reads and writes the portable JSON task file
package transfer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dori/duelist/internal/model"
	"github.com/dori/duelist/internal/taskerr"
)

// Filename returns the dated export name, e.g. tasks-2025-04-01.json
func Filename(now time.Time) string {
	return "tasks-" + now.Format(model.DateLayout) + ".json"
}

// Export writes tasks as an indented JSON array
func Export(w io.Writer, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(tasks); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	return nil
}

// Import parses a whole export file. Any problem rejects the file as a
// taskerr.ImportFormatError; no partial result is returned.
func Import(r io.Reader) ([]model.Task, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read import: %w", err)
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, invalid("top-level value must be an array of tasks")
	}

	var tasks []model.Task
	if err := json.Unmarshal(trimmed, &tasks); err != nil {
		return nil, &taskerr.ImportFormatError{Err: err}
	}

	seen := make(map[string]bool, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if t.ID == "" {
			return nil, invalid("task %d has no id", i)
		}
		if seen[t.ID] {
			return nil, invalid("duplicate task id %q", t.ID)
		}
		seen[t.ID] = true

		if strings.TrimSpace(t.Title) == "" {
			return nil, invalid("task %q has an empty title", t.ID)
		}
		if t.Priority == "" {
			t.Priority = model.PriorityMedium
		}
		if !t.Priority.Valid() {
			return nil, invalid("task %q has unknown priority %q", t.ID, t.Priority)
		}
		if t.Tags == nil {
			t.Tags = []string{}
		}
	}
	return tasks, nil
}

func invalid(format string, args ...any) error {
	return &taskerr.ImportFormatError{Err: fmt.Errorf(format, args...)}
}
