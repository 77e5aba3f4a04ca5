package transfer

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/duelist/internal/model"
	"github.com/dori/duelist/internal/taskerr"
)

func TestFilename(t *testing.T) {
	now := time.Date(2025, 1, 9, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "tasks-2025-01-09.json", Filename(now))
}

func TestExportImportRoundTrip(t *testing.T) {
	created := time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC)
	due := created.Add(72 * time.Hour)
	tasks := []model.Task{
		{ID: "b", Title: "Pay rent", Description: "cash", DueDate: &due, Priority: model.PriorityHigh,
			Tags: []string{"home"}, CreatedAt: created, UpdatedAt: created},
		{ID: "a", Title: "Buy milk", Priority: model.PriorityLow, Tags: []string{}, Completed: true,
			CreatedAt: created, UpdatedAt: created.Add(time.Minute)},
	}

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, tasks))
	assert.True(t, strings.HasPrefix(buf.String(), "[\n  {\n    \"id\": \"b\""), buf.String())

	got, err := Import(&buf)
	require.NoError(t, err)
	assert.Equal(t, tasks, got)
}

func TestExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, nil))
	assert.Equal(t, "[]\n", buf.String())
}

func TestImportRejects(t *testing.T) {
	cases := map[string]string{
		"not json":       `nope`,
		"object":         `{"id":"a","title":"x"}`,
		"empty":          ``,
		"truncated":      `[{"id":"a","title":"x"`,
		"missing id":     `[{"title":"x"}]`,
		"blank title":    `[{"id":"a","title":"  "}]`,
		"duplicate id":   `[{"id":"a","title":"x"},{"id":"a","title":"y"}]`,
		"bad priority":   `[{"id":"a","title":"x","priority":"urgent"}]`,
		"bad due_date":   `[{"id":"a","title":"x","due_date":"tomorrow"}]`,
		"wrong tag type": `[{"id":"a","title":"x","tags":"home"}]`,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			tasks, err := Import(strings.NewReader(input))
			assert.ErrorIs(t, err, taskerr.ErrImportFormat)
			assert.Nil(t, tasks)
		})
	}
}

func TestImportDefaults(t *testing.T) {
	tasks, err := Import(strings.NewReader(`  [{"id":"a","title":"x"}]`))
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, model.PriorityMedium, tasks[0].Priority)
	assert.Equal(t, []string{}, tasks[0].Tags)
	assert.Nil(t, tasks[0].DueDate)
}
