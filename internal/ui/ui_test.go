package ui

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/duelist/internal/app"
	"github.com/dori/duelist/internal/countdown"
	"github.com/dori/duelist/internal/deadline"
	"github.com/dori/duelist/internal/model"
	"github.com/dori/duelist/internal/store"
	"github.com/dori/duelist/internal/ui/theme"
)

var testNow = time.Date(2025, 4, 2, 12, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, opts Options) (Model, *app.Session) {
	t.Helper()
	n := 0
	session := app.NewSession(
		app.WithClock(func() time.Time { return testNow }),
		app.WithIDs(func() string { n++; return fmt.Sprintf("t%d", n) }),
	)
	m := NewModel(session, opts)
	return update(t, m, tea.WindowSizeMsg{Width: 120, Height: 30}), session
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(Model)
	require.True(t, ok)
	return out
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "ctrl+s":
			msg = tea.KeyMsg{Type: tea.KeyCtrlS}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m = update(t, m, msg)
	}
	return m
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

func TestAddWithQuickSyntax(t *testing.T) {
	var delivered []deadline.Notice
	m, session := newTestModel(t, Options{Deliver: func(n []deadline.Notice) { delivered = append(delivered, n...) }})

	m = press(t, m, "a")
	assert.Equal(t, ModeAdd, m.Mode())
	m = typeText(t, m, "Pay rent @home !high due:today at:12:30")
	m = press(t, m, "enter")

	assert.Equal(t, ModeNormal, m.Mode())
	tasks := session.Store().Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "Pay rent", tasks[0].Title)
	assert.Equal(t, model.PriorityHigh, tasks[0].Priority)
	assert.Equal(t, []string{"home"}, tasks[0].Tags)

	// due in 30 minutes notifies right away
	require.Len(t, delivered, 1)
	assert.Equal(t, deadline.SeverityWarning, delivered[0].Severity)
	assert.Equal(t, delivered[0].Message, m.Status())

	view := m.View()
	assert.Contains(t, view, "Pay rent")
	assert.Contains(t, view, "@home")
	assert.Contains(t, view, "30m")
}

func TestAddRejectsBadInput(t *testing.T) {
	m, session := newTestModel(t, Options{})
	m = press(t, m, "a")
	m = typeText(t, m, "thing !urgent")
	m = press(t, m, "enter")

	assert.Equal(t, ModeAdd, m.Mode(), "stays in add mode to fix the text")
	assert.Contains(t, m.Status(), "unknown priority")
	assert.Equal(t, 0, session.Store().Len())
}

func TestToggleAndDelete(t *testing.T) {
	m, session := newTestModel(t, Options{})
	ctx := context.Background()
	_, _, err := session.Add(ctx, store.Input{Title: "a"})
	require.NoError(t, err)
	_, _, err = session.Add(ctx, store.Input{Title: "b"})
	require.NoError(t, err)

	m = press(t, m, "tab")
	first, _ := session.Store().Get("t1")
	assert.True(t, first.Completed)

	m = press(t, m, "j", "d")
	assert.Equal(t, ModeConfirmDelete, m.Mode())
	assert.Contains(t, m.View(), `Delete "b"?`)
	m = press(t, m, "n")
	assert.Equal(t, 2, session.Store().Len())

	m = press(t, m, "d", "y")
	assert.Equal(t, ModeNormal, m.Mode())
	assert.Equal(t, 1, session.Store().Len())
	assert.Equal(t, 0, m.Cursor(), "cursor clamps to the remaining rows")
}

func TestSearchFiltersLiveAndEscRestores(t *testing.T) {
	m, session := newTestModel(t, Options{})
	ctx := context.Background()
	_, _, _ = session.Add(ctx, store.Input{Title: "Buy milk", Tags: []string{"errand"}})
	_, _, _ = session.Add(ctx, store.Input{Title: "Pay rent"})

	m = press(t, m, "/")
	m = typeText(t, m, "milk")
	assert.Len(t, session.View(), 1)

	m = press(t, m, "esc")
	assert.Len(t, session.View(), 2)

	m = press(t, m, "/")
	m = typeText(t, m, "errand")
	m = press(t, m, "enter")
	assert.Equal(t, "errand", session.Filters().Search)
	assert.Contains(t, m.View(), `search: "errand"`)

	m = press(t, m, "c")
	assert.True(t, session.Filters().IsDefault())
}

func TestFilterKeysCycle(t *testing.T) {
	m, session := newTestModel(t, Options{})

	m = press(t, m, "p")
	assert.Equal(t, model.PriorityFilter(model.PriorityHigh), session.Filters().Priority)
	m = press(t, m, "s")
	assert.Equal(t, model.StatusActive, session.Filters().Status)
	m = press(t, m, "o")
	assert.Equal(t, model.SortPriority, session.Filters().SortBy)
	assert.Contains(t, m.View(), "No tasks match")
}

func TestStaleCountdownTickIsDropped(t *testing.T) {
	m, session := newTestModel(t, Options{})
	due := testNow.Add(2 * time.Hour)
	_, _, err := session.Add(context.Background(), store.Input{Title: "a", DueDate: &due})
	require.NoError(t, err)

	stale := m.countdownGen
	m = press(t, m, "o") // changing the view restarts the countdown
	assert.NotEqual(t, stale, m.countdownGen)

	next, cmd := m.Update(countdownTickMsg{gen: stale})
	assert.Nil(t, cmd, "a cancelled chain does not reschedule")

	_, cmd = next.(Model).Update(countdownTickMsg{gen: m.countdownGen})
	assert.NotNil(t, cmd, "the live chain keeps ticking")
}

func TestDeadlineTickAnnounces(t *testing.T) {
	var delivered int
	m, session := newTestModel(t, Options{Deliver: func(n []deadline.Notice) { delivered += len(n) }})
	overdue := testNow.Add(-90 * time.Minute)
	session.Load([]model.Task{{ID: "x", Title: "late", Priority: model.PriorityMedium, DueDate: &overdue, Tags: []string{}}})

	next, cmd := m.Update(deadlineTickMsg{})
	m = next.(Model)
	assert.NotNil(t, cmd)
	assert.Equal(t, 1, delivered)
	assert.Contains(t, m.Status(), "late")

	m = update(t, m, deadlineTickMsg{})
	assert.Equal(t, 1, delivered, "same hour bucket does not repeat")
}

func TestNotesEditing(t *testing.T) {
	m, session := newTestModel(t, Options{})
	_, _, _ = session.Add(context.Background(), store.Input{Title: "a"})

	m = press(t, m, "n")
	assert.Equal(t, ModeNotes, m.Mode())
	m = typeText(t, m, "bring receipt")
	m = press(t, m, "ctrl+s")

	task, _ := session.Store().Get("t1")
	assert.Equal(t, "bring receipt", task.Description)
	assert.Equal(t, ModeNormal, m.Mode())
}

func TestNotesSaveKeepsCountdownTicking(t *testing.T) {
	m, session := newTestModel(t, Options{})
	due := testNow.Add(48 * time.Hour)
	_, _, err := session.Add(context.Background(), store.Input{Title: "a", DueDate: &due})
	require.NoError(t, err)
	m = press(t, m, "o", "o", "o", "o") // back to due_date order with a synced chain
	before := m.countdownGen

	m = press(t, m, "n")
	m = typeText(t, m, "hello")
	m = press(t, m, "ctrl+s")

	assert.NotEqual(t, before, m.countdownGen)
	assert.Equal(t, session.CountdownGeneration(), m.countdownGen)
	_, cmd := m.Update(countdownTickMsg{gen: m.countdownGen})
	assert.NotNil(t, cmd, "the countdown keeps ticking after saving notes")
}

func TestNotesSaveThatLeavesSearchClampsCursor(t *testing.T) {
	m, session := newTestModel(t, Options{})
	ctx := context.Background()
	_, _, _ = session.Add(ctx, store.Input{Title: "a", Description: "foo"})
	_, _, _ = session.Add(ctx, store.Input{Title: "b", Description: "foo"})

	m = press(t, m, "/")
	m = typeText(t, m, "foo")
	m = press(t, m, "enter", "j")
	require.Equal(t, 1, m.Cursor())

	m = press(t, m, "n")
	m.notes.SetValue("bar")
	m = press(t, m, "ctrl+s")

	assert.Len(t, session.View(), 1)
	assert.Equal(t, 0, m.Cursor())
	assert.NotPanics(t, func() { m = press(t, m, "x", "j", "tab") })
}

func TestEditKeepsTagsWithSpaces(t *testing.T) {
	m, session := newTestModel(t, Options{})
	_, _, _ = session.Add(context.Background(), store.Input{Title: "a", Tags: []string{"my tag"}})

	m = press(t, m, "e")
	m = press(t, m, "enter")

	task, _ := session.Store().Get("t1")
	assert.Equal(t, []string{"my tag"}, task.Tags)
}

func TestEditKeepsMultilineNotes(t *testing.T) {
	m, session := newTestModel(t, Options{})
	_, _, _ = session.Add(context.Background(), store.Input{Title: "a", Description: "line one\nline two"})

	m = press(t, m, "e")
	assert.Equal(t, ModeEdit, m.Mode())
	m = update(t, m, tea.KeyMsg{Type: tea.KeyHome})
	m = typeText(t, m, "re")
	m = press(t, m, "enter")

	task, _ := session.Store().Get("t1")
	assert.Equal(t, "rea", task.Title)
	assert.Equal(t, "line one\nline two", task.Description)
}

func TestDetailsLoad(t *testing.T) {
	m, session := newTestModel(t, Options{})
	_, _, _ = session.Add(context.Background(), store.Input{Title: "a", Description: "**bold** notes"})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = next.(Model)
	require.NotNil(t, cmd)
	assert.Equal(t, ModeDetails, m.Mode())
	assert.Contains(t, m.View(), "Loading")

	m = update(t, m, cmd())
	view := m.View()
	assert.Contains(t, view, "bold")
	assert.NotContains(t, view, "**bold**")

	m = press(t, m, "esc")
	assert.Equal(t, ModeNormal, m.Mode())
}

func TestThemeToggle(t *testing.T) {
	t.Cleanup(func() { theme.SetTheme(theme.Dark) })
	var saved string
	m, _ := newTestModel(t, Options{SaveTheme: func(name string) error { saved = name; return nil }})

	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlT})
	require.NotNil(t, cmd)
	m = update(t, next.(Model), cmd())
	assert.Equal(t, "light", saved)
	assert.Equal(t, theme.Light.Name, theme.Current.Theme.Name)
	assert.Equal(t, "Theme: light", m.Status())
}

func TestWarningsShowInStatus(t *testing.T) {
	m, session := newTestModel(t, Options{})
	session.Warn(fmt.Errorf("remote down"))

	cmd := waitForWarning(session.Warnings())
	m = update(t, m, cmd())
	assert.Equal(t, "remote down", m.Status())
}

func TestFormatDue(t *testing.T) {
	at := func(d time.Duration) model.Task {
		due := testNow.Add(d)
		return model.Task{DueDate: &due}
	}
	tests := []struct {
		task model.Task
		want string
	}{
		{at(time.Hour), "today 13:00"},
		{at(24 * time.Hour), "tomorrow 12:00"},
		{at(-24 * time.Hour), "yesterday 12:00"},
		{at(11*time.Hour + 59*time.Minute), "today"},
		{at(30 * 24 * time.Hour), "May 2 12:00"},
		{at(365 * 24 * time.Hour), "Apr 2 2026 12:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDue(tt.task, testNow))
	}
}

func TestDetailsMarkdown(t *testing.T) {
	due := testNow.Add(time.Hour)
	md := DetailsMarkdown(model.Task{
		ID: "abc", Title: "Pay rent", Priority: model.PriorityHigh,
		DueDate: &due, Tags: []string{"home"}, Description: "cash",
	}, countdown.Display{Text: "1h 0m"}, true)

	assert.True(t, strings.HasPrefix(md, "# [ ] Pay rent"))
	assert.Contains(t, md, "| tags | home |")
	assert.Contains(t, md, "(1h 0m)")
	assert.Contains(t, md, "## Notes\n\ncash")
}
