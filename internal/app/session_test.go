package app

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/duelist/internal/countdown"
	"github.com/dori/duelist/internal/deadline"
	"github.com/dori/duelist/internal/model"
	"github.com/dori/duelist/internal/store"
	"github.com/dori/duelist/internal/taskerr"
)

type clock struct{ now time.Time }

func (c *clock) Now() time.Time          { return c.now }
func (c *clock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newClock() *clock {
	return &clock{now: time.Date(2025, 4, 1, 12, 0, 0, 0, time.UTC)}
}

func ids() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("t%d", n)
	}
}

type fakeFetcher struct {
	task model.Task
	err  error
}

func (f fakeFetcher) Get(context.Context, string) (model.Task, error) {
	return f.task, f.err
}

func dueIn(c *clock, d time.Duration) *time.Time {
	t := c.now.Add(d)
	return &t
}

func TestAddScansDeadlinesImmediately(t *testing.T) {
	c := newClock()
	s := NewSession(WithClock(c.Now), WithIDs(ids()))
	ctx := context.Background()

	task, notices, err := s.Add(ctx, store.Input{Title: "Pay rent", DueDate: dueIn(c, 30*time.Minute)})
	require.NoError(t, err)
	require.Len(t, notices, 1)
	assert.Equal(t, deadline.Key{TaskID: task.ID, Hour: 0}, notices[0].Key)
	assert.Equal(t, deadline.SeverityWarning, notices[0].Severity)
	assert.Equal(t, `"Pay rent" is due in 30 minutes!`, notices[0].Message)

	c.Advance(time.Minute)
	assert.Empty(t, s.CheckDeadlines())

	_, notices, err = s.Add(ctx, store.Input{Title: "someday"})
	require.NoError(t, err)
	assert.Empty(t, notices)
}

func TestCompletingOrRemovingForgetsNotices(t *testing.T) {
	c := newClock()
	ledger := deadline.NewMemoryLedger()
	s := NewSession(WithClock(c.Now), WithIDs(ids()), WithLedger(ledger))
	ctx := context.Background()

	a, _, err := s.Add(ctx, store.Input{Title: "a", DueDate: dueIn(c, 10*time.Minute)})
	require.NoError(t, err)
	b, _, err := s.Add(ctx, store.Input{Title: "b", DueDate: dueIn(c, 20*time.Minute)})
	require.NoError(t, err)
	assert.Equal(t, 2, ledger.Len())

	_, err = s.Toggle(ctx, a.ID)
	require.NoError(t, err)
	require.NoError(t, s.Remove(ctx, b.ID))
	assert.Equal(t, 0, ledger.Len())

	// reopening the task notifies again
	_, err = s.Toggle(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, s.CheckDeadlines(), 1)
}

func TestFiltersDriveViewAndCountdown(t *testing.T) {
	c := newClock()
	s := NewSession(WithClock(c.Now), WithIDs(ids()))
	ctx := context.Background()

	milk, _, _ := s.Add(ctx, store.Input{Title: "Buy milk", DueDate: dueIn(c, 2*time.Hour), Tags: []string{"errand"}})
	rent, _, _ := s.Add(ctx, store.Input{Title: "Pay rent", DueDate: dueIn(c, 72*time.Hour), Priority: model.PriorityHigh})

	view := s.View()
	require.Len(t, view, 2)
	assert.Equal(t, milk.ID, view[0].ID, "earliest due first")

	d, ok := s.Countdown(milk.ID)
	require.True(t, ok)
	assert.Equal(t, countdown.DueSoon, d.State)
	assert.Equal(t, "2h 0m", d.Text)

	gen := s.CountdownGeneration()
	s.SetSearch("errand")
	assert.Equal(t, []string{milk.ID}, viewIDs(s))
	assert.NotEqual(t, gen, s.CountdownGeneration())
	_, tracked := s.Countdown(rent.ID)
	assert.False(t, tracked, "hidden tasks have no countdown")

	_, ok = s.TickCountdown(gen)
	assert.False(t, ok, "stale generation is ignored")

	s.SetPriorityFilter(model.PriorityFilter(model.PriorityHigh))
	assert.Empty(t, s.View())

	s.ClearFilters()
	assert.True(t, s.Filters().IsDefault())
	assert.Len(t, s.View(), 2)

	s.SetSort(model.SortPriority)
	assert.Equal(t, rent.ID, s.View()[0].ID)
}

func TestTickCountdownReportsTransitions(t *testing.T) {
	c := newClock()
	s := NewSession(WithClock(c.Now), WithIDs(ids()))
	task, _, err := s.Add(context.Background(), store.Input{Title: "a", DueDate: dueIn(c, 90*time.Second)})
	require.NoError(t, err)

	gen := s.CountdownGeneration()
	c.Advance(time.Minute)
	transitions, ok := s.TickCountdown(gen)
	require.True(t, ok)
	assert.Empty(t, transitions)
	assert.True(t, s.CountdownActive())

	c.Advance(time.Minute)
	transitions, ok = s.TickCountdown(gen)
	require.True(t, ok)
	require.Len(t, transitions, 1)
	assert.Equal(t, countdown.Transition{TaskID: task.ID, From: countdown.DueSoon, To: countdown.Overdue}, transitions[0])
	assert.False(t, s.CountdownActive())
}

func TestUpdateInPlaceAndNotes(t *testing.T) {
	c := newClock()
	s := NewSession(WithClock(c.Now), WithIDs(ids()))
	ctx := context.Background()
	task, _, _ := s.Add(ctx, store.Input{Title: "a"})

	c.Advance(time.Minute)
	updated, err := s.UpdateNotes(ctx, task.ID, "bring receipt")
	require.NoError(t, err)
	assert.Equal(t, task.ID, updated.ID)
	assert.Equal(t, task.CreatedAt, updated.CreatedAt)
	assert.Equal(t, "bring receipt", updated.Description)
	assert.Equal(t, 1, s.Store().Len())
}

func TestPersistenceFailuresBecomeWarnings(t *testing.T) {
	failing := store.PersisterFunc(func(context.Context, store.Change) error { return errors.New("disk full") })
	s := NewSession(WithPersister(failing))

	task, _, err := s.Add(context.Background(), store.Input{Title: "a"})
	require.NoError(t, err)
	assert.NotEmpty(t, task.ID)

	select {
	case w := <-s.Warnings():
		assert.ErrorIs(t, w, taskerr.ErrPersistence)
		assert.Contains(t, w.Error(), "disk full")
	default:
		t.Fatal("expected a warning")
	}
}

func TestWarnNeverBlocks(t *testing.T) {
	s := NewSession()
	for i := 0; i < warningBuffer*2; i++ {
		s.Warn(errors.New("x"))
	}
	assert.Len(t, s.Warnings(), warningBuffer)
}

func TestDetails(t *testing.T) {
	ctx := context.Background()

	local := NewSession(WithIDs(ids()))
	task, _, _ := local.Add(ctx, store.Input{Title: "local"})
	got, err := local.Details(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "local", got.Title)

	_, err = local.Details(ctx, "missing")
	assert.ErrorIs(t, err, taskerr.ErrNotFound)

	fresh := NewSession(WithIDs(ids()), WithFetcher(fakeFetcher{task: model.Task{ID: "17", Title: "remote"}}))
	task, _, _ = fresh.Add(ctx, store.Input{Title: "local"})
	got, err = fresh.Details(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "remote", got.Title)
	assert.Equal(t, task.ID, got.ID)

	broken := NewSession(WithIDs(ids()), WithFetcher(fakeFetcher{err: errors.New("timeout")}))
	task, _, _ = broken.Add(ctx, store.Input{Title: "local"})
	got, err = broken.Details(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, "local", got.Title)
	assert.Len(t, broken.Warnings(), 1)
}

func TestExportImport(t *testing.T) {
	c := newClock()
	ctx := context.Background()
	s := NewSession(WithClock(c.Now), WithIDs(ids()))
	_, _, _ = s.Add(ctx, store.Input{Title: "a", DueDate: dueIn(c, time.Hour), Tags: []string{"x"}})
	_, _, _ = s.Add(ctx, store.Input{Title: "b", Priority: model.PriorityLow})

	var buf bytes.Buffer
	require.NoError(t, s.Export(&buf))

	other := NewSession(WithClock(c.Now))
	n, err := other.Import(ctx, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, s.Store().Tasks(), other.Store().Tasks())

	_, err = other.Import(ctx, strings.NewReader(`{"not":"an array"}`))
	assert.ErrorIs(t, err, taskerr.ErrImportFormat)
	assert.Equal(t, 2, other.Store().Len(), "failed import leaves state untouched")
}

func TestStats(t *testing.T) {
	c := newClock()
	ctx := context.Background()
	s := NewSession(WithClock(c.Now), WithIDs(ids()))
	a, _, _ := s.Add(ctx, store.Input{Title: "a", DueDate: dueIn(c, -time.Hour)})
	_, _, _ = s.Add(ctx, store.Input{Title: "b"})
	_, _, _ = s.Add(ctx, store.Input{Title: "c"})
	_, _ = s.Toggle(ctx, a.ID)

	st := s.Stats()
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 1, st.Completed)
	assert.Equal(t, 2, st.Pending)
	assert.Equal(t, 0, st.Overdue)
	assert.Equal(t, 33, st.CompletionRate)
}

func viewIDs(s *Session) []string {
	var out []string
	for _, t := range s.View() {
		out = append(out, t.ID)
	}
	return out
}
