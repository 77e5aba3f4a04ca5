package app

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/dori/duelist/internal/countdown"
	"github.com/dori/duelist/internal/deadline"
	"github.com/dori/duelist/internal/logging"
	"github.com/dori/duelist/internal/model"
	"github.com/dori/duelist/internal/query"
	"github.com/dori/duelist/internal/store"
	"github.com/dori/duelist/internal/taskerr"
	"github.com/dori/duelist/internal/transfer"
)

const warningBuffer = 32

// Fetcher returns the collaborator's copy of a task
type Fetcher interface {
	Get(ctx context.Context, id string) (model.Task, error)
}

type sessionOptions struct {
	now        func() time.Time
	ids        func() string
	persisters []store.Persister
	ledger     deadline.Ledger
	fetcher    Fetcher
	log        *log.Logger
}

// SessionOption configures a Session
type SessionOption func(*sessionOptions)

func WithClock(now func() time.Time) SessionOption {
	return func(o *sessionOptions) { o.now = now }
}

func WithIDs(ids func() string) SessionOption {
	return func(o *sessionOptions) { o.ids = ids }
}

// WithPersister adds a store persister (local cache, remote syncer)
func WithPersister(p store.Persister) SessionOption {
	return func(o *sessionOptions) { o.persisters = append(o.persisters, p) }
}

// WithLedger sets the deadline dedup ledger; the default is in memory
func WithLedger(l deadline.Ledger) SessionOption {
	return func(o *sessionOptions) { o.ledger = l }
}

// WithFetcher enables the remote refresh in Details
func WithFetcher(f Fetcher) SessionOption {
	return func(o *sessionOptions) { o.fetcher = f }
}

func WithLogger(l *log.Logger) SessionOption {
	return func(o *sessionOptions) { o.log = l }
}

// Session holds everything one user session works on: the task store, the
// active filters, the countdown scheduler and the deadline notifier. All of
// it is reached through the session; there is no package-level state.
type Session struct {
	store     *store.Store
	countdown *countdown.Scheduler
	deadlines *deadline.Notifier
	fetcher   Fetcher
	now       func() time.Time
	log       *log.Logger
	warnings  chan error

	mu      sync.Mutex // guards filters and serializes deadline scans
	filters model.Filters
}

// NewSession creates an empty session
func NewSession(opts ...SessionOption) *Session {
	o := sessionOptions{now: time.Now, log: logging.Discard()}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Session{
		countdown: countdown.NewScheduler(),
		deadlines: deadline.NewNotifier(o.ledger),
		fetcher:   o.fetcher,
		now:       o.now,
		log:       o.log,
		warnings:  make(chan error, warningBuffer),
		filters:   model.DefaultFilters(),
	}

	storeOpts := []store.Option{store.WithClock(o.now), store.WithWarn(s.Warn)}
	if o.ids != nil {
		storeOpts = append(storeOpts, store.WithIDs(o.ids))
	}
	for _, p := range o.persisters {
		storeOpts = append(storeOpts, store.WithPersister(p))
	}
	s.store = store.New(storeOpts...)
	return s
}

// Store exposes the underlying task store
func (s *Session) Store() *store.Store {
	return s.store
}

// Now returns the session clock's current time
func (s *Session) Now() time.Time {
	return s.now()
}

// Load installs tasks without persisting them and restarts the countdown
func (s *Session) Load(tasks []model.Task) {
	s.store.Load(tasks)
	s.RestartCountdown()
}

// Warn reports a non-fatal problem. It never blocks: every warning is logged,
// and when the Warnings buffer is full the new one is not queued.
func (s *Session) Warn(err error) {
	if err == nil {
		return
	}
	s.log.Printf("warning: %v", err)
	select {
	case s.warnings <- err:
	default:
	}
}

// Warnings delivers persistence and remote failures for display
func (s *Session) Warnings() <-chan error {
	return s.warnings
}

// Filters

func (s *Session) Filters() model.Filters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filters
}

// SetFilters replaces the filter state and restarts the countdown for the
// new view
func (s *Session) SetFilters(f model.Filters) {
	s.mu.Lock()
	s.filters = f
	s.mu.Unlock()
	s.RestartCountdown()
}

func (s *Session) SetSearch(q string) {
	f := s.Filters()
	f.Search = q
	s.SetFilters(f)
}

func (s *Session) SetPriorityFilter(p model.PriorityFilter) {
	f := s.Filters()
	f.Priority = p
	s.SetFilters(f)
}

func (s *Session) SetStatusFilter(st model.StatusFilter) {
	f := s.Filters()
	f.Status = st
	s.SetFilters(f)
}

func (s *Session) SetSort(by model.SortBy) {
	f := s.Filters()
	f.SortBy = by
	s.SetFilters(f)
}

// ClearFilters restores the default filters
func (s *Session) ClearFilters() {
	s.SetFilters(model.DefaultFilters())
}

// View returns the tasks to display under the current filters
func (s *Session) View() []model.Task {
	return query.Apply(s.store.Tasks(), s.Filters())
}

// Stats summarizes the whole collection, ignoring filters
func (s *Session) Stats() query.Stats {
	return query.Summarize(s.store.Tasks(), s.now())
}

// Lookup resolves an id or unique id prefix
func (s *Session) Lookup(prefix string) (model.Task, error) {
	return s.store.Lookup(prefix)
}

// Mutations

// Add creates a task and immediately scans deadlines so a task that is
// already due soon notifies at once.
func (s *Session) Add(ctx context.Context, in store.Input) (model.Task, []deadline.Notice, error) {
	task, err := s.store.Add(ctx, in)
	if err != nil {
		return model.Task{}, nil, err
	}
	s.RestartCountdown()
	notices := s.CheckDeadlines()
	return task, notices, nil
}

// Toggle flips completion; completing a task drops its notice history
func (s *Session) Toggle(ctx context.Context, id string) (model.Task, error) {
	task, err := s.store.Toggle(ctx, id)
	if err != nil {
		return model.Task{}, err
	}
	if task.Completed {
		s.forget(id)
	}
	s.RestartCountdown()
	return task, nil
}

// Remove deletes a task and its notice history
func (s *Session) Remove(ctx context.Context, id string) error {
	if err := s.store.Remove(ctx, id); err != nil {
		return err
	}
	s.forget(id)
	s.RestartCountdown()
	return nil
}

// Update edits a task in place
func (s *Session) Update(ctx context.Context, id string, p store.Patch) (model.Task, error) {
	task, err := s.store.Update(ctx, id, p)
	if err != nil {
		return model.Task{}, err
	}
	// a moved deadline starts a fresh notice history
	if task.Completed || p.DueDate != nil || p.ClearDue {
		s.forget(id)
	}
	s.RestartCountdown()
	return task, nil
}

// UpdateNotes changes only the description
func (s *Session) UpdateNotes(ctx context.Context, id, notes string) (model.Task, error) {
	return s.Update(ctx, id, store.Patch{Description: &notes})
}

func (s *Session) forget(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.deadlines.Forget(id); err != nil {
		s.Warn(taskerr.Persistence("forget notices", err))
	}
}

// Countdown

// RestartCountdown cancels all countdown entries and starts new ones for the
// current view. It returns the new generation.
func (s *Session) RestartCountdown() uint64 {
	return s.countdown.Reset(s.View(), s.now())
}

// TickCountdown advances the countdown if gen is still current. Stale ticks
// from a cancelled generation return ok=false.
func (s *Session) TickCountdown(gen uint64) (transitions []countdown.Transition, ok bool) {
	if gen != s.countdown.Generation() {
		return nil, false
	}
	return s.countdown.Tick(s.now()), true
}

// Countdown returns the countdown rendering of a task in the view
func (s *Session) Countdown(id string) (countdown.Display, bool) {
	return s.countdown.Display(id)
}

func (s *Session) CountdownGeneration() uint64 {
	return s.countdown.Generation()
}

// CountdownActive reports whether any countdown still needs ticking
func (s *Session) CountdownActive() bool {
	return s.countdown.Active() > 0
}

// Deadlines

// CheckDeadlines runs one deadline scan over the whole collection. Ledger
// failures are reported as warnings; the notices found are still returned.
func (s *Session) CheckDeadlines() []deadline.Notice {
	s.mu.Lock()
	defer s.mu.Unlock()
	notices, err := s.deadlines.Tick(s.now(), s.store.Tasks())
	if err != nil {
		s.Warn(taskerr.Persistence("check deadlines", err))
	}
	for _, n := range notices {
		s.log.Printf("deadline notice %s: %s", n.Key, n.Message)
	}
	return notices
}

// Details returns the freshest copy of a task: the collaborator's when a
// fetcher is configured and reachable, the local one otherwise.
func (s *Session) Details(ctx context.Context, id string) (model.Task, error) {
	local, err := s.store.Get(id)
	if err != nil {
		return model.Task{}, err
	}
	if s.fetcher == nil {
		return local, nil
	}

	fresh, err := s.fetcher.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, taskerr.ErrNotFound) {
			s.Warn(taskerr.Persistence("fetch task", err))
		}
		return local, nil
	}
	fresh.ID = local.ID
	if fresh.CreatedAt.IsZero() {
		fresh.CreatedAt = local.CreatedAt
	}
	if fresh.UpdatedAt.IsZero() {
		fresh.UpdatedAt = local.UpdatedAt
	}
	return fresh, nil
}

// Transfer

// Export writes the whole collection in store order
func (s *Session) Export(w io.Writer) error {
	return transfer.Export(w, s.store.Tasks())
}

// Import replaces the whole collection with the file's tasks, or changes
// nothing when the file is invalid.
func (s *Session) Import(ctx context.Context, r io.Reader) (int, error) {
	tasks, err := transfer.Import(r)
	if err != nil {
		return 0, err
	}
	if err := s.store.Replace(ctx, tasks); err != nil {
		return 0, &taskerr.ImportFormatError{Err: err}
	}
	s.RestartCountdown()
	return len(tasks), nil
}
