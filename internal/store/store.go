// Package store holds the session's authoritative, ordered task collection.
//
// Every mutation is applied locally first and then fanned out to the
// configured persisters. A failing persister never rolls back the mutation;
// its error is wrapped as a taskerr.PersistenceError and handed to the warn
// callback.
package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dori/duelist/internal/model"
	"github.com/dori/duelist/internal/taskerr"
)

// ChangeKind names the mutation that produced a Change
type ChangeKind int

const (
	ChangeAdded ChangeKind = iota
	ChangeUpdated
	ChangeNotes // description-only update
	ChangeToggled
	ChangeRemoved
	ChangeReplaced
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "add"
	case ChangeUpdated:
		return "update"
	case ChangeNotes:
		return "notes"
	case ChangeToggled:
		return "toggle"
	case ChangeRemoved:
		return "remove"
	case ChangeReplaced:
		return "replace"
	default:
		return "unknown"
	}
}

// Change describes one applied mutation
type Change struct {
	Kind ChangeKind
	Task model.Task   // the affected task; zero for ChangeReplaced
	All  []model.Task // full collection after the mutation, in store order
}

// Persister receives every change after it is applied. Persisters run while
// the store is locked and must not call back into it.
type Persister interface {
	Persist(ctx context.Context, c Change) error
}

// PersisterFunc adapts a function to Persister
type PersisterFunc func(ctx context.Context, c Change) error

func (f PersisterFunc) Persist(ctx context.Context, c Change) error { return f(ctx, c) }

// Input is the data for a new task
type Input struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    model.Priority // empty means medium
	Tags        []string
}

// Patch lists the fields to change on an existing task; nil fields are kept
type Patch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	ClearDue    bool
	Priority    *model.Priority
	Tags        *[]string
	Completed   *bool
}

// Empty returns true if the patch changes nothing
func (p Patch) Empty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil && !p.ClearDue &&
		p.Priority == nil && p.Tags == nil && p.Completed == nil
}

// Patch turns an input into a patch that overwrites every editable field,
// clearing the due date when the input has none.
func (in Input) Patch() Patch {
	title, desc := in.Title, in.Description
	tags := in.Tags
	if tags == nil {
		tags = []string{}
	}
	p := Patch{Title: &title, Description: &desc, Tags: &tags}
	if in.DueDate != nil {
		due := *in.DueDate
		p.DueDate = &due
	} else {
		p.ClearDue = true
	}
	if in.Priority != "" {
		prio := in.Priority
		p.Priority = &prio
	}
	return p
}

func (p Patch) notesOnly() bool {
	return p.Description != nil && p.Title == nil && p.DueDate == nil && !p.ClearDue &&
		p.Priority == nil && p.Tags == nil && p.Completed == nil
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDs overrides id generation
func WithIDs(newID func() string) Option {
	return func(s *Store) { s.newID = newID }
}

// WithPersister appends a persister to the fan-out
func WithPersister(p Persister) Option {
	return func(s *Store) { s.persisters = append(s.persisters, p) }
}

// WithWarn sets the callback for non-fatal persistence errors
func WithWarn(warn func(error)) Option {
	return func(s *Store) { s.warn = warn }
}

// Store is the in-session task collection, most recent first
type Store struct {
	mu         sync.RWMutex
	tasks      []model.Task
	now        func() time.Time
	newID      func() string
	persisters []Persister
	warn       func(error)
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
		warn:  func(error) {},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load replaces the collection without notifying persisters (initial load)
func (s *Store) Load(tasks []model.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = cloneAll(tasks)
}

// Tasks returns a copy of the collection in store order
func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.tasks)
}

// Len returns the number of tasks
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tasks)
}

// Get returns the task with the given id
func (s *Store) Get(id string) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i := s.index(id)
	if i < 0 {
		return model.Task{}, taskerr.NotFound(id)
	}
	return s.tasks[i].Clone(), nil
}

// Lookup resolves an exact id or a unique id prefix
func (s *Store) Lookup(prefix string) (model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return model.Task{}, taskerr.Invalid("id", "must not be empty")
	}
	if i := s.index(prefix); i >= 0 {
		return s.tasks[i].Clone(), nil
	}

	match := -1
	for i := range s.tasks {
		if strings.HasPrefix(s.tasks[i].ID, prefix) {
			if match >= 0 {
				return model.Task{}, taskerr.Invalid("id", "prefix %q matches more than one task", prefix)
			}
			match = i
		}
	}
	if match < 0 {
		return model.Task{}, taskerr.NotFound(prefix)
	}
	return s.tasks[match].Clone(), nil
}

// Add validates in, creates a task with a fresh id and inserts it first
func (s *Store) Add(ctx context.Context, in Input) (model.Task, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return model.Task{}, taskerr.Invalid("title", "must not be empty")
	}
	priority := in.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}
	if !priority.Valid() {
		return model.Task{}, taskerr.Invalid("priority", "unknown priority %q", in.Priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.newID()
	for id == "" || s.index(id) >= 0 {
		id = s.newID()
	}

	now := s.now()
	task := model.Task{
		ID:          id,
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Priority:    priority,
		Tags:        model.CleanTags(in.Tags),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.DueDate != nil {
		due := *in.DueDate
		task.DueDate = &due
	}

	s.tasks = append([]model.Task{task}, s.tasks...)
	s.persist(ctx, ChangeAdded, task)
	return task.Clone(), nil
}

// Toggle flips the completion flag of a task
func (s *Store) Toggle(ctx context.Context, id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return model.Task{}, taskerr.NotFound(id)
	}
	s.tasks[i].Completed = !s.tasks[i].Completed
	s.tasks[i].UpdatedAt = s.now()

	task := s.tasks[i]
	s.persist(ctx, ChangeToggled, task)
	return task.Clone(), nil
}

// Remove deletes a task
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return taskerr.NotFound(id)
	}
	task := s.tasks[i]
	s.tasks = append(s.tasks[:i:i], s.tasks[i+1:]...)
	s.persist(ctx, ChangeRemoved, task)
	return nil
}

// Update merges patch into a task in place, keeping its id, position and creation time
func (s *Store) Update(ctx context.Context, id string, p Patch) (model.Task, error) {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return model.Task{}, taskerr.Invalid("title", "must not be empty")
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return model.Task{}, taskerr.Invalid("priority", "unknown priority %q", *p.Priority)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.index(id)
	if i < 0 {
		return model.Task{}, taskerr.NotFound(id)
	}
	if p.Empty() {
		return s.tasks[i].Clone(), nil
	}

	t := s.tasks[i].Clone()
	if p.Title != nil {
		t.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		t.Description = strings.TrimSpace(*p.Description)
	}
	if p.ClearDue {
		t.DueDate = nil
	}
	if p.DueDate != nil {
		due := *p.DueDate
		t.DueDate = &due
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Tags != nil {
		t.Tags = model.CleanTags(*p.Tags)
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	t.UpdatedAt = s.now()
	s.tasks[i] = t

	kind := ChangeUpdated
	if p.notesOnly() {
		kind = ChangeNotes
	}
	s.persist(ctx, kind, t)
	return t.Clone(), nil
}

// Replace swaps in a whole new collection (import). Ids must be unique and
// non-empty and titles non-empty; otherwise nothing changes.
func (s *Store) Replace(ctx context.Context, tasks []model.Task) error {
	seen := make(map[string]bool, len(tasks))
	for i, t := range tasks {
		if t.ID == "" {
			return taskerr.Invalid("id", "task %d has no id", i)
		}
		if seen[t.ID] {
			return taskerr.Invalid("id", "duplicate id %q", t.ID)
		}
		seen[t.ID] = true
		if strings.TrimSpace(t.Title) == "" {
			return taskerr.Invalid("title", "task %q has an empty title", t.ID)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = cloneAll(tasks)
	for i := range s.tasks {
		s.tasks[i].Tags = model.CleanTags(s.tasks[i].Tags)
	}
	s.persist(ctx, ChangeReplaced, model.Task{})
	return nil
}

// persist fans a change out to every persister. Caller holds s.mu.
func (s *Store) persist(ctx context.Context, kind ChangeKind, task model.Task) {
	if len(s.persisters) == 0 {
		return
	}
	c := Change{Kind: kind, Task: task.Clone(), All: cloneAll(s.tasks)}
	for _, p := range s.persisters {
		if err := p.Persist(ctx, c); err != nil {
			s.warn(taskerr.Persistence(kind.String()+" task", err))
		}
	}
}

func (s *Store) index(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(tasks []model.Task) []model.Task {
	if tasks == nil {
		return nil
	}
	out := make([]model.Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	return out
}
