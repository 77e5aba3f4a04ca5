package remote

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dori/duelist/internal/store"
	"github.com/dori/duelist/internal/taskerr"
)

// Mode selects how changes are mirrored to the collaborator
type Mode string

const (
	// ModeBulk posts the whole collection to /tasks/sync after every change
	ModeBulk Mode = "bulk"
	// ModePerTask calls the endpoint matching each change
	ModePerTask Mode = "per_task"

	DefaultQueueSize = 64
)

// ParseMode validates a configured sync mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeBulk, ModePerTask:
		return Mode(s), nil
	case "":
		return ModeBulk, nil
	}
	return "", fmt.Errorf("unknown sync mode %q (want %s or %s)", s, ModeBulk, ModePerTask)
}

var (
	ErrQueueFull = errors.New("sync queue full, change dropped")
	ErrClosed    = errors.New("syncer closed")
)

// Syncer is a store.Persister that mirrors changes in the background.
// Each change is attempted once; failures go to the error callback and are
// never retried.
type Syncer struct {
	client  *Client
	mode    Mode
	onError func(error)

	mu     sync.Mutex
	closed bool
	queue  chan store.Change

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewSyncer starts the background worker. onError may be nil.
func NewSyncer(client *Client, mode Mode, queueSize int, onError func(error)) *Syncer {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	if onError == nil {
		onError = func(error) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Syncer{
		client:  client,
		mode:    mode,
		onError: onError,
		queue:   make(chan store.Change, queueSize),
		ctx:     ctx,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Persist enqueues c without blocking the caller
func (s *Syncer) Persist(_ context.Context, c store.Change) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	select {
	case s.queue <- c:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting changes and waits for queued ones to drain. If ctx
// ends first, in-flight requests are cancelled and the rest are dropped.
func (s *Syncer) Close(ctx context.Context) error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.queue)
	}
	s.mu.Unlock()

	select {
	case <-s.done:
		s.cancel()
		return nil
	case <-ctx.Done():
		s.cancel()
		<-s.done
		return ctx.Err()
	}
}

func (s *Syncer) run() {
	defer close(s.done)
	for c := range s.queue {
		if s.ctx.Err() != nil {
			continue
		}
		if err := s.apply(s.ctx, c); err != nil {
			s.onError(taskerr.Persistence("sync "+c.Kind.String(), err))
		}
	}
}

func (s *Syncer) apply(ctx context.Context, c store.Change) error {
	if s.mode != ModePerTask {
		return s.client.Sync(ctx, c.All)
	}

	switch c.Kind {
	case store.ChangeAdded:
		_, err := s.client.Create(ctx, c.Task)
		return err
	case store.ChangeUpdated:
		_, err := s.client.Update(ctx, c.Task)
		return err
	case store.ChangeNotes:
		return s.client.UpdateNotes(ctx, c.Task.ID, c.Task.Description)
	case store.ChangeToggled:
		return s.client.Toggle(ctx, c.Task.ID)
	case store.ChangeRemoved:
		return s.client.Delete(ctx, c.Task.ID)
	default:
		return s.client.Sync(ctx, c.All)
	}
}
