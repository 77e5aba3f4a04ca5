// Package countdown derives the "time remaining" display for dated tasks.
//
// The Scheduler tracks one entry per displayed task. Reset cancels every
// entry and starts fresh for the new display set; Tick re-evaluates the
// active entries against the supplied clock. Entries stop ticking once
// their task is overdue.
package countdown

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dori/duelist/internal/model"
)

// Interval is how often a displayed countdown is re-evaluated
const Interval = 60 * time.Second

// DueSoonWindow is the remaining time at or below which a countdown turns to warning
const DueSoonWindow = 24 * time.Hour

// State is the display bucket of a countdown
type State int

const (
	Pending State = iota // more than 24h left
	DueSoon              // 0 < remaining <= 24h, warning styling
	Overdue              // remaining <= 0, danger styling
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case DueSoon:
		return "due_soon"
	case Overdue:
		return "overdue"
	default:
		return "unknown"
	}
}

// Classify maps the remaining time to a countdown state
func Classify(diff time.Duration) State {
	switch {
	case diff <= 0:
		return Overdue
	case diff <= DueSoonWindow:
		return DueSoon
	default:
		return Pending
	}
}

// Format renders remaining time as "2d 3h 15m". Day and hour segments are
// omitted when zero; minutes are always shown. Non-positive input renders
// as "Overdue".
func Format(diff time.Duration) string {
	if diff <= 0 {
		return "Overdue"
	}
	ms := diff.Milliseconds()
	days := ms / 86400000
	hours := ms % 86400000 / 3600000
	minutes := ms % 3600000 / 60000

	var b strings.Builder
	if days > 0 {
		fmt.Fprintf(&b, "%dd ", days)
	}
	if hours > 0 {
		fmt.Fprintf(&b, "%dh ", hours)
	}
	fmt.Fprintf(&b, "%dm", minutes)
	return b.String()
}

// Display is the current countdown rendering for one task
type Display struct {
	TaskID string
	State  State
	Text   string
}

// Transition records a task moving between countdown states
type Transition struct {
	TaskID string
	From   State
	To     State
}

type entry struct {
	due     time.Time
	display Display
}

// Scheduler holds the countdown entries for the currently displayed tasks
type Scheduler struct {
	mu       sync.Mutex
	gen      uint64
	active   map[string]*entry // still ticking
	displays map[string]Display
}

// NewScheduler creates an empty scheduler
func NewScheduler() *Scheduler {
	return &Scheduler{
		active:   make(map[string]*entry),
		displays: make(map[string]Display),
	}
}

// Reset cancels all tracked entries, then starts one for each non-completed
// dated task in tasks, evaluated immediately at now. It returns the new
// generation; ticks carrying an older generation belong to cancelled timers.
func (s *Scheduler) Reset(tasks []model.Task, now time.Time) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.active = make(map[string]*entry, len(tasks))
	s.displays = make(map[string]Display, len(tasks))

	for i := range tasks {
		t := &tasks[i]
		if t.DueDate == nil || t.Completed {
			continue
		}
		e := &entry{due: *t.DueDate}
		e.display = evaluate(t.ID, e.due, now)
		s.displays[t.ID] = e.display
		if e.display.State != Overdue {
			s.active[t.ID] = e
		}
	}
	return s.gen
}

// Tick re-evaluates every active entry at now and returns the state
// changes. Entries reaching Overdue are fixed at "Overdue" and stop ticking.
func (s *Scheduler) Tick(now time.Time) []Transition {
	s.mu.Lock()
	defer s.mu.Unlock()

	var transitions []Transition
	for id, e := range s.active {
		next := evaluate(id, e.due, now)
		if next.State != e.display.State {
			transitions = append(transitions, Transition{TaskID: id, From: e.display.State, To: next.State})
		}
		e.display = next
		s.displays[id] = next
		if next.State == Overdue {
			delete(s.active, id)
		}
	}
	return transitions
}

// Display returns the current rendering for a task
func (s *Scheduler) Display(taskID string) (Display, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.displays[taskID]
	return d, ok
}

// Active returns how many entries are still ticking
func (s *Scheduler) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// Generation returns the generation of the current entry set
func (s *Scheduler) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

func evaluate(id string, due, now time.Time) Display {
	diff := due.Sub(now)
	return Display{TaskID: id, State: Classify(diff), Text: Format(diff)}
}
