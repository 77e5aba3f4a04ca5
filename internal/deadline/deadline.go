// Package deadline detects tasks crossing due-soon and overdue thresholds
// and emits each notice once per (task, hour bucket).
package deadline

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dori/duelist/internal/model"
)

// Interval is how often the full task collection is scanned
const Interval = 60 * time.Second

// Kind classifies a task's time until due
type Kind int

const (
	None          Kind = iota
	DueWithinDay       // 1h < until <= 24h
	DueWithinHour      // 0 < until <= 1h
	Overdue            // until < 0
)

func (k Kind) String() string {
	switch k {
	case DueWithinDay:
		return "due_within_day"
	case DueWithinHour:
		return "due_within_hour"
	case Overdue:
		return "overdue"
	default:
		return "none"
	}
}

// Severity of a notice, mirroring the user-facing notification levels
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}

// Severity returns the notice severity for a kind
func (k Kind) Severity() Severity {
	switch k {
	case Overdue:
		return SeverityError
	case DueWithinHour:
		return SeverityWarning
	default:
		return SeverityInfo
	}
}

// Classify buckets the time until due. Exactly zero falls in no bucket.
func Classify(until time.Duration) Kind {
	switch {
	case until < 0:
		return Overdue
	case until == 0:
		return None
	case until <= time.Hour:
		return DueWithinHour
	case until <= 24*time.Hour:
		return DueWithinDay
	default:
		return None
	}
}

// HourBucket is floor(until / 1h); negative once the task is overdue
func HourBucket(until time.Duration) int {
	return int(math.Floor(until.Hours()))
}

// Key identifies one notice for one task
type Key struct {
	TaskID string
	Hour   int
}

func (k Key) String() string {
	return fmt.Sprintf("notified_%s_%d", k.TaskID, k.Hour)
}

// Notice is a deadline notification ready for display
type Notice struct {
	Key      Key
	Title    string
	Kind     Kind
	Severity Severity
	Until    time.Duration
	Message  string
}

// Ledger records which keys have already fired. Implementations must keep
// at most the keys of live tasks: Forget drops every key of a task.
type Ledger interface {
	Seen(k Key) (bool, error)
	Mark(k Key) error
	Forget(taskID string) error
	TaskIDs() ([]string, error)
}

// Notifier scans tasks for threshold crossings
type Notifier struct {
	ledger Ledger
}

// NewNotifier creates a notifier backed by ledger; nil means an in-memory ledger
func NewNotifier(ledger Ledger) *Notifier {
	if ledger == nil {
		ledger = NewMemoryLedger()
	}
	return &Notifier{ledger: ledger}
}

// Tick scans the full task collection at now. Each notice is returned at most
// once per key over the ledger's lifetime. Ledger entries for tasks that are
// gone or completed are evicted. Ledger errors skip the affected task and
// are returned joined; they never stop the scan.
func (n *Notifier) Tick(now time.Time, tasks []model.Task) ([]Notice, error) {
	var (
		notices []Notice
		errs    []error
	)

	live := make(map[string]bool, len(tasks))
	for i := range tasks {
		t := &tasks[i]
		if t.Completed || t.DueDate == nil {
			continue
		}
		live[t.ID] = true

		until := t.DueDate.Sub(now)
		kind := Classify(until)
		if kind == None {
			continue
		}

		key := Key{TaskID: t.ID, Hour: HourBucket(until)}
		seen, err := n.ledger.Seen(key)
		if err != nil {
			errs = append(errs, fmt.Errorf("failed to check notice %s: %w", key, err))
			continue
		}
		if seen {
			continue
		}
		if err := n.ledger.Mark(key); err != nil {
			errs = append(errs, fmt.Errorf("failed to record notice %s: %w", key, err))
			continue
		}

		notices = append(notices, Notice{
			Key:      key,
			Title:    t.Title,
			Kind:     kind,
			Severity: kind.Severity(),
			Until:    until,
			Message:  message(t.Title, kind, until),
		})
	}

	if err := n.evict(live); err != nil {
		errs = append(errs, err)
	}
	return notices, errors.Join(errs...)
}

// Forget drops every recorded key for a task (deleted or completed)
func (n *Notifier) Forget(taskID string) error {
	return n.ledger.Forget(taskID)
}

func (n *Notifier) evict(live map[string]bool) error {
	ids, err := n.ledger.TaskIDs()
	if err != nil {
		return fmt.Errorf("failed to list notice ledger: %w", err)
	}
	var errs []error
	for _, id := range ids {
		if !live[id] {
			if err := n.ledger.Forget(id); err != nil {
				errs = append(errs, fmt.Errorf("failed to evict notices for %s: %w", id, err))
			}
		}
	}
	return errors.Join(errs...)
}

func message(title string, kind Kind, until time.Duration) string {
	switch kind {
	case Overdue:
		hours := int((-until).Hours())
		if hours == 0 {
			return fmt.Sprintf("%q is overdue!", title)
		}
		return fmt.Sprintf("%q was due %d %s ago!", title, hours, plural(hours, "hour"))
	case DueWithinHour:
		minutes := int(until.Minutes())
		return fmt.Sprintf("%q is due in %d %s!", title, minutes, plural(minutes, "minute"))
	default:
		hours := int(math.Floor(until.Hours()))
		return fmt.Sprintf("%q is due in %d %s!", title, hours, plural(hours, "hour"))
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
