package deadline

import (
	"sort"
	"sync"
)

// MemoryLedger is an in-process Ledger keyed by task, then hour bucket
type MemoryLedger struct {
	mu   sync.Mutex
	keys map[string]map[int]struct{}
}

// NewMemoryLedger creates an empty ledger
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{keys: make(map[string]map[int]struct{})}
}

func (l *MemoryLedger) Seen(k Key) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.keys[k.TaskID][k.Hour]
	return ok, nil
}

func (l *MemoryLedger) Mark(k Key) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	hours, ok := l.keys[k.TaskID]
	if !ok {
		hours = make(map[int]struct{})
		l.keys[k.TaskID] = hours
	}
	hours[k.Hour] = struct{}{}
	return nil
}

func (l *MemoryLedger) Forget(taskID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.keys, taskID)
	return nil
}

func (l *MemoryLedger) TaskIDs() ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.keys))
	for id := range l.keys {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Len returns the total number of recorded keys
func (l *MemoryLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, hours := range l.keys {
		n += len(hours)
	}
	return n
}
