package db

import (
	"context"
	"time"

	"github.com/dori/duelist/internal/deadline"
)

// NoticeLedger is a deadline.Ledger stored in the deadline_notices table,
// so notices already shown stay suppressed across restarts.
type NoticeLedger struct {
	db  *DB
	ctx context.Context
	now func() time.Time
}

// NoticeLedger returns a ledger bound to ctx
func (db *DB) NoticeLedger(ctx context.Context) *NoticeLedger {
	return &NoticeLedger{db: db, ctx: ctx, now: time.Now}
}

func (l *NoticeLedger) Seen(k deadline.Key) (bool, error) {
	var n int
	err := l.db.QueryRowContext(l.ctx,
		`SELECT COUNT(*) FROM deadline_notices WHERE task_id = ? AND hour = ?`, k.TaskID, k.Hour).Scan(&n)
	return n > 0, err
}

func (l *NoticeLedger) Mark(k deadline.Key) error {
	_, err := l.db.ExecContext(l.ctx, `
		INSERT OR IGNORE INTO deadline_notices (task_id, hour, notified_at) VALUES (?, ?, ?)
	`, k.TaskID, k.Hour, l.now().Format(timeLayout))
	return err
}

func (l *NoticeLedger) Forget(taskID string) error {
	_, err := l.db.ExecContext(l.ctx, `DELETE FROM deadline_notices WHERE task_id = ?`, taskID)
	return err
}

func (l *NoticeLedger) TaskIDs() ([]string, error) {
	rows, err := l.db.QueryContext(l.ctx, `SELECT DISTINCT task_id FROM deadline_notices ORDER BY task_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
