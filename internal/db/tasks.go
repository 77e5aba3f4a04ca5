package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dori/duelist/internal/model"
	"github.com/dori/duelist/internal/store"
)

const timeLayout = time.RFC3339Nano

// LoadTasks returns the cached collection in store order
func (db *DB) LoadTasks(ctx context.Context) ([]model.Task, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, title, description, due_date, priority, completed, created_at, updated_at
		FROM tasks
		ORDER BY position
	`)
	if err != nil {
		return nil, err
	}
	tasks, err := scanTasks(rows)
	// Close before the tag query: with one connection a nested query deadlocks
	rows.Close()
	if err != nil {
		return nil, err
	}

	tags, err := db.loadTags(ctx)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Tags = tags[tasks[i].ID]
		if tasks[i].Tags == nil {
			tasks[i].Tags = []string{}
		}
	}
	return tasks, nil
}

func (db *DB) loadTags(ctx context.Context) (map[string][]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT task_id, name FROM task_tags ORDER BY task_id, position`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tags := make(map[string][]string)
	for rows.Next() {
		var taskID, name string
		if err := rows.Scan(&taskID, &name); err != nil {
			return nil, err
		}
		tags[taskID] = append(tags[taskID], name)
	}
	return tags, rows.Err()
}

// SaveTasks replaces the cached collection with tasks, keeping their order
func (db *DB) SaveTasks(ctx context.Context, tasks []model.Task) error {
	return db.Transaction(ctx, func(tx *sql.Tx) error {
		// task_tags rows go with their task via ON DELETE CASCADE
		if _, err := tx.ExecContext(ctx, `DELETE FROM tasks`); err != nil {
			return err
		}

		for i, t := range tasks {
			var due any
			if t.DueDate != nil {
				due = t.DueDate.Format(timeLayout)
			}
			_, err := tx.ExecContext(ctx, `
				INSERT INTO tasks (id, position, title, description, due_date, priority, completed, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, t.ID, i, t.Title, t.Description, due, t.Priority, t.Completed,
				t.CreatedAt.Format(timeLayout), t.UpdatedAt.Format(timeLayout))
			if err != nil {
				return fmt.Errorf("failed to save task %s: %w", t.ID, err)
			}

			for j, tag := range t.Tags {
				_, err := tx.ExecContext(ctx, `INSERT INTO task_tags (task_id, position, name) VALUES (?, ?, ?)`, t.ID, j, tag)
				if err != nil {
					return fmt.Errorf("failed to save tag %q on task %s: %w", tag, t.ID, err)
				}
			}
		}
		return nil
	})
}

// Persist implements store.Persister by writing the full post-change collection
func (db *DB) Persist(ctx context.Context, c store.Change) error {
	return db.SaveTasks(ctx, c.All)
}

func scanTasks(rows *sql.Rows) ([]model.Task, error) {
	tasks := []model.Task{}
	for rows.Next() {
		t, err := scanTaskRow(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *t)
	}
	return tasks, rows.Err()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanTaskRow(s scanner) (*model.Task, error) {
	var t model.Task
	var dueDate *string
	var createdAt, updatedAt string

	err := s.Scan(&t.ID, &t.Title, &t.Description, &dueDate, &t.Priority, &t.Completed, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	if dueDate != nil {
		parsed, err := time.Parse(timeLayout, *dueDate)
		if err != nil {
			return nil, fmt.Errorf("task %s: bad due_date %q: %w", t.ID, *dueDate, err)
		}
		t.DueDate = &parsed
	}
	if t.CreatedAt, err = time.Parse(timeLayout, createdAt); err != nil {
		return nil, fmt.Errorf("task %s: bad created_at %q: %w", t.ID, createdAt, err)
	}
	if t.UpdatedAt, err = time.Parse(timeLayout, updatedAt); err != nil {
		return nil, fmt.Errorf("task %s: bad updated_at %q: %w", t.ID, updatedAt, err)
	}
	return &t, nil
}
