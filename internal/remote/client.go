// Package remote talks to the HTTP persistence collaborator that mirrors the
// task collection.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dori/duelist/internal/model"
	"github.com/dori/duelist/internal/taskerr"
)

const (
	DefaultTimeout = 10 * time.Second
	maxErrorBody   = 512
)

// StatusError is returned for non-2xx responses
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client is a thin JSON client for the collaborator's /tasks endpoints
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client rooted at baseURL, e.g. http://localhost:5000/api
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

// BaseURL returns the collaborator root
func (c *Client) BaseURL() string {
	return c.baseURL
}

type taskBody struct {
	Title       string  `json:"title"`
	DueDate     *string `json:"due_date"`
	Description string  `json:"description"`
}

type notesBody struct {
	Notes string `json:"notes"`
}

func bodyFor(t model.Task) taskBody {
	b := taskBody{Title: t.Title, Description: t.Description}
	if t.DueDate != nil {
		s := t.DueDate.Format(time.RFC3339)
		b.DueDate = &s
	}
	return b
}

// List fetches every task record
func (c *Client) List(ctx context.Context) ([]model.Task, error) {
	var recs []record
	if err := c.do(ctx, http.MethodGet, "/tasks", nil, &recs); err != nil {
		return nil, err
	}
	tasks := make([]model.Task, 0, len(recs))
	for i, r := range recs {
		t, err := r.task()
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

// Get fetches one task record. A 404 is reported as taskerr.ErrNotFound.
func (c *Client) Get(ctx context.Context, id string) (model.Task, error) {
	var r record
	err := c.do(ctx, http.MethodGet, taskPath(id), nil, &r)
	var se *StatusError
	if errors.As(err, &se) && se.Code == http.StatusNotFound {
		return model.Task{}, taskerr.NotFound(id)
	}
	if err != nil {
		return model.Task{}, err
	}
	return r.task()
}

// Create posts a new task and returns the collaborator's version of it
func (c *Client) Create(ctx context.Context, t model.Task) (model.Task, error) {
	var r record
	if err := c.do(ctx, http.MethodPost, "/tasks", bodyFor(t), &r); err != nil {
		return model.Task{}, err
	}
	return r.task()
}

// Update replaces title, description and due date of a task
func (c *Client) Update(ctx context.Context, t model.Task) (model.Task, error) {
	var r record
	if err := c.do(ctx, http.MethodPut, taskPath(t.ID), bodyFor(t), &r); err != nil {
		return model.Task{}, err
	}
	return r.task()
}

// UpdateNotes changes only the description
func (c *Client) UpdateNotes(ctx context.Context, id, notes string) error {
	return c.do(ctx, http.MethodPut, taskPath(id)+"/notes", notesBody{Notes: notes}, nil)
}

// Toggle flips completion on the collaborator
func (c *Client) Toggle(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodPut, taskPath(id)+"/toggle", nil, nil)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

// Sync bulk-upserts the full collection
func (c *Client) Sync(ctx context.Context, tasks []model.Task) error {
	if tasks == nil {
		tasks = []model.Task{}
	}
	return c.do(ctx, http.MethodPost, "/tasks/sync", tasks, nil)
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}
