package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/duelist/internal/config"
	"github.com/dori/duelist/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.NewDefault()
	cfg.DataDir = t.TempDir()
	desktop := false
	cfg.Notifications.Desktop = &desktop
	return cfg
}

func TestTasksSurviveRestart(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	a, err := New(ctx, cfg, Options{Lock: true})
	require.NoError(t, err)
	task, _, err := a.Session.Add(ctx, store.Input{Title: "Pay rent", Tags: []string{"home"}})
	require.NoError(t, err)
	require.NoError(t, a.Close())

	a, err = New(ctx, cfg, Options{Lock: true})
	require.NoError(t, err)
	defer a.Close()

	tasks := a.Session.Store().Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, task.ID, tasks[0].ID)
	assert.Equal(t, []string{"home"}, tasks[0].Tags)
}

func TestSingleWriterLock(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	first, err := New(ctx, cfg, Options{Lock: true})
	require.NoError(t, err)
	defer first.Close()

	_, err = New(ctx, cfg, Options{Lock: true})
	assert.ErrorIs(t, err, ErrLocked)

	reader, err := New(ctx, cfg, Options{})
	require.NoError(t, err, "readers do not need the lock")
	reader.Close()
}

func TestThemePreference(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Theme = config.ThemeLight

	a, err := New(ctx, cfg, Options{})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, config.ThemeLight, a.Theme(ctx))
	require.NoError(t, a.SetTheme(ctx, config.ThemeDark))
	assert.Equal(t, config.ThemeDark, a.Theme(ctx))
}

// remoteStub serves GET /tasks and records sync posts
type remoteStub struct {
	mu    sync.Mutex
	syncs int
}

func (r *remoteStub) server(t *testing.T) *httptest.Server {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	engine.GET("/api/tasks", func(c *gin.Context) {
		c.JSON(http.StatusOK, []gin.H{
			{"id": 1, "title": "from remote", "completed": false, "created_at": "2025-04-01T10:00:00"},
		})
	})
	engine.POST("/api/tasks/sync", func(c *gin.Context) {
		r.mu.Lock()
		r.syncs++
		r.mu.Unlock()
		c.Status(http.StatusNoContent)
	})
	srv := httptest.NewServer(engine)
	t.Cleanup(srv.Close)
	return srv
}

func TestSeedsFromRemoteAndSyncs(t *testing.T) {
	ctx := context.Background()
	stub := &remoteStub{}
	cfg := testConfig(t)
	cfg.Remote.BaseURL = stub.server(t).URL + "/api"

	a, err := New(ctx, cfg, Options{Lock: true})
	require.NoError(t, err)

	tasks := a.Session.Store().Tasks()
	require.Len(t, tasks, 1)
	assert.Equal(t, "1", tasks[0].ID)
	assert.Equal(t, "from remote", tasks[0].Title)

	_, _, err = a.Session.Add(ctx, store.Input{Title: "local"})
	require.NoError(t, err)
	require.NoError(t, a.Close(), "close drains the sync queue")

	stub.mu.Lock()
	assert.Equal(t, 1, stub.syncs)
	stub.mu.Unlock()

	// the seeded task was cached locally
	offline, err := New(ctx, cfg, Options{Offline: true})
	require.NoError(t, err)
	defer offline.Close()
	assert.Equal(t, 2, offline.Session.Store().Len())
}

func TestUnreachableRemoteOnlyWarns(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cfg.Remote.BaseURL = "http://127.0.0.1:1/api"
	cfg.Remote.Timeout = (200 * time.Millisecond).String()

	a, err := New(ctx, cfg, Options{})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, 0, a.Session.Store().Len())
	assert.Len(t, a.Session.Warnings(), 1)
}
