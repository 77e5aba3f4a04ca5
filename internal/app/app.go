package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/dori/duelist/internal/config"
	"github.com/dori/duelist/internal/db"
	"github.com/dori/duelist/internal/deadline"
	"github.com/dori/duelist/internal/logging"
	"github.com/dori/duelist/internal/notify"
	"github.com/dori/duelist/internal/remote"
	"github.com/dori/duelist/internal/taskerr"
)

const (
	DBFileName   = "duelist.db"
	lockFileName = "duelist.lock"

	// how long Close waits for queued remote syncs
	drainTimeout = 5 * time.Second
)

// ErrLocked is returned when another writer holds the data directory
var ErrLocked = errors.New("another instance of duelist is already running")

// Options selects how the app opens its data directory
type Options struct {
	// Lock takes the single-writer lock. Anything that mutates tasks must
	// hold it, since each writer saves its whole collection.
	Lock bool
	// Offline skips the remote collaborator even when configured
	Offline bool
}

// App holds the application state and dependencies
type App struct {
	Config   *config.Config
	DB       *db.DB
	Notifier *notify.Notifier
	Session  *Session
	Log      *log.Logger
	DataDir  string

	client    *remote.Client
	syncer    *remote.Syncer
	lockFile  *flock.Flock
	logCloser io.Closer
}

// New opens the data directory, loads the cached tasks and wires the
// persisters. cfg must have DataDir resolved.
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	if cfg == nil {
		cfg = config.NewDefault()
	}
	if cfg.DataDir == "" {
		cfg.DataDir = db.DefaultDataDir()
	}

	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	logger, closer := logging.New("duelist ")
	a := &App{
		Config:    cfg,
		DataDir:   cfg.DataDir,
		Log:       logger,
		Notifier:  notify.NewNotifier(),
		logCloser: closer,
	}
	a.Notifier.SetEnabled(cfg.DesktopNotifications())

	if opts.Lock {
		if err := a.acquireLock(); err != nil {
			a.logCloser.Close()
			return nil, err
		}
	}

	database, err := db.Open(filepath.Join(cfg.DataDir, DBFileName))
	if err != nil {
		a.releaseLock()
		a.logCloser.Close()
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	a.DB = database

	sessionOpts := []SessionOption{
		WithLogger(logger),
		WithPersister(database),
		WithLedger(database.NoticeLedger(context.Background())),
	}

	var session *Session
	if cfg.RemoteEnabled() && !opts.Offline {
		a.client = remote.New(cfg.Remote.BaseURL, cfg.RemoteTimeout())
		a.syncer = remote.NewSyncer(a.client, cfg.SyncMode(), cfg.Remote.QueueSize, func(err error) {
			if session != nil {
				session.Warn(err)
			}
		})
		sessionOpts = append(sessionOpts, WithPersister(a.syncer), WithFetcher(a.client))
	}
	session = NewSession(sessionOpts...)
	a.Session = session

	if err := a.Reload(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if a.Session.Store().Len() == 0 && a.client != nil {
		a.seed(ctx)
	}

	logger.Printf("opened %s (remote=%v, tasks=%d)", cfg.DataDir, a.client != nil, a.Session.Store().Len())
	return a, nil
}

// Reload replaces the session's tasks with the local cache
func (a *App) Reload(ctx context.Context) error {
	tasks, err := a.DB.LoadTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tasks: %w", err)
	}
	a.Session.Load(tasks)
	return nil
}

// seed fills an empty cache from the collaborator. Failure only warns.
func (a *App) seed(ctx context.Context) {
	tasks, err := a.client.List(ctx)
	if err != nil {
		a.Session.Warn(taskerr.Persistence("load remote tasks", err))
		return
	}
	if len(tasks) == 0 {
		return
	}
	if err := a.DB.SaveTasks(ctx, tasks); err != nil {
		a.Session.Warn(taskerr.Persistence("cache remote tasks", err))
	}
	a.Session.Load(tasks)
	a.Log.Printf("seeded %d tasks from %s", len(tasks), a.client.BaseURL())
}

// Deliver sends deadline notices to the desktop. notify-send being absent
// is common, so failures are only logged.
func (a *App) Deliver(notices []deadline.Notice) {
	for _, n := range notices {
		if err := a.Notifier.SendDeadline(n); err != nil {
			a.Log.Printf("desktop notification failed: %v", err)
		}
	}
}

// Theme returns the stored theme preference, falling back to the config
func (a *App) Theme(ctx context.Context) string {
	theme, ok, err := a.DB.Setting(ctx, db.SettingTheme)
	if err != nil {
		a.Log.Printf("failed to read theme: %v", err)
	}
	if !ok || (theme != config.ThemeDark && theme != config.ThemeLight) {
		return a.Config.Theme
	}
	return theme
}

// SetTheme stores the theme preference
func (a *App) SetTheme(ctx context.Context, theme string) error {
	if err := a.DB.SetSetting(ctx, db.SettingTheme, theme); err != nil {
		return taskerr.Persistence("save theme", err)
	}
	return nil
}

// DBPath returns the sqlite file location
func (a *App) DBPath() string {
	return filepath.Join(a.DataDir, DBFileName)
}

// acquireLock acquires an exclusive file lock to prevent multiple writers
func (a *App) acquireLock() error {
	lockPath := filepath.Join(a.DataDir, lockFileName)
	a.lockFile = flock.New(lockPath)

	locked, err := a.lockFile.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire lock: %w", err)
	}

	if !locked {
		return ErrLocked
	}

	return nil
}

// releaseLock releases the file lock
func (a *App) releaseLock() {
	if a.lockFile != nil {
		a.lockFile.Unlock()
	}
}

// Close drains pending remote syncs and releases resources
func (a *App) Close() error {
	var errs []error

	if a.syncer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
		if err := a.syncer.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("failed to drain remote sync: %w", err))
		}
		cancel()
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	a.releaseLock()
	if a.logCloser != nil {
		a.logCloser.Close()
	}

	return errors.Join(errs...)
}
