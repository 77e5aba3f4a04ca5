package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dori/duelist/internal/remote"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), FileName))
	require.NoError(t, err)

	assert.Equal(t, ThemeDark, cfg.Theme)
	assert.Equal(t, time.Minute, cfg.CountdownEvery())
	assert.Equal(t, time.Minute, cfg.DeadlineEvery())
	assert.Equal(t, remote.DefaultTimeout, cfg.RemoteTimeout())
	assert.Equal(t, remote.ModeBulk, cfg.SyncMode())
	assert.True(t, cfg.DesktopNotifications())
	assert.False(t, cfg.RemoteEnabled())
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
data_dir: /tmp/tasks
theme: light
countdown_interval: 30s
notifications:
  desktop: false
remote:
  base_url: http://localhost:5000/api
  timeout: 3s
  sync_mode: per_task
  queue_size: 8
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, "/tmp/tasks", cfg.DataDir)
	assert.Equal(t, ThemeLight, cfg.Theme)
	assert.Equal(t, 30*time.Second, cfg.CountdownEvery())
	assert.Equal(t, time.Minute, cfg.DeadlineEvery())
	assert.False(t, cfg.DesktopNotifications())
	assert.True(t, cfg.RemoteEnabled())
	assert.Equal(t, 3*time.Second, cfg.RemoteTimeout())
	assert.Equal(t, remote.ModePerTask, cfg.SyncMode())
	assert.Equal(t, 8, cfg.Remote.QueueSize)
}

func TestLoadInvalid(t *testing.T) {
	cases := map[string]string{
		"yaml":      "theme: [",
		"theme":     "theme: solarized",
		"duration":  "deadline_interval: soon",
		"negative":  "countdown_interval: -5s",
		"sync mode": "remote:\n  sync_mode: stream",
		"queue":     "remote:\n  queue_size: -1",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.ErrorIs(t, err, ErrInvalid)
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvDataDir, "/from/env")
	cfg := NewDefault()
	cfg.DataDir = "/from/file"
	cfg.ApplyEnv()
	assert.Equal(t, "/from/env", cfg.DataDir)
}
