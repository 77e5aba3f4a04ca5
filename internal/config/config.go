// Package config handles duelist's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/dori/duelist/internal/remote"
)

const (
	// FileName is the config file name inside the data directory.
	FileName = "config.yaml"
	// EnvDataDir overrides data_dir.
	EnvDataDir = "DUELIST_DATA_DIR"

	DefaultCountdownInterval = time.Minute
	DefaultDeadlineInterval  = time.Minute

	ThemeDark  = "dark"
	ThemeLight = "light"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config is the on-disk configuration. Durations are kept as strings so the
// file stays readable ("90s", "2m").
type Config struct {
	DataDir           string              `yaml:"data_dir,omitempty"`
	Theme             string              `yaml:"theme,omitempty"`
	CountdownInterval string              `yaml:"countdown_interval,omitempty"`
	DeadlineInterval  string              `yaml:"deadline_interval,omitempty"`
	Notifications     NotificationsConfig `yaml:"notifications,omitempty"`
	Remote            RemoteConfig        `yaml:"remote,omitempty"`

	path string `yaml:"-"`
}

// NotificationsConfig controls desktop delivery of deadline notices.
type NotificationsConfig struct {
	Desktop *bool `yaml:"desktop,omitempty"`
}

// RemoteConfig points at the HTTP collaborator. An empty base URL disables it.
type RemoteConfig struct {
	BaseURL   string `yaml:"base_url,omitempty"`
	Timeout   string `yaml:"timeout,omitempty"`
	SyncMode  string `yaml:"sync_mode,omitempty"`
	QueueSize int    `yaml:"queue_size,omitempty"`
}

// DefaultPath returns the config path inside dataDir.
func DefaultPath(dataDir string) string {
	return filepath.Join(dataDir, FileName)
}

// NewDefault returns a config with every default filled in.
func NewDefault() *Config {
	desktop := true
	return &Config{
		Theme:             ThemeDark,
		CountdownInterval: DefaultCountdownInterval.String(),
		DeadlineInterval:  DefaultDeadlineInterval.String(),
		Notifications:     NotificationsConfig{Desktop: &desktop},
		Remote: RemoteConfig{
			Timeout:   remote.DefaultTimeout.String(),
			SyncMode:  string(remote.ModeBulk),
			QueueSize: remote.DefaultQueueSize,
		},
	}
}

// Load reads the config at path. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := NewDefault()
	cfg.path = path

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, path, err)
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fillDefaults restores defaults for keys a file set to empty values.
func (c *Config) fillDefaults() {
	d := NewDefault()
	if c.Theme == "" {
		c.Theme = d.Theme
	}
	if c.CountdownInterval == "" {
		c.CountdownInterval = d.CountdownInterval
	}
	if c.DeadlineInterval == "" {
		c.DeadlineInterval = d.DeadlineInterval
	}
	if c.Notifications.Desktop == nil {
		c.Notifications.Desktop = d.Notifications.Desktop
	}
	if c.Remote.Timeout == "" {
		c.Remote.Timeout = d.Remote.Timeout
	}
	if c.Remote.SyncMode == "" {
		c.Remote.SyncMode = d.Remote.SyncMode
	}
	if c.Remote.QueueSize == 0 {
		c.Remote.QueueSize = d.Remote.QueueSize
	}
}

// ApplyEnv applies environment overrides.
func (c *Config) ApplyEnv() {
	if dir := os.Getenv(EnvDataDir); dir != "" {
		c.DataDir = dir
	}
}

// Validate checks the config for errors.
func (c *Config) Validate() error {
	if c.Theme != ThemeDark && c.Theme != ThemeLight {
		return fmt.Errorf("%w: theme must be %q or %q, got %q", ErrInvalid, ThemeDark, ThemeLight, c.Theme)
	}
	for key, value := range map[string]string{
		"countdown_interval": c.CountdownInterval,
		"deadline_interval":  c.DeadlineInterval,
		"remote.timeout":     c.Remote.Timeout,
	} {
		d, err := time.ParseDuration(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalid, key, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalid, key)
		}
	}
	if _, err := remote.ParseMode(c.Remote.SyncMode); err != nil {
		return fmt.Errorf("%w: remote.sync_mode: %v", ErrInvalid, err)
	}
	if c.Remote.QueueSize < 0 {
		return fmt.Errorf("%w: remote.queue_size must not be negative", ErrInvalid)
	}
	return nil
}

// Path returns the file the config was loaded from.
func (c *Config) Path() string {
	return c.path
}

func (c *Config) CountdownEvery() time.Duration {
	return parseOr(c.CountdownInterval, DefaultCountdownInterval)
}

func (c *Config) DeadlineEvery() time.Duration {
	return parseOr(c.DeadlineInterval, DefaultDeadlineInterval)
}

func (c *Config) RemoteTimeout() time.Duration {
	return parseOr(c.Remote.Timeout, remote.DefaultTimeout)
}

// SyncMode returns the validated sync mode, bulk when unset.
func (c *Config) SyncMode() remote.Mode {
	m, err := remote.ParseMode(c.Remote.SyncMode)
	if err != nil {
		return remote.ModeBulk
	}
	return m
}

// DesktopNotifications reports whether notify-send delivery is on.
func (c *Config) DesktopNotifications() bool {
	return c.Notifications.Desktop == nil || *c.Notifications.Desktop
}

// RemoteEnabled reports whether a collaborator is configured.
func (c *Config) RemoteEnabled() bool {
	return c.Remote.BaseURL != ""
}

func parseOr(s string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
