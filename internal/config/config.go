package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "mediaplayer"

// Backend names accepted by the backend key.
const (
	BackendMpv  = "mpv"
	BackendBeep = "beep"
)

type Config struct {
	Backend string `koanf:"backend"` // "mpv" or "beep" (default: "mpv")

	Player        PlayerConfig        `koanf:"player"`
	Mpv           MpvConfig           `koanf:"mpv"`
	Beep          BeepConfig          `koanf:"beep"`
	Log           LogConfig           `koanf:"log"`
	Journal       JournalConfig       `koanf:"journal"`
	Notifications NotificationsConfig `koanf:"notifications"`
}

// PlayerConfig holds state machine settings.
type PlayerConfig struct {
	ClampOffsetFromEnd *float64 `koanf:"clamp_offset_from_end"` // seconds kept clear of the range end (default: 1.1)
}

// MpvConfig holds the mpv backend settings.
type MpvConfig struct {
	Path      string   `koanf:"path"`       // mpv binary (default: "mpv")
	Socket    string   `koanf:"socket"`     // IPC socket path
	ExtraArgs []string `koanf:"extra_args"` // appended to the mpv command line
}

// BeepConfig holds the local audio backend settings.
type BeepConfig struct {
	StatusIntervalMS int     `koanf:"status_interval_ms"` // timeupdate period (default: 250)
	Volume           float64 `koanf:"volume"`             // gain in powers of two, 0 is unchanged
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `koanf:"level"` // "debug", "info", "warn", "error" (default: "info")
	File  string `koanf:"file"`
}

// JournalConfig holds the session journal settings.
type JournalConfig struct {
	Enabled *bool  `koanf:"enabled"` // default: true
	Path    string `koanf:"path"`
}

// NotificationsConfig holds desktop notification settings.
type NotificationsConfig struct {
	Enabled    bool  `koanf:"enabled"`     // default: false
	NowPlaying *bool `koanf:"now_playing"` // notify when a source starts playing (default: true)
	Errors     *bool `koanf:"errors"`      // notify on playback errors (default: true)
	TimeoutMS  int   `koanf:"timeout_ms"`  // default: 5000
}

// Notifications are the resolved notification settings.
type Notifications struct {
	Enabled    bool
	NowPlaying bool
	Errors     bool
	Timeout    time.Duration
}

// Load reads the config files from their standard locations.
func Load() (*Config, error) {
	return load(getConfigPaths())
}

// LoadFile reads a single config file. Unlike Load, the file must exist.
func LoadFile(path string) (*Config, error) {
	path = expandPath(path)
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return load([]string{path})
}

func load(paths []string) (*Config, error) {
	k := koanf.New(".")

	// Later paths override earlier ones
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("load %s: %w", path, err)
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	cfg.Backend = strings.ToLower(strings.TrimSpace(cfg.Backend))
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Mpv.Socket = expandPath(cfg.Mpv.Socket)
	cfg.Mpv.Path = expandPath(cfg.Mpv.Path)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Journal.Path = expandPath(cfg.Journal.Path)

	return cfg, nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/mediaplayer/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// GetBackend returns the selected backend, defaulting to mpv.
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendMpv
	}
	return c.Backend
}

// ClampOffset returns how far seeks are kept from the end of the media.
func (c *Config) ClampOffset() time.Duration {
	if c.Player.ClampOffsetFromEnd == nil || *c.Player.ClampOffsetFromEnd < 0 {
		return 1100 * time.Millisecond
	}
	return time.Duration(*c.Player.ClampOffsetFromEnd * float64(time.Second))
}

// GetMpvConfig returns the mpv configuration with defaults applied.
func (c *Config) GetMpvConfig() MpvConfig {
	cfg := c.Mpv
	if cfg.Path == "" {
		cfg.Path = "mpv"
	}
	if cfg.Socket == "" {
		cfg.Socket = filepath.Join(xdg.RuntimeDir, appName, "mpv.sock")
	}
	return cfg
}

// StatusInterval returns the period of position updates for the beep backend.
func (c *Config) StatusInterval() time.Duration {
	if c.Beep.StatusIntervalMS <= 0 {
		return 250 * time.Millisecond
	}
	return time.Duration(c.Beep.StatusIntervalMS) * time.Millisecond
}

// GetLogConfig returns the log configuration with defaults applied.
func (c *Config) GetLogConfig() LogConfig {
	cfg := c.Log
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.File == "" {
		cfg.File = filepath.Join(xdg.StateHome, appName, appName+".log")
	}
	return cfg
}

// JournalEnabled returns true unless the journal is explicitly disabled.
func (c *Config) JournalEnabled() bool {
	return c.Journal.Enabled == nil || *c.Journal.Enabled
}

// JournalPath returns the journal database path.
func (c *Config) JournalPath() string {
	if c.Journal.Path != "" {
		return c.Journal.Path
	}
	return filepath.Join(xdg.DataHome, appName, "journal.db")
}

// GetNotifications returns the notification settings with defaults applied.
func (c *Config) GetNotifications() Notifications {
	n := c.Notifications
	timeout := 5 * time.Second
	if n.TimeoutMS > 0 {
		timeout = time.Duration(n.TimeoutMS) * time.Millisecond
	}
	return Notifications{
		Enabled:    n.Enabled,
		NowPlaying: n.NowPlaying == nil || *n.NowPlaying,
		Errors:     n.Errors == nil || *n.Errors,
		Timeout:    timeout,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	switch c.Backend {
	case "", BackendMpv, BackendBeep:
	default:
		errs = append(errs, fmt.Errorf("backend: unknown backend %q", c.Backend))
	}
	if c.Player.ClampOffsetFromEnd != nil && *c.Player.ClampOffsetFromEnd < 0 {
		errs = append(errs, errors.New("player: clamp_offset_from_end must be non-negative"))
	}
	if c.Beep.StatusIntervalMS < 0 {
		errs = append(errs, errors.New("beep: status_interval_ms must be non-negative"))
	}
	if c.Notifications.TimeoutMS < 0 {
		errs = append(errs, errors.New("notifications: timeout_ms must be non-negative"))
	}
	switch c.Log.Level {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log: invalid level %q", c.Log.Level))
	}

	return errors.Join(errs...)
}
