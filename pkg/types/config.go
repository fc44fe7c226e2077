package types

import (
	"errors"
	"net/url"
	"time"
)

// Config holds API and cache parameters for Session.Attach.
type Config struct {
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Token   string        `json:"token,omitempty" yaml:"token,omitempty"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`

	// CacheWindow and StatsCacheWindow are the session defaults; descriptors
	// may override them per entity type.
	CacheWindow      time.Duration `json:"cache_window,omitempty" yaml:"cache_window,omitempty"`
	StatsCacheWindow time.Duration `json:"stats_cache_window,omitempty" yaml:"stats_cache_window,omitempty"`

	// SnapshotBackend selects where collection states are persisted between
	// runs: "" (none), "memory" or "sqlite".
	SnapshotBackend string `json:"snapshot_backend,omitempty" yaml:"snapshot_backend,omitempty"`
	DataDir         string `json:"data_dir,omitempty" yaml:"data_dir,omitempty"`
}

// DefaultCacheWindow is the freshness window used when none is configured.
const DefaultCacheWindow = 5 * time.Minute

// Supported snapshot backends.
const (
	SnapshotNone   = ""
	SnapshotMemory = "memory"
	SnapshotSQLite = "sqlite"
)

// Config validation errors.
var (
	ErrBaseURLEmpty           = errors.New("base URL must not be empty")
	ErrBaseURLInvalid         = errors.New("base URL must be an absolute http(s) URL")
	ErrTimeoutInvalid         = errors.New("timeout must not be negative")
	ErrCacheWindowInvalid     = errors.New("cache window must not be negative")
	ErrSnapshotBackendUnknown = errors.New("unknown snapshot backend")
	ErrDataDirEmpty           = errors.New("data dir must be set for the sqlite snapshot backend")
)

var knownSnapshotBackends = map[string]bool{
	SnapshotNone:   true,
	SnapshotMemory: true,
	SnapshotSQLite: true,
}

// Validate checks that the Config is well-formed. It returns a sentinel error
// from this package on failure.
func (c Config) Validate() error {
	if c.BaseURL == "" {
		return ErrBaseURLEmpty
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return ErrBaseURLInvalid
	}
	if c.Timeout < 0 {
		return ErrTimeoutInvalid
	}
	if c.CacheWindow < 0 || c.StatsCacheWindow < 0 {
		return ErrCacheWindowInvalid
	}
	if !knownSnapshotBackends[c.SnapshotBackend] {
		return ErrSnapshotBackendUnknown
	}
	if c.SnapshotBackend == SnapshotSQLite && c.DataDir == "" {
		return ErrDataDirEmpty
	}
	return nil
}

// ListWindow returns the configured list cache window or the default.
func (c Config) ListWindow() time.Duration {
	if c.CacheWindow > 0 {
		return c.CacheWindow
	}
	return DefaultCacheWindow
}

// StatsWindow returns the configured statistics cache window or the default.
func (c Config) StatsWindow() time.Duration {
	if c.StatsCacheWindow > 0 {
		return c.StatsCacheWindow
	}
	return DefaultCacheWindow
}
