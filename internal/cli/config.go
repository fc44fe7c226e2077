package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/mesh-intelligence/caseload/internal/paths"
	"github.com/mesh-intelligence/caseload/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "CASELOAD"
)

// Config keys.
const (
	cfgKeyBaseURL          = "base_url"
	cfgKeyToken            = "token"
	cfgKeyTimeout          = "timeout"
	cfgKeyCacheWindow      = "cache_window"
	cfgKeyStatsCacheWindow = "stats_cache_window"
	cfgKeySnapshotBackend  = "snapshot_backend"
	cfgKeyDataDir          = "data_dir"
	cfgKeyDescriptors      = "descriptors"
	cfgKeyLogMode          = "log.mode"
	cfgKeyLogLevel         = "log.level"
	cfgKeyLogFile          = "log.file"
)

// defaultConfigYAML is written to config.yaml on first run.
const defaultConfigYAML = `# caseload CLI configuration
# Every key can also be set as CASELOAD_<KEY>, e.g. CASELOAD_BASE_URL.

# Shelter API root, including the /api prefix.
base_url: ""

# Bearer token. Prefer CASELOAD_TOKEN in a .env file next to this one.
# token:

# Per-request timeout; 0 means none.
timeout: 30s

# Cache freshness windows for list and statistics loads.
cache_window: 5m
stats_cache_window: 5m

# Where collection states are kept between runs: sqlite, memory or "".
snapshot_backend: sqlite

# Snapshot directory (optional; overridable by --data-dir).
# data_dir:

# Extra entity descriptors (YAML), merged over the built-in table.
# descriptors:

log:
  mode: production
  level: warn
  # file:
`

// loadConfig reads config.yaml from configDir with environment overrides.
// It creates the directory and a default config.yaml on first run. Dotenv
// files in configDir and the working directory are loaded into the
// environment first; variables already set win.
func loadConfig(configDir string) (*viper.Viper, error) {
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure config dir: %w", err)
	}
	if err := ensureDefaultConfigFile(configDir); err != nil {
		return nil, fmt.Errorf("ensure default config: %w", err)
	}
	if err := loadDotEnv(filepath.Join(configDir, paths.EnvFileName), paths.EnvFileName); err != nil {
		return nil, err
	}

	v := viper.New()
	v.SetDefault(cfgKeyTimeout, "30s")
	v.SetDefault(cfgKeyCacheWindow, types.DefaultCacheWindow.String())
	v.SetDefault(cfgKeyStatsCacheWindow, types.DefaultCacheWindow.String())
	v.SetDefault(cfgKeySnapshotBackend, types.SnapshotSQLite)
	v.SetDefault(cfgKeyLogMode, "production")
	v.SetDefault(cfgKeyLogLevel, "warn")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// ensureDefaultConfigFile creates config.yaml in configDir if missing.
func ensureDefaultConfigFile(configDir string) error {
	path := filepath.Join(configDir, paths.ConfigFileName)
	_, err := os.Stat(path)
	if err == nil {
		return nil
	}
	if !os.IsNotExist(err) {
		return fmt.Errorf("stat config file: %w", err)
	}
	return os.WriteFile(path, []byte(defaultConfigYAML), 0o644)
}

func loadDotEnv(files ...string) error {
	var existing []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load %s: %w", strings.Join(existing, ", "), err)
	}
	return nil
}

// sessionConfig builds the Attach config from v. dataDir is already
// resolved against flags and the environment.
func sessionConfig(v *viper.Viper, dataDir string) types.Config {
	return types.Config{
		BaseURL:          v.GetString(cfgKeyBaseURL),
		Token:            v.GetString(cfgKeyToken),
		Timeout:          v.GetDuration(cfgKeyTimeout),
		CacheWindow:      v.GetDuration(cfgKeyCacheWindow),
		StatsCacheWindow: v.GetDuration(cfgKeyStatsCacheWindow),
		SnapshotBackend:  v.GetString(cfgKeySnapshotBackend),
		DataDir:          dataDir,
	}
}
