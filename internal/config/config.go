// Package config holds the settings of the origamictl tool. Values come from
// defaults, an optional YAML file and ORIGAMICORE_ environment variables, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"origamicore/internal/blob"
	"origamicore/internal/core"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "ORIGAMICORE"

// LogConfig configures the slog handler of the CLI.
type LogConfig struct {
	// debug, info, warn or error
	Level string `mapstructure:"level"`
	// text or json
	Format string `mapstructure:"format"`
}

// StorageConfig selects the document store.
type StorageConfig struct {
	Driver      string `mapstructure:"driver"`
	SQLitePath  string `mapstructure:"sqlite_path"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

// ObservabilityConfig selects the metrics and trace sinks.
type ObservabilityConfig struct {
	// none, expvar or prometheus
	Metrics string `mapstructure:"metrics"`
	// file receiving Prometheus text exposition after each command
	MetricsFile string `mapstructure:"metrics_file"`
	// file receiving JSON lines spans; empty disables tracing
	TraceFile string `mapstructure:"trace_file"`
}

// Config is the root settings struct.
type Config struct {
	Log           LogConfig           `mapstructure:"log"`
	Storage       StorageConfig       `mapstructure:"storage"`
	Blob          blob.Config         `mapstructure:"blob"`
	Observability ObservabilityConfig `mapstructure:"observability"`
}

var defaults = map[string]any{
	"log.level":                  "info",
	"log.format":                 "text",
	"storage.driver":             string(core.StorageSQLite),
	"storage.sqlite_path":        "origamicore.db",
	"storage.postgres_dsn":       "",
	"blob.driver":                string(blob.DriverFilesystem),
	"blob.fs_root":               "./blobdata",
	"blob.s3.bucket":             "",
	"blob.s3.region":             "",
	"blob.s3.endpoint":           "",
	"blob.s3.prefix":             "",
	"blob.s3.path_style":         false,
	"blob.s3.access_key_id":      "",
	"blob.s3.secret_access_key":  "",
	"blob.s3.session_token":      "",
	"observability.metrics":      "none",
	"observability.metrics_file": "",
	"observability.trace_file":   "",
}

// Storage keys keep the short variable names shared with the storage factory.
var envAliases = map[string]string{
	"storage.sqlite_path":  EnvPrefix + "_SQLITE_PATH",
	"storage.postgres_dsn": EnvPrefix + "_POSTGRES_DSN",
}

// New returns a viper instance carrying the defaults and the environment
// bindings. Callers may bind flags on it before calling Load.
func New() *viper.Viper {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for key, env := range envAliases {
		_ = v.BindEnv(key, env)
	}
	return v
}

// Load reads file into v, when given, and decodes the result. Without a file
// an origamicore.yaml in the working directory is used if present.
func Load(v *viper.Viper, file string) (Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("origamicore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		var missing viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &missing) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unknown enumerated values.
func (c Config) Validate() error {
	if _, err := c.Log.SlogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	switch core.StorageDriver(c.Storage.Driver) {
	case core.StorageMemory, core.StorageSQLite, core.StoragePostgres:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	switch c.Blob.Driver {
	case blob.DriverFilesystem, blob.DriverMemory, blob.DriverS3:
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	switch c.Observability.Metrics {
	case "none", "expvar", "prometheus":
	default:
		return fmt.Errorf("unknown metrics backend %q", c.Observability.Metrics)
	}
	return nil
}

// SlogLevel parses Level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log level %q: %w", l.Level, err)
	}
	return level, nil
}

// StorageConfig converts the storage section for the store factory.
func (c Config) StorageConfig() core.StorageConfig {
	return core.StorageConfig{
		Driver:      core.StorageDriver(c.Storage.Driver),
		SQLitePath:  c.Storage.SQLitePath,
		PostgresDSN: c.Storage.PostgresDSN,
	}
}
