package config

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/rover/internal/errors"
	"github.com/vango-dev/rover/pkg/reactive"
)

const (
	// ConfigFileName is the name of the configuration file.
	ConfigFileName = "rover.yaml"

	// DefaultLogLevel is the default minimum log level.
	DefaultLogLevel = "info"

	// DefaultLogFormat is the default log handler format.
	DefaultLogFormat = "text"

	// DefaultMetricsNamespace is the default Prometheus namespace.
	DefaultMetricsNamespace = "rover"

	// DefaultDevtoolsAddr is the default devtools listen address.
	DefaultDevtoolsAddr = "localhost:7777"

	// DefaultSnapshotName is the default persisted snapshot name.
	DefaultSnapshotName = "default"
)

// Config represents rover.yaml.
type Config struct {
	// Log configures structured logging.
	Log LogConfig `yaml:"log"`

	// Runtime configures the reactive runtime.
	Runtime RuntimeConfig `yaml:"runtime"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `yaml:"metrics"`

	// Devtools configures the inspector server.
	Devtools DevtoolsConfig `yaml:"devtools"`

	// Persist configures snapshot persistence.
	Persist PersistConfig `yaml:"persist"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// Format is "text" or "json".
	Format string `yaml:"format,omitempty"`
}

// RuntimeConfig contains reactive runtime settings.
type RuntimeConfig struct {
	// MaxEffectRuns caps effect runs per batch drain. 0 disables the cap.
	MaxEffectRuns int `yaml:"maxEffectRuns"`

	// Debug forces debug logging.
	Debug bool `yaml:"debug,omitempty"`
}

// MetricsConfig contains metrics settings.
type MetricsConfig struct {
	// Enabled registers runtime metrics.
	Enabled bool `yaml:"enabled,omitempty"`

	// Namespace is the Prometheus namespace.
	Namespace string `yaml:"namespace,omitempty"`
}

// DevtoolsConfig contains inspector server settings.
type DevtoolsConfig struct {
	// Enabled starts the inspector server.
	Enabled bool `yaml:"enabled,omitempty"`

	// Addr is the listen address.
	Addr string `yaml:"addr,omitempty"`
}

// PersistConfig contains snapshot persistence settings.
type PersistConfig struct {
	// Path is the SQLite database file, relative to the config file.
	// Empty disables persistence.
	Path string `yaml:"path,omitempty"`

	// Snapshot is the name snapshots are saved under.
	Snapshot string `yaml:"snapshot,omitempty"`

	// Keep is how many snapshots to retain per name. 0 keeps all.
	Keep int `yaml:"keep,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Runtime: RuntimeConfig{
			MaxEffectRuns: reactive.DefaultMaxEffectRuns,
		},
		Metrics: MetricsConfig{
			Namespace: DefaultMetricsNamespace,
		},
		Devtools: DevtoolsConfig{
			Addr: DefaultDevtoolsAddr,
		},
		Persist: PersistConfig{
			Snapshot: DefaultSnapshotName,
		},
	}
}

// Load reads rover.yaml from the specified directory.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads configuration from the specified file path. Unknown keys
// are rejected.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("R062").
				WithDetail("No " + ConfigFileName + " found in " + filepath.Dir(path))
		}
		return nil, errors.New("R060").Wrap(err)
	}

	cfg := New()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && err != io.EOF {
		return nil, errors.New("R060").
			WithDetail("Failed to parse " + filepath.Base(path) + ": " + err.Error())
	}

	cfg.configPath = path
	cfg.applyDefaults()
	return cfg, nil
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to the specified path.
func (c *Config) SaveTo(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.New("R060").Wrap(err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("R060").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return "."
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in values left empty in the file.
func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultMetricsNamespace
	}
	if c.Devtools.Addr == "" {
		c.Devtools.Addr = DefaultDevtoolsAddr
	}
	if c.Persist.Snapshot == "" {
		c.Persist.Snapshot = DefaultSnapshotName
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return errors.New("R061").
			WithDetail(fmt.Sprintf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.Runtime.MaxEffectRuns < 0 {
		return errors.New("R061").
			WithDetail("runtime.maxEffectRuns must not be negative")
	}
	if c.Persist.Keep < 0 {
		return errors.New("R061").
			WithDetail("persist.keep must not be negative")
	}
	return nil
}

// LogLevel parses Log.Level. Runtime.Debug forces debug.
func (c *Config) LogLevel() (slog.Level, error) {
	if c.Runtime.Debug {
		return slog.LevelDebug, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.Log.Level))); err != nil {
		return 0, errors.New("R061").
			WithDetail(fmt.Sprintf("log.level %q: use debug, info, warn or error", c.Log.Level))
	}
	return level, nil
}

// NewLogger builds the logger described by the config, writing to w.
func (c *Config) NewLogger(w io.Writer) (*slog.Logger, error) {
	level, err := c.LogLevel()
	if err != nil {
		return nil, err
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	}
	return slog.New(slog.NewTextHandler(w, opts)), nil
}

// PersistPath returns the database path resolved against the config
// directory, or "" when persistence is off.
func (c *Config) PersistPath() string {
	if c.Persist.Path == "" || c.Persist.Path == ":memory:" || filepath.IsAbs(c.Persist.Path) {
		return c.Persist.Path
	}
	return filepath.Join(c.Dir(), c.Persist.Path)
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}

// FindProjectRoot walks up directories to find the one holding rover.yaml.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}
	for {
		if Exists(dir) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("R062").
				WithDetail("No " + ConfigFileName + " found in " + startDir + " or any parent directory")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads rover.yaml from the working directory or its
// nearest parent that has one. Without any, it returns the defaults.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	root, err := FindProjectRoot(wd)
	if err != nil {
		return New(), nil
	}
	return Load(root)
}
