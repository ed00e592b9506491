// Package config provides configuration loading and management.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/sentinel-oversight/sentinel/internal/domain/rules"
)

const (
	// DefaultConfigDir is the directory name for sentinel configuration.
	DefaultConfigDir = ".sentinel"
	// DefaultConfigFile is the default config file name.
	DefaultConfigFile = "config.yaml"
	// DefaultDatasetFile is the dataset file written by init.
	DefaultDatasetFile = "dataset.json"
	// DefaultDatabaseFile is the SQLite database file name.
	DefaultDatabaseFile = "sentinel.db"
)

// Data sources.
const (
	SourceJSON   = "json"
	SourceSQLite = "sqlite"
)

// Config holds static configuration (read-only after load).
type Config struct {
	Data    DataConfig    `yaml:"data"`
	SQLite  SQLiteConfig  `yaml:"sqlite,omitempty"`
	Rules   RulesConfig   `yaml:"rules"`
	Engine  EngineConfig  `yaml:"engine"`
	Server  ServerConfig  `yaml:"server"`
	Logging LoggingConfig `yaml:"logging"`
}

// DataConfig selects where the entity dataset is read from.
type DataConfig struct {
	// Source is "json" for a dataset file or "sqlite" for the relational store.
	Source string `yaml:"source"`
	// Path is the JSON dataset file, relative to the project root.
	Path string `yaml:"path,omitempty"`
	// Watch reloads the snapshot when the dataset file changes (serve only).
	Watch bool `yaml:"watch,omitempty"`
}

// SQLiteConfig holds configuration for the SQLite relational database.
type SQLiteConfig struct {
	// Path is the file path to the SQLite database.
	Path string `yaml:"path,omitempty"`
}

// RulesConfig holds the rule thresholds.
type RulesConfig struct {
	ConflictMaxHops         int     `yaml:"conflict_max_hops"`
	CartelMinSharedTenders  int     `yaml:"cartel_min_shared_tenders"`
	CartelMinGroupSize      int     `yaml:"cartel_min_group_size"`
	CartelMinRotationWins   int     `yaml:"cartel_min_rotation_wins"`
	ShellWindowDays         int     `yaml:"shell_window_days"`
	ShellLargeContractValue float64 `yaml:"shell_large_contract_value"`
	PriceAnomalyRatio       float64 `yaml:"price_anomaly_ratio"`
	RushedMinWindowDays     int     `yaml:"rushed_min_window_days"`
}

// EngineConfig tunes the scoring engine.
type EngineConfig struct {
	// Workers bounds concurrent tender scoring; zero means one per CPU.
	Workers int `yaml:"workers"`
	// ScoreTimeout bounds a single request's scoring work.
	ScoreTimeout time.Duration `yaml:"score_timeout"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	ListenAddr     string   `yaml:"listen_addr"`
	AllowedOrigins []string `yaml:"allowed_origins,omitempty"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
	// Format is "json" or "console".
	Format string `yaml:"format"`
}

// Default returns a Config with default values.
func Default() *Config {
	th := rules.DefaultThresholds()
	return &Config{
		Data: DataConfig{
			Source: SourceJSON,
			Path:   filepath.Join(DefaultConfigDir, DefaultDatasetFile),
		},
		SQLite: SQLiteConfig{
			Path: filepath.Join(DefaultConfigDir, DefaultDatabaseFile),
		},
		Rules: RulesConfig{
			ConflictMaxHops:         th.ConflictMaxHops,
			CartelMinSharedTenders:  th.CartelMinSharedTenders,
			CartelMinGroupSize:      th.CartelMinGroupSize,
			CartelMinRotationWins:   th.CartelMinRotationWins,
			ShellWindowDays:         th.ShellWindowDays,
			ShellLargeContractValue: th.ShellLargeContractValue.InexactFloat64(),
			PriceAnomalyRatio:       th.PriceAnomalyRatio.InexactFloat64(),
			RushedMinWindowDays:     th.RushedMinWindowDays,
		},
		Engine: EngineConfig{
			ScoreTimeout: 30 * time.Second,
		},
		Server: ServerConfig{
			ListenAddr:     ":8000",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from the .sentinel directory in the given path.
func Load(basePath string) (*Config, error) {
	configFile := ConfigFilePath(basePath)

	data, err := os.ReadFile(configFile)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s (run 'sentinel init' first)", configFile)
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Start with defaults
	cfg := Default()

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	// Apply environment variable overrides
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if path := os.Getenv("SENTINEL_DATA_PATH"); path != "" {
		c.Data.Path = path
	}
	if level := os.Getenv("SENTINEL_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
	if addr := os.Getenv("SENTINEL_LISTEN_ADDR"); addr != "" {
		c.Server.ListenAddr = addr
	}
	if workers := os.Getenv("SENTINEL_WORKERS"); workers != "" {
		if n, err := strconv.Atoi(workers); err == nil {
			c.Engine.Workers = n
		}
	}
}

// Validate checks values that would make the engine misbehave.
func (c *Config) Validate() error {
	switch c.Data.Source {
	case SourceJSON:
		if c.Data.Path == "" {
			return fmt.Errorf("data.path is required for source %q", SourceJSON)
		}
	case SourceSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required for source %q", SourceSQLite)
		}
	default:
		return fmt.Errorf("unknown data.source %q (expected %s or %s)", c.Data.Source, SourceJSON, SourceSQLite)
	}

	r := c.Rules
	if r.ConflictMaxHops < 1 {
		return fmt.Errorf("rules.conflict_max_hops must be at least 1, got %d", r.ConflictMaxHops)
	}
	if r.CartelMinSharedTenders < 1 || r.CartelMinGroupSize < 2 {
		return fmt.Errorf("rules: cartel thresholds too small (shared=%d, group=%d)", r.CartelMinSharedTenders, r.CartelMinGroupSize)
	}
	if r.PriceAnomalyRatio <= 0 {
		return fmt.Errorf("rules.price_anomaly_ratio must be positive, got %v", r.PriceAnomalyRatio)
	}
	if c.Engine.Workers < 0 {
		return fmt.Errorf("engine.workers must not be negative, got %d", c.Engine.Workers)
	}
	return nil
}

// Thresholds converts the rules section to engine thresholds.
func (r RulesConfig) Thresholds() rules.Thresholds {
	return rules.Thresholds{
		ConflictMaxHops:         r.ConflictMaxHops,
		CartelMinSharedTenders:  r.CartelMinSharedTenders,
		CartelMinGroupSize:      r.CartelMinGroupSize,
		CartelMinRotationWins:   r.CartelMinRotationWins,
		ShellWindowDays:         r.ShellWindowDays,
		ShellLargeContractValue: decimal.NewFromFloat(r.ShellLargeContractValue),
		PriceAnomalyRatio:       decimal.NewFromFloat(r.PriceAnomalyRatio),
		RushedMinWindowDays:     r.RushedMinWindowDays,
	}
}

// ResolvePath makes a configured path absolute relative to basePath.
func ResolvePath(basePath, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(basePath, path)
}

// ConfigDir returns the path to the .sentinel config directory.
func ConfigDir(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir)
}

// ConfigFilePath returns the path to the config file.
func ConfigFilePath(basePath string) string {
	return filepath.Join(basePath, DefaultConfigDir, DefaultConfigFile)
}

// Exists checks if a sentinel config exists in the given path.
func Exists(basePath string) bool {
	_, err := os.Stat(ConfigFilePath(basePath))
	return err == nil
}
