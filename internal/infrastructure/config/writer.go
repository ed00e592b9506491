package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigYAML is the default configuration content.
const DefaultConfigYAML = `# Sentinel Configuration

data:
  source: json              # json | sqlite
  path: .sentinel/dataset.json
  watch: false              # reload on dataset changes while serving

sqlite:
  path: .sentinel/sentinel.db

rules:
  conflict_max_hops: 2
  cartel_min_shared_tenders: 2
  cartel_min_group_size: 3
  cartel_min_rotation_wins: 2
  shell_window_days: 30
  shell_large_contract_value: 10000000
  price_anomaly_ratio: 1.5
  rushed_min_window_days: 7

engine:
  workers: 0                # 0 = one per CPU
  score_timeout: 30s

server:
  listen_addr: ":8000"      # or set SENTINEL_LISTEN_ADDR
  allowed_origins:
    - http://localhost:3000
    - http://localhost:5173

logging:
  level: info               # or set SENTINEL_LOG_LEVEL
  format: console           # console | json
`

// WriteDefault creates the .sentinel directory and writes a default config file.
func WriteDefault(basePath string) error {
	configDir := ConfigDir(basePath)
	configFile := ConfigFilePath(basePath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf("config file already exists: %s", configFile)
	}

	if err := os.WriteFile(configFile, []byte(DefaultConfigYAML), 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// Write writes the given config to the config file.
func Write(basePath string, cfg *Config) error {
	configDir := ConfigDir(basePath)

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(filepath.Join(configDir, DefaultConfigFile), data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}
