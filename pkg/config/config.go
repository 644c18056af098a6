// Package config handles global configuration loading using viper.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// GlobalConfig is the top-level static configuration, mapping to the
// `foreman:` root key in YAML.
type GlobalConfig struct {
	Node      NodeConfig      `mapstructure:"node"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Bus       BusConfig       `mapstructure:"bus"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

// NodeConfig identifies this process within the cluster.
type NodeConfig struct {
	ID       string `mapstructure:"id"`       // empty = Hostname
	Hostname string `mapstructure:"hostname"` // empty = os.Hostname()
}

// StorageConfig configures the BoltDB-backed store.
type StorageConfig struct {
	DataDir string `mapstructure:"data_dir"`
}

// WorkspaceConfig configures the local-disk product file store.
type WorkspaceConfig struct {
	BasePath string `mapstructure:"base_path"`
}

// BusConfig configures the at-least-once command bus.
type BusConfig struct {
	MaxWorkers uint `mapstructure:"max_workers"` // 0 = 4
}

// SchedulerConfig holds the node back-pressure thresholds (§4.5 of the
// attribution contract) and the reconciler's failure-detection windows.
// They are loaded and validated here; cmd/foreman does not pass them on
// to pkg/attribution or pkg/reconciler (see the package doc).
type SchedulerConfig struct {
	NodeErrorPeriodMinutes int    `mapstructure:"node_error_period_minutes"`
	MaxNodeErrors          int    `mapstructure:"max_node_errors"`
	NodeHeartbeatTimeout   string `mapstructure:"node_heartbeat_timeout"`
	ExecutionTimeout       string `mapstructure:"execution_timeout"`
}

// NodeHeartbeatTimeoutDuration parses NodeHeartbeatTimeout, defaulting to
// 30s on an empty or malformed value.
func (c SchedulerConfig) NodeHeartbeatTimeoutDuration() time.Duration {
	return parseDurationOrDefault(c.NodeHeartbeatTimeout, 30*time.Second)
}

// ExecutionTimeoutDuration parses ExecutionTimeout, defaulting to 30m on
// an empty or malformed value.
func (c SchedulerConfig) ExecutionTimeoutDuration() time.Duration {
	return parseDurationOrDefault(c.ExecutionTimeout, 30*time.Minute)
}

func parseDurationOrDefault(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// MetricsConfig controls the Prometheus/health HTTP listener.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Listen  string `mapstructure:"listen"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug / info / warn / error
	Format string `mapstructure:"format"` // json / text
}

// configRoot is the top-level wrapper matching the YAML structure
// `foreman: ...`.
type configRoot struct {
	Foreman GlobalConfig `mapstructure:"foreman"`
}

// Load reads configuration from path, applying defaults and
// FOREMAN_-prefixed environment variable overrides (e.g.
// FOREMAN_LOG_LEVEL overrides foreman.log.level).
func Load(path string) (*GlobalConfig, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	var root configRoot
	if err := v.Unmarshal(&root); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg := root.Foreman

	if err := cfg.ValidateAndApplyDefaults(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("foreman.storage.data_dir", "/var/lib/foreman/data")
	v.SetDefault("foreman.workspace.base_path", "/var/lib/foreman/workspaces")

	v.SetDefault("foreman.bus.max_workers", 0)

	v.SetDefault("foreman.scheduler.node_error_period_minutes", 60)
	v.SetDefault("foreman.scheduler.max_node_errors", 5)
	v.SetDefault("foreman.scheduler.node_heartbeat_timeout", "30s")
	v.SetDefault("foreman.scheduler.execution_timeout", "30m")

	v.SetDefault("foreman.metrics.enabled", true)
	v.SetDefault("foreman.metrics.listen", ":9090")

	v.SetDefault("foreman.log.level", "info")
	v.SetDefault("foreman.log.format", "json")
}

// ValidateAndApplyDefaults validates configuration and resolves the node
// hostname when left empty.
func (cfg *GlobalConfig) ValidateAndApplyDefaults() error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Log.Level] {
		return fmt.Errorf("invalid log level: %s (must be debug/info/warn/error)", cfg.Log.Level)
	}
	if cfg.Log.Format != "json" && cfg.Log.Format != "text" {
		return fmt.Errorf("invalid log format: %s (must be json/text)", cfg.Log.Format)
	}

	if cfg.Node.Hostname == "" {
		hostname, err := os.Hostname()
		if err != nil {
			return fmt.Errorf("failed to get hostname: %w", err)
		}
		cfg.Node.Hostname = hostname
	}
	if cfg.Node.ID == "" {
		cfg.Node.ID = cfg.Node.Hostname
	}

	if cfg.Scheduler.MaxNodeErrors < 0 {
		return fmt.Errorf("scheduler.max_node_errors must be >= 0")
	}
	if cfg.Bus.MaxWorkers == 0 {
		cfg.Bus.MaxWorkers = 4
	}

	return nil
}
