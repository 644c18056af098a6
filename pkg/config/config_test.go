package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTmpConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	p := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	return p
}

func TestLoadValidConfig(t *testing.T) {
	cfg, err := Load(writeTmpConfig(t, `
foreman:
  node:
    hostname: "test-host"
  storage:
    data_dir: "/tmp/foreman-data"
  bus:
    max_workers: 8
  scheduler:
    max_node_errors: 3
    node_error_period_minutes: 45
    execution_timeout: "10m"
  log:
    level: "debug"
    format: "json"
`))
	require.NoError(t, err)

	assert.Equal(t, "test-host", cfg.Node.Hostname)
	assert.Equal(t, "test-host", cfg.Node.ID, "node id falls back to hostname")
	assert.Equal(t, "/tmp/foreman-data", cfg.Storage.DataDir)
	assert.Equal(t, uint(8), cfg.Bus.MaxWorkers)
	assert.Equal(t, 3, cfg.Scheduler.MaxNodeErrors)
	assert.Equal(t, 45, cfg.Scheduler.NodeErrorPeriodMinutes)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeTmpConfig(t, `
foreman:
  log:
    level: "info"
    format: "json"
`))
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/foreman/data", cfg.Storage.DataDir)
	assert.Equal(t, "/var/lib/foreman/workspaces", cfg.Workspace.BasePath)
	assert.Equal(t, 60, cfg.Scheduler.NodeErrorPeriodMinutes)
	assert.Equal(t, 5, cfg.Scheduler.MaxNodeErrors)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9090", cfg.Metrics.Listen)
	assert.Equal(t, uint(4), cfg.Bus.MaxWorkers, "zero max_workers resolves to the default of 4")
}

func TestLoadRejectsInvalidLogLevel(t *testing.T) {
	_, err := Load(writeTmpConfig(t, `
foreman:
  log:
    level: "verbose"
    format: "json"
`))
	assert.Error(t, err)
}

func TestLoadRejectsInvalidLogFormat(t *testing.T) {
	_, err := Load(writeTmpConfig(t, `
foreman:
  log:
    level: "info"
    format: "xml"
`))
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}

func TestSchedulerDurationsDefaultOnEmpty(t *testing.T) {
	cfg := SchedulerConfig{}
	assert.Equal(t, 30*time.Second, cfg.NodeHeartbeatTimeoutDuration())
	assert.Equal(t, 30*time.Minute, cfg.ExecutionTimeoutDuration())
}

func TestSchedulerDurationsParseConfiguredValue(t *testing.T) {
	cfg := SchedulerConfig{NodeHeartbeatTimeout: "15s", ExecutionTimeout: "5m"}
	assert.Equal(t, 15*time.Second, cfg.NodeHeartbeatTimeoutDuration())
	assert.Equal(t, 5*time.Minute, cfg.ExecutionTimeoutDuration())
}

func TestSchedulerDurationFallsBackOnMalformedValue(t *testing.T) {
	cfg := SchedulerConfig{NodeHeartbeatTimeout: "not-a-duration"}
	assert.Equal(t, 30*time.Second, cfg.NodeHeartbeatTimeoutDuration())
}
