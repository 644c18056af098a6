/*
Package config loads Foreman's static configuration, grounded on the
viper-based loader pattern used across the retrieved example pack
(root-key YAML wrapper, SetEnvKeyReplacer + AutomaticEnv for env
overrides, SetDefault calls, ValidateAndApplyDefaults for cross-field
checks and hostname resolution).

The YAML root key is `foreman:`; environment variables use the
FOREMAN_ prefix with underscores for nesting (FOREMAN_LOG_LEVEL,
FOREMAN_SCHEDULER_MAX_NODE_ERRORS). The two duration settings (node
heartbeat timeout, execution timeout) are stored as strings in YAML and
parsed on demand via NodeHeartbeatTimeoutDuration/ExecutionTimeoutDuration,
defaulting safely on an empty or malformed value rather than failing
Load.

GlobalConfig.Scheduler's NodeErrorPeriodMinutes/MaxNodeErrors
correspond to types.SchedulerConfig's NodeErrorPeriod/MaxNodeErrors
fields (in minutes, per pkg/attribution's contract). cmd/foreman does
not copy them into that row: pkg/attribution reads the row persisted in
storage (set with BoltStore.SetSchedulerConfig), and pkg/reconciler
uses its own built-in 30s heartbeat and 30m execution timeouts, so the
Scheduler section is loaded, validated and printed by `config validate` but
does not change the scheduler's behaviour.
*/
package config
