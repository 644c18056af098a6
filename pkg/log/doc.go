/*
Package log provides structured logging for Foreman using zerolog.

A single global logger is configured once via Init and specialized per
call site with the With* helpers, which attach the identifiers that
matter for tracing one execution, recipe, or purge cascade through the
logs: component, node ID, execution ID, recipe ID, source file ID.

	log.Init(log.Config{Level: log.InfoLevel, JSONOutput: true})
	execLog := log.WithExecutionID(exe.ID)
	execLog.Info().Str("task_id", t.ID()).Msg("task started")
*/
package log
