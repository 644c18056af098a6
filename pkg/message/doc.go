// Package message implements the command-message framework (C6): a
// tagged, JSON round-trippable record with an idempotent Execute that
// reports success and any follow-on messages it produced. The bus that
// delivers messages (pkg/bus) guarantees at-least-once delivery; every
// Message implementation must make Execute safe to run more than once.
package message
