// Package attribution decides node back-pressure after a task failure.
// See §4.5: a SYSTEM error, an exhausted retry budget, and a node error
// rate at or above the configured threshold together pause the node.
package attribution
