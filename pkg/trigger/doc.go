// Package trigger implements the ingest trigger condition (C5): the
// four-clause predicate that decides whether a newly ingested source
// file should start a recipe. Evaluating when to run the check against
// incoming source files is external to this package; only the predicate
// itself is implemented.
package trigger
