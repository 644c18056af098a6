package storage

import "errors"

// ErrNotFound is returned by single-row lookups when the key is absent.
// Recipe/Job lookups in the purge cascade translate it to a nil result
// rather than propagating it, since a missing row there means "already
// purged by a previous delivery", not an error.
var ErrNotFound = errors.New("storage: not found")
