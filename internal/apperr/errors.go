// Package apperr holds sentinel errors shared across packages.
package apperr

import "errors"

// ErrNotFound is returned when a haul or recipe is not in the index.
var ErrNotFound = errors.New("not found")
