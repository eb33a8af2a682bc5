// Package repository implements data access over database/sql for the
// booking engine.  Sentinel errors defined here let higher layers
// distinguish failure scenarios with errors.Is instead of matching on
// driver-specific errors.
package repository

import "errors"

// ErrNotFound is returned when a requested row does not exist.  The
// booking service translates it into its own NotFound errors and
// handlers ultimately render an HTTP 404.
var ErrNotFound = errors.New("not found")
