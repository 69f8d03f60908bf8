// Package database holds the error contract shared by all persistence
// adapters.
package database

import "errors"

// ErrConflict reports that a version-checked write found a different version
// than the one read, meaning another party modified the row in between.
var ErrConflict = errors.New("optimistic lock conflict")

// ErrNotFound reports that a requested record does not exist.
var ErrNotFound = errors.New("record not found")
