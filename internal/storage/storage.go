package storage

import "errors"

// ErrNotFound is returned by every lookup when no record matches.
var ErrNotFound = errors.New("record not found")
