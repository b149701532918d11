package main

import (
	"errors"
	"strings"
)

// Store-level error taxonomy. Ownership failures, missing rows and protected
// default categories all collapse into errNotFound so a caller cannot probe
// which of the three it hit.
var (
	errNotFound     = errors.New("record not found")
	errConflict     = errors.New("name already exists")
	errInUse        = errors.New("category in use by expenses and cannot be deleted")
	errNameRequired = errors.New("category name is required")
)

// isUniqueConstraintError reports whether err came from a unique-constraint
// violation. String sniffing covers Postgres and the sqlite driver used in tests.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	s := err.Error()
	return strings.Contains(s, "duplicate key") ||
		strings.Contains(s, "unique constraint") ||
		strings.Contains(s, "UNIQUE constraint") ||
		strings.Contains(s, "already exists")
}
