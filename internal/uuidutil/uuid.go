// Package uuidutil wraps the uuid helpers used when validating
// user-supplied identifiers.
package uuidutil

import (
	"github.com/google/uuid"
)

// Parse safely parses a string into a UUID with error handling
func Parse(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// IsValid checks if a string is a valid UUID format
func IsValid(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
