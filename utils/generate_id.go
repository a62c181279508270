package utils

import (
	"github.com/google/uuid"
)

// GenerateUserID returns a new unique user identifier.
func GenerateUserID() string {
	return uuid.New().String()
}

// GenerateNoteID returns a new unique note identifier.
func GenerateNoteID() string {
	return uuid.New().String()
}

// GenerateSessionID returns a new unique session identifier.
func GenerateSessionID() string {
	return uuid.New().String()
}
