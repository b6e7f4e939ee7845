package store

import (
	"strings"

	"github.com/google/uuid"
)

// NewFileID returns a fresh random file id.
func NewFileID() string {
	return uuid.NewString()
}

// ValidFileID reports whether id is a canonical file id.
func ValidFileID(id string) bool {
	id = strings.TrimSpace(id)
	if len(id) != 36 {
		return false
	}
	_, err := uuid.Parse(id)
	return err == nil
}
