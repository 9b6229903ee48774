package core

import "github.com/google/uuid"

// NewID generates a new unique identifier for sessions, tool invocations and
// stored records.
func NewID() string { return uuid.NewString() }
