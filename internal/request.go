package internal

import (
	"github.com/google/uuid"
)

// RequestID identifies one served request in logs and traces.
type RequestID string

// GenerateRequestID returns a new random request identifier.
func GenerateRequestID() RequestID {
	return RequestID(uuid.NewString())
}

// String returns the identifier as a plain string.
func (id RequestID) String() string {
	return string(id)
}

// Short returns the first eight characters of the identifier, enough to
// correlate log lines without cluttering them.
func (id RequestID) Short() string {
	if len(id) < 8 {
		return string(id)
	}
	return string(id[:8])
}
