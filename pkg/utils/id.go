package utils

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// JobIDPrefix marks identifiers of lowering jobs.
const JobIDPrefix = "job-"

// GenerateJobID returns a time-ordered job identifier, so that listing jobs
// by ID lists them in submission order.
func GenerateJobID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// Fall back to a random identifier
		id = uuid.New()
	}
	return JobIDPrefix + id.String()
}

// ParseJobID validates a job identifier and returns its UUID.
func ParseJobID(s string) (uuid.UUID, error) {
	if !strings.HasPrefix(s, JobIDPrefix) {
		return uuid.Nil, fmt.Errorf("job id %q: missing %q prefix", s, JobIDPrefix)
	}
	id, err := uuid.Parse(strings.TrimPrefix(s, JobIDPrefix))
	if err != nil {
		return uuid.Nil, fmt.Errorf("job id %q: %w", s, err)
	}
	return id, nil
}

// GenerateTraceID generates a trace ID (16 bytes hex-encoded)
func GenerateTraceID() string {
	id := uuid.New()
	return strings.ReplaceAll(id.String(), "-", "")
}
