package observability

import "github.com/google/uuid"

// NewReplayID returns an identifier that ties the log lines of one tool call together.
func NewReplayID() string {
	return uuid.NewString()
}
