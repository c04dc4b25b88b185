package core

import "github.com/google/uuid"

// NewRunID returns a time-ordered UUID (v7) identifying one worker run, so
// log lines from successive restarts sort by run.
func NewRunID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
