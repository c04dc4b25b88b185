package core

import (
	"fmt"
	"time"
)

// State is a lifecycle state of the heartbeat worker.
type State int32

const (
	StateStarting State = iota
	StateValidating
	StateIdle
	StateProcessing
	StateShuttingDown
	StateTerminated
)

var stateNames = [...]string{
	StateStarting:     "STARTING",
	StateValidating:   "VALIDATING",
	StateIdle:         "IDLE",
	StateProcessing:   "PROCESSING",
	StateShuttingDown: "SHUTTING_DOWN",
	StateTerminated:   "TERMINATED",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int32(s))
	}
	return stateNames[s]
}

func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *State) UnmarshalText(text []byte) error {
	for i, name := range stateNames {
		if name == string(text) {
			*s = State(i)
			return nil
		}
	}
	return fmt.Errorf("unknown worker state %q", text)
}

// Serving is true once the heartbeat loop is running.
func (s State) Serving() bool {
	return s == StateIdle || s == StateProcessing
}

// Status is a point-in-time view of the worker for the ops surface.
type Status struct {
	Worker        string     `json:"worker"`
	RunID         string     `json:"run_id"`
	State         State      `json:"state"`
	Database      string     `json:"database"`
	Schema        string     `json:"schema"`
	PrecisionMs   int        `json:"precision_ms"`
	StartedAt     time.Time  `json:"started_at"`
	ValidatedAt   *time.Time `json:"validated_at,omitempty"`
	LastHeartbeat *time.Time `json:"last_heartbeat,omitempty"`
	Heartbeats    uint64     `json:"heartbeats"`
	Reloads       uint64     `json:"reloads"`
}
