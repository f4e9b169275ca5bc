package output

import "time"

type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

type EventName string

const (
	EventRunStarted       EventName = "run_started"
	EventFileProcessed    EventName = "file_processed"
	EventRetryScheduled   EventName = "retry_scheduled"
	EventProviderSwitched EventName = "provider_switched"
	EventProgress         EventName = "progress"
	EventRunAborted       EventName = "run_aborted"
	EventRunFinished      EventName = "run_finished"
)

type Event struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Event     EventName      `json:"event"`
	RunID     string         `json:"run_id,omitempty"`
	Path      string         `json:"path,omitempty"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
}
