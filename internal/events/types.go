// Package events converts raw transcript records into canonical activity events.
package events

import "time"

// EventType classifies an activity event.
type EventType string

const (
	EventToolUse      EventType = "tool_use"
	EventThinking     EventType = "thinking"
	EventText         EventType = "text"
	EventBashProgress EventType = "bash_progress"
	EventMCPProgress  EventType = "mcp_progress"
	EventUser         EventType = "user"
)

// ActivityEvent is the canonical typed unit derived from one raw record.
// Events are ephemeral: they drive the engines and are never persisted.
type ActivityEvent struct {
	Type   EventType
	Tool   string
	Detail string
	// File is the full path for file-operating tools. Detail carries only
	// the shortened display form.
	File      string
	Tokens    int
	Timestamp time.Time
}
