package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventStepEnter   EventType = "step_enter"
	EventStepLeave   EventType = "step_leave"
	EventBackendCall EventType = "backend_call"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// StepEvent represents entry or exit from a step.
type StepEvent struct {
	EventBase
	Step Step `json:"step"`
}

// CallEvent represents a resolved backend call.
type CallEvent struct {
	EventBase
	Step     Step          `json:"step"`
	Op       string        `json:"op"`
	Kind     ErrorKind     `json:"kind,omitempty"` // empty on success
	Duration time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnStepEnter   func(context.Context, *StepEvent)
	OnStepLeave   func(context.Context, *StepEvent)
	OnBackendCall func(context.Context, *CallEvent)
}

// Notice is the structured event handed to the session notifier and the
// diagnostics collaborator.
type Notice struct {
	ID                     string `json:"id"`
	Error                  error  `json:"-"`
	TechDescription        string `json:"techDescription"`
	ToNotify               bool   `json:"toNotify"`
	Blocking               bool   `json:"blocking"`
	DisplayableTitle       string `json:"displayableTitle,omitempty"`
	DisplayableDescription string `json:"displayableDescription,omitempty"`
}

// AnalyticsEvent is emitted at major transitions. It never gates control flow.
type AnalyticsEvent struct {
	Name    string         `json:"eventName"`
	Payload map[string]any `json:"payload"`
}
