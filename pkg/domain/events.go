package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventUserTurn    EventType = "user_turn"
	EventAgentReply  EventType = "agent_reply"
	EventToolCall    EventType = "tool_call"
	EventToolReturn  EventType = "tool_return"
	EventStateChange EventType = "state_change"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	SessionID string    `json:"session_id"`
}

// TurnEvent represents a completed user utterance or an agent reply.
type TurnEvent struct {
	EventBase
	Text string `json:"text"`
}

// ToolEvent represents a tool invocation requested by the model.
type ToolEvent struct {
	EventBase
	ToolName string `json:"tool_name"`
	Input    string `json:"input,omitempty"`
	Output   string `json:"output,omitempty"`
	IsError  bool   `json:"is_error,omitempty"`
}

// StateEvent represents a session status transition.
type StateEvent struct {
	EventBase
	From SessionStatus `json:"from"`
	To   SessionStatus `json:"to"`
}

// SessionHooks defines callbacks for session observability. All hooks are
// optional and invoked synchronously on the session goroutine.
type SessionHooks struct {
	OnUserTurn    func(context.Context, *TurnEvent)
	OnAgentReply  func(context.Context, *TurnEvent)
	OnToolCall    func(context.Context, *ToolEvent)
	OnToolReturn  func(context.Context, *ToolEvent)
	OnStateChange func(context.Context, *StateEvent)
}
