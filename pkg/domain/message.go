package domain

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is a single conversation entry.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`

	// ToolName and ToolCallID are set for Role == RoleTool entries, and for
	// assistant messages that requested a tool invocation.
	ToolName   string `json:"tool_name,omitempty"`
	ToolCallID string `json:"tool_call_id,omitempty"`

	// At is when the message was produced. Zero for synthetic entries
	// (e.g. the system prompt).
	At time.Time `json:"at,omitempty"`
}

// Transcript is the ordered conversation history of a session.
type Transcript struct {
	Messages []Message `json:"messages"`
}

// Append adds a message to the transcript.
func (t *Transcript) Append(msg Message) {
	t.Messages = append(t.Messages, msg)
}

// Last returns the most recent message, or nil if the transcript is empty.
func (t *Transcript) Last() *Message {
	if len(t.Messages) == 0 {
		return nil
	}
	return &t.Messages[len(t.Messages)-1]
}

// Len returns the number of messages in the transcript.
func (t *Transcript) Len() int {
	return len(t.Messages)
}
