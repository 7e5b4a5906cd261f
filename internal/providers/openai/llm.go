package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/androfit/agent/pkg/domain"
	"github.com/androfit/agent/pkg/ports"
)

// Chat implements ports.ChatModel via the chat completions endpoint.
type Chat struct {
	client *Client
	model  string
}

// NewChat creates a chat-completions backed model.
func NewChat(client *Client, model string) *Chat {
	return &Chat{client: client, model: model}
}

// Wire types for the chat completions API.

type chatMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content,omitempty"`
	Name       string         `json:"name,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
}

type wireToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

type wireTool struct {
	Type     string `json:"type"`
	Function struct {
		Name        string         `json:"name"`
		Description string         `json:"description,omitempty"`
		Parameters  map[string]any `json:"parameters,omitempty"`
	} `json:"function"`
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Tools    []wireTool    `json:"tools,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// Complete produces the next reply for the transcript, advertising tools
// when a tool source is configured.
func (c *Chat) Complete(ctx context.Context, transcript domain.Transcript, tools []ports.ToolDecl) (*ports.ChatReply, error) {
	payload := chatRequest{
		Model:    c.model,
		Messages: make([]chatMessage, 0, len(transcript.Messages)),
	}

	for _, msg := range transcript.Messages {
		wire := chatMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		}
		if msg.Role == domain.RoleTool {
			wire.ToolCallID = msg.ToolCallID
			wire.Name = msg.ToolName
		}
		if msg.Role == domain.RoleAssistant && msg.ToolCallID != "" {
			// Assistant message that requested a tool: replay the call so the
			// API accepts the following tool result.
			var call wireToolCall
			call.ID = msg.ToolCallID
			call.Type = "function"
			call.Function.Name = msg.ToolName
			call.Function.Arguments = msg.Content
			wire.Content = ""
			wire.ToolCalls = []wireToolCall{call}
		}
		payload.Messages = append(payload.Messages, wire)
	}

	for _, decl := range tools {
		var t wireTool
		t.Type = "function"
		t.Function.Name = decl.Name
		t.Function.Description = decl.Description
		t.Function.Parameters = decl.Schema
		payload.Tools = append(payload.Tools, t)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	resp, err := c.client.do(ctx, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost, c.client.url("/chat/completions"), bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	var out chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode chat response: %w", err)
	}
	if len(out.Choices) == 0 {
		return nil, fmt.Errorf("chat response contained no choices")
	}

	msg := out.Choices[0].Message
	reply := &ports.ChatReply{Text: msg.Content}
	for _, call := range msg.ToolCalls {
		reply.ToolCalls = append(reply.ToolCalls, ports.ToolRequest{
			CallID:    call.ID,
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		})
	}

	return reply, nil
}
