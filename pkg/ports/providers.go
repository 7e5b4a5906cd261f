package ports

import (
	"context"

	"github.com/androfit/agent/pkg/domain"
)

// Recognizer converts a speech segment into text (STT).
type Recognizer interface {
	Recognize(ctx context.Context, segment domain.Segment) (string, error)
}

// ToolDecl describes a callable tool advertised to the chat model.
type ToolDecl struct {
	Name        string
	Description string
	// Schema is the JSON Schema of the tool's input object.
	Schema map[string]any
}

// ToolRequest is a tool invocation the model asked for.
type ToolRequest struct {
	CallID string
	Name   string
	// Arguments is the raw JSON argument object.
	Arguments string
}

// ChatReply is the model's answer to a Complete call: either text, or one or
// more tool invocations to satisfy first.
type ChatReply struct {
	Text      string
	ToolCalls []ToolRequest
}

// ChatModel produces the agent's next reply from the conversation so far (LLM).
type ChatModel interface {
	Complete(ctx context.Context, transcript domain.Transcript, tools []ToolDecl) (*ChatReply, error)
}

// Synthesizer converts reply text into speech audio (TTS).
type Synthesizer interface {
	Synthesize(ctx context.Context, text string) (domain.Segment, error)
}

// VoiceDetector classifies audio frames as speech or silence (VAD).
type VoiceDetector interface {
	// IsSpeech reports whether the frame contains voice activity.
	IsSpeech(frame domain.Frame) bool
}

// TurnDetector estimates whether the user has finished their utterance.
type TurnDetector interface {
	// EndOfTurn returns the probability, in [0, 1], that the transcribed
	// text so far is a complete utterance.
	EndOfTurn(ctx context.Context, text string) float64
}
