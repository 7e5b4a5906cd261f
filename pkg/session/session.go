package session

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/androfit/agent/internal/logging"
	"github.com/androfit/agent/internal/media"
	"github.com/androfit/agent/internal/metrics"
	"github.com/androfit/agent/pkg/domain"
	"github.com/androfit/agent/pkg/ports"
)

// DefaultMaxToolRounds bounds how many consecutive tool rounds the model
// may request before the session forces a spoken reply.
const DefaultMaxToolRounds = 4

// Config wires a Session.
type Config struct {
	Profile     domain.Profile
	Chat        ports.ChatModel
	Synthesizer ports.Synthesizer

	// Tools is optional; nil disables tool calling.
	Tools ports.ToolSource

	// Store is optional; nil disables persistence.
	Store ports.SessionStore

	Hooks   domain.SessionHooks
	Metrics *metrics.Metrics
	Logger  *slog.Logger

	// MaxToolRounds defaults to DefaultMaxToolRounds.
	MaxToolRounds int
}

// Session is one running conversation.
type Session struct {
	cfg   Config
	state *domain.Session
}

// New creates a session. An empty id gets a generated one.
func New(id string, cfg Config) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}

	state := domain.NewSession(id, cfg.Profile)
	state.Transcript.Append(domain.Message{
		Role:    domain.RoleSystem,
		Content: cfg.Profile.Instructions,
	})

	return &Session{cfg: cfg, state: state}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.state.ID
}

// SetJobID links the session to the job that spawned it.
func (s *Session) SetJobID(jobID string) {
	s.state.JobID = jobID
}

// Snapshot returns a copy of the persisted session state.
func (s *Session) Snapshot() domain.Session {
	return *s.state
}

// Greet returns the profile greeting, recorded as the first assistant turn.
// Returns "" when the profile has no greeting.
func (s *Session) Greet(ctx context.Context) string {
	if s.cfg.Profile.Greeting == "" {
		return ""
	}
	s.state.Transcript.Append(domain.Message{
		Role:    domain.RoleAssistant,
		Content: s.cfg.Profile.Greeting,
		At:      time.Now().UTC(),
	})
	s.fireAgentReply(ctx, s.cfg.Profile.Greeting)
	return s.cfg.Profile.Greeting
}

// Respond handles one user turn: it appends the utterance, resolves any tool
// calls the model asks for, and returns the agent's spoken reply. The
// transcript is persisted on the turn boundary.
func (s *Session) Respond(ctx context.Context, userText string) (string, error) {
	s.state.Transcript.Append(domain.Message{
		Role:    domain.RoleUser,
		Content: userText,
		At:      time.Now().UTC(),
	})
	if s.cfg.Hooks.OnUserTurn != nil {
		s.cfg.Hooks.OnUserTurn(ctx, &domain.TurnEvent{
			EventBase: s.eventBase(domain.EventUserTurn),
			Text:      userText,
		})
	}

	reply, err := s.complete(ctx)
	if err != nil {
		return "", err
	}

	s.state.Transcript.Append(domain.Message{
		Role:    domain.RoleAssistant,
		Content: reply,
		At:      time.Now().UTC(),
	})
	s.fireAgentReply(ctx, reply)
	s.persist(ctx)

	return reply, nil
}

// complete runs chat rounds until the model produces text instead of tool
// calls.
func (s *Session) complete(ctx context.Context) (string, error) {
	var decls []ports.ToolDecl
	if s.cfg.Tools != nil {
		var err error
		decls, err = s.cfg.Tools.Tools(ctx)
		if err != nil {
			// Tool discovery failing must not kill the conversation.
			s.cfg.Logger.Warn("tool discovery failed, continuing without tools", "err", err)
		}
	}

	for round := 0; ; round++ {
		start := time.Now()
		reply, err := s.cfg.Chat.Complete(ctx, s.state.Transcript, decls)
		if err != nil {
			if s.cfg.Metrics != nil {
				s.cfg.Metrics.ProviderErrors.WithLabelValues("llm").Inc()
			}
			return "", fmt.Errorf("chat completion failed: %w", err)
		}
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.StageDuration.WithLabelValues("llm").Observe(time.Since(start).Seconds())
		}

		if len(reply.ToolCalls) == 0 {
			return reply.Text, nil
		}
		if s.cfg.Tools == nil || round >= s.cfg.MaxToolRounds {
			return "", fmt.Errorf("model requested tools but none can run (round %d)", round)
		}

		for _, call := range reply.ToolCalls {
			if err := s.runTool(ctx, call); err != nil {
				return "", err
			}
		}
	}
}

func (s *Session) runTool(ctx context.Context, call ports.ToolRequest) error {
	if s.cfg.Hooks.OnToolCall != nil {
		s.cfg.Hooks.OnToolCall(ctx, &domain.ToolEvent{
			EventBase: s.eventBase(domain.EventToolCall),
			ToolName:  call.Name,
			Input:     call.Arguments,
		})
	}

	// Record the model's request so the next round replays it.
	s.state.Transcript.Append(domain.Message{
		Role:       domain.RoleAssistant,
		Content:    call.Arguments,
		ToolName:   call.Name,
		ToolCallID: call.CallID,
		At:         time.Now().UTC(),
	})

	result, err := s.cfg.Tools.Call(ctx, call)
	isErr := err != nil
	if isErr {
		// Feed the failure back to the model instead of aborting the turn.
		result = fmt.Sprintf("tool error: %v", err)
	}

	s.state.Transcript.Append(domain.Message{
		Role:       domain.RoleTool,
		Content:    result,
		ToolName:   call.Name,
		ToolCallID: call.CallID,
		At:         time.Now().UTC(),
	})

	if s.cfg.Hooks.OnToolReturn != nil {
		s.cfg.Hooks.OnToolReturn(ctx, &domain.ToolEvent{
			EventBase: s.eventBase(domain.EventToolReturn),
			ToolName:  call.Name,
			Input:     call.Arguments,
			Output:    result,
			IsError:   isErr,
		})
	}

	return nil
}

// RunVoice drives a full voice conversation over the transport: greeting,
// then listen-respond-speak until the remote side hangs up or ctx is
// canceled. Cancellation between turns is an orderly stop and returns nil;
// an error mid-turn is returned. The final state is persisted in Close.
func (s *Session) RunVoice(ctx context.Context, transport ports.Transport, pipeline *media.Pipeline) error {
	pipeCtx, stopPipe := context.WithCancel(ctx)
	defer stopPipe()

	var pipeResult error
	pipeDone := make(chan struct{})
	go func() {
		pipeResult = pipeline.Run(pipeCtx, transport.Frames())
		close(pipeDone)
	}()

	// On every exit path: stop the stages, drain whatever they were still
	// emitting, and wait the goroutine out so it never outlives the session.
	defer func() {
		stopPipe()
		for range pipeline.Utterances() {
		}
		<-pipeDone
	}()

	if greeting := s.Greet(ctx); greeting != "" {
		if err := s.speak(ctx, transport, greeting); err != nil {
			return err
		}
	}

	for {
		select {
		case <-ctx.Done():
			// Orderly stop between turns; not a job failure.
			s.markDraining(ctx)
			return nil

		case <-pipeDone:
			if ctx.Err() != nil {
				// The stages stopped because ctx did; still an orderly stop.
				s.markDraining(ctx)
				return nil
			}
			// Input closed (remote hangup) or a stage failed. The utterance
			// channel is closed at this point; answer anything still buffered.
			if pipeResult != nil {
				return pipeResult
			}
			for utt := range pipeline.Utterances() {
				reply, err := s.Respond(ctx, utt.Text)
				if err != nil {
					return err
				}
				if err := s.speak(ctx, transport, reply); err != nil {
					return err
				}
			}
			return nil

		case utt, ok := <-pipeline.Utterances():
			if !ok {
				<-pipeDone
				if ctx.Err() != nil {
					s.markDraining(ctx)
					return nil
				}
				return pipeResult
			}

			reply, err := s.Respond(ctx, utt.Text)
			if err != nil {
				return err
			}
			if err := s.speak(ctx, transport, reply); err != nil {
				return err
			}
		}
	}
}

// markDraining records that the session is stopping on shutdown. Close
// finishes the transition and persists.
func (s *Session) markDraining(ctx context.Context) {
	from := s.state.Status
	s.state.Status = domain.StatusDraining

	if s.cfg.Hooks.OnStateChange != nil {
		s.cfg.Hooks.OnStateChange(ctx, &domain.StateEvent{
			EventBase: s.eventBase(domain.EventStateChange),
			From:      from,
			To:        domain.StatusDraining,
		})
	}
}

func (s *Session) speak(ctx context.Context, transport ports.Transport, text string) error {
	start := time.Now()
	segment, err := s.cfg.Synthesizer.Synthesize(ctx, text)
	if err != nil {
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.ProviderErrors.WithLabelValues("tts").Inc()
		}
		return fmt.Errorf("speech synthesis failed: %w", err)
	}
	if s.cfg.Metrics != nil {
		s.cfg.Metrics.StageDuration.WithLabelValues("tts").Observe(time.Since(start).Seconds())
	}

	return transport.Play(ctx, segment)
}

// Close ends the session, records the outcome, and persists the transcript.
// Safe to call once, with or without a prior error.
func (s *Session) Close(ctx context.Context, cause error) {
	from := s.state.Status
	s.state.Close(cause)

	if s.cfg.Hooks.OnStateChange != nil {
		s.cfg.Hooks.OnStateChange(ctx, &domain.StateEvent{
			EventBase: s.eventBase(domain.EventStateChange),
			From:      from,
			To:        s.state.Status,
		})
	}

	s.persist(ctx)
}

// persist saves the snapshot; failures are logged, not fatal, so a store
// outage cannot take the conversation down mid-turn.
func (s *Session) persist(ctx context.Context) {
	if s.cfg.Store == nil {
		return
	}
	if err := s.cfg.Store.Save(ctx, s.state); err != nil {
		s.cfg.Logger.Warn("failed to persist session", "session_id", s.state.ID, "err", err)
	}
}

func (s *Session) fireAgentReply(ctx context.Context, text string) {
	if s.cfg.Hooks.OnAgentReply != nil {
		s.cfg.Hooks.OnAgentReply(ctx, &domain.TurnEvent{
			EventBase: s.eventBase(domain.EventAgentReply),
			Text:      text,
		})
	}
}

func (s *Session) eventBase(typ domain.EventType) domain.EventBase {
	return domain.EventBase{
		Timestamp: time.Now().UTC(),
		Type:      typ,
		SessionID: s.state.ID,
	}
}
