package agent_test

import (
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	agent "github.com/androfit/agent"
	"github.com/androfit/agent/internal/config"
	"github.com/androfit/agent/pkg/adapters/pipe"
	"github.com/androfit/agent/pkg/domain"
	"github.com/androfit/agent/pkg/ports"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:    8081,
		DataDir: t.TempDir(),
		OpenAI: config.OpenAIConfig{
			BaseURL:  "https://api.openai.com/v1",
			STTModel: "whisper-1",
			LLMModel: "gpt-4o-mini",
			TTSModel: "tts-1",
			TTSVoice: "alloy",
		},
		Worker: config.WorkerConfig{MaxSessions: 1, DrainTimeout: 5 * time.Second},
		Agent:  config.AgentConfig{TurnThreshold: 0.6, TurnMaxHold: time.Second},
	}
}

type scriptedChat struct {
	replies []string
	calls   int
}

func (c *scriptedChat) Complete(ctx context.Context, transcript domain.Transcript, tools []ports.ToolDecl) (*ports.ChatReply, error) {
	reply := c.replies[c.calls%len(c.replies)]
	c.calls++
	return &ports.ChatReply{Text: reply}, nil
}

type countingSynth struct{}

func (countingSynth) Synthesize(ctx context.Context, text string) (domain.Segment, error) {
	return domain.Segment{Samples: make([]int16, len(text)), SampleRate: 24000}, nil
}

type cannedRecognizer struct{ text string }

func (r cannedRecognizer) Recognize(ctx context.Context, segment domain.Segment) (string, error) {
	return r.text, nil
}

func TestNew_WiresDefaults(t *testing.T) {
	a, err := agent.New(context.Background(), testConfig(t),
		agent.WithChatModel(&scriptedChat{replies: []string{"Let's warm up."}}),
		agent.WithSynthesizer(countingSynth{}),
		agent.WithRecognizer(cannedRecognizer{}),
	)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "AndrofitAI", a.Profile().Name)
	assert.NotNil(t, a.Manager())
	assert.NotNil(t, a.Worker())
	assert.NotNil(t, a.Metrics())
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Port = -1

	_, err := agent.New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestAgent_SessionRespond(t *testing.T) {
	a, err := agent.New(context.Background(), testConfig(t),
		agent.WithChatModel(&scriptedChat{replies: []string{"Three sets of ten, go."}}),
		agent.WithSynthesizer(countingSynth{}),
		agent.WithRecognizer(cannedRecognizer{}),
	)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	s := a.NewSession("")

	assert.Equal(t, "How's your vibe today? Ready to crush it?", s.Greet(ctx))

	reply, err := s.Respond(ctx, "give me a leg workout")
	require.NoError(t, err)
	assert.Equal(t, "Three sets of ten, go.", reply)

	// Persisted on the turn boundary under the generated id.
	saved, err := a.Manager().Load(ctx, s.ID())
	require.NoError(t, err)
	assert.Equal(t, 4, saved.Transcript.Len())
}

func speechFrame(value int16) domain.Frame {
	samples := make([]int16, 320) // 20ms at 16kHz
	for i := range samples {
		samples[i] = value
	}
	return domain.Frame{Samples: samples, SampleRate: 16000, At: time.Now()}
}

func TestAgent_RoomJobEndToEnd(t *testing.T) {
	transport := pipe.New(0)

	done := make(chan struct{})
	go func() {
		defer close(done)
		ctx := context.Background()

		// Greeting first, then half a second of speech and enough silence
		// for the VAD hangover to close the segment.
		<-transport.Played()
		for i := 0; i < 25; i++ {
			if err := transport.Push(ctx, speechFrame(3000)); err != nil {
				return
			}
		}
		for i := 0; i < 12; i++ {
			if err := transport.Push(ctx, speechFrame(0)); err != nil {
				return
			}
		}
		<-transport.Played()
		transport.EndInput()
	}()

	a, err := agent.New(context.Background(), testConfig(t),
		agent.WithChatModel(&scriptedChat{replies: []string{"Nice depth on those squats."}}),
		agent.WithSynthesizer(countingSynth{}),
		agent.WithRecognizer(cannedRecognizer{text: "How was my squat form?"}),
		agent.WithTransportDialer(func(ctx context.Context, room string) (ports.Transport, error) {
			return transport, nil
		}),
	)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	job := &domain.Job{ID: "job-1", Kind: domain.JobKindRoom, Room: "gym-1"}
	require.NoError(t, a.Queue().Enqueue(ctx, job))
	require.NoError(t, a.Queue().Close())

	require.NoError(t, a.Worker().Run(ctx))
	<-done

	saved, err := a.Manager().Load(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, saved.Status)
	// system, greeting, user turn, coach reply.
	assert.Equal(t, 4, saved.Transcript.Len())
	assert.Equal(t, "How was my squat form?", saved.Transcript.Messages[2].Content)
}

func TestAgent_TextJobPersistsGreeting(t *testing.T) {
	a, err := agent.New(context.Background(), testConfig(t),
		agent.WithChatModel(&scriptedChat{replies: []string{"ok"}}),
		agent.WithSynthesizer(countingSynth{}),
		agent.WithRecognizer(cannedRecognizer{}),
	)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	require.NoError(t, a.Queue().Enqueue(ctx, &domain.Job{ID: "chat-1", Kind: domain.JobKindText}))
	require.NoError(t, a.Queue().Close())
	require.NoError(t, a.Worker().Run(ctx))

	saved, err := a.Manager().Load(ctx, "chat-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusActive, saved.Status)
	assert.Equal(t, 2, saved.Transcript.Len())
}

type toolCallingChat struct{ calls int }

func (c *toolCallingChat) Complete(ctx context.Context, transcript domain.Transcript, tools []ports.ToolDecl) (*ports.ChatReply, error) {
	c.calls++
	if c.calls == 1 {
		return &ports.ChatReply{ToolCalls: []ports.ToolRequest{{
			CallID:    "call-1",
			Name:      "log_workout",
			Arguments: `{"exercise":"squat"}`,
		}}}, nil
	}
	return &ports.ChatReply{Text: "Logged. " + transcript.Last().Content}, nil
}

func TestAgent_ProcessToolsWired(t *testing.T) {
	toolsPath := filepath.Join(t.TempDir(), "tools.yaml")
	toolsYAML := `
tools:
  - name: log_workout
    description: Record a completed exercise
    command: sh
    args: ["-c", "echo logged: $ANDROFIT_ARG_EXERCISE"]
`
	require.NoError(t, os.WriteFile(toolsPath, []byte(toolsYAML), 0o644))

	cfg := testConfig(t)
	cfg.Tools.ProcessConfig = toolsPath

	a, err := agent.New(context.Background(), cfg,
		agent.WithChatModel(&toolCallingChat{}),
		agent.WithSynthesizer(countingSynth{}),
		agent.WithRecognizer(cannedRecognizer{}),
	)
	require.NoError(t, err)
	defer a.Close()

	s := a.NewSession("")
	reply, err := s.Respond(context.Background(), "log my squats")
	require.NoError(t, err)
	assert.Equal(t, "Logged. logged: squat", reply)
}

func TestAgent_PrivacyHardensPersistedTranscripts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Privacy.MaskPatterns = []string{`\b[\w.+-]+@[\w-]+\.[\w.]+\b`}
	cfg.Privacy.EncryptionKey = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))

	a, err := agent.New(context.Background(), cfg,
		agent.WithChatModel(&scriptedChat{replies: []string{"Got it."}}),
		agent.WithSynthesizer(countingSynth{}),
		agent.WithRecognizer(cannedRecognizer{}),
	)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	s := a.NewSession("")
	_, err = s.Respond(ctx, "mail my plan to jdoe@example.com")
	require.NoError(t, err)

	saved, err := a.Manager().Load(ctx, s.ID())
	require.NoError(t, err)
	require.Equal(t, 3, saved.Transcript.Len())
	assert.Equal(t, "mail my plan to ***", saved.Transcript.Messages[1].Content)
}

func TestAgent_JobProfileNames(t *testing.T) {
	a, err := agent.New(context.Background(), testConfig(t),
		agent.WithChatModel(&scriptedChat{replies: []string{"ok"}}),
		agent.WithSynthesizer(countingSynth{}),
		agent.WithRecognizer(cannedRecognizer{}),
	)
	require.NoError(t, err)
	defer a.Close()

	ctx := context.Background()
	require.NoError(t, a.Queue().Enqueue(ctx, &domain.Job{
		ID: "named", Kind: domain.JobKindText, ProfileName: "AndrofitAI",
	}))
	require.NoError(t, a.Queue().Enqueue(ctx, &domain.Job{
		ID: "stranger", Kind: domain.JobKindText, ProfileName: "Drill Sergeant",
	}))
	require.NoError(t, a.Queue().Close())
	require.NoError(t, a.Worker().Run(ctx))

	// The configured persona is accepted by name.
	saved, err := a.Manager().Load(ctx, "named")
	require.NoError(t, err)
	assert.Equal(t, "AndrofitAI", saved.Profile.Name)

	// A job asking for a persona this worker does not have never starts.
	_, err = a.Manager().Load(ctx, "stranger")
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
