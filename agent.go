package agent

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	backend "github.com/redis/go-redis/v9"

	"github.com/androfit/agent/internal/config"
	"github.com/androfit/agent/internal/logging"
	"github.com/androfit/agent/internal/media"
	"github.com/androfit/agent/internal/metrics"
	"github.com/androfit/agent/internal/providers/openai"
	"github.com/androfit/agent/internal/tools"
	"github.com/androfit/agent/internal/tools/mcp"
	"github.com/androfit/agent/internal/turndetect"
	"github.com/androfit/agent/internal/vad"
	"github.com/androfit/agent/internal/worker"
	"github.com/androfit/agent/pkg/adapters/memory"
	"github.com/androfit/agent/pkg/adapters/pipe"
	"github.com/androfit/agent/pkg/adapters/process"
	"github.com/androfit/agent/pkg/adapters/redis"
	"github.com/androfit/agent/pkg/domain"
	"github.com/androfit/agent/pkg/persistence/middleware"
	"github.com/androfit/agent/pkg/ports"
	"github.com/androfit/agent/pkg/session"
)

// Version is the agent release version.
const Version = "0.1.0"

// turnLexiconAsset is the optional asset extending the built-in
// end-of-turn language table. Downloaded by `androfit download-files`.
const turnLexiconAsset = "turn-lexicon.yaml"

// TransportDialer opens the media leg for a room job. The default dialer
// only knows the in-process pipe; deployments wire their SFU here.
type TransportDialer func(ctx context.Context, room string) (ports.Transport, error)

// Agent is the high-level entry point. It owns the wired providers and
// adapters and hands out sessions, pipelines, and the job worker.
type Agent struct {
	cfg     *config.Config
	profile domain.Profile

	logger  *slog.Logger
	metrics *metrics.Metrics

	store  ports.SessionStore
	queue  ports.JobQueue
	locker ports.DistributedLocker

	chat  ports.ChatModel
	stt   ports.Recognizer
	tts   ports.Synthesizer
	turn  ports.TurnDetector
	tools ports.ToolSource

	hooks  domain.SessionHooks
	dialer TransportDialer

	manager     *session.Manager
	worker      *worker.Worker
	redisClient *backend.Client
}

// Option overrides one wired dependency.
type Option func(*Agent)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Agent) { a.logger = logger }
}

// WithMetrics sets the metrics bundle.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Agent) { a.metrics = m }
}

// WithSessionStore replaces the session store.
func WithSessionStore(store ports.SessionStore) Option {
	return func(a *Agent) { a.store = store }
}

// WithJobQueue replaces the job queue.
func WithJobQueue(queue ports.JobQueue) Option {
	return func(a *Agent) { a.queue = queue }
}

// WithLocker enables distributed session locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(a *Agent) { a.locker = locker }
}

// WithChatModel replaces the language model.
func WithChatModel(chat ports.ChatModel) Option {
	return func(a *Agent) { a.chat = chat }
}

// WithRecognizer replaces the speech recognizer.
func WithRecognizer(stt ports.Recognizer) Option {
	return func(a *Agent) { a.stt = stt }
}

// WithSynthesizer replaces the speech synthesizer.
func WithSynthesizer(tts ports.Synthesizer) Option {
	return func(a *Agent) { a.tts = tts }
}

// WithToolSource adds a tool source. It is merged with any configured MCP
// servers and process tools; on name clashes the injected source wins.
func WithToolSource(source ports.ToolSource) Option {
	return func(a *Agent) { a.tools = source }
}

// WithSessionHooks registers observability hooks on every session.
func WithSessionHooks(hooks domain.SessionHooks) Option {
	return func(a *Agent) { a.hooks = hooks }
}

// WithTransportDialer sets how room jobs open their media leg.
func WithTransportDialer(dialer TransportDialer) Option {
	return func(a *Agent) { a.dialer = dialer }
}

// New wires an Agent from configuration. Options are applied first; any
// dependency they leave nil is built from cfg.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*Agent, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	profile, err := cfg.Profile()
	if err != nil {
		return nil, err
	}

	a := &Agent{cfg: cfg, profile: profile}
	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = logging.NewNop()
	}
	if a.metrics == nil {
		a.metrics = metrics.New()
	}

	if err := a.wireStorage(); err != nil {
		return nil, err
	}
	a.wireProviders()
	if err := a.wireTools(ctx); err != nil {
		return nil, err
	}

	managerOpts := []session.Option{session.WithLogger(a.logger)}
	if a.locker != nil {
		managerOpts = append(managerOpts, session.WithLocker(a.locker))
	}
	a.manager = session.NewManager(a.store, managerOpts...)

	a.worker = worker.New(worker.Config{
		Queue: a.queue,
		Handlers: map[domain.JobKind]worker.Handler{
			domain.JobKindRoom: a.handleRoomJob,
			domain.JobKindText: a.handleTextJob,
		},
		MaxSessions:  cfg.Worker.MaxSessions,
		DrainTimeout: cfg.Worker.DrainTimeout,
		Metrics:      a.metrics,
		Logger:       a.logger,
	})

	return a, nil
}

// wireStorage picks Redis adapters when an address is configured, memory
// adapters otherwise. All three Redis adapters share one client. Privacy
// middleware wraps whichever store ends up selected, injected ones included.
func (a *Agent) wireStorage() error {
	if a.cfg.Redis.Addr != "" && (a.store == nil || a.queue == nil || a.locker == nil) {
		a.redisClient = backend.NewClient(&backend.Options{
			Addr:     a.cfg.Redis.Addr,
			Password: a.cfg.Redis.Password,
			DB:       a.cfg.Redis.DB,
		})
	}

	if a.store == nil {
		if a.redisClient != nil {
			a.store = redis.NewFromClient(a.redisClient, redis.WithTTL(a.cfg.Redis.SessionTTL))
		} else {
			a.store = memory.NewStore()
		}
	}
	if a.queue == nil {
		if a.redisClient != nil {
			a.queue = redis.NewQueue(a.redisClient, a.cfg.Redis.QueueKey)
		} else {
			a.queue = memory.NewQueue(0)
		}
	}
	if a.locker == nil && a.redisClient != nil {
		a.locker = redis.NewLocker(a.redisClient, "androfit:lock:")
	}

	var mws []middleware.Middleware
	if len(a.cfg.Privacy.MaskPatterns) > 0 {
		mw, err := middleware.NewPIIMiddleware(a.cfg.Privacy.MaskPatterns)
		if err != nil {
			return fmt.Errorf("failed to build pii middleware: %w", err)
		}
		mws = append(mws, mw)
	}
	active, fallbacks, err := a.cfg.Privacy.EncryptionKeys()
	if err != nil {
		return err
	}
	if active != nil {
		mw, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
			ActiveKey:    active,
			FallbackKeys: fallbacks,
		})
		if err != nil {
			return err
		}
		mws = append(mws, mw)
	}
	a.store = middleware.Chain(a.store, mws...)
	return nil
}

func (a *Agent) wireProviders() {
	if a.chat != nil && a.stt != nil && a.tts != nil && a.turn != nil {
		return
	}

	client := openai.NewClient(a.cfg.OpenAI.BaseURL, a.cfg.OpenAI.APIKey,
		openai.WithRateLimit(a.cfg.OpenAI.RequestsPerSecond),
		openai.WithLogger(a.logger),
	)
	if a.stt == nil {
		a.stt = openai.NewRecognizer(client, a.cfg.OpenAI.STTModel)
	}
	if a.chat == nil {
		a.chat = openai.NewChat(client, a.cfg.OpenAI.LLMModel)
	}
	if a.tts == nil {
		a.tts = openai.NewSpeech(client, a.cfg.OpenAI.TTSModel, a.cfg.OpenAI.TTSVoice)
	}
	if a.turn == nil {
		a.turn = a.loadTurnDetector()
	}
}

// loadTurnDetector extends the built-in language table with the downloaded
// lexicon asset when present.
func (a *Agent) loadTurnDetector() ports.TurnDetector {
	path := filepath.Join(a.cfg.DataDir, turnLexiconAsset)
	if _, err := os.Stat(path); err == nil {
		det, err := turndetect.NewFromFile(path)
		if err == nil {
			a.logger.Info("loaded turn lexicon", "path", path)
			return det
		}
		a.logger.Warn("ignoring bad turn lexicon", "path", path, "err", err)
	}
	return turndetect.New()
}

// wireTools assembles the tool surface: an injected source, the configured
// MCP servers, and local process tools, merged first-come by tool name.
func (a *Agent) wireTools(ctx context.Context) error {
	var sources []ports.ToolSource
	if a.tools != nil {
		sources = append(sources, a.tools)
	}

	if len(a.cfg.MCP) > 0 {
		servers := make([]mcp.ServerConfig, 0, len(a.cfg.MCP))
		for _, srv := range a.cfg.MCP {
			servers = append(servers, mcp.ServerConfig{
				Name:      srv.Name,
				Transport: srv.Transport,
				Command:   srv.Command,
				Args:      srv.Args,
				URL:       srv.URL,
			})
		}
		source, err := mcp.NewSource(ctx, servers, mcp.WithLogger(a.logger))
		if err != nil {
			return err
		}
		sources = append(sources, source)
	}

	if path := a.cfg.Tools.ProcessConfig; path != "" {
		configs, err := process.LoadTools(path)
		if err != nil {
			return err
		}
		source, err := process.New(configs)
		if err != nil {
			return err
		}
		sources = append(sources, source)
	}

	if len(sources) > 0 {
		a.tools = tools.Multi(sources...)
	}
	return nil
}

// Profile returns the resolved agent persona.
func (a *Agent) Profile() domain.Profile {
	return a.profile
}

// Metrics returns the metrics bundle for the health server.
func (a *Agent) Metrics() *metrics.Metrics {
	return a.metrics
}

// Manager returns the session manager.
func (a *Agent) Manager() *session.Manager {
	return a.manager
}

// Queue returns the job queue, for dispatching.
func (a *Agent) Queue() ports.JobQueue {
	return a.queue
}

// Worker returns the job worker.
func (a *Agent) Worker() *worker.Worker {
	return a.worker
}

// NewSession creates a fully wired session. An empty id gets a generated one.
func (a *Agent) NewSession(id string) *session.Session {
	return session.New(id, session.Config{
		Profile:     a.profile,
		Chat:        a.chat,
		Synthesizer: a.tts,
		Tools:       a.tools,
		Store:       a.store,
		Hooks:       a.hooks,
		Metrics:     a.metrics,
		Logger:      a.logger,
	})
}

// NewPipeline creates a listening pipeline with a fresh VAD gate. The VAD
// keeps per-stream state, so pipelines are never shared across sessions.
func (a *Agent) NewPipeline() *media.Pipeline {
	return media.New(media.Config{
		VAD:           vad.New(),
		Recognizer:    a.stt,
		Turn:          a.turn,
		TurnThreshold: a.cfg.Agent.TurnThreshold,
		TurnMaxHold:   a.cfg.Agent.TurnMaxHold,
		Metrics:       a.metrics,
		Logger:        a.logger,
	})
}

// handleRoomJob runs a voice session over the dialed transport.
func (a *Agent) handleRoomJob(ctx context.Context, job *domain.Job) error {
	dial := a.dialer
	if dial == nil {
		dial = func(ctx context.Context, room string) (ports.Transport, error) {
			return nil, fmt.Errorf("no media transport dialer configured for room %q", room)
		}
	}

	s, err := a.newJobSession(job)
	if err != nil {
		return err
	}

	transport, err := dial(ctx, job.Room)
	if err != nil {
		return fmt.Errorf("failed to join room %q: %w", job.Room, err)
	}
	defer transport.Close()

	runErr := s.RunVoice(ctx, transport, a.NewPipeline())
	s.Close(context.WithoutCancel(ctx), runErr)
	return runErr
}

// handleTextJob greets and persists a text session; turns arrive through the
// session API (console, or a chat frontend holding the session id).
func (a *Agent) handleTextJob(ctx context.Context, job *domain.Job) error {
	s, err := a.newJobSession(job)
	if err != nil {
		return err
	}
	s.Greet(ctx)
	if err := a.manager.Save(ctx, snapshotPtr(s)); err != nil {
		return err
	}
	return nil
}

// newJobSession builds the session for a job. A job may name the persona it
// wants; only the configured one exists, so anything else is refused.
func (a *Agent) newJobSession(job *domain.Job) (*session.Session, error) {
	if job.ProfileName != "" && job.ProfileName != a.profile.Name {
		return nil, fmt.Errorf("job %s requests unknown profile %q", job.ID, job.ProfileName)
	}
	s := a.NewSession(job.ID)
	s.SetJobID(job.ID)
	return s, nil
}

func snapshotPtr(s *session.Session) *domain.Session {
	snap := s.Snapshot()
	return &snap
}

// NewPipeTransport returns the in-process media leg used by tests and dev
// tooling. The caller keeps the remote side.
func (a *Agent) NewPipeTransport() *pipe.Transport {
	return pipe.New(0)
}

// Close releases external connections.
func (a *Agent) Close() error {
	var firstErr error
	if a.tools != nil {
		if err := a.tools.Close(); err != nil {
			firstErr = err
		}
	}
	if err := a.queue.Close(); err != nil && firstErr == nil {
		firstErr = err
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
