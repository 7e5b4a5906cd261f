// Package config loads the agent configuration from defaults, an optional
// YAML file, and environment variables (highest precedence), in 12-factor
// style: every knob is reachable from the container environment.
package config

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/androfit/agent/pkg/domain"
)

// EnvPrefix is the prefix for all agent environment variables.
const EnvPrefix = "ANDROFIT"

// DefaultPort is the health-check port the container contract declares.
const DefaultPort = 8081

// Config is the full agent configuration.
type Config struct {
	// Port serves /healthz, /readyz, /metrics and /version.
	Port int `mapstructure:"port"`

	// DataDir is where downloaded model assets live.
	DataDir string `mapstructure:"data_dir"`

	LogLevel string `mapstructure:"log_level"`
	JSONLog  bool   `mapstructure:"json_log"`

	OpenAI OpenAIConfig `mapstructure:"openai"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Worker WorkerConfig `mapstructure:"worker"`
	Agent  AgentConfig  `mapstructure:"agent"`
	Assets AssetsConfig `mapstructure:"assets"`

	// MCP lists external tool servers made available to the model.
	MCP []MCPServerConfig `mapstructure:"mcp"`

	// Tools adds local process-backed tools alongside the MCP servers.
	Tools ToolsConfig `mapstructure:"tools"`

	// Privacy hardens persisted transcripts.
	Privacy PrivacyConfig `mapstructure:"privacy"`
}

// OpenAIConfig selects the speech and language models.
type OpenAIConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	STTModel string `mapstructure:"stt_model"`
	LLMModel string `mapstructure:"llm_model"`
	TTSModel string `mapstructure:"tts_model"`
	TTSVoice string `mapstructure:"tts_voice"`

	// RequestsPerSecond caps outbound API calls. Zero means no limit.
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// RedisConfig enables the shared session store and job queue. An empty Addr
// selects the in-memory adapters (single-replica dev mode).
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	QueueKey string `mapstructure:"queue_key"`

	// SessionTTL expires persisted sessions. Zero keeps them forever.
	SessionTTL time.Duration `mapstructure:"session_ttl"`
}

// WorkerConfig tunes the job loop.
type WorkerConfig struct {
	// MaxSessions bounds concurrently running agent sessions.
	MaxSessions int `mapstructure:"max_sessions"`

	// DrainTimeout is how long running sessions get to finish on shutdown.
	DrainTimeout time.Duration `mapstructure:"drain_timeout"`
}

// AgentConfig holds the persona and conversation tuning.
type AgentConfig struct {
	// Profile overrides the built-in persona field by field; empty fields
	// keep the default.
	Profile map[string]any `mapstructure:"profile"`

	// TurnThreshold is the end-of-turn probability needed to hand the
	// utterance to the model.
	TurnThreshold float64 `mapstructure:"turn_threshold"`

	// TurnMaxHold bounds how long an open turn waits for more speech.
	TurnMaxHold time.Duration `mapstructure:"turn_max_hold"`
}

// AssetsConfig locates the model asset manifest.
type AssetsConfig struct {
	Manifest string `mapstructure:"manifest"`

	// S3Endpoint, S3AccessKey and S3SecretKey configure s3:// manifest
	// entries. Unused for plain https downloads.
	S3Endpoint  string `mapstructure:"s3_endpoint"`
	S3AccessKey string `mapstructure:"s3_access_key"`
	S3SecretKey string `mapstructure:"s3_secret_key"`
	S3UseSSL    bool   `mapstructure:"s3_use_ssl"`
}

// ToolsConfig locates local tool definitions.
type ToolsConfig struct {
	// ProcessConfig is a YAML file of allow-listed commands exposed to the
	// model as tools. Empty disables process tools.
	ProcessConfig string `mapstructure:"process_config"`
}

// PrivacyConfig controls at-rest transcript handling.
type PrivacyConfig struct {
	// EncryptionKey is a base64-encoded 32-byte AES-256 key. Empty stores
	// transcripts in the clear.
	EncryptionKey string `mapstructure:"encryption_key"`

	// FallbackKeys are previous base64 keys still accepted for decryption
	// during key rotation.
	FallbackKeys []string `mapstructure:"fallback_keys"`

	// MaskPatterns are regular expressions redacted from persisted
	// transcripts.
	MaskPatterns []string `mapstructure:"mask_patterns"`
}

// EncryptionKeys decodes the configured base64 keys. The active key is nil
// when encryption is disabled.
func (c PrivacyConfig) EncryptionKeys() (active []byte, fallbacks [][]byte, err error) {
	if c.EncryptionKey == "" {
		return nil, nil, nil
	}
	active, err = base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to decode privacy.encryption_key: %w", err)
	}
	for i, k := range c.FallbackKeys {
		decoded, err := base64.StdEncoding.DecodeString(k)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to decode privacy.fallback_keys[%d]: %w", i, err)
		}
		fallbacks = append(fallbacks, decoded)
	}
	return active, fallbacks, nil
}

// MCPServerConfig describes one external tool server.
type MCPServerConfig struct {
	Name string `mapstructure:"name"`

	// Transport is "stdio" or "sse".
	Transport string `mapstructure:"transport"`

	// Command and Args launch a stdio server.
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`

	// URL locates an SSE server.
	URL string `mapstructure:"url"`
}

// Load reads configuration. path may be empty; then only defaults and the
// environment apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// The container contract uses bare PORT and OPENAI_API_KEY; honor both
	// spellings.
	_ = v.BindEnv("port", "ANDROFIT_PORT", "PORT")
	_ = v.BindEnv("openai.api_key", "ANDROFIT_OPENAI_API_KEY", "OPENAI_API_KEY")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", DefaultPort)
	v.SetDefault("log_level", "info")
	v.SetDefault("json_log", false)

	v.SetDefault("openai.base_url", "https://api.openai.com/v1")
	v.SetDefault("openai.stt_model", "whisper-1")
	v.SetDefault("openai.llm_model", "gpt-4o-mini")
	v.SetDefault("openai.tts_model", "tts-1")
	v.SetDefault("openai.tts_voice", "alloy")

	v.SetDefault("redis.queue_key", "androfit:jobs")
	v.SetDefault("redis.session_ttl", time.Duration(0))

	v.SetDefault("worker.max_sessions", 4)
	v.SetDefault("worker.drain_timeout", 30*time.Second)

	v.SetDefault("agent.turn_threshold", 0.6)
	v.SetDefault("agent.turn_max_hold", 3*time.Second)

	v.SetDefault("assets.manifest", "models.yaml")
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".androfit"
	}
	return filepath.Join(home, ".androfit")
}

// Profile resolves the configured persona: the built-in default overlaid
// with any fields set under agent.profile.
func (c *Config) Profile() (domain.Profile, error) {
	profile := domain.DefaultProfile()
	if len(c.Agent.Profile) > 0 {
		if err := mapstructure.Decode(c.Agent.Profile, &profile); err != nil {
			return profile, fmt.Errorf("failed to decode agent profile: %w", err)
		}
	}
	if err := profile.Validate(); err != nil {
		return profile, err
	}
	return profile, nil
}

// Validate reports the first invalid field.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	if c.OpenAI.BaseURL == "" {
		return fmt.Errorf("openai.base_url is required")
	}
	if c.OpenAI.STTModel == "" || c.OpenAI.LLMModel == "" || c.OpenAI.TTSModel == "" {
		return fmt.Errorf("openai model ids must not be empty")
	}
	if c.Agent.TurnThreshold < 0 || c.Agent.TurnThreshold > 1 {
		return fmt.Errorf("agent.turn_threshold %v out of [0,1]", c.Agent.TurnThreshold)
	}
	if c.Worker.MaxSessions <= 0 {
		return fmt.Errorf("worker.max_sessions must be positive")
	}
	for i, srv := range c.MCP {
		switch srv.Transport {
		case "stdio":
			if srv.Command == "" {
				return fmt.Errorf("mcp[%d]: command is required for stdio transport", i)
			}
		case "sse":
			if srv.URL == "" {
				return fmt.Errorf("mcp[%d]: url is required for sse transport", i)
			}
		default:
			return fmt.Errorf("mcp[%d]: unknown transport %q", i, srv.Transport)
		}
	}
	if c.Privacy.EncryptionKey != "" {
		key, err := base64.StdEncoding.DecodeString(c.Privacy.EncryptionKey)
		if err != nil {
			return fmt.Errorf("privacy.encryption_key is not valid base64: %w", err)
		}
		if len(key) != 32 {
			return fmt.Errorf("privacy.encryption_key must decode to 32 bytes, got %d", len(key))
		}
	}
	for i, p := range c.Privacy.MaskPatterns {
		if _, err := regexp.Compile(p); err != nil {
			return fmt.Errorf("privacy.mask_patterns[%d]: %w", i, err)
		}
	}
	if _, err := c.Profile(); err != nil {
		return err
	}
	return nil
}
