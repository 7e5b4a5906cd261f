package config_test

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/androfit/agent/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, config.DefaultPort, cfg.Port)
	assert.Equal(t, "whisper-1", cfg.OpenAI.STTModel)
	assert.Equal(t, "gpt-4o-mini", cfg.OpenAI.LLMModel)
	assert.Equal(t, "tts-1", cfg.OpenAI.TTSModel)
	assert.Equal(t, "alloy", cfg.OpenAI.TTSVoice)
	assert.Equal(t, 30*time.Second, cfg.Worker.DrainTimeout)
	assert.NotEmpty(t, cfg.DataDir)

	require.NoError(t, cfg.Validate())
}

func TestLoad_PortEnvWithoutPrefix(t *testing.T) {
	// The container contract exports bare PORT (original health server reads it).
	t.Setenv("PORT", "9090")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
}

func TestLoad_OpenAIKeyFromCanonicalEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-test", cfg.OpenAI.APIKey)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
port: 8200
log_level: debug
openai:
  llm_model: gpt-4o
worker:
  max_sessions: 2
  drain_timeout: 5s
agent:
  profile:
    name: TestCoach
    instructions: Be brief.
mcp:
  - name: workouts
    transport: stdio
    command: workout-tools
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8200, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "gpt-4o", cfg.OpenAI.LLMModel)
	assert.Equal(t, "whisper-1", cfg.OpenAI.STTModel, "unset fields keep defaults")
	assert.Equal(t, 2, cfg.Worker.MaxSessions)
	assert.Equal(t, 5*time.Second, cfg.Worker.DrainTimeout)

	profile, err := cfg.Profile()
	require.NoError(t, err)
	assert.Equal(t, "TestCoach", profile.Name)
	assert.Equal(t, "Be brief.", profile.Instructions)
	assert.NotEmpty(t, profile.Greeting, "profile overlay keeps default greeting")

	require.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Port = 0
	assert.Error(t, cfg.Validate())

	cfg, _ = config.Load("")
	cfg.Agent.TurnThreshold = 1.5
	assert.Error(t, cfg.Validate())

	cfg, _ = config.Load("")
	cfg.MCP = []config.MCPServerConfig{{Name: "bad", Transport: "carrier-pigeon"}}
	assert.Error(t, cfg.Validate())
}

func TestValidate_Privacy(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	cfg.Privacy.EncryptionKey = "not base64!"
	assert.ErrorContains(t, cfg.Validate(), "base64")

	cfg.Privacy.EncryptionKey = base64.StdEncoding.EncodeToString([]byte("short"))
	assert.ErrorContains(t, cfg.Validate(), "32 bytes")

	cfg.Privacy.EncryptionKey = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", 32)))
	cfg.Privacy.MaskPatterns = []string{"("}
	assert.ErrorContains(t, cfg.Validate(), "mask_patterns")

	cfg.Privacy.MaskPatterns = []string{`\d+`}
	require.NoError(t, cfg.Validate())

	active, fallbacks, err := cfg.Privacy.EncryptionKeys()
	require.NoError(t, err)
	assert.Len(t, active, 32)
	assert.Empty(t, fallbacks)
}
