// Package process exposes allow-listed local commands as tools the chat
// model can call. Arguments are delivered through environment variables
// instead of the command line, so tool input can never be interpreted as
// shell syntax or extra flags.
package process

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/androfit/agent/pkg/ports"
)

// DefaultTimeout bounds a single tool invocation.
const DefaultTimeout = 30 * time.Second

// argEnvPrefix is prepended to upper-cased argument names.
const argEnvPrefix = "ANDROFIT_ARG_"

// Source implements ports.ToolSource on top of local processes.
type Source struct {
	tools   map[string]ToolConfig
	timeout time.Duration
}

// Option configures the source.
type Option func(*Source)

// WithTimeout overrides the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// New builds a source from an allow-list of tool definitions.
func New(configs []ToolConfig, opts ...Option) (*Source, error) {
	if len(configs) == 0 {
		return nil, fmt.Errorf("no process tools configured")
	}

	s := &Source{
		tools:   make(map[string]ToolConfig, len(configs)),
		timeout: DefaultTimeout,
	}
	for _, cfg := range configs {
		if err := cfg.validate(); err != nil {
			return nil, err
		}
		if _, exists := s.tools[cfg.Name]; exists {
			return nil, fmt.Errorf("duplicate process tool %q", cfg.Name)
		}
		s.tools[cfg.Name] = cfg
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Tools returns the declarations of all allow-listed commands.
func (s *Source) Tools(_ context.Context) ([]ports.ToolDecl, error) {
	decls := make([]ports.ToolDecl, 0, len(s.tools))
	for _, cfg := range s.tools {
		schema := cfg.Schema
		if schema == nil {
			schema = map[string]any{"type": "object"}
		}
		decls = append(decls, ports.ToolDecl{
			Name:        cfg.Name,
			Description: cfg.Description,
			Schema:      schema,
		})
	}
	sort.Slice(decls, func(i, j int) bool { return decls[i].Name < decls[j].Name })
	return decls, nil
}

// Call runs the command behind the named tool and returns its stdout.
func (s *Source) Call(ctx context.Context, req ports.ToolRequest) (string, error) {
	cfg, ok := s.tools[req.Name]
	if !ok {
		return "", fmt.Errorf("tool not registered: %s", req.Name)
	}

	args := map[string]any{}
	if req.Arguments != "" {
		if err := json.Unmarshal([]byte(req.Arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for tool %s: %w", req.Name, err)
		}
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, cfg.Command, cfg.Args...)
	cmd.Env = buildEnv(cfg, args)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("tool %s failed: %w: %s", req.Name, err, msg)
		}
		return "", fmt.Errorf("tool %s failed: %w", req.Name, err)
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Close is a no-op; commands run to completion per call.
func (s *Source) Close() error {
	return nil
}

func buildEnv(cfg ToolConfig, args map[string]any) []string {
	env := os.Environ()
	for k, v := range cfg.Environment {
		env = append(env, fmt.Sprintf("%s=%s", k, v))
	}
	for k, v := range args {
		env = append(env, fmt.Sprintf("%s%s=%v", argEnvPrefix, strings.ToUpper(k), v))
	}
	return env
}
