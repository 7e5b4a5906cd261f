// Package mcp connects the agent to MCP tool servers and exposes their
// tools to the chat model. One Source aggregates any number of servers;
// tool names are claimed first come, first served.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/androfit/agent/internal/logging"
	"github.com/androfit/agent/pkg/ports"
)

// ServerConfig describes one MCP server to connect to.
type ServerConfig struct {
	// Name identifies the server in logs.
	Name string

	// Transport is "stdio" or "sse".
	Transport string

	// Command and Args spawn a stdio server.
	Command string
	Args    []string
	Env     []string

	// URL is the base URL of an SSE server.
	URL string
}

type serverConn struct {
	name   string
	client *client.Client
	tools  []ports.ToolDecl
}

// Source implements ports.ToolSource over a set of MCP servers.
type Source struct {
	conns  []*serverConn
	owners map[string]*serverConn
	logger *slog.Logger
}

// SourceOption configures a Source.
type SourceOption func(*Source)

// WithLogger configures a logger.
func WithLogger(logger *slog.Logger) SourceOption {
	return func(s *Source) { s.logger = logger }
}

// NewSource connects to every configured server and lists its tools. A
// server that cannot be reached fails the whole construction; callers that
// want to run without tools pass an empty config.
func NewSource(ctx context.Context, servers []ServerConfig, opts ...SourceOption) (*Source, error) {
	s := &Source{
		owners: make(map[string]*serverConn),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	for _, cfg := range servers {
		conn, err := s.connect(ctx, cfg)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect mcp server %q: %w", cfg.Name, err)
		}
		s.conns = append(s.conns, conn)

		for _, decl := range conn.tools {
			if prev, taken := s.owners[decl.Name]; taken {
				s.logger.Warn("duplicate mcp tool name, keeping first",
					"tool", decl.Name, "kept", prev.name, "ignored", conn.name)
				continue
			}
			s.owners[decl.Name] = conn
		}
		s.logger.Info("mcp server connected", "name", cfg.Name, "tools", len(conn.tools))
	}

	return s, nil
}

func (s *Source) connect(ctx context.Context, cfg ServerConfig) (*serverConn, error) {
	var (
		c   *client.Client
		err error
	)
	switch strings.ToLower(cfg.Transport) {
	case "stdio", "":
		c, err = client.NewStdioMCPClient(cfg.Command, cfg.Env, cfg.Args...)
		if err != nil {
			return nil, err
		}
	case "sse":
		c, err = client.NewSSEMCPClient(cfg.URL)
		if err != nil {
			return nil, err
		}
		if err := c.Start(ctx); err != nil {
			return nil, fmt.Errorf("failed to start sse transport: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported transport %q", cfg.Transport)
	}

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "androfit-agent", Version: "1"}
	if _, err := c.Initialize(ctx, initReq); err != nil {
		c.Close()
		return nil, fmt.Errorf("initialize failed: %w", err)
	}

	listed, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("list tools failed: %w", err)
	}

	conn := &serverConn{name: cfg.Name, client: c}
	for _, tool := range listed.Tools {
		conn.tools = append(conn.tools, ports.ToolDecl{
			Name:        tool.Name,
			Description: tool.Description,
			Schema:      toolSchema(tool),
		})
	}
	return conn, nil
}

// toolSchema flattens the MCP input schema into the generic declaration map.
func toolSchema(tool mcp.Tool) map[string]any {
	schema := map[string]any{"type": tool.InputSchema.Type}
	if tool.InputSchema.Properties != nil {
		schema["properties"] = tool.InputSchema.Properties
	}
	if len(tool.InputSchema.Required) > 0 {
		schema["required"] = tool.InputSchema.Required
	}
	return schema
}

// Tools returns the declarations collected at connect time.
func (s *Source) Tools(ctx context.Context) ([]ports.ToolDecl, error) {
	var decls []ports.ToolDecl
	for _, conn := range s.conns {
		for _, decl := range conn.tools {
			if s.owners[decl.Name] == conn {
				decls = append(decls, decl)
			}
		}
	}
	return decls, nil
}

// Call dispatches a tool invocation to the owning server and concatenates
// the text content of the result.
func (s *Source) Call(ctx context.Context, req ports.ToolRequest) (string, error) {
	conn, ok := s.owners[req.Name]
	if !ok {
		return "", fmt.Errorf("unknown tool %q", req.Name)
	}

	args := map[string]any{}
	if strings.TrimSpace(req.Arguments) != "" {
		if err := json.Unmarshal([]byte(req.Arguments), &args); err != nil {
			return "", fmt.Errorf("tool %q got invalid arguments: %w", req.Name, err)
		}
	}

	callReq := mcp.CallToolRequest{}
	callReq.Params.Name = req.Name
	callReq.Params.Arguments = args

	result, err := conn.client.CallTool(ctx, callReq)
	if err != nil {
		return "", fmt.Errorf("tool %q failed: %w", req.Name, err)
	}

	text := flattenContent(result.Content)
	if result.IsError {
		return "", fmt.Errorf("tool %q returned an error: %s", req.Name, text)
	}
	return text, nil
}

func flattenContent(content []mcp.Content) string {
	var parts []string
	for _, item := range content {
		if tc, ok := item.(mcp.TextContent); ok {
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// Close disconnects every server.
func (s *Source) Close() error {
	var errs []error
	for _, conn := range s.conns {
		if err := conn.client.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", conn.name, err))
		}
	}
	return errors.Join(errs...)
}
