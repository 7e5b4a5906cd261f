package ports

import "context"

// ToolSource discovers and executes external tools made available to the
// chat model (e.g. via MCP servers).
type ToolSource interface {
	// Tools returns the declarations of all available tools.
	Tools(ctx context.Context) ([]ToolDecl, error)

	// Call invokes a tool and returns its textual result.
	Call(ctx context.Context, req ToolRequest) (string, error)

	// Close releases any underlying connections.
	Close() error
}
