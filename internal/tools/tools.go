// Package tools combines and supplements the agent's tool sources.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/androfit/agent/pkg/ports"
)

// Multi merges several tool sources into one. Tool names are resolved
// first-come: the earliest source declaring a name owns it.
func Multi(sources ...ports.ToolSource) ports.ToolSource {
	if len(sources) == 1 {
		return sources[0]
	}
	return &multiSource{sources: sources}
}

type multiSource struct {
	sources []ports.ToolSource

	mu     sync.Mutex
	owners map[string]ports.ToolSource
}

func (m *multiSource) Tools(ctx context.Context) ([]ports.ToolDecl, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.owners = make(map[string]ports.ToolSource)
	var decls []ports.ToolDecl
	for _, src := range m.sources {
		ts, err := src.Tools(ctx)
		if err != nil {
			return nil, err
		}
		for _, decl := range ts {
			if _, taken := m.owners[decl.Name]; taken {
				continue
			}
			m.owners[decl.Name] = src
			decls = append(decls, decl)
		}
	}
	return decls, nil
}

func (m *multiSource) Call(ctx context.Context, req ports.ToolRequest) (string, error) {
	m.mu.Lock()
	owner := m.owners[req.Name]
	m.mu.Unlock()

	if owner == nil {
		return "", fmt.Errorf("tool not found: %s", req.Name)
	}
	return owner.Call(ctx, req)
}

func (m *multiSource) Close() error {
	var errs []error
	for _, src := range m.sources {
		if err := src.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// ToolFunc is an in-process tool implementation. It receives the decoded
// argument object and returns the textual result handed back to the model.
type ToolFunc func(ctx context.Context, args map[string]any) (string, error)

// FuncSource exposes registered Go functions as tools. It lets embedders add
// custom behavior without running an external server.
type FuncSource struct {
	mu    sync.RWMutex
	decls []ports.ToolDecl
	funcs map[string]ToolFunc
}

// NewFuncSource creates an empty function-backed tool source.
func NewFuncSource() *FuncSource {
	return &FuncSource{funcs: make(map[string]ToolFunc)}
}

// Register adds a tool. A tool with the same name is overwritten.
func (f *FuncSource) Register(decl ports.ToolDecl, fn ToolFunc) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if decl.Schema == nil {
		decl.Schema = map[string]any{"type": "object"}
	}
	if _, exists := f.funcs[decl.Name]; exists {
		for i := range f.decls {
			if f.decls[i].Name == decl.Name {
				f.decls[i] = decl
				break
			}
		}
	} else {
		f.decls = append(f.decls, decl)
	}
	f.funcs[decl.Name] = fn
}

func (f *FuncSource) Tools(_ context.Context) ([]ports.ToolDecl, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]ports.ToolDecl, len(f.decls))
	copy(out, f.decls)
	return out, nil
}

func (f *FuncSource) Call(ctx context.Context, req ports.ToolRequest) (string, error) {
	f.mu.RLock()
	fn, ok := f.funcs[req.Name]
	f.mu.RUnlock()

	if !ok {
		return "", fmt.Errorf("tool not found: %s", req.Name)
	}

	args := map[string]any{}
	if req.Arguments != "" {
		if err := json.Unmarshal([]byte(req.Arguments), &args); err != nil {
			return "", fmt.Errorf("invalid arguments for tool %s: %w", req.Name, err)
		}
	}
	return fn(ctx, args)
}

func (f *FuncSource) Close() error {
	return nil
}
