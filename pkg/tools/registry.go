package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/mark3labs/mcp-go/mcp"
)

/*
Handler executes a tool with already decoded arguments and returns the
result as text, the form completion services feed back to the model.
*/
type Handler func(ctx context.Context, args map[string]any) (string, error)

type Tool struct {
	Declaration mcp.Tool
	Handler     Handler
}

/*
Registry is the tool set declared to the completion service. Tools keep
their registration order so declarations are stable across calls.
*/
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

type ErrUnknownTool struct {
	Name string
}

func (err ErrUnknownTool) Error() string {
	return fmt.Sprintf("unknown tool %q", err.Name)
}

func NewRegistry(tools ...Tool) *Registry {
	registry := &Registry{tools: make(map[string]Tool)}

	for _, tool := range tools {
		registry.Register(tool)
	}

	return registry
}

func (registry *Registry) Register(tool Tool) {
	registry.mu.Lock()
	defer registry.mu.Unlock()

	name := tool.Declaration.Name

	if _, ok := registry.tools[name]; !ok {
		registry.order = append(registry.order, name)
	}

	registry.tools[name] = tool
}

func (registry *Registry) Len() int {
	if registry == nil {
		return 0
	}

	registry.mu.RLock()
	defer registry.mu.RUnlock()

	return len(registry.order)
}

func (registry *Registry) Declarations() []mcp.Tool {
	if registry == nil {
		return nil
	}

	registry.mu.RLock()
	defer registry.mu.RUnlock()

	out := make([]mcp.Tool, 0, len(registry.order))

	for _, name := range registry.order {
		out = append(out, registry.tools[name].Declaration)
	}

	return out
}

func (registry *Registry) Execute(
	ctx context.Context, name string, args map[string]any,
) (string, error) {
	if registry == nil {
		return "", ErrUnknownTool{Name: name}
	}

	registry.mu.RLock()
	tool, ok := registry.tools[name]
	registry.mu.RUnlock()

	if !ok {
		return "", ErrUnknownTool{Name: name}
	}

	log.Info("executing tool", "tool", name, "args", args)

	result, err := tool.Handler(ctx, args)

	if err != nil {
		log.Error("tool failed", "tool", name, "error", err)
		return "", fmt.Errorf("tool %s: %w", name, err)
	}

	return result, nil
}

// ExecuteJSON decodes a JSON object of arguments before executing.
func (registry *Registry) ExecuteJSON(
	ctx context.Context, name string, rawArgs string,
) (string, error) {
	args := map[string]any{}

	if rawArgs != "" {
		if err := json.Unmarshal([]byte(rawArgs), &args); err != nil {
			return "", fmt.Errorf("tool %s: malformed arguments: %w", name, err)
		}
	}

	return registry.Execute(ctx, name, args)
}
