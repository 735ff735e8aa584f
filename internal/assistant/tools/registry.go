// Package tools holds the catalog of functions the model may ask the bot to
// execute on its behalf.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai/jsonschema"

	logx "github.com/tacs-assistant/server/pkg/logger"
)

// Executor runs a tool synchronously. It always returns a textual
// observation, capturing its own failures as strings, because the caller
// must feed something back to the model regardless of outcome.
type Executor func(ctx context.Context, args map[string]any) string

// Descriptor declares one tool: its name, what it does, the JSON schema of
// its arguments, and the function that runs it. Immutable after
// registration.
type Descriptor struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
	Execute     Executor
}

// Definition is the provider-agnostic view of a registered tool, used to
// build the remote tool declarations.
type Definition struct {
	Name        string
	Description string
	Parameters  jsonschema.Definition
}

// Registry is a fixed name-to-tool mapping.
type Registry struct {
	order []string
	tools map[string]Descriptor
}

func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Descriptor),
	}
}

// Register adds a tool to the catalog. Registering a name twice is an error.
func (r *Registry) Register(d Descriptor) error {
	if d.Name == "" {
		return fmt.Errorf("tool name is required")
	}
	if d.Execute == nil {
		return fmt.Errorf("tool %q has no executor", d.Name)
	}
	if _, exists := r.tools[d.Name]; exists {
		return fmt.Errorf("tool %q is already registered", d.Name)
	}
	r.tools[d.Name] = d
	r.order = append(r.order, d.Name)
	return nil
}

// Describe returns the full catalog in registration order.
func (r *Registry) Describe() []Definition {
	defs := make([]Definition, 0, len(r.order))
	for _, name := range r.order {
		d := r.tools[name]
		defs = append(defs, Definition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		})
	}
	return defs
}

// Invoke runs the named tool with JSON-encoded arguments and returns its
// observation. Unknown names and malformed arguments produce deterministic
// strings rather than errors so the dialogue can always advance.
func (r *Registry) Invoke(ctx context.Context, name string, argsJSON string) string {
	d, ok := r.tools[name]
	if !ok {
		logx.Warn().Str("tool", name).Msg("model requested an unregistered tool")
		return fmt.Sprintf("Función '%s' no encontrada", name)
	}

	args := make(map[string]any)
	if argsJSON != "" {
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			logx.Error().Err(err).Str("tool", name).Msg("failed to parse tool arguments")
			return fmt.Sprintf("Error al interpretar los argumentos: %v", err)
		}
	}

	logx.Info().Str("tool", name).Str("arguments", argsJSON).Msg("executing tool")
	return d.Execute(ctx, args)
}
