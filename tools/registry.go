package tools

import (
	"context"

	. "github.com/Aymensat/CarthageGate/logging"
)

// Registry holds all registered tools in registration order.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates a new tool registry
func NewRegistry() *Registry {
	return &Registry{
		tools: make(map[string]Tool),
	}
}

// NewCityRegistry returns the fixed registry of city-service tools.
func NewCityRegistry(gw *Gateway) *Registry {
	r := NewRegistry()
	r.Register(NewMobilityTool(gw))
	r.Register(NewAirQualityTool(gw))
	r.Register(NewEmergencyTool(gw))
	r.Register(NewCityInfoTool(gw))
	return r
}

// Register adds a tool to the registry. Registering a name twice replaces
// the earlier tool but keeps its position.
func (r *Registry) Register(tool Tool) {
	if _, exists := r.tools[tool.Name()]; !exists {
		r.order = append(r.order, tool.Name())
	}
	r.tools[tool.Name()] = tool
}

// Get retrieves a tool by name
func (r *Registry) Get(name string) (Tool, bool) {
	tool, ok := r.tools[name]
	return tool, ok
}

// All returns all registered tools
func (r *Registry) All() []Tool {
	result := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tools[name])
	}
	return result
}

// Specs returns the model-facing description of every tool.
func (r *Registry) Specs() []Spec {
	specs := make([]Spec, 0, len(r.order))
	for _, tool := range r.All() {
		specs = append(specs, Spec{
			Name:        tool.Name(),
			Description: tool.Description(),
			Parameters:  Schema(tool.Params()),
		})
	}
	return specs
}

// Dispatch runs the named tool. It never fails: unknown names, invalid
// params and downstream errors all come back as a descriptive Result.
func (r *Registry) Dispatch(ctx context.Context, name string, params map[string]any) Result {
	tool, ok := r.Get(name)
	if !ok {
		L_warn("tools: unknown tool requested", "tool", name)
		return Failure(&UnknownToolError{Name: name})
	}
	if params == nil {
		params = map[string]any{}
	}

	value, err := tool.Execute(ctx, params)
	if err != nil {
		L_warn("tools: execution failed", "tool", name, "error", err)
		return Failure(err)
	}
	L_debug("tools: execution succeeded", "tool", name, "bytes", len(value))
	return Success(value)
}
