// Package tools provides the city-service tools the model may call and the
// registry that dispatches them.
package tools

import (
	"context"
	"encoding/json"
)

// Tool defines the interface that all tools must implement.
type Tool interface {
	// Name returns the unique identifier for this tool.
	Name() string

	// Description returns a human-readable description for the LLM.
	Description() string

	// Params describes the parameters the tool accepts.
	Params() []Param

	// Execute validates params, calls the downstream service and returns
	// its JSON body. Validation and transport failures come back as errors.
	Execute(ctx context.Context, params map[string]any) (json.RawMessage, error)
}

// Param describes one tool parameter.
type Param struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Spec is the model-facing description of a tool.
type Spec struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Schema renders params as a JSON schema object.
func Schema(params []Param) map[string]any {
	properties := make(map[string]any, len(params))
	required := []string{}
	for _, p := range params {
		properties[p.Name] = map[string]any{
			"type":        p.Type,
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

// requireString returns the non-empty string value of key.
func requireString(tool string, params map[string]any, key string) (string, error) {
	raw, ok := params[key]
	if !ok || isEmpty(raw) {
		return "", &MissingParamError{Tool: tool, Param: key}
	}
	if s, ok := raw.(string); ok {
		return s, nil
	}
	return formatValue(raw), nil
}

// isEmpty treats null, "", false, zero and empty containers as absent.
func isEmpty(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	case json.Number:
		f, err := t.Float64()
		return err == nil && f == 0
	case float64:
		return t == 0
	case []any:
		return len(t) == 0
	case map[string]any:
		return len(t) == 0
	}
	return false
}
