package tools

import (
	"context"
	"encoding/json"
)

// MobilityTool looks up public transport lines.
type MobilityTool struct {
	gw *Gateway
}

// NewMobilityTool creates the mobility lines tool.
func NewMobilityTool(gw *Gateway) *MobilityTool {
	return &MobilityTool{gw: gw}
}

func (t *MobilityTool) Name() string {
	return "get_mobility_lines"
}

func (t *MobilityTool) Description() string {
	return "Get information about public transport lines like bus, metro, or tram."
}

func (t *MobilityTool) Params() []Param {
	return []Param{
		{Name: "line_type", Type: "string", Description: "e.g., 'Bus', 'Metro', 'Tram'"},
		{Name: "status", Type: "string", Description: "e.g., 'Delayed', 'On Time'"},
	}
}

// Execute forwards every param as a query parameter.
func (t *MobilityTool) Execute(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	body, err := t.gw.Get(ctx, "/mobility/lines", QueryFromParams(params))
	if err != nil {
		return nil, &ServiceError{Service: "Mobility", Err: err}
	}
	return body, nil
}
