package tools

import (
	"context"
	"encoding/json"
)

// EmergencyTool lists emergency alerts for a zone.
type EmergencyTool struct {
	gw *Gateway
}

// NewEmergencyTool creates the emergency alerts tool.
func NewEmergencyTool(gw *Gateway) *EmergencyTool {
	return &EmergencyTool{gw: gw}
}

func (t *EmergencyTool) Name() string {
	return "get_emergency_alerts"
}

func (t *EmergencyTool) Description() string {
	return "Get emergency alerts for a specific zone in the city."
}

func (t *EmergencyTool) Params() []Param {
	return []Param{
		{Name: "zone", Type: "string", Description: "The zone to check for alerts, e.g., 'Downtown', 'Old City'.", Required: true},
	}
}

// Execute puts the zone in the path and the remaining params in the query.
func (t *EmergencyTool) Execute(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	zone, err := requireString(t.Name(), params, "zone")
	if err != nil {
		return nil, err
	}
	body, err := t.gw.Get(ctx, "/emergency/alerts/zone/"+PathSegment(zone), QueryFromParams(params, "zone"))
	if err != nil {
		return nil, &ServiceError{Service: "Emergency", Err: err}
	}
	return body, nil
}
