package tools

import (
	"context"
	"encoding/json"
)

// AirQualityTool fetches the latest AQI record for a named zone.
type AirQualityTool struct {
	gw *Gateway
}

// NewAirQualityTool creates the air quality tool.
func NewAirQualityTool(gw *Gateway) *AirQualityTool {
	return &AirQualityTool{gw: gw}
}

func (t *AirQualityTool) Name() string {
	return "get_air_quality"
}

func (t *AirQualityTool) Description() string {
	return "Get the latest air quality index (AQI) for a named city zone."
}

func (t *AirQualityTool) Params() []Param {
	return []Param{
		{Name: "zone_name", Type: "string", Description: "The name of the zone, e.g., 'Tunis Center', 'Charguia'.", Required: true},
	}
}

func (t *AirQualityTool) Execute(ctx context.Context, params map[string]any) (json.RawMessage, error) {
	zone, err := requireString(t.Name(), params, "zone_name")
	if err != nil {
		return nil, err
	}
	body, err := t.gw.Get(ctx, "/air-quality/zones/"+PathSegment(zone), nil)
	if err != nil {
		return nil, &ServiceError{Service: "Air Quality", Err: err}
	}
	return body, nil
}
