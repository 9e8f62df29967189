package planner

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeFetcher serves canned bodies keyed by path plus encoded query.
type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]string
	failures  map[string]error
	requested []string
}

func (f *fakeFetcher) Get(_ context.Context, path string, query url.Values) (json.RawMessage, error) {
	key := path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	f.mu.Lock()
	f.requested = append(f.requested, key)
	f.mu.Unlock()

	if err, ok := f.failures[key]; ok {
		return nil, err
	}
	if body, ok := f.responses[key]; ok {
		return json.RawMessage(body), nil
	}
	return json.RawMessage(`[]`), nil
}

func rawStrings(raws []json.RawMessage) []string {
	out := make([]string, len(raws))
	for i, r := range raws {
		out[i] = string(r)
	}
	return out
}

func TestLocationsForZone(t *testing.T) {
	assert.Equal(t, []string{"Ariana", "Ariana Center"}, LocationsForZone("Ariana"))
	assert.Equal(t, []string{"Menzah"}, LocationsForZone("Menzah"))
}

func TestUniqueLocations(t *testing.T) {
	got := uniqueLocations("La Marsa", "Sidi Bou Said", "La Marsa")
	assert.Equal(t, []string{"La Marsa", "Sidi Bou Said"}, got)
}

func TestPlan_Success(t *testing.T) {
	f := &fakeFetcher{responses: map[string]string{
		"/air-quality/zones/La%20Marsa": `{"zoneName":"La Marsa","aqi":30}`,
		"/mobility/schedules": `[
			{"id":1,"stationFrom":"La Marsa","stationTo":"Tunis Marine"},
			{"id":2,"stationFrom":"Ariana","stationTo":"Tunis Marine"},
			{"id":3,"stationFrom":"La Marsa","stationTo":"Barcelona"}
		]`,
	}}

	plan := New(f).Plan(context.Background(), "La Marsa", "Tunis Center")

	assert.Equal(t, "La Marsa", plan.StartZone)
	assert.Equal(t, "Tunis Center", plan.DestinationZone)
	assert.JSONEq(t, `{"zoneName":"La Marsa","aqi":30}`, string(plan.AirQuality))
	require.Len(t, plan.TransportOptions, 2)
	assert.JSONEq(t, `{"id":1,"stationFrom":"La Marsa","stationTo":"Tunis Marine"}`, string(plan.TransportOptions[0]))
	assert.JSONEq(t, `{"id":3,"stationFrom":"La Marsa","stationTo":"Barcelona"}`, string(plan.TransportOptions[1]))
	assert.Empty(t, plan.EmergencyAlerts)
	assert.Empty(t, plan.Warnings)
	assert.Empty(t, plan.Errors)
	assert.Equal(t, "Trip plan generated successfully.", plan.Message)
}

func TestPlan_AlertsQueriedPerStationAndStatus(t *testing.T) {
	f := &fakeFetcher{}

	New(f).Plan(context.Background(), "Charguia", "La Goulette")

	for _, want := range []string{
		"/emergency/alerts/zone/Charguia?status=PENDING",
		"/emergency/alerts/zone/Charguia?status=IN_PROGRESS",
		"/emergency/alerts/zone/Charguia%202?status=PENDING",
		"/emergency/alerts/zone/Charguia%202?status=IN_PROGRESS",
		"/emergency/alerts/zone/La%20Goulette?status=PENDING",
		"/emergency/alerts/zone/La%20Goulette?status=IN_PROGRESS",
	} {
		assert.Contains(t, f.requested, want)
	}
}

func TestPlan_AlertsDeduplicatedByID(t *testing.T) {
	shared := `{"id":7,"type":"FIRE","location":"Ariana"}`
	f := &fakeFetcher{responses: map[string]string{
		"/emergency/alerts/zone/Ariana?status=PENDING":              `[` + shared + `]`,
		"/emergency/alerts/zone/Ariana%20Center?status=PENDING":     `[` + shared + `,{"id":8,"type":"FLOOD"}]`,
		"/emergency/alerts/zone/Ariana%20Center?status=IN_PROGRESS": `[{"type":"NOISE"},{"type":"NOISE"}]`,
	}}

	plan := New(f).Plan(context.Background(), "Ariana", "Ariana")

	got := rawStrings(plan.EmergencyAlerts)
	assert.Len(t, got, 4)
	assert.Equal(t, 1, countContaining(got, `"id":7`))
	assert.Equal(t, 1, countContaining(got, `"id":8`))
	assert.Equal(t, 2, countContaining(got, `NOISE`))
	assert.Contains(t, plan.Warnings, "Active emergency alerts in or near your zones.")
	assert.Equal(t, "Trip plan generated with warnings.", plan.Message)
}

func TestPlan_AlertFailureForOneLocationIsSkipped(t *testing.T) {
	f := &fakeFetcher{
		responses: map[string]string{
			"/emergency/alerts/zone/La%20Goulette?status=PENDING": `[{"id":1}]`,
		},
		failures: map[string]error{
			"/emergency/alerts/zone/La%20Marsa?status=PENDING": errors.New("503 Server Error"),
		},
	}

	plan := New(f).Plan(context.Background(), "La Marsa", "La Goulette")

	assert.Len(t, plan.EmergencyAlerts, 1)
	assert.Empty(t, plan.Errors)
}

func TestPlan_AirQualityWarnings(t *testing.T) {
	tests := []struct {
		aqi  string
		want string
	}{
		{"20", ""},
		{"50", "Air quality in Charguia is Moderate (50 AQI)."},
		{"120", "Air quality in Charguia is Unhealthy for Sensitive Groups (120 AQI)."},
		{"150", "Air quality in Charguia is Unhealthy (150 AQI). Consider alternative plans."},
		{"210.5", "Air quality in Charguia is Unhealthy (210.5 AQI). Consider alternative plans."},
	}

	for _, tt := range tests {
		t.Run(tt.aqi, func(t *testing.T) {
			f := &fakeFetcher{responses: map[string]string{
				"/air-quality/zones/Charguia": `{"aqi":` + tt.aqi + `}`,
				"/mobility/schedules":         `[{"stationFrom":"Charguia","stationTo":"Ariana"}]`,
			}}

			plan := New(f).Plan(context.Background(), "Charguia", "Ariana")

			if tt.want == "" {
				assert.Empty(t, plan.Warnings)
				return
			}
			assert.Equal(t, []string{tt.want}, plan.Warnings)
		})
	}
}

func TestPlan_SectionFailuresAreReported(t *testing.T) {
	f := &fakeFetcher{failures: map[string]error{
		"/air-quality/zones/Ariana": errors.New("404 Client Error"),
		"/mobility/schedules":       errors.New("connection refused"),
	}}

	plan := New(f).Plan(context.Background(), "Ariana", "La Marsa")

	assert.Equal(t, []string{
		"Failed to retrieve air quality for Ariana: 404 Client Error",
		"Failed to retrieve transport options: connection refused",
	}, plan.Errors)
	assert.Nil(t, plan.AirQuality)
	assert.Empty(t, plan.TransportOptions)
	assert.Equal(t, "Trip plan generated with errors and warnings.", plan.Message)
}

func TestPlan_NoDirectTransport(t *testing.T) {
	f := &fakeFetcher{responses: map[string]string{
		"/air-quality/zones/La%20Marsa": `{"aqi":10}`,
		"/mobility/schedules":           `[{"stationFrom":"Ariana","stationTo":"La Goulette"}]`,
	}}

	plan := New(f).Plan(context.Background(), "La Marsa", "La Goulette")

	assert.Equal(t, []string{"No direct transport options found from La Marsa to La Goulette."}, plan.Warnings)
	assert.Equal(t, "Trip plan generated with warnings.", plan.Message)
}

func TestPlan_EncodesCamelCase(t *testing.T) {
	plan := New(&fakeFetcher{}).Plan(context.Background(), "A", "B")

	body, err := json.Marshal(plan)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(body, &fields))
	for _, key := range []string{"startZone", "destinationZone", "airQuality", "transportOptions", "emergencyAlerts", "warnings", "errors", "message"} {
		assert.Contains(t, fields, key)
	}
}

func countContaining(items []string, substr string) int {
	n := 0
	for _, item := range items {
		if strings.Contains(item, substr) {
			n++
		}
	}
	return n
}
