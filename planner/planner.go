// Package planner combines alerts, air quality and schedules from the city
// gateway into a trip plan between two zones.
package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"slices"

	"github.com/sourcegraph/conc/iter"

	"github.com/Aymensat/CarthageGate/tools"

	. "github.com/Aymensat/CarthageGate/logging"
)

// AQI thresholds for warnings.
const (
	aqiModerate              = 50
	aqiUnhealthyForSensitive = 100
	aqiUnhealthy             = 150
)

// Alert statuses that still matter to a traveller.
var activeAlertStatuses = []string{"PENDING", "IN_PROGRESS"}

// zoneStations maps broad zones to the station names the services use.
var zoneStations = map[string][]string{
	"Charguia":               {"Charguia", "Charguia 2"},
	"Tunis Center":           {"Tunis Center", "Tunis Marine", "République", "Barcelona", "Bab Bhar", "Jardin Thameur"},
	"Sidi Bou Said":          {"Sidi Bou Said"},
	"Ariana":                 {"Ariana", "Ariana Center"},
	"Tunis Carthage Airport": {"Tunis Carthage Airport"},
	"La Marsa":               {"La Marsa"},
	"La Goulette":            {"La Goulette"},
}

// LocationsForZone returns the station names of zone, or the zone itself
// when it is not a known zone.
func LocationsForZone(zone string) []string {
	if stations, ok := zoneStations[zone]; ok {
		return stations
	}
	return []string{zone}
}

// Fetcher issues GET requests against the city gateway.
type Fetcher interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
}

// TripPlan is the combined answer for one trip.
type TripPlan struct {
	StartZone        string            `json:"startZone"`
	DestinationZone  string            `json:"destinationZone"`
	AirQuality       json.RawMessage   `json:"airQuality"`
	TransportOptions []json.RawMessage `json:"transportOptions"`
	EmergencyAlerts  []json.RawMessage `json:"emergencyAlerts"`
	Warnings         []string          `json:"warnings"`
	Errors           []string          `json:"errors"`
	Message          string            `json:"message"`
}

// Planner builds trip plans.
type Planner struct {
	gw Fetcher
}

// New creates a Planner backed by gw.
func New(gw Fetcher) *Planner {
	return &Planner{gw: gw}
}

// Plan gathers everything for a trip. Section failures are reported in the
// plan's Errors and never abort the others.
func (p *Planner) Plan(ctx context.Context, startZone, destinationZone string) *TripPlan {
	plan := &TripPlan{
		StartZone:        startZone,
		DestinationZone:  destinationZone,
		TransportOptions: []json.RawMessage{},
		EmergencyAlerts:  []json.RawMessage{},
		Warnings:         []string{},
		Errors:           []string{},
	}

	p.addAlerts(ctx, plan)
	p.addAirQuality(ctx, plan)
	p.addTransport(ctx, plan)

	switch {
	case len(plan.Errors) == 0 && len(plan.Warnings) > 0:
		plan.Message = "Trip plan generated with warnings."
	case len(plan.Errors) == 0:
		plan.Message = "Trip plan generated successfully."
	default:
		plan.Message = "Trip plan generated with errors and warnings."
	}
	return plan
}

func (p *Planner) addAlerts(ctx context.Context, plan *TripPlan) {
	locations := uniqueLocations(plan.StartZone, plan.DestinationZone)

	perLocation := iter.Map(locations, func(location *string) []json.RawMessage {
		alerts, err := p.activeAlerts(ctx, *location)
		if err != nil {
			L_warn("planner: could not fetch alerts", "location", *location, "error", err)
			return nil
		}
		return alerts
	})

	seen := map[string]bool{}
	for _, alerts := range perLocation {
		for _, alert := range alerts {
			if id, ok := alertID(alert); ok {
				if seen[id] {
					continue
				}
				seen[id] = true
			}
			plan.EmergencyAlerts = append(plan.EmergencyAlerts, alert)
		}
	}
	if len(plan.EmergencyAlerts) > 0 {
		plan.Warnings = append(plan.Warnings, "Active emergency alerts in or near your zones.")
	}
}

func (p *Planner) activeAlerts(ctx context.Context, location string) ([]json.RawMessage, error) {
	var all []json.RawMessage
	for _, status := range activeAlertStatuses {
		body, err := p.gw.Get(ctx, "/emergency/alerts/zone/"+tools.PathSegment(location), url.Values{"status": {status}})
		if err != nil {
			return nil, err
		}
		var alerts []json.RawMessage
		if err := json.Unmarshal(body, &alerts); err != nil {
			return nil, fmt.Errorf("decoding alerts: %w", err)
		}
		all = append(all, alerts...)
	}
	return all, nil
}

func alertID(alert json.RawMessage) (string, bool) {
	var a struct {
		ID json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(alert, &a); err != nil || len(a.ID) == 0 || string(a.ID) == "null" {
		return "", false
	}
	return string(a.ID), true
}

func (p *Planner) addAirQuality(ctx context.Context, plan *TripPlan) {
	body, err := p.gw.Get(ctx, "/air-quality/zones/"+tools.PathSegment(plan.StartZone), nil)
	if err != nil {
		L_error("planner: air quality fetch failed", "zone", plan.StartZone, "error", err)
		plan.Errors = append(plan.Errors, fmt.Sprintf("Failed to retrieve air quality for %s: %v", plan.StartZone, err))
		return
	}
	plan.AirQuality = body

	var record struct {
		AQI float64 `json:"aqi"`
	}
	if err := json.Unmarshal(body, &record); err != nil {
		return
	}
	if w := aqiWarning(plan.StartZone, record.AQI); w != "" {
		plan.Warnings = append(plan.Warnings, w)
	}
}

func aqiWarning(zone string, aqi float64) string {
	switch {
	case aqi >= aqiUnhealthy:
		return fmt.Sprintf("Air quality in %s is Unhealthy (%g AQI). Consider alternative plans.", zone, aqi)
	case aqi >= aqiUnhealthyForSensitive:
		return fmt.Sprintf("Air quality in %s is Unhealthy for Sensitive Groups (%g AQI).", zone, aqi)
	case aqi >= aqiModerate:
		return fmt.Sprintf("Air quality in %s is Moderate (%g AQI).", zone, aqi)
	}
	return ""
}

func (p *Planner) addTransport(ctx context.Context, plan *TripPlan) {
	body, err := p.gw.Get(ctx, "/mobility/schedules", nil)
	if err == nil {
		err = p.filterSchedules(body, plan)
	}
	if err != nil {
		L_error("planner: schedules fetch failed", "error", err)
		plan.Errors = append(plan.Errors, fmt.Sprintf("Failed to retrieve transport options: %v", err))
		return
	}
	if len(plan.TransportOptions) == 0 {
		plan.Warnings = append(plan.Warnings, fmt.Sprintf("No direct transport options found from %s to %s.", plan.StartZone, plan.DestinationZone))
	}
}

func (p *Planner) filterSchedules(body json.RawMessage, plan *TripPlan) error {
	var schedules []json.RawMessage
	if err := json.Unmarshal(body, &schedules); err != nil {
		return fmt.Errorf("decoding schedules: %w", err)
	}

	from := LocationsForZone(plan.StartZone)
	to := LocationsForZone(plan.DestinationZone)
	for _, raw := range schedules {
		var s struct {
			StationFrom string `json:"stationFrom"`
			StationTo   string `json:"stationTo"`
		}
		if err := json.Unmarshal(raw, &s); err != nil {
			continue
		}
		if slices.Contains(from, s.StationFrom) && slices.Contains(to, s.StationTo) {
			plan.TransportOptions = append(plan.TransportOptions, raw)
		}
	}
	return nil
}

func uniqueLocations(zones ...string) []string {
	var out []string
	for _, zone := range zones {
		for _, loc := range LocationsForZone(zone) {
			if !slices.Contains(out, loc) {
				out = append(out, loc)
			}
		}
	}
	return out
}
