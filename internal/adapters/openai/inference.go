package openaiadapter

import (
	"context"
	"fmt"

	"github.com/alexvidal/safewalk/internal/core/domain"
	"github.com/alexvidal/safewalk/internal/pkg/geospatial"
)

const structuredSystemPrompt = "You are a personal-safety analysis engine. " +
	"Respond with a single JSON object exactly matching the requested shape. " +
	"No prose, no markdown fences."

// SafetyScore requests the area safety assessment for the location.
func (c *Client) SafetyScore(ctx context.Context, loc domain.Coordinate) (*domain.SafetyScore, error) {
	prompt := fmt.Sprintf(
		`Assess walking safety for the area around (%.4f, %.4f) right now. `+
			`Return JSON: {"total":0-100,"lighting":0-100,"safety_history":0-100,"crowd_activity":0-100,"description":"one sentence"}`,
		loc.Lat, loc.Lng)

	raw, err := c.complete(ctx, structuredSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("safety score request: %w", err)
	}
	score, err := parseSafetyScore(raw)
	if err != nil {
		c.log.Warn("safety score response rejected", "error", err)
		return nil, err
	}
	return score, nil
}

// ThreatZones requests risk hotspots near the location.
func (c *Client) ThreatZones(ctx context.Context, loc domain.Coordinate) ([]domain.ThreatZone, error) {
	box := geospatial.BoundingBox(loc, 1000)
	prompt := fmt.Sprintf(
		`List up to 5 risk hotspots within 1 km of (%.4f, %.4f), `+
			`keeping centers inside lat [%.4f, %.4f] and lng [%.4f, %.4f]. `+
			`Return JSON: {"zones":[{"id":"string","lat":0.0,"lng":0.0,"radius":meters,"intensity":"High|Medium|Low","reason":"short"}]}`,
		loc.Lat, loc.Lng, box.MinLat, box.MaxLat, box.MinLng, box.MaxLng)

	raw, err := c.complete(ctx, structuredSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("threat zones request: %w", err)
	}
	zones, err := parseThreatZones(raw)
	if err != nil {
		c.log.Warn("threat zones response rejected", "error", err)
		return nil, err
	}
	return zones, nil
}

// Route requests a safe walking route between two points.
func (c *Client) Route(ctx context.Context, from, to domain.Coordinate) (*domain.RoutePlan, error) {
	direct := geospatial.Haversine(from, to)
	prompt := fmt.Sprintf(
		`Suggest the safest walking route from (%.4f, %.4f) to (%.4f, %.4f), `+
			`straight-line distance %s. `+
			`Return JSON: {"points":[[lat,lng],...],"distance":"text","duration":"text","safety_rating":"text"} with at least 2 points.`,
		from.Lat, from.Lng, to.Lat, to.Lng, geospatial.FormatDistance(direct))

	raw, err := c.complete(ctx, structuredSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("route request: %w", err)
	}
	route, err := parseRoutePlan(raw)
	if err != nil {
		c.log.Warn("route response rejected", "error", err)
		return nil, err
	}
	if route.Distance == "" {
		route.Distance = geospatial.FormatDistance(pathLength(route.Points))
	}
	return route, nil
}

// pathLength sums the great-circle length of consecutive segments.
func pathLength(points []domain.Coordinate) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += geospatial.Haversine(points[i-1], points[i])
	}
	return total
}

// RiskTrend requests the risk-over-time trend for the location.
func (c *Client) RiskTrend(ctx context.Context, loc domain.Coordinate) ([]domain.RiskPoint, error) {
	prompt := fmt.Sprintf(
		`Estimate the hourly risk trend for the area around (%.4f, %.4f) over the next 6 hours. `+
			`Return JSON: {"trend":[{"time":"HH:MM","score":0-100}]}`,
		loc.Lat, loc.Lng)

	raw, err := c.complete(ctx, structuredSystemPrompt, prompt)
	if err != nil {
		return nil, fmt.Errorf("risk trend request: %w", err)
	}
	trend, err := parseRiskTrend(raw)
	if err != nil {
		c.log.Warn("risk trend response rejected", "error", err)
		return nil, err
	}
	return trend, nil
}
