package openaiadapter

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/alexvidal/safewalk/internal/core/domain"
)

// Wire shapes. Numeric fields are pointers so a missing field is
// distinguishable from zero; the all-or-reject rule depends on that.

type scorePayload struct {
	Total         *int   `json:"total"`
	Lighting      *int   `json:"lighting"`
	SafetyHistory *int   `json:"safety_history"`
	CrowdActivity *int   `json:"crowd_activity"`
	Description   string `json:"description"`
}

type zonesPayload struct {
	Zones []zonePayload `json:"zones"`
}

type zonePayload struct {
	ID        string   `json:"id"`
	Lat       *float64 `json:"lat"`
	Lng       *float64 `json:"lng"`
	Radius    *float64 `json:"radius"`
	Intensity string   `json:"intensity"`
	Reason    string   `json:"reason"`
}

type routePayload struct {
	Points       [][]float64 `json:"points"`
	Distance     string      `json:"distance"`
	Duration     string      `json:"duration"`
	SafetyRating string      `json:"safety_rating"`
}

type trendPayload struct {
	Trend []trendPointPayload `json:"trend"`
}

type trendPointPayload struct {
	Time  string `json:"time"`
	Score *int   `json:"score"`
}

// stripFences removes markdown code fences some models wrap around JSON
// despite instructions.
func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(s, "```")
	}
	return strings.TrimSpace(s)
}

func parseSafetyScore(raw string) (*domain.SafetyScore, error) {
	var p scorePayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &p); err != nil {
		return nil, fmt.Errorf("decode score: %v: %w", err, domain.ErrMalformedResponse)
	}
	if p.Total == nil || p.Lighting == nil || p.SafetyHistory == nil || p.CrowdActivity == nil {
		return nil, fmt.Errorf("score missing numeric fields: %w", domain.ErrMalformedResponse)
	}
	score := domain.SafetyScore{
		Total:         *p.Total,
		Lighting:      *p.Lighting,
		SafetyHistory: *p.SafetyHistory,
		CrowdActivity: *p.CrowdActivity,
		Description:   p.Description,
	}
	if !score.Valid() {
		return nil, fmt.Errorf("score fields out of [0,100]: %w", domain.ErrMalformedResponse)
	}
	return &score, nil
}

func parseThreatZones(raw string) ([]domain.ThreatZone, error) {
	var p zonesPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &p); err != nil {
		return nil, fmt.Errorf("decode zones: %v: %w", err, domain.ErrMalformedResponse)
	}
	zones := make([]domain.ThreatZone, 0, len(p.Zones))
	for i, z := range p.Zones {
		if z.Lat == nil || z.Lng == nil || z.Radius == nil {
			return nil, fmt.Errorf("zone %d missing geometry: %w", i, domain.ErrMalformedResponse)
		}
		zone := domain.ThreatZone{
			ID:        z.ID,
			Center:    domain.Coordinate{Lat: *z.Lat, Lng: *z.Lng},
			RadiusM:   *z.Radius,
			Intensity: domain.Intensity(z.Intensity),
			Reason:    z.Reason,
		}
		if zone.ID == "" {
			zone.ID = fmt.Sprintf("zone-%d", i+1)
		}
		if !zone.Valid() {
			return nil, fmt.Errorf("zone %d invalid (%+v): %w", i, z, domain.ErrMalformedResponse)
		}
		zones = append(zones, zone)
	}
	return zones, nil
}

func parseRoutePlan(raw string) (*domain.RoutePlan, error) {
	var p routePayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &p); err != nil {
		return nil, fmt.Errorf("decode route: %v: %w", err, domain.ErrMalformedResponse)
	}
	if len(p.Points) < 2 {
		return nil, fmt.Errorf("route needs at least 2 points, got %d: %w", len(p.Points), domain.ErrMalformedResponse)
	}
	points := make([]domain.Coordinate, 0, len(p.Points))
	for i, pair := range p.Points {
		if len(pair) != 2 {
			return nil, fmt.Errorf("route point %d is not a [lat,lng] pair: %w", i, domain.ErrMalformedResponse)
		}
		pt := domain.Coordinate{Lat: pair[0], Lng: pair[1]}
		if !pt.Valid() {
			return nil, fmt.Errorf("route point %d not finite: %w", i, domain.ErrMalformedResponse)
		}
		points = append(points, pt)
	}
	return &domain.RoutePlan{
		Points:       points,
		Distance:     p.Distance,
		Duration:     p.Duration,
		SafetyRating: p.SafetyRating,
	}, nil
}

func parseRiskTrend(raw string) ([]domain.RiskPoint, error) {
	var p trendPayload
	if err := json.Unmarshal([]byte(stripFences(raw)), &p); err != nil {
		return nil, fmt.Errorf("decode trend: %v: %w", err, domain.ErrMalformedResponse)
	}
	trend := make([]domain.RiskPoint, 0, len(p.Trend))
	for i, tp := range p.Trend {
		if tp.Score == nil || *tp.Score < 0 || *tp.Score > 100 {
			return nil, fmt.Errorf("trend point %d score invalid: %w", i, domain.ErrMalformedResponse)
		}
		trend = append(trend, domain.RiskPoint{Time: tp.Time, Score: *tp.Score})
	}
	return trend, nil
}
