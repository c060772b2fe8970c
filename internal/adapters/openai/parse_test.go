package openaiadapter

import (
	"errors"
	"net/http"
	"testing"

	"github.com/sashabaranov/go-openai"

	"github.com/alexvidal/safewalk/internal/core/domain"
)

func TestParseSafetyScore_Valid(t *testing.T) {
	raw := `{"total":82,"lighting":75,"safety_history":88,"crowd_activity":60,"description":"Well-lit area"}`
	score, err := parseSafetyScore(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if score.Total != 82 || score.Lighting != 75 || score.SafetyHistory != 88 || score.CrowdActivity != 60 {
		t.Errorf("fields not bound: %+v", score)
	}
}

func TestParseSafetyScore_StripsCodeFences(t *testing.T) {
	raw := "```json\n{\"total\":50,\"lighting\":50,\"safety_history\":50,\"crowd_activity\":50,\"description\":\"x\"}\n```"
	if _, err := parseSafetyScore(raw); err != nil {
		t.Fatalf("fenced JSON should parse: %v", err)
	}
}

func TestParseSafetyScore_MissingFieldRejectsWhole(t *testing.T) {
	// lighting absent: the whole object is rejected, not partially bound.
	raw := `{"total":82,"safety_history":88,"crowd_activity":60,"description":"x"}`
	_, err := parseSafetyScore(raw)
	if !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParseSafetyScore_OutOfRangeRejected(t *testing.T) {
	raw := `{"total":130,"lighting":75,"safety_history":88,"crowd_activity":60,"description":"x"}`
	if _, err := parseSafetyScore(raw); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse for out-of-range, got %v", err)
	}
}

func TestParseSafetyScore_NotJSON(t *testing.T) {
	if _, err := parseSafetyScore("I cannot help with that."); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse for prose, got %v", err)
	}
}

func TestParseThreatZones_Valid(t *testing.T) {
	raw := `{"zones":[
		{"id":"z1","lat":40.75,"lng":-74.0,"radius":150,"intensity":"High","reason":"dark underpass"},
		{"lat":40.76,"lng":-73.99,"radius":90,"intensity":"Low","reason":""}
	]}`
	zones, err := parseThreatZones(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zones) != 2 {
		t.Fatalf("expected 2 zones, got %d", len(zones))
	}
	if zones[0].Intensity != domain.IntensityHigh {
		t.Errorf("intensity not bound: %+v", zones[0])
	}
	if zones[1].ID == "" {
		t.Error("missing zone id should be synthesized")
	}
}

func TestParseThreatZones_UnknownIntensityRejected(t *testing.T) {
	raw := `{"zones":[{"id":"z1","lat":40.75,"lng":-74.0,"radius":150,"intensity":"Extreme"}]}`
	if _, err := parseThreatZones(raw); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParseThreatZones_NegativeRadiusRejected(t *testing.T) {
	raw := `{"zones":[{"id":"z1","lat":40.75,"lng":-74.0,"radius":-5,"intensity":"Low"}]}`
	if _, err := parseThreatZones(raw); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParseRoutePlan_Valid(t *testing.T) {
	raw := `{"points":[[40.7484,-74.0010],[40.7520,-73.9950],[40.7580,-73.9855]],
		"distance":"1.6 km","duration":"20 min","safety_rating":"Good"}`
	route, err := parseRoutePlan(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(route.Points) != 3 {
		t.Errorf("expected 3 points, got %d", len(route.Points))
	}
	if route.Points[0] != (domain.Coordinate{Lat: 40.7484, Lng: -74.0010}) {
		t.Errorf("point order not preserved: %+v", route.Points[0])
	}
}

func TestParseRoutePlan_TooFewPointsRejected(t *testing.T) {
	raw := `{"points":[[40.7484,-74.0010]],"distance":"","duration":"","safety_rating":""}`
	if _, err := parseRoutePlan(raw); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParseRoutePlan_MalformedPairRejected(t *testing.T) {
	raw := `{"points":[[40.7484,-74.0010],[40.7580]],"distance":"","duration":"","safety_rating":""}`
	if _, err := parseRoutePlan(raw); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestParseRiskTrend_Valid(t *testing.T) {
	raw := `{"trend":[{"time":"18:00","score":35},{"time":"21:00","score":60}]}`
	trend, err := parseRiskTrend(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(trend) != 2 || trend[1].Score != 60 {
		t.Errorf("trend not bound: %+v", trend)
	}
}

func TestParseRiskTrend_ScoreOutOfRangeRejected(t *testing.T) {
	raw := `{"trend":[{"time":"18:00","score":135}]}`
	if _, err := parseRiskTrend(raw); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected ErrMalformedResponse, got %v", err)
	}
}

func TestClassify_RateLimitSignature(t *testing.T) {
	err := classify(&openai.APIError{HTTPStatusCode: http.StatusTooManyRequests, Message: "quota"})
	if !domain.IsRateLimit(err) {
		t.Error("HTTP 429 should carry the rate-limit signature")
	}

	err = classify(&openai.APIError{HTTPStatusCode: http.StatusInternalServerError, Message: "boom"})
	if domain.IsRateLimit(err) {
		t.Error("HTTP 500 must not be classified as rate limited")
	}
}
