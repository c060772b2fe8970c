package domain

import "time"

// SafetyScore is the area safety assessment produced by one inference call.
// All four numeric fields must be present and within [0,100]; a response
// missing any of them is rejected as a whole.
type SafetyScore struct {
	Total         int    `json:"total"`
	Lighting      int    `json:"lighting"`
	SafetyHistory int    `json:"safety_history"`
	CrowdActivity int    `json:"crowd_activity"`
	Description   string `json:"description"`
}

// Valid reports whether every numeric field is within [0,100].
func (s SafetyScore) Valid() bool {
	for _, v := range []int{s.Total, s.Lighting, s.SafetyHistory, s.CrowdActivity} {
		if v < 0 || v > 100 {
			return false
		}
	}
	return true
}

// FallbackSafetyScore is substituted when the score stage returns an
// unparseable response. It is a fixed value so the substitution is idempotent.
var FallbackSafetyScore = SafetyScore{
	Total:         50,
	Lighting:      50,
	SafetyHistory: 50,
	CrowdActivity: 50,
	Description:   "Safety data is temporarily unavailable for this area.",
}

// Intensity is the risk tier of a threat zone.
type Intensity string

const (
	IntensityHigh   Intensity = "High"
	IntensityMedium Intensity = "Medium"
	IntensityLow    Intensity = "Low"
)

// Valid reports whether the intensity is one of the three known tiers.
func (i Intensity) Valid() bool {
	switch i {
	case IntensityHigh, IntensityMedium, IntensityLow:
		return true
	}
	return false
}

// ThreatZone is a circular risk hotspot. The zone set is replaced wholesale
// on every refresh; zones are never diffed incrementally.
type ThreatZone struct {
	ID        string     `json:"id"`
	Center    Coordinate `json:"center"`
	RadiusM   float64    `json:"radius_m"`
	Intensity Intensity  `json:"intensity"`
	Reason    string     `json:"reason,omitempty"`
}

// Valid reports whether the zone has a usable geometry and tier.
func (z ThreatZone) Valid() bool {
	return z.ID != "" && z.Center.Valid() && z.RadiusM > 0 && z.Intensity.Valid()
}

// RoutePlan is a suggested walking route. Points is the traversal order and
// must hold at least two coordinates whenever a plan is present.
type RoutePlan struct {
	Points       []Coordinate `json:"points"`
	Distance     string       `json:"distance"`
	Duration     string       `json:"duration"`
	SafetyRating string       `json:"safety_rating"`
}

// RiskPoint is one sample of the risk-over-time trend.
type RiskPoint struct {
	Time  string `json:"time"`
	Score int    `json:"score"`
}

// Role identifies the speaker of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ChatMessage is one turn in the dashboard chat transcript.
type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// FallbackChatReply is appended to the transcript when the chat session
// fails. Chat is interactive, so failures degrade to this canned response
// instead of retrying with backoff.
const FallbackChatReply = "I'm having trouble reaching the safety assistant right now. " +
	"If you are in immediate danger, contact local emergency services."

// AssessmentSnapshot is a read-only copy of the assessment state at one
// point in time. Slices are copies; mutating a snapshot never affects the
// live state.
type AssessmentSnapshot struct {
	Location    Coordinate    `json:"location"`
	Destination *Coordinate   `json:"destination,omitempty"`
	Score       *SafetyScore  `json:"score,omitempty"`
	Zones       []ThreatZone  `json:"zones"`
	Route       *RoutePlan    `json:"route,omitempty"`
	Trend       []RiskPoint   `json:"trend"`
	Distress    bool          `json:"distress"`
	Loading     bool          `json:"loading"`
	Transcript  []ChatMessage `json:"transcript"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
