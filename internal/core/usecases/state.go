package usecases

import (
	"sync"
	"time"

	"github.com/alexvidal/safewalk/internal/core/domain"
)

// AssessmentState is the single mutable aggregate behind the dashboard. It
// is created once at process start and lives until exit. Writers are scoped
// by field: the orchestrator owns the inference-derived fields and the
// loading flag, the distress toggle owns the distress flag, and the chat
// service owns the transcript. Reads go through value snapshots.
type AssessmentState struct {
	mu          sync.RWMutex
	location    domain.Coordinate
	destination *domain.Coordinate
	score       *domain.SafetyScore
	zones       []domain.ThreatZone
	route       *domain.RoutePlan
	trend       []domain.RiskPoint
	distress    bool
	loading     bool
	transcript  []domain.ChatMessage
	updatedAt   time.Time
}

// NewAssessmentState creates the aggregate with an initial position.
func NewAssessmentState(location domain.Coordinate, destination *domain.Coordinate) *AssessmentState {
	s := &AssessmentState{location: location, updatedAt: time.Now()}
	if destination != nil {
		d := *destination
		s.destination = &d
	}
	return s
}

// Snapshot returns a deep value copy of the current state.
func (s *AssessmentState) Snapshot() domain.AssessmentSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := domain.AssessmentSnapshot{
		Location:  s.location,
		Distress:  s.distress,
		Loading:   s.loading,
		UpdatedAt: s.updatedAt,
	}
	if s.destination != nil {
		d := *s.destination
		snap.Destination = &d
	}
	if s.score != nil {
		sc := *s.score
		snap.Score = &sc
	}
	if s.route != nil {
		r := *s.route
		r.Points = append([]domain.Coordinate(nil), s.route.Points...)
		snap.Route = &r
	}
	snap.Zones = append([]domain.ThreatZone(nil), s.zones...)
	snap.Trend = append([]domain.RiskPoint(nil), s.trend...)
	snap.Transcript = append([]domain.ChatMessage(nil), s.transcript...)
	return snap
}

// SetPosition updates the current location and destination. A nil
// destination clears it.
func (s *AssessmentState) SetPosition(loc domain.Coordinate, dest *domain.Coordinate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.location = loc
	if dest == nil {
		s.destination = nil
	} else {
		d := *dest
		s.destination = &d
	}
	s.updatedAt = time.Now()
}

// Location returns the current location.
func (s *AssessmentState) Location() domain.Coordinate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

// Destination returns a copy of the destination, or nil when unset.
func (s *AssessmentState) Destination() *domain.Coordinate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.destination == nil {
		return nil
	}
	d := *s.destination
	return &d
}

// SetScore records the latest safety score.
func (s *AssessmentState) SetScore(score domain.SafetyScore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.score = &score
	s.updatedAt = time.Now()
}

// SetZones replaces the threat zone set wholesale.
func (s *AssessmentState) SetZones(zones []domain.ThreatZone) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.zones = append([]domain.ThreatZone(nil), zones...)
	s.updatedAt = time.Now()
}

// SetRoute records the latest route plan.
func (s *AssessmentState) SetRoute(route domain.RoutePlan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := route
	r.Points = append([]domain.Coordinate(nil), route.Points...)
	s.route = &r
	s.updatedAt = time.Now()
}

// SetTrend replaces the risk trend sequence.
func (s *AssessmentState) SetTrend(trend []domain.RiskPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.trend = append([]domain.RiskPoint(nil), trend...)
	s.updatedAt = time.Now()
}

// SetLoading flips the process-wide loading flag.
func (s *AssessmentState) SetLoading(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = v
	s.updatedAt = time.Now()
}

// ToggleDistress flips the distress flag and returns the new value.
func (s *AssessmentState) ToggleDistress() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.distress = !s.distress
	s.updatedAt = time.Now()
	return s.distress
}

// AppendMessage appends one turn to the chat transcript.
func (s *AssessmentState) AppendMessage(msg domain.ChatMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, msg)
	s.updatedAt = time.Now()
}

// Transcript returns a copy of the chat transcript.
func (s *AssessmentState) Transcript() []domain.ChatMessage {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.ChatMessage(nil), s.transcript...)
}
