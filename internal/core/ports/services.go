package ports

import (
	"context"

	"github.com/alexvidal/safewalk/internal/core/domain"
)

// InferenceService is the external model the assessment stages call. Every
// response is untrusted text on the wire; implementations must validate the
// parsed shape and wrap mismatches with domain.ErrMalformedResponse.
type InferenceService interface {
	SafetyScore(ctx context.Context, loc domain.Coordinate) (*domain.SafetyScore, error)
	ThreatZones(ctx context.Context, loc domain.Coordinate) ([]domain.ThreatZone, error)
	Route(ctx context.Context, from, to domain.Coordinate) (*domain.RoutePlan, error)
	RiskTrend(ctx context.Context, loc domain.Coordinate) ([]domain.RiskPoint, error)

	// OpenChat starts a conversational session that preserves cross-turn
	// context on the service side.
	OpenChat(ctx context.Context) (ChatSession, error)
}

// ChatSession is one long-lived conversation with the inference service.
type ChatSession interface {
	Send(ctx context.Context, text string) (string, error)
}

// MapView is the persistent mutable map the reconciler drives. Creates
// return an opaque handle; the caller is responsible for releasing every
// handle it was issued. Implementations must not block on the remote map:
// commands are fire-and-forget.
type MapView interface {
	CreateMarker(pos domain.Coordinate, style domain.MarkerStyle) (domain.Handle, error)
	UpdateMarker(h domain.Handle, pos domain.Coordinate, style domain.MarkerStyle) error
	RemoveMarker(h domain.Handle) error

	CreatePolyline(points []domain.Coordinate, style domain.LineStyle) (domain.Handle, error)
	RemovePolyline(h domain.Handle) error

	CreateCircle(center domain.Coordinate, radiusM float64, style domain.CircleStyle) (domain.Handle, error)
	RemoveCircle(h domain.Handle) error
}

// EventPublisher publishes assessment events and view commands to a
// message broker.
type EventPublisher interface {
	PublishAssessment(ctx context.Context, snap *domain.AssessmentSnapshot) error
	PublishViewCommand(ctx context.Context, data []byte) error
}

// CacheService provides read-through caching for inference responses.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
