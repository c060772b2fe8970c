package usecases

import (
	"context"
	"fmt"
	"sync"

	"github.com/alexvidal/safewalk/internal/core/domain"
	"github.com/alexvidal/safewalk/internal/core/ports"
)

// --- Mock InferenceService ---

type mockInference struct {
	safetyScoreFn func(ctx context.Context, loc domain.Coordinate) (*domain.SafetyScore, error)
	threatZonesFn func(ctx context.Context, loc domain.Coordinate) ([]domain.ThreatZone, error)
	routeFn       func(ctx context.Context, from, to domain.Coordinate) (*domain.RoutePlan, error)
	riskTrendFn   func(ctx context.Context, loc domain.Coordinate) ([]domain.RiskPoint, error)
	openChatFn    func(ctx context.Context) (ports.ChatSession, error)
}

func (m *mockInference) SafetyScore(ctx context.Context, loc domain.Coordinate) (*domain.SafetyScore, error) {
	if m.safetyScoreFn != nil {
		return m.safetyScoreFn(ctx, loc)
	}
	return &domain.SafetyScore{Total: 80, Lighting: 75, SafetyHistory: 85, CrowdActivity: 70, Description: "ok"}, nil
}

func (m *mockInference) ThreatZones(ctx context.Context, loc domain.Coordinate) ([]domain.ThreatZone, error) {
	if m.threatZonesFn != nil {
		return m.threatZonesFn(ctx, loc)
	}
	return nil, nil
}

func (m *mockInference) Route(ctx context.Context, from, to domain.Coordinate) (*domain.RoutePlan, error) {
	if m.routeFn != nil {
		return m.routeFn(ctx, from, to)
	}
	return &domain.RoutePlan{Points: []domain.Coordinate{from, to}, Distance: "1.2 km", Duration: "15 min", SafetyRating: "Good"}, nil
}

func (m *mockInference) RiskTrend(ctx context.Context, loc domain.Coordinate) ([]domain.RiskPoint, error) {
	if m.riskTrendFn != nil {
		return m.riskTrendFn(ctx, loc)
	}
	return nil, nil
}

func (m *mockInference) OpenChat(ctx context.Context) (ports.ChatSession, error) {
	if m.openChatFn != nil {
		return m.openChatFn(ctx)
	}
	return &mockChatSession{}, nil
}

type mockChatSession struct {
	sendFn func(ctx context.Context, text string) (string, error)
	turns  int
}

func (m *mockChatSession) Send(ctx context.Context, text string) (string, error) {
	m.turns++
	if m.sendFn != nil {
		return m.sendFn(ctx, text)
	}
	return "reply to: " + text, nil
}

// --- Fake MapView ---

// fakeView tracks live handles so tests can assert the handle-count
// invariant and per-object create/update history.
type fakeView struct {
	mu sync.Mutex

	nextID int

	markers   map[domain.Handle]fakeMarker
	polylines map[domain.Handle][]domain.Coordinate
	lineStyle map[domain.Handle]domain.LineStyle
	circles   map[domain.Handle]fakeCircle

	markerCreates int
	markerUpdates int
	lineCreates   int
	circleCreates int

	failAll bool
}

type fakeMarker struct {
	pos   domain.Coordinate
	style domain.MarkerStyle
}

type fakeCircle struct {
	center  domain.Coordinate
	radiusM float64
	style   domain.CircleStyle
}

func newFakeView() *fakeView {
	return &fakeView{
		markers:   make(map[domain.Handle]fakeMarker),
		polylines: make(map[domain.Handle][]domain.Coordinate),
		lineStyle: make(map[domain.Handle]domain.LineStyle),
		circles:   make(map[domain.Handle]fakeCircle),
	}
}

func (v *fakeView) handle() domain.Handle {
	v.nextID++
	return domain.Handle(fmt.Sprintf("h-%d", v.nextID))
}

func (v *fakeView) CreateMarker(pos domain.Coordinate, style domain.MarkerStyle) (domain.Handle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failAll {
		return "", fmt.Errorf("view unavailable")
	}
	h := v.handle()
	v.markers[h] = fakeMarker{pos: pos, style: style}
	v.markerCreates++
	return h, nil
}

func (v *fakeView) UpdateMarker(h domain.Handle, pos domain.Coordinate, style domain.MarkerStyle) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failAll {
		return fmt.Errorf("view unavailable")
	}
	if _, ok := v.markers[h]; !ok {
		return fmt.Errorf("unknown marker handle %s", h)
	}
	v.markers[h] = fakeMarker{pos: pos, style: style}
	v.markerUpdates++
	return nil
}

func (v *fakeView) RemoveMarker(h domain.Handle) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	delete(v.markers, h)
	return nil
}

func (v *fakeView) CreatePolyline(points []domain.Coordinate, style domain.LineStyle) (domain.Handle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failAll {
		return "", fmt.Errorf("view unavailable")
	}
	h := v.handle()
	v.polylines[h] = append([]domain.Coordinate(nil), points...)
	v.lineStyle[h] = style
	v.lineCreates++
	return h, nil
}

func (v *fakeView) RemovePolyline(h domain.Handle) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.polylines[h]; !ok {
		return fmt.Errorf("unknown polyline handle %s", h)
	}
	delete(v.polylines, h)
	delete(v.lineStyle, h)
	return nil
}

func (v *fakeView) CreateCircle(center domain.Coordinate, radiusM float64, style domain.CircleStyle) (domain.Handle, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.failAll {
		return "", fmt.Errorf("view unavailable")
	}
	h := v.handle()
	v.circles[h] = fakeCircle{center: center, radiusM: radiusM, style: style}
	v.circleCreates++
	return h, nil
}

func (v *fakeView) RemoveCircle(h domain.Handle) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if _, ok := v.circles[h]; !ok {
		return fmt.Errorf("unknown circle handle %s", h)
	}
	delete(v.circles, h)
	return nil
}

// --- Fake EventPublisher ---

type fakePublisher struct {
	mu          sync.Mutex
	assessments int
	viewCmds    [][]byte
}

func (p *fakePublisher) PublishAssessment(ctx context.Context, snap *domain.AssessmentSnapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.assessments++
	return nil
}

func (p *fakePublisher) PublishViewCommand(ctx context.Context, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.viewCmds = append(p.viewCmds, data)
	return nil
}

// --- Fake CacheService ---

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte)}
}

func (c *fakeCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("cache miss")
}

func (c *fakeCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	return nil
}

func (c *fakeCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}
