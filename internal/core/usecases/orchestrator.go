package usecases

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/alexvidal/safewalk/internal/core/domain"
	"github.com/alexvidal/safewalk/internal/core/ports"
	"github.com/alexvidal/safewalk/internal/pkg/metrics"
)

// ErrRunInProgress is returned when a refresh is requested while an
// assessment run is still in flight. Overlapping runs are rejected rather
// than superseded.
var ErrRunInProgress = errors.New("assessment run already in progress")

// Stage names, in execution order.
const (
	stageScore = "score"
	stageZones = "zones"
	stageRoute = "route"
	stageTrend = "trend"
)

const scoreCacheTTLSeconds = 300

// Orchestrator runs the four inference stages in a fixed order, pacing them
// with an inter-stage delay so the sequence stays under the service's burst
// limit. Each stage is wrapped by the retry executor; a failing stage leaves
// its state field untouched and the sequence continues. Partial failure is
// not fatal.
type Orchestrator struct {
	state     *AssessmentState
	inference ports.InferenceService
	cache     ports.CacheService
	events    ports.EventPublisher
	rec       *Reconciler
	retry     RetryPolicy

	stageDelay time.Duration
	sleep      func(ctx context.Context, d time.Duration) error
	running    atomic.Bool
	log        *slog.Logger
}

// NewOrchestrator wires the orchestrator. cache and events may be nil; both
// are best-effort collaborators.
func NewOrchestrator(
	state *AssessmentState,
	inference ports.InferenceService,
	cache ports.CacheService,
	events ports.EventPublisher,
	rec *Reconciler,
	retry RetryPolicy,
	stageDelay time.Duration,
	log *slog.Logger,
) *Orchestrator {
	if log == nil {
		log = slog.Default()
	}
	return &Orchestrator{
		state:      state,
		inference:  inference,
		cache:      cache,
		events:     events,
		rec:        rec,
		retry:      retry,
		stageDelay: stageDelay,
		sleep:      sleepCtx,
		log:        log.With("component", "orchestrator"),
	}
}

// Start launches an assessment run in the background. It fails fast with
// ErrRunInProgress when a run is already in flight.
func (o *Orchestrator) Start() error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	go func() {
		defer o.running.Store(false)
		o.run(context.Background())
	}()
	return nil
}

// Run executes one assessment sequence synchronously. Used at startup and
// in tests; HTTP refresh goes through Start.
func (o *Orchestrator) Run(ctx context.Context) error {
	if !o.running.CompareAndSwap(false, true) {
		return ErrRunInProgress
	}
	defer o.running.Store(false)
	o.run(ctx)
	return nil
}

// Running reports whether a run is currently in flight.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

func (o *Orchestrator) run(ctx context.Context) {
	loc := o.state.Location()
	dest := o.state.Destination()

	o.state.SetLoading(true)
	// The loading flag clears whatever the stage outcomes were.
	defer o.state.SetLoading(false)

	o.log.Info("assessment run starting", "lat", loc.Lat, "lng", loc.Lng)

	stages := []struct {
		name string
		run  func(context.Context) error
	}{
		{stageScore, func(ctx context.Context) error { return o.runScore(ctx, loc) }},
		{stageZones, func(ctx context.Context) error { return o.runZones(ctx, loc) }},
		{stageRoute, func(ctx context.Context) error { return o.runRoute(ctx, loc, dest) }},
		{stageTrend, func(ctx context.Context) error { return o.runTrend(ctx, loc) }},
	}

	for i, stage := range stages {
		if i > 0 && o.stageDelay > 0 {
			// Inter-stage throttle, independent of the executor's backoff.
			if err := o.sleep(ctx, o.stageDelay); err != nil {
				o.log.Warn("assessment run interrupted", "stage", stage.name, "error", err)
				break
			}
		}

		start := time.Now()
		err := stage.run(ctx)
		metrics.StageDuration.WithLabelValues(stage.name).Observe(time.Since(start).Seconds())

		if err != nil {
			metrics.StageFailures.WithLabelValues(stage.name, failureReason(err)).Inc()
			o.log.Warn("stage failed, continuing", "stage", stage.name, "error", err)
		}
	}

	snap := o.state.Snapshot()
	snap.Loading = false
	if o.events != nil {
		if err := o.events.PublishAssessment(ctx, &snap); err != nil {
			o.log.Warn("assessment publish failed", "error", err)
		}
	}
	if o.rec != nil {
		o.rec.Sync(snap)
	}
	o.log.Info("assessment run finished",
		"score", snap.Score != nil, "zones", len(snap.Zones), "route", snap.Route != nil)
}

func (o *Orchestrator) runScore(ctx context.Context, loc domain.Coordinate) error {
	if score, ok := o.cachedScore(ctx, loc); ok {
		o.state.SetScore(score)
		return nil
	}

	var score *domain.SafetyScore
	err := o.retry.Do(ctx, func(ctx context.Context) error {
		s, err := o.inference.SafetyScore(ctx, loc)
		if err == nil {
			score = s
		}
		return err
	})
	if err != nil {
		// The score stage is the only one with a defined fallback, and it
		// applies to parse failures only.
		if errors.Is(err, domain.ErrMalformedResponse) {
			o.state.SetScore(domain.FallbackSafetyScore)
		}
		return err
	}

	o.state.SetScore(*score)
	o.storeScore(ctx, loc, *score)
	return nil
}

func (o *Orchestrator) runZones(ctx context.Context, loc domain.Coordinate) error {
	var zones []domain.ThreatZone
	err := o.retry.Do(ctx, func(ctx context.Context) error {
		z, err := o.inference.ThreatZones(ctx, loc)
		if err == nil {
			zones = z
		}
		return err
	})
	if err != nil {
		return err
	}
	o.state.SetZones(zones)
	return nil
}

func (o *Orchestrator) runRoute(ctx context.Context, loc domain.Coordinate, dest *domain.Coordinate) error {
	if dest == nil {
		o.log.Debug("route stage skipped, no destination set")
		return nil
	}
	var route *domain.RoutePlan
	err := o.retry.Do(ctx, func(ctx context.Context) error {
		r, err := o.inference.Route(ctx, loc, *dest)
		if err == nil {
			route = r
		}
		return err
	})
	if err != nil {
		return err
	}
	o.state.SetRoute(*route)
	return nil
}

func (o *Orchestrator) runTrend(ctx context.Context, loc domain.Coordinate) error {
	var trend []domain.RiskPoint
	err := o.retry.Do(ctx, func(ctx context.Context) error {
		t, err := o.inference.RiskTrend(ctx, loc)
		if err == nil {
			trend = t
		}
		return err
	})
	if err != nil {
		return err
	}
	o.state.SetTrend(trend)
	return nil
}

// cachedScore looks up a recent score for roughly the same area. Cache
// errors are soft misses.
func (o *Orchestrator) cachedScore(ctx context.Context, loc domain.Coordinate) (domain.SafetyScore, bool) {
	if o.cache == nil {
		return domain.SafetyScore{}, false
	}
	data, err := o.cache.Get(ctx, scoreCacheKey(loc))
	if err != nil {
		metrics.CacheMisses.WithLabelValues("score").Inc()
		return domain.SafetyScore{}, false
	}
	var score domain.SafetyScore
	if err := json.Unmarshal(data, &score); err != nil || !score.Valid() {
		metrics.CacheMisses.WithLabelValues("score").Inc()
		return domain.SafetyScore{}, false
	}
	metrics.CacheHits.WithLabelValues("score").Inc()
	return score, true
}

func (o *Orchestrator) storeScore(ctx context.Context, loc domain.Coordinate, score domain.SafetyScore) {
	if o.cache == nil {
		return
	}
	if data, err := json.Marshal(score); err == nil {
		_ = o.cache.Set(ctx, scoreCacheKey(loc), data, scoreCacheTTLSeconds)
	}
}

// scoreCacheKey rounds to ~100 m so nearby refreshes share an entry.
func scoreCacheKey(loc domain.Coordinate) string {
	return fmt.Sprintf("score:%.3f:%.3f", loc.Lat, loc.Lng)
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrMalformedResponse):
		return "parse"
	case domain.IsRateLimit(err):
		return "rate_limit"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "service"
	}
}
