package usecases

import (
	"log/slog"
	"sync"

	"github.com/alexvidal/safewalk/internal/core/domain"
	"github.com/alexvidal/safewalk/internal/core/ports"
	"github.com/alexvidal/safewalk/internal/pkg/metrics"
)

// Reconciler synchronizes the persistent map view with an assessment
// snapshot. It is the sole owner of the view handles it creates: exactly one
// marker, at most one route line, and one overlay per threat zone exist at
// any time. Running Sync twice with the same snapshot yields the same
// visible view and leaks no handles.
type Reconciler struct {
	view ports.MapView

	mu       sync.Mutex
	marker   domain.Handle
	line     domain.Handle
	overlays []domain.Handle
	log      *slog.Logger
}

// NewReconciler creates a reconciler over a map view. A nil view is legal
// and turns every Sync into a no-op.
func NewReconciler(view ports.MapView, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{view: view, log: log.With("component", "reconciler")}
}

// Sync brings the view in line with the snapshot. View-service failures are
// absorbed here: they are logged and never propagate to the caller.
func (r *Reconciler) Sync(snap domain.AssessmentSnapshot) {
	if r.view == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	r.syncMarker(snap)
	r.syncRoute(snap)
	r.syncOverlays(snap)
}

// syncMarker moves the existing marker in place; position updates never
// recreate it. Style follows the distress flag.
func (r *Reconciler) syncMarker(snap domain.AssessmentSnapshot) {
	style := domain.MarkerStyleFor(snap.Distress)

	if r.marker != "" {
		if err := r.view.UpdateMarker(r.marker, snap.Location, style); err != nil {
			r.log.Warn("marker update failed", "error", err)
			return
		}
		metrics.ReconcileOps.WithLabelValues("marker", "update").Inc()
		return
	}

	h, err := r.view.CreateMarker(snap.Location, style)
	if err != nil {
		r.log.Warn("marker create failed", "error", err)
		return
	}
	r.marker = h
	metrics.ReconcileOps.WithLabelValues("marker", "create").Inc()
}

// syncRoute always recreates the line. Route geometry changes rarely
// relative to marker moves, so partial diffing is not worth it.
func (r *Reconciler) syncRoute(snap domain.AssessmentSnapshot) {
	if r.line != "" {
		if err := r.view.RemovePolyline(r.line); err != nil {
			r.log.Warn("polyline remove failed", "error", err)
		}
		r.line = ""
		metrics.ReconcileOps.WithLabelValues("line", "remove").Inc()
	}

	points := effectiveRoutePoints(snap)
	if len(points) < 2 {
		return
	}

	h, err := r.view.CreatePolyline(points, domain.LineStyleFor(snap.Distress))
	if err != nil {
		r.log.Warn("polyline create failed", "error", err)
		return
	}
	r.line = h
	metrics.ReconcileOps.WithLabelValues("line", "create").Inc()
}

// syncOverlays replaces the hotspot overlays wholesale. Zone sets are small
// and change infrequently.
func (r *Reconciler) syncOverlays(snap domain.AssessmentSnapshot) {
	for _, h := range r.overlays {
		if err := r.view.RemoveCircle(h); err != nil {
			r.log.Warn("circle remove failed", "error", err)
		}
		metrics.ReconcileOps.WithLabelValues("circle", "remove").Inc()
	}
	r.overlays = r.overlays[:0]

	for _, zone := range snap.Zones {
		h, err := r.view.CreateCircle(zone.Center, zone.RadiusM, domain.CircleStyleFor(zone.Intensity))
		if err != nil {
			r.log.Warn("circle create failed", "zone", zone.ID, "error", err)
			continue
		}
		r.overlays = append(r.overlays, h)
		metrics.ReconcileOps.WithLabelValues("circle", "create").Inc()
	}
}

// effectiveRoutePoints is the stateless projection from snapshot to the
// point sequence the line should render: the supplied route when it has at
// least two points, else the straight [location, destination] pair, else
// nothing.
func effectiveRoutePoints(snap domain.AssessmentSnapshot) []domain.Coordinate {
	if snap.Route != nil && len(snap.Route.Points) >= 2 {
		return snap.Route.Points
	}
	if snap.Destination != nil {
		return []domain.Coordinate{snap.Location, *snap.Destination}
	}
	return nil
}
