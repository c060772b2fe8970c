package usecases

import (
	"testing"

	"github.com/alexvidal/safewalk/internal/core/domain"
)

func baseSnapshot() domain.AssessmentSnapshot {
	dest := testDest
	return domain.AssessmentSnapshot{
		Location:    testLoc,
		Destination: &dest,
		Zones: []domain.ThreatZone{
			{ID: "z1", Center: domain.Coordinate{Lat: 40.75, Lng: -74.0}, RadiusM: 120, Intensity: domain.IntensityHigh},
			{ID: "z2", Center: domain.Coordinate{Lat: 40.76, Lng: -73.99}, RadiusM: 200, Intensity: domain.IntensityLow},
		},
	}
}

func TestReconciler_DoubleSyncLeaksNoHandles(t *testing.T) {
	view := newFakeView()
	rec := NewReconciler(view, nil)
	snap := baseSnapshot()

	rec.Sync(snap)
	rec.Sync(snap)

	if len(view.markers) != 1 {
		t.Errorf("expected exactly 1 marker, got %d", len(view.markers))
	}
	if len(view.polylines) != 1 {
		t.Errorf("expected exactly 1 route line, got %d", len(view.polylines))
	}
	if len(view.circles) != len(snap.Zones) {
		t.Errorf("expected %d overlays, got %d", len(snap.Zones), len(view.circles))
	}
	if view.markerCreates != 1 {
		t.Errorf("marker should be created once and then moved in place, creates=%d", view.markerCreates)
	}
}

func TestReconciler_MarkerMovesWithoutRecreation(t *testing.T) {
	view := newFakeView()
	rec := NewReconciler(view, nil)

	snap := baseSnapshot()
	rec.Sync(snap)

	snap.Location = domain.Coordinate{Lat: 40.7500, Lng: -74.0020}
	rec.Sync(snap)

	if view.markerCreates != 1 {
		t.Errorf("position update must not recreate the marker, creates=%d", view.markerCreates)
	}
	if view.markerUpdates == 0 {
		t.Error("expected an in-place marker update")
	}
	for _, m := range view.markers {
		if m.pos != snap.Location {
			t.Errorf("marker position not updated: %+v", m.pos)
		}
	}
}

func TestReconciler_DistressTogglesStyleNotGeometry(t *testing.T) {
	view := newFakeView()
	rec := NewReconciler(view, nil)

	snap := baseSnapshot()
	rec.Sync(snap)

	var beforePos domain.Coordinate
	for _, m := range view.markers {
		beforePos = m.pos
	}
	var beforeLine []domain.Coordinate
	for _, pts := range view.polylines {
		beforeLine = pts
	}

	snap.Distress = true
	rec.Sync(snap)

	if view.markerCreates != 1 {
		t.Errorf("distress restyle must not recreate the marker, creates=%d", view.markerCreates)
	}
	for _, m := range view.markers {
		if m.pos != beforePos {
			t.Error("distress toggle changed the marker position")
		}
		if m.style != domain.MarkerStyleFor(true) {
			t.Errorf("expected distress marker style, got %+v", m.style)
		}
	}
	for _, pts := range view.polylines {
		if len(pts) != len(beforeLine) {
			t.Error("distress toggle changed the route geometry")
		}
	}
	for _, style := range view.lineStyle {
		if style != domain.LineStyleFor(true) {
			t.Errorf("expected distress line style, got %+v", style)
		}
	}
}

func TestReconciler_FallbackLineIsCurrentToDestination(t *testing.T) {
	view := newFakeView()
	rec := NewReconciler(view, nil)

	// Scenario: no route points supplied, destination set.
	dest := testDest
	snap := domain.AssessmentSnapshot{Location: testLoc, Destination: &dest}
	rec.Sync(snap)

	if len(view.polylines) != 1 {
		t.Fatalf("expected a 2-point fallback line, got %d lines", len(view.polylines))
	}
	for _, pts := range view.polylines {
		if len(pts) != 2 || pts[0] != testLoc || pts[1] != testDest {
			t.Errorf("fallback line must be exactly [current, destination], got %+v", pts)
		}
	}
}

func TestReconciler_NoDestinationNoRouteMeansNoLine(t *testing.T) {
	view := newFakeView()
	rec := NewReconciler(view, nil)

	dest := testDest
	snap := domain.AssessmentSnapshot{Location: testLoc, Destination: &dest}
	rec.Sync(snap)
	if len(view.polylines) != 1 {
		t.Fatalf("setup: expected a line, got %d", len(view.polylines))
	}

	// Destination cleared: the stale line must be removed, not replaced.
	snap.Destination = nil
	rec.Sync(snap)
	if len(view.polylines) != 0 {
		t.Errorf("expected the line removed when nothing is routable, got %d", len(view.polylines))
	}
}

func TestReconciler_SuppliedRoutePointsWinOverFallback(t *testing.T) {
	view := newFakeView()
	rec := NewReconciler(view, nil)

	snap := baseSnapshot()
	snap.Route = &domain.RoutePlan{
		Points: []domain.Coordinate{
			testLoc,
			{Lat: 40.752, Lng: -73.995},
			testDest,
		},
	}
	rec.Sync(snap)

	for _, pts := range view.polylines {
		if len(pts) != 3 {
			t.Errorf("expected the supplied 3-point route, got %+v", pts)
		}
	}
}

func TestReconciler_OverlaysReplacedWholesale(t *testing.T) {
	view := newFakeView()
	rec := NewReconciler(view, nil)

	snap := baseSnapshot()
	rec.Sync(snap)
	if len(view.circles) != 2 {
		t.Fatalf("setup: expected 2 overlays, got %d", len(view.circles))
	}

	snap.Zones = []domain.ThreatZone{
		{ID: "z9", Center: domain.Coordinate{Lat: 40.749, Lng: -74.001}, RadiusM: 90, Intensity: domain.IntensityMedium},
	}
	rec.Sync(snap)

	if len(view.circles) != 1 {
		t.Errorf("expected overlays replaced wholesale, got %d", len(view.circles))
	}
	for _, c := range view.circles {
		if c.radiusM != 90 || c.style != domain.CircleStyleFor(domain.IntensityMedium) {
			t.Errorf("overlay not rebuilt from the new zone: %+v", c)
		}
	}
}

func TestReconciler_NilViewIsNoOp(t *testing.T) {
	rec := NewReconciler(nil, nil)
	// Must not panic or error.
	rec.Sync(baseSnapshot())
}

func TestReconciler_ViewFailureIsAbsorbed(t *testing.T) {
	view := newFakeView()
	view.failAll = true
	rec := NewReconciler(view, nil)

	// Failures are logged and swallowed; nothing should be tracked.
	rec.Sync(baseSnapshot())

	if len(view.markers)+len(view.polylines)+len(view.circles) != 0 {
		t.Error("no view objects should exist when every call fails")
	}

	// A later healthy sync recovers cleanly.
	view.failAll = false
	rec.Sync(baseSnapshot())
	if len(view.markers) != 1 || len(view.polylines) != 1 || len(view.circles) != 2 {
		t.Error("reconciler did not recover after the view became available")
	}
}
