// Package mapview implements the map view port by broadcasting view
// commands to the browser map over the event bus. The dashboard frontend
// applies each command to its live map; handles issued here identify the
// objects on both sides.
package mapview

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/alexvidal/safewalk/internal/core/domain"
	"github.com/alexvidal/safewalk/internal/core/ports"
)

// Command is one view mutation on the wire.
type Command struct {
	Op      string              `json:"op"`   // "create" | "update" | "remove"
	Kind    string              `json:"kind"` // "marker" | "polyline" | "circle"
	Handle  string              `json:"handle"`
	Pos     *domain.Coordinate  `json:"pos,omitempty"`
	Points  []domain.Coordinate `json:"points,omitempty"`
	RadiusM float64             `json:"radius_m,omitempty"`
	Style   any                 `json:"style,omitempty"`
}

// View implements ports.MapView. Commands are fire-and-forget: publishing
// never waits on the remote map, so reconciliation cannot suspend
// mid-update.
type View struct {
	pub   ports.EventPublisher
	newID func() string
	log   *slog.Logger
}

// New creates the broadcast map view.
func New(pub ports.EventPublisher, log *slog.Logger) *View {
	if log == nil {
		log = slog.Default()
	}
	return &View{pub: pub, newID: uuid.NewString, log: log.With("component", "mapview")}
}

var _ ports.MapView = (*View)(nil)

func (v *View) send(cmd Command) error {
	data, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encode view command: %w", err)
	}
	if err := v.pub.PublishViewCommand(context.Background(), data); err != nil {
		return fmt.Errorf("publish view command: %w", err)
	}
	return nil
}

func (v *View) CreateMarker(pos domain.Coordinate, style domain.MarkerStyle) (domain.Handle, error) {
	h := v.newID()
	p := pos
	if err := v.send(Command{Op: "create", Kind: "marker", Handle: h, Pos: &p, Style: style}); err != nil {
		return "", err
	}
	return domain.Handle(h), nil
}

func (v *View) UpdateMarker(h domain.Handle, pos domain.Coordinate, style domain.MarkerStyle) error {
	p := pos
	return v.send(Command{Op: "update", Kind: "marker", Handle: string(h), Pos: &p, Style: style})
}

func (v *View) RemoveMarker(h domain.Handle) error {
	return v.send(Command{Op: "remove", Kind: "marker", Handle: string(h)})
}

func (v *View) CreatePolyline(points []domain.Coordinate, style domain.LineStyle) (domain.Handle, error) {
	h := v.newID()
	if err := v.send(Command{Op: "create", Kind: "polyline", Handle: h, Points: points, Style: style}); err != nil {
		return "", err
	}
	return domain.Handle(h), nil
}

func (v *View) RemovePolyline(h domain.Handle) error {
	return v.send(Command{Op: "remove", Kind: "polyline", Handle: string(h)})
}

func (v *View) CreateCircle(center domain.Coordinate, radiusM float64, style domain.CircleStyle) (domain.Handle, error) {
	h := v.newID()
	c := center
	if err := v.send(Command{Op: "create", Kind: "circle", Handle: h, Pos: &c, RadiusM: radiusM, Style: style}); err != nil {
		return "", err
	}
	return domain.Handle(h), nil
}

func (v *View) RemoveCircle(h domain.Handle) error {
	return v.send(Command{Op: "remove", Kind: "circle", Handle: string(h)})
}
