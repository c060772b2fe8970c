package domain

// Handle is an opaque reference to a live view object (marker, line or
// overlay). Handles are issued by the map view and owned exclusively by the
// reconciler, which releases every handle before creating a replacement.
type Handle string

// MarkerStyle controls how the user-position marker is drawn.
type MarkerStyle struct {
	Color   string `json:"color"`
	Pulsing bool   `json:"pulsing"`
}

// LineStyle controls how the route line is drawn.
type LineStyle struct {
	Color   string `json:"color"`
	WeightP int    `json:"weight_px"`
	Dashed  bool   `json:"dashed"`
}

// CircleStyle controls how a hotspot overlay is drawn.
type CircleStyle struct {
	StrokeColor string  `json:"stroke_color"`
	FillColor   string  `json:"fill_color"`
	FillOpacity float64 `json:"fill_opacity"`
}

// MarkerStyleFor projects the distress flag onto a marker style. The marker
// has exactly two variants: normal and distress.
func MarkerStyleFor(distress bool) MarkerStyle {
	if distress {
		return MarkerStyle{Color: "#d32f2f", Pulsing: true}
	}
	return MarkerStyle{Color: "#1976d2", Pulsing: false}
}

// LineStyleFor projects the distress flag onto a route line style.
func LineStyleFor(distress bool) LineStyle {
	if distress {
		return LineStyle{Color: "#d32f2f", WeightP: 5, Dashed: true}
	}
	return LineStyle{Color: "#2e7d32", WeightP: 4, Dashed: false}
}

// CircleStyleFor maps an intensity tier onto its fixed overlay color.
func CircleStyleFor(intensity Intensity) CircleStyle {
	switch intensity {
	case IntensityHigh:
		return CircleStyle{StrokeColor: "#c62828", FillColor: "#ef5350", FillOpacity: 0.35}
	case IntensityMedium:
		return CircleStyle{StrokeColor: "#ef6c00", FillColor: "#ffa726", FillOpacity: 0.30}
	default:
		return CircleStyle{StrokeColor: "#f9a825", FillColor: "#ffee58", FillOpacity: 0.25}
	}
}
