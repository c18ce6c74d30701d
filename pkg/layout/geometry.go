package layout

import (
	"strconv"
)

// Geometry is the measured extent of a laid-out graph, taken from the SVG
// viewBox.
type Geometry struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Fit scale bounds: below the floor nodes degrade to unreadable specks,
// above the ceiling a tiny graph blows up absurdly in a large viewport.
const (
	MinFitScale = 0.05
	MaxFitScale = 2.5
)

// ParseGeometry extracts the graph extent from a rendered SVG document.
func ParseGeometry(svg []byte) (Geometry, bool) {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return Geometry{}, false
	}
	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w <= 0 || h <= 0 {
		return Geometry{}, false
	}
	return Geometry{Width: w, Height: h}, true
}

// Transform positions a graph inside a viewport: uniform scale plus a
// translation that centers the scaled extent.
type Transform struct {
	Scale float64 `json:"scale"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
}

// FitTransform computes the scale-to-fit transform for a graph extent inside
// a viewport. The scale is uniform (the limiting axis wins) and clamped to
// [MinFitScale, MaxFitScale]; the translation centers the result.
func FitTransform(g Geometry, viewWidth, viewHeight float64) Transform {
	if g.Width <= 0 || g.Height <= 0 || viewWidth <= 0 || viewHeight <= 0 {
		return Transform{Scale: 1}
	}

	scale := viewWidth / g.Width
	if s := viewHeight / g.Height; s < scale {
		scale = s
	}
	if scale < MinFitScale {
		scale = MinFitScale
	}
	if scale > MaxFitScale {
		scale = MaxFitScale
	}

	return Transform{
		Scale: scale,
		X:     (viewWidth - g.Width*scale) / 2,
		Y:     (viewHeight - g.Height*scale) / 2,
	}
}
