package layout

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"

	"github.com/goccy/go-graphviz"

	"github.com/followviz/followviz/pkg/errors"
	"github.com/followviz/followviz/pkg/graph"
)

// Result is a positioned layout: the SVG produced by the dot engine plus its
// measured geometry and the style that produced it.
type Result struct {
	SVG      []byte   `json:"svg"`
	DOT      string   `json:"dot"`
	Style    Style    `json:"style"`
	Geometry Geometry `json:"geometry"`
}

// MarshalResult serializes a layout result for caching.
func MarshalResult(r *Result) ([]byte, error) {
	return json.Marshal(r)
}

// UnmarshalResult deserializes a cached layout result.
func UnmarshalResult(data []byte) (*Result, error) {
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("unmarshal layout: %w", err)
	}
	return &r, nil
}

// Compute lays out a graph model with the given style. The graphviz instance
// is created per call; the wasm runtime startup dominates, but layouts are
// cached one level up so repeat calls for the same model never reach here.
func Compute(ctx context.Context, m *graph.Model, style Style) (*Result, error) {
	if m == nil {
		return nil, errors.New(errors.ErrCodeLayoutFailed, "nil model")
	}
	if style == "" {
		style = DefaultStyle
	} else if _, err := ParseStyle(string(style)); err != nil {
		return nil, err
	}

	dot := ToDOT(m, style)
	svg, err := renderDOT(ctx, dot)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeLayoutFailed, err, "layout failed")
	}

	geom, ok := ParseGeometry(svg)
	if !ok {
		return nil, errors.New(errors.ErrCodeLayoutFailed, "layout produced no measurable geometry")
	}

	return &Result{SVG: svg, DOT: dot, Style: style, Geometry: geom}, nil
}

func renderDOT(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="(-?[0-9.]+)\s+(-?[0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox rewrites the opening svg tag so the document is anchored
// at the origin with explicit pixel dimensions, which keeps the fit math in
// [FitTransform] independent of Graphviz's point-based coordinate output.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	newSvg := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)

	return svgTagRe.ReplaceAll(svg, []byte(newSvg))
}
