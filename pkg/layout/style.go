// Package layout computes node and edge positions for a graph model by
// translating it to Graphviz DOT and running the dot engine. The output is a
// positioned SVG document plus its measured geometry; renderers add styling
// and interactivity on top.
package layout

import (
	"github.com/followviz/followviz/pkg/errors"
)

// Style names a layout parameter preset. Switching style changes spacing and
// rank direction but never the graph contents.
type Style string

// Layout styles.
const (
	StyleStandard   Style = "standard"
	StyleStandardLR Style = "standard-lr"
	StylePacked     Style = "packed"
	StylePackedLR   Style = "packed-lr"
)

// DefaultStyle is used when no style is requested.
const DefaultStyle = StyleStandard

// Params are the Graphviz engine parameters a style expands to.
type Params struct {
	Rankdir string
	RankSep float64
	NodeSep float64
	EdgeSep float64
}

var styleParams = map[Style]Params{
	StyleStandard:   {Rankdir: "TB", RankSep: 0.75, NodeSep: 0.50, EdgeSep: 0.30},
	StyleStandardLR: {Rankdir: "LR", RankSep: 0.75, NodeSep: 0.50, EdgeSep: 0.30},
	StylePacked:     {Rankdir: "TB", RankSep: 0.35, NodeSep: 0.25, EdgeSep: 0.15},
	StylePackedLR:   {Rankdir: "LR", RankSep: 0.35, NodeSep: 0.25, EdgeSep: 0.15},
}

// Styles returns the available styles in presentation order.
func Styles() []Style {
	return []Style{StyleStandard, StyleStandardLR, StylePacked, StylePackedLR}
}

// ParseStyle validates a style name.
func ParseStyle(s string) (Style, error) {
	if _, ok := styleParams[Style(s)]; ok {
		return Style(s), nil
	}
	return "", errors.New(errors.ErrCodeInvalidLayoutStyle,
		"invalid layout style: %q (must be one of: standard, standard-lr, packed, packed-lr)", s)
}

// Params returns the engine parameters for the style. Unknown styles fall
// back to the standard preset; validation happens in [ParseStyle].
func (s Style) Params() Params {
	if p, ok := styleParams[s]; ok {
		return p
	}
	return styleParams[StyleStandard]
}
