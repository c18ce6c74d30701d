package render

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/followviz/followviz/pkg/errors"
	"github.com/followviz/followviz/pkg/graph"
	"github.com/followviz/followviz/pkg/layout"
)

const interactionCSS = `
    .node polygon, .node path { transition: stroke-width 0.2s ease; }
    .node:hover polygon, .node:hover path { stroke-width: 3; cursor: pointer; }
    .tooltip { pointer-events: none; transition: opacity 0.15s ease; }
    .tooltip[visibility="hidden"] { opacity: 0; }
    .tooltip[visibility="visible"] { opacity: 1; }`

const interactionJS = `
    const svg = document.querySelector('svg');
    const scene = document.getElementById('scene');
    let view = { scale: %SCALE%, x: %X%, y: %Y% };
    function apply() {
      scene.setAttribute('transform', 'translate(' + view.x + ',' + view.y + ') scale(' + view.scale + ')');
    }
    apply();
    svg.addEventListener('wheel', e => {
      e.preventDefault();
      const factor = e.deltaY < 0 ? 1.1 : 0.9;
      view.scale = Math.max(%MINSCALE%, Math.min(%MAXSCALE%, view.scale * factor));
      apply();
    }, { passive: false });
    let drag = null;
    svg.addEventListener('mousedown', e => { drag = { x: e.clientX - view.x, y: e.clientY - view.y }; });
    svg.addEventListener('mousemove', e => {
      if (drag) { view.x = e.clientX - drag.x; view.y = e.clientY - drag.y; apply(); }
    });
    svg.addEventListener('mouseup', () => { drag = null; });
    document.querySelectorAll('.node').forEach(el => {
      const title = el.querySelector('title');
      if (!title) return;
      const tip = document.querySelector('.tooltip[data-for="' + title.textContent + '"]');
      if (!tip) return;
      el.addEventListener('mouseenter', e => {
        tip.setAttribute('transform', 'translate(' + (e.clientX + 12) + ',' + (e.clientY + 12) + ')');
        tip.setAttribute('visibility', 'visible');
      });
      el.addEventListener('mouseleave', () => tip.setAttribute('visibility', 'hidden'));
    });`

// Renderer produces a final interactive document from a layout result.
type Renderer interface {
	Draw(l *layout.Result, m *graph.Model) ([]byte, error)
}

// Option configures an [SVGRenderer].
type Option func(*SVGRenderer)

// WithViewport sets the viewport the graph is fitted into.
func WithViewport(width, height float64) Option {
	return func(r *SVGRenderer) {
		r.viewWidth = width
		r.viewHeight = height
	}
}

// WithTooltips enables per-node hover tooltips.
func WithTooltips() Option {
	return func(r *SVGRenderer) { r.tooltips = true }
}

// SVGRenderer wraps a laid-out SVG in an interactive document: the graph is
// fitted and centered in the viewport, pan and zoom are wired up, and each
// node gets a hover tooltip built from its info block.
type SVGRenderer struct {
	viewWidth  float64
	viewHeight float64
	tooltips   bool
	registry   *TooltipRegistry
}

// Default viewport, used when no viewport option is given.
const (
	DefaultViewWidth  = 1280.0
	DefaultViewHeight = 800.0
)

// NewSVGRenderer builds a renderer with the given options.
func NewSVGRenderer(opts ...Option) *SVGRenderer {
	r := &SVGRenderer{
		viewWidth:  DefaultViewWidth,
		viewHeight: DefaultViewHeight,
		registry:   NewTooltipRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Registry exposes the tooltip registry, mainly so tests can observe the
// destroy-then-attach lifecycle across redraws.
func (r *SVGRenderer) Registry() *TooltipRegistry { return r.registry }

var svgCloseRe = regexp.MustCompile(`</svg>\s*$`)

// Draw renders the final document. All previously attached tooltips are
// destroyed before any new ones are created, even when the model has not
// changed since the last draw.
func (r *SVGRenderer) Draw(l *layout.Result, m *graph.Model) ([]byte, error) {
	if l == nil || m == nil {
		return nil, errors.New(errors.ErrCodeRenderFailed, "nil layout or model")
	}

	r.registry.DestroyAll()

	inner := svgTagRe.ReplaceAll(l.SVG, nil)
	inner = svgCloseRe.ReplaceAll(inner, nil)

	fit := layout.FitTransform(l.Geometry, r.viewWidth, r.viewHeight)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.0f %.0f" width="%.0f" height="%.0f">`+"\n",
		r.viewWidth, r.viewHeight, r.viewWidth, r.viewHeight)
	fmt.Fprintf(&buf, "  <style>%s\n  </style>\n", interactionCSS)
	fmt.Fprintf(&buf, `  <g id="scene" transform="translate(%.2f,%.2f) scale(%.4f)">`+"\n", fit.X, fit.Y, fit.Scale)
	buf.Write(inner)
	buf.WriteString("\n  </g>\n")

	if r.tooltips {
		for i := range m.Nodes {
			n := &m.Nodes[i]
			content := TooltipContent(n)
			r.registry.Attach(n.ID, content)
			renderTooltip(&buf, n.ID, content)
		}
	}

	js := interactionScript(fit)
	fmt.Fprintf(&buf, "  <script type=\"text/javascript\"><![CDATA[%s\n  ]]></script>\n", js)
	buf.WriteString("</svg>\n")
	return buf.Bytes(), nil
}

var svgTagRe = regexp.MustCompile(`<svg[^>]*>`)

func renderTooltip(buf *bytes.Buffer, nodeID, content string) {
	lines := strings.Split(content, "\n")
	height := 12 + len(lines)*15

	fmt.Fprintf(buf, `  <g class="tooltip" data-for="%s" visibility="hidden">`+"\n", escapeXML(nodeID))
	fmt.Fprintf(buf, `    <rect rx="4" fill="#1e293b" opacity="0.92" width="260" height="%d"/>`+"\n", height)
	buf.WriteString(`    <text fill="#f8fafc" font-size="12">` + "\n")
	y := 16
	for _, line := range lines {
		fmt.Fprintf(buf, `      <tspan x="8" y="%d">%s</tspan>`+"\n", y, escapeXML(line))
		y += 15
	}
	buf.WriteString("    </text>\n  </g>\n")
}

func escapeXML(s string) string {
	var buf bytes.Buffer
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		case '"':
			buf.WriteString("&quot;")
		default:
			buf.WriteRune(r)
		}
	}
	return buf.String()
}

func interactionScript(fit layout.Transform) string {
	r := strings.NewReplacer(
		"%SCALE%", fmt.Sprintf("%.4f", fit.Scale),
		"%X%", fmt.Sprintf("%.2f", fit.X),
		"%Y%", fmt.Sprintf("%.2f", fit.Y),
		"%MINSCALE%", fmt.Sprintf("%g", layout.MinFitScale),
		"%MAXSCALE%", fmt.Sprintf("%g", layout.MaxFitScale),
	)
	return r.Replace(interactionJS)
}
