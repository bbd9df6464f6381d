package render

import (
	"image/color"
	"strconv"
	"strings"

	"github.com/msalah0e/clustermap/internal/camera"
	"github.com/msalah0e/clustermap/internal/graph"
	"github.com/msalah0e/clustermap/internal/metrics"
)

// Style controls how the graph is drawn.
type Style struct {
	Background     string
	EdgeColor      string
	HoverColor     string
	SelectColor    string
	LabelColor     string
	ClusterRadius  float64
	ItemRadius     float64
	EdgeWidth      float64
	EdgeOpacity    float64
	ClusterOpacity float64
	ItemOpacity    float64
	CountSize      float64
	LabelSize      float64
}

// DefaultStyle returns the standard palette and sizes.
func DefaultStyle() Style {
	return Style{
		Background:     "#ffffff",
		EdgeColor:      "#999999",
		HoverColor:     "#222222",
		SelectColor:    "#e15759",
		LabelColor:     "#333333",
		ClusterRadius:  15,
		ItemRadius:     5,
		EdgeWidth:      0.5,
		EdgeOpacity:    0.3,
		ClusterOpacity: 0.9,
		ItemOpacity:    0.6,
		CountSize:      10,
		LabelSize:      11,
	}
}

// Radius returns a node's drawn radius, which is also its hit radius.
func (s Style) Radius(n *graph.Node) float64 {
	if n.IsCluster() {
		return s.ClusterRadius
	}
	return s.ItemRadius
}

// Scene is everything one frame reads.
type Scene struct {
	Arena      *graph.Arena
	Transform  camera.Transform
	Hovered    string
	Selected   string
	Generation uint64
}

// FrameStats summarizes one painted frame.
type FrameStats struct {
	Nodes        int
	Edges        int
	SkippedEdges int
}

// Painter draws a scene.
type Painter struct {
	style Style
	bg    color.Color
	edge  color.Color
	hover color.Color
	sel   color.Color
	label color.Color
}

// NewPainter resolves the style's colours once.
func NewPainter(style Style) *Painter {
	return &Painter{
		style: style,
		bg:    ParseColor(style.Background, 1),
		edge:  ParseColor(style.EdgeColor, style.EdgeOpacity),
		hover: ParseColor(style.HoverColor, 1),
		sel:   ParseColor(style.SelectColor, 1),
		label: ParseColor(style.LabelColor, 1),
	}
}

// Style returns the painter's style.
func (p *Painter) Style() Style { return p.style }

// Paint clears the surface and draws edges, then nodes, then highlight rings.
// Edges whose endpoints are not in the arena are skipped.
func (p *Painter) Paint(s Surface, sc Scene) FrameStats {
	var st FrameStats
	s.SetTransform(camera.Identity())
	s.Clear(p.bg)
	if sc.Arena.Len() == 0 {
		return st
	}
	s.SetTransform(sc.Transform)
	a := sc.Arena

	for _, e := range a.Edges {
		src, ok1 := a.Node(e.Source)
		dst, ok2 := a.Node(e.Target)
		if !ok1 || !ok2 {
			st.SkippedEdges++
			continue
		}
		s.Line(src.X, src.Y, dst.X, dst.Y, p.style.EdgeWidth, p.edge)
		st.Edges++
	}
	if st.SkippedEdges > 0 {
		metrics.EdgesSkipped.Add(float64(st.SkippedEdges))
	}

	for _, n := range a.Nodes {
		r := p.style.Radius(n)
		if n.IsCluster() {
			s.FillCircle(n.X, n.Y, r, ParseColor(n.Color, p.style.ClusterOpacity))
			s.Text(n.X, n.Y, p.style.CountSize, strconv.Itoa(n.MemberCount), color.White)
		} else {
			s.FillCircle(n.X, n.Y, r, ParseColor(n.Color, p.style.ItemOpacity))
		}
		st.Nodes++
	}

	if n, ok := a.Node(sc.Selected); ok {
		s.StrokeCircle(n.X, n.Y, p.style.Radius(n)+4, 1.5, p.sel)
	}
	if n, ok := a.Node(sc.Hovered); ok {
		r := p.style.Radius(n)
		s.StrokeCircle(n.X, n.Y, r+2, 2, p.hover)
		s.Text(n.X, n.Y-r-p.style.LabelSize, p.style.LabelSize, truncate(n.Label, 48), p.label)
	}
	return st
}

// ParseColor reads #rgb or #rrggbb with the given opacity. Anything else is grey.
func ParseColor(hex string, opacity float64) color.Color {
	a := uint8(clamp01(opacity) * 255)
	grey := color.NRGBA{R: 0x88, G: 0x88, B: 0x88, A: a}

	hex = strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) != 6 {
		return grey
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return grey
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: a}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
