package render

import (
	"bytes"
	"fmt"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/msalah0e/clustermap/internal/camera"
	"github.com/msalah0e/clustermap/internal/eventloop"
	"github.com/msalah0e/clustermap/internal/graph"
)

// recorder is a Surface that logs every call.
type recorder struct {
	ops []string
	t   camera.Transform
}

func (r *recorder) Size() (int, int)                { return 100, 100 }
func (r *recorder) Clear(color.Color)               { r.ops = append(r.ops, "clear") }
func (r *recorder) SetTransform(t camera.Transform) { r.t = t }
func (r *recorder) Line(x1, y1, x2, y2, w float64, c color.Color) {
	r.ops = append(r.ops, fmt.Sprintf("line %v,%v-%v,%v", x1, y1, x2, y2))
}
func (r *recorder) FillCircle(x, y, rad float64, c color.Color) {
	r.ops = append(r.ops, fmt.Sprintf("fill %v,%v r%v", x, y, rad))
}
func (r *recorder) StrokeCircle(x, y, rad, w float64, c color.Color) {
	r.ops = append(r.ops, fmt.Sprintf("ring %v,%v r%v", x, y, rad))
}
func (r *recorder) Text(x, y, size float64, s string, c color.Color) {
	r.ops = append(r.ops, "text "+s)
}

func sampleArena() *graph.Arena {
	return graph.NewArena(1, []*graph.Node{
		{ID: "cluster-1", Kind: graph.ClusterKind, ClusterID: 1, MemberCount: 42, Color: "#ff0000", X: 10, Y: 10},
		{ID: "item-1", Kind: graph.ItemKind, ClusterID: 2, Color: "#00ff00", X: 50, Y: 50, Label: "Paper one"},
		{ID: "item-2", Kind: graph.ItemKind, ClusterID: 2, Color: "#00ff00", X: 60, Y: 50},
	}, []graph.Edge{
		{Source: "item-1", Target: "item-2"},
		{Source: "item-1", Target: "item-404"},
	})
}

func indexOf(ops []string, prefix string) int {
	for i, op := range ops {
		if len(op) >= len(prefix) && op[:len(prefix)] == prefix {
			return i
		}
	}
	return -1
}

func TestPaintOrder(t *testing.T) {
	p := NewPainter(DefaultStyle())
	rec := &recorder{}
	st := p.Paint(rec, Scene{Arena: sampleArena(), Transform: camera.Transform{X: 5, Y: 5, K: 2}, Hovered: "item-1"})

	if rec.ops[0] != "clear" {
		t.Fatalf("first op should clear, got %v", rec.ops)
	}
	line := indexOf(rec.ops, "line")
	fill := indexOf(rec.ops, "fill")
	ring := indexOf(rec.ops, "ring")
	if !(line > 0 && fill > line && ring > fill) {
		t.Errorf("expected clear, edges, nodes, ring; got %v", rec.ops)
	}
	if indexOf(rec.ops, "text 42") < 0 {
		t.Errorf("cluster node should render its member count, got %v", rec.ops)
	}
	if indexOf(rec.ops, "text Paper one") < 0 {
		t.Errorf("hovered node should render its label, got %v", rec.ops)
	}
	if rec.t.K != 2 || rec.t.X != 5 {
		t.Errorf("painter should apply the camera transform, got %+v", rec.t)
	}

	if st.Nodes != 3 || st.Edges != 1 || st.SkippedEdges != 1 {
		t.Errorf("unexpected frame stats %+v", st)
	}
}

func TestPaintClusterLargerThanItem(t *testing.T) {
	s := DefaultStyle()
	c := &graph.Node{Kind: graph.ClusterKind}
	i := &graph.Node{Kind: graph.ItemKind}
	if s.Radius(c) <= s.Radius(i) {
		t.Error("cluster nodes should be larger than item nodes")
	}
	if s.ClusterOpacity <= s.ItemOpacity {
		t.Error("cluster nodes should be more opaque than item nodes")
	}
}

func TestPaintEmpty(t *testing.T) {
	p := NewPainter(DefaultStyle())
	rec := &recorder{}
	st := p.Paint(rec, Scene{Arena: graph.NewArena(1, nil, nil)})
	if len(rec.ops) != 1 || rec.ops[0] != "clear" {
		t.Errorf("empty scene should only clear, got %v", rec.ops)
	}
	if st != (FrameStats{}) {
		t.Errorf("expected zero stats, got %+v", st)
	}

	rec = &recorder{}
	p.Paint(rec, Scene{})
	if len(rec.ops) != 1 {
		t.Errorf("nil arena should only clear, got %v", rec.ops)
	}
}

func TestPaintSelectedRing(t *testing.T) {
	p := NewPainter(DefaultStyle())
	rec := &recorder{}
	p.Paint(rec, Scene{Arena: sampleArena(), Selected: "item-2"})
	if indexOf(rec.ops, "ring 60,50") < 0 {
		t.Errorf("selected node should get a ring, got %v", rec.ops)
	}
}

func TestParseColor(t *testing.T) {
	c := ParseColor("#ff8000", 0.5).(color.NRGBA)
	if c.R != 0xff || c.G != 0x80 || c.B != 0 || c.A != 127 {
		t.Errorf("unexpected colour %+v", c)
	}
	short := ParseColor("#0f0", 1).(color.NRGBA)
	if short.G != 0xff || short.R != 0 {
		t.Errorf("unexpected short colour %+v", short)
	}
	bad := ParseColor("tomato", 1).(color.NRGBA)
	if bad.R != 0x88 {
		t.Errorf("invalid colour should fall back to grey, got %+v", bad)
	}
}

func TestWhenDirty(t *testing.T) {
	d := &WhenDirty{}
	if !d.NeedsPaint(Scene{Generation: 1}) {
		t.Error("first frame should paint")
	}
	if d.NeedsPaint(Scene{Generation: 1}) {
		t.Error("unchanged generation should skip")
	}
	if !d.NeedsPaint(Scene{Generation: 2}) {
		t.Error("new generation should paint")
	}

	if _, ok := PolicyByName("dirty").(*WhenDirty); !ok {
		t.Error("dirty should select WhenDirty")
	}
	if _, ok := PolicyByName("always").(Always); !ok {
		t.Error("always should select Always")
	}
}

type swapSource struct {
	arena *graph.Arena
	gen   uint64
}

func (s *swapSource) Scene() Scene { return Scene{Arena: s.arena, Transform: camera.Identity(), Generation: s.gen} }

func TestLoopRepaintsContinuously(t *testing.T) {
	sched := eventloop.New(60)
	src := &swapSource{arena: sampleArena()}
	rec := &recorder{}
	l := NewLoop(sched, src, rec, NewPainter(DefaultStyle()), nil)

	l.Start()
	l.Start()
	for i := 0; i < 3; i++ {
		sched.Beat(time.Now())
	}
	if l.Frames() != 3 {
		t.Errorf("expected 3 frames, got %d", l.Frames())
	}

	// A rebuild swaps the arena; the next frame must paint the new one.
	src.arena = graph.NewArena(2, []*graph.Node{{ID: "cluster-9", ClusterID: 9, MemberCount: 7}}, nil)
	sched.Beat(time.Now())
	if l.Last().Nodes != 1 {
		t.Errorf("loop should read the new arena, painted %d nodes", l.Last().Nodes)
	}

	l.Stop()
	if sched.PendingFrames() != 0 {
		t.Errorf("Stop should cancel the pending frame, %d pending", sched.PendingFrames())
	}
	sched.Beat(time.Now())
	if l.Frames() != 4 {
		t.Errorf("stopped loop should not paint, frames %d", l.Frames())
	}
}

func TestLoopDirtyPolicySkips(t *testing.T) {
	sched := eventloop.New(60)
	src := &swapSource{arena: sampleArena(), gen: 1}
	l := NewLoop(sched, src, &recorder{}, NewPainter(DefaultStyle()), &WhenDirty{})
	l.Start()

	sched.Beat(time.Now())
	sched.Beat(time.Now())
	if l.Frames() != 1 {
		t.Errorf("dirty policy should paint once, got %d", l.Frames())
	}
	src.gen++
	sched.Beat(time.Now())
	if l.Frames() != 2 {
		t.Errorf("dirty policy should repaint after a change, got %d", l.Frames())
	}
	if !l.Running() {
		t.Error("loop should keep running while skipping frames")
	}
}

func TestRasterDrawsPixels(t *testing.T) {
	r, err := NewRaster(80, 60)
	if err != nil {
		t.Fatalf("NewRaster failed: %v", err)
	}
	p := NewPainter(DefaultStyle())
	p.Paint(r, Scene{Arena: sampleArena(), Transform: camera.Identity(), Hovered: "cluster-1"})

	// Centre of item-1 is filled green-ish; a far corner stays white.
	c := r.Image().RGBAAt(50, 50)
	if c.G < 100 || c.R > 200 {
		t.Errorf("expected item fill at (50,50), got %+v", c)
	}
	bg := r.Image().RGBAAt(79, 0)
	if bg.R != 255 || bg.G != 255 || bg.B != 255 {
		t.Errorf("expected white background, got %+v", bg)
	}

	var buf bytes.Buffer
	if err := r.EncodePNG(&buf); err != nil {
		t.Fatalf("EncodePNG failed: %v", err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatalf("output is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 60 {
		t.Errorf("unexpected PNG size %v", b)
	}
}

func TestRasterSkipsOffscreen(t *testing.T) {
	r, _ := NewRaster(20, 20)
	r.Clear(color.White)
	r.FillCircle(-500, -500, 5, color.Black)
	r.Line(-100, -100, -50, -50, 1, color.Black)
	r.StrokeCircle(1000, 1000, 5, 1, color.Black)
	for y := 0; y < 20; y++ {
		for x := 0; x < 20; x++ {
			if c := r.Image().RGBAAt(x, y); c.R != 255 {
				t.Fatalf("pixel (%d,%d) painted by offscreen shape: %+v", x, y, c)
			}
		}
	}
}
