// Package explorer is the mounted cluster graph: it owns the layout state,
// the current node arena, the physics integrator, the render loop and the
// interaction controller, and runs them all on one event loop.
package explorer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/msalah0e/clustermap/internal/camera"
	"github.com/msalah0e/clustermap/internal/eventloop"
	"github.com/msalah0e/clustermap/internal/graph"
	"github.com/msalah0e/clustermap/internal/interact"
	"github.com/msalah0e/clustermap/internal/layout"
	"github.com/msalah0e/clustermap/internal/metrics"
	"github.com/msalah0e/clustermap/internal/physics"
	"github.com/msalah0e/clustermap/internal/records"
	"github.com/msalah0e/clustermap/internal/render"
)

// ErrNotMounted is returned when unmounting an explorer that is not mounted.
var ErrNotMounted = errors.New("explorer: not mounted")

// Options configures an explorer.
type Options struct {
	Width, Height int
	Density       int
	FrameRate     int
	Repaint       string

	Builder  graph.Options
	Physics  physics.Params
	Style    render.Style
	Interact interact.Options

	// OnOpen is called with an item id when its details are opened.
	OnOpen func(itemID int)
	Logger *slog.Logger
}

// DefaultOptions returns an 800x600 canvas at full density.
func DefaultOptions() Options {
	return Options{
		Width:     800,
		Height:    600,
		Density:   100,
		FrameRate: 60,
		Repaint:   "always",
		Builder:   graph.DefaultOptions(),
		Physics:   physics.DefaultParams(),
		Style:     render.DefaultStyle(),
		Interact:  interact.DefaultOptions(),
	}
}

// Explorer is not safe for concurrent use. Outside of Run, drive it from one
// goroutine; while Run is active, use Post.
type Explorer struct {
	id   uuid.UUID
	log  *slog.Logger
	opts Options

	loop    *eventloop.Loop
	clock   time.Time
	state   *layout.State
	sim     *physics.Simulation
	timer   *eventloop.Timer
	raster  *render.Raster
	painter *render.Painter
	frames  *render.Loop
	ctrl    *interact.Controller
	target  *interact.Target

	current atomic.Pointer[graph.Arena]
	version uint64
	gen     uint64

	papers    []records.Paper
	clusters  []records.Cluster
	selection records.Selection

	mounted bool
}

// New creates an unmounted explorer with an empty graph.
func New(opts Options) (*Explorer, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("explorer: invalid canvas size %dx%d", opts.Width, opts.Height)
	}
	raster, err := render.NewRaster(opts.Width, opts.Height)
	if err != nil {
		return nil, fmt.Errorf("explorer: raster: %w", err)
	}

	id := uuid.New()
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts.Physics.CenterX = float64(opts.Width) / 2
	opts.Physics.CenterY = float64(opts.Height) / 2

	e := &Explorer{
		id:      id,
		log:     logger.With("session", id.String()),
		opts:    opts,
		loop:    eventloop.New(opts.FrameRate),
		clock:   time.Unix(0, 0),
		state:   layout.New(opts.Density),
		sim:     physics.New(opts.Physics),
		raster:  raster,
		painter: render.NewPainter(opts.Style),
		target:  interact.NewTarget(),
	}
	e.frames = render.NewLoop(e.loop, e, raster, e.painter, render.PolicyByName(opts.Repaint))

	iopts := opts.Interact
	iopts.Radius = e.painter.Style().Radius
	e.ctrl = interact.NewController(e, iopts)

	e.current.Store(graph.NewArena(0, nil, nil))
	return e, nil
}

// ID returns the session id used in log lines.
func (e *Explorer) ID() uuid.UUID { return e.id }

// Mount starts the physics timer and the render loop and attaches the
// interaction listeners. Mounting twice is a no-op.
func (e *Explorer) Mount() {
	if e.mounted {
		return
	}
	e.mounted = true
	e.ctrl.Attach(e.target)
	e.timer = e.loop.NewTimer(e.tick)
	if !e.sim.Active() {
		e.timer.Stop()
	}
	e.frames.Start()
	e.log.Info("mounted", "nodes", e.Arena().Len(), "width", e.opts.Width, "height", e.opts.Height)
}

// Unmount stops the physics integrator, cancels the pending render frame and
// removes every listener.
func (e *Explorer) Unmount() error {
	if !e.mounted {
		return ErrNotMounted
	}
	e.mounted = false
	e.sim.Stop()
	e.timer.Stop()
	e.frames.Stop()
	e.ctrl.Detach()
	e.log.Info("unmounted", "ticks", e.sim.Ticks(), "frames", e.frames.Frames())
	return nil
}

// Mounted reports whether the explorer is mounted.
func (e *Explorer) Mounted() bool { return e.mounted }

// tick is the physics timer callback. It runs before the frame's render callback.
func (e *Explorer) tick(time.Time) {
	if !e.sim.Active() {
		e.timer.Stop()
		return
	}
	e.sim.Tick()
	e.gen++
	metrics.PhysicsTicks.Inc()
}

// Scene implements render.SceneSource. It loads the current arena on every
// call so a rebuild is painted on the next frame.
func (e *Explorer) Scene() render.Scene {
	return render.Scene{
		Arena:      e.current.Load(),
		Transform:  e.state.Transform(),
		Hovered:    e.ctrl.Hovered(),
		Selected:   e.ctrl.Selected(),
		Generation: e.gen,
	}
}

// Arena returns the current arena.
func (e *Explorer) Arena() *graph.Arena { return e.current.Load() }

// Layout returns the layout state.
func (e *Explorer) Layout() *layout.State { return e.state }

// Simulation returns the physics integrator.
func (e *Explorer) Simulation() *physics.Simulation { return e.sim }

// Controller returns the interaction controller.
func (e *Explorer) Controller() *interact.Controller { return e.ctrl }

// Target returns the listener target events are dispatched on.
func (e *Explorer) Target() *interact.Target { return e.target }

// Loop returns the event loop.
func (e *Explorer) Loop() *eventloop.Loop { return e.loop }

// Frames returns how many frames were painted.
func (e *Explorer) Frames() uint64 { return e.frames.Frames() }

// LastFrame returns the stats of the last painted frame.
func (e *Explorer) LastFrame() render.FrameStats { return e.frames.Last() }

// Transform returns the camera transform.
func (e *Explorer) Transform() camera.Transform { return e.state.Transform() }

// SetTransform replaces the camera transform.
func (e *Explorer) SetTransform(t camera.Transform) {
	e.state.SetTransform(t)
	e.gen++
}

// Viewport returns the canvas size.
func (e *Explorer) Viewport() (int, int) { return e.opts.Width, e.opts.Height }

// Reheat raises the simulation's energy and restarts the physics timer.
func (e *Explorer) Reheat(alpha float64) {
	e.sim.Reheat(alpha)
	if e.mounted && e.sim.Active() {
		e.timer.Restart()
	}
}

// OpenDetails forwards an item id to the OnOpen callback.
func (e *Explorer) OpenDetails(itemID int) {
	e.log.Debug("open details", "item", itemID)
	if e.opts.OnOpen != nil {
		e.opts.OnOpen(itemID)
	}
}

// Dispatch delivers an input event to the registered listeners.
func (e *Explorer) Dispatch(ev interact.Event) {
	e.target.Dispatch(&ev)
	e.gen++
}

// Post queues fn on the event loop. It is the only method safe to call while Run is active.
func (e *Explorer) Post(fn func()) { e.loop.Post(fn) }

// PostContext is Post that stops waiting for queue space once ctx is done.
func (e *Explorer) PostContext(ctx context.Context, fn func()) error {
	return e.loop.PostContext(ctx, fn)
}

// SetRecords replaces the input records and rebuilds.
func (e *Explorer) SetRecords(papers []records.Paper, clusters []records.Cluster) {
	e.papers, e.clusters = papers, clusters
	e.rebuild("records", true)
}

// SetSelection replaces the selected cluster ids and rebuilds. An empty
// selection shows every cluster.
func (e *Explorer) SetSelection(sel records.Selection) {
	e.selection = sel
	e.rebuild("selection", true)
}

// SetDensity changes the sampling percentage and rebuilds when it moved.
func (e *Explorer) SetDensity(percent int) {
	if e.state.SetDensity(percent) {
		e.rebuild("density", true)
	}
}

// Expand shows a cluster's members. It reports whether anything changed;
// clusters that are not shown collapsed are left alone.
func (e *Explorer) Expand(clusterID int) bool {
	if _, ok := e.Arena().Node(graph.ClusterNodeID(clusterID)); !ok {
		return false
	}
	if !e.state.Expand(clusterID) {
		return false
	}
	e.rebuild("expand", true)
	return true
}

// Collapse folds a cluster back into one node. It reports whether anything changed.
func (e *Explorer) Collapse(clusterID int) bool {
	if !e.state.Collapse(clusterID) {
		return false
	}
	e.rebuild("collapse", true)
	return true
}

// Toggle flips a cluster's expansion and reports whether it is now expanded.
func (e *Explorer) Toggle(clusterID int) bool {
	if e.state.Contains(clusterID) {
		e.Collapse(clusterID)
		return false
	}
	return e.Expand(clusterID)
}

// Unpin releases a node's pin. It reports whether the node was pinned.
func (e *Explorer) Unpin(id string) bool {
	n, ok := e.Arena().Node(id)
	if !ok || !n.Pinned {
		return false
	}
	n.Unpin()
	e.state.Forget(id)
	e.Reheat(e.opts.Interact.DragReheat)
	return true
}

// ResetLayout clears the expansion set, every pin, the position cache and
// the camera, then rebuilds from fresh seeds.
func (e *Explorer) ResetLayout() {
	e.state.Reset()
	e.ctrl.Reset()
	e.rebuild("reset", false)
	e.log.Info("layout reset")
}

func (e *Explorer) input() graph.Input {
	return graph.Input{
		Papers:    e.papers,
		Clusters:  e.clusters,
		Selection: e.selection,
		Expanded:  e.state,
		Density:   e.state.Density(),
		Previous:  e.state,
		Center:    camera.Point{X: e.opts.Physics.CenterX, Y: e.opts.Physics.CenterY},
		Options:   e.opts.Builder,
	}
}

// Clusters summarizes the visible clusters under the current selection,
// density and expansion set.
func (e *Explorer) Clusters() []graph.Summary {
	return graph.Summarize(e.input())
}

// rebuild builds a new arena and hands it to the integrator and the render
// loop. With remember set, the outgoing arena's positions seed the new one.
func (e *Explorer) rebuild(reason string, remember bool) {
	if remember {
		e.state.Remember(e.current.Load())
	}
	e.version++
	a := graph.Build(e.version, e.input())
	e.current.Store(a)
	e.sim.SetArena(a)
	if e.mounted && e.sim.Active() {
		e.timer.Restart()
	}
	e.gen++

	st := a.GetStats()
	metrics.GraphBuilds.Inc()
	metrics.GraphNodes.WithLabelValues(graph.ClusterKind.String()).Set(float64(st.ClusterNodes))
	metrics.GraphNodes.WithLabelValues(graph.ItemKind.String()).Set(float64(st.ItemNodes))
	metrics.GraphEdges.Set(float64(st.Edges))
	e.log.Debug("rebuild", "reason", reason, "version", a.Version,
		"clusters", st.ClusterNodes, "items", st.ItemNodes, "edges", st.Edges, "pinned", st.Pinned)
}

// Advance runs n frames on a virtual clock.
func (e *Explorer) Advance(n int) {
	for i := 0; i < n; i++ {
		e.clock = e.clock.Add(e.loop.Interval())
		e.loop.Beat(e.clock)
	}
}

// Settle advances frames until the simulation stops or max frames have run.
// It returns the number of frames run.
func (e *Explorer) Settle(max int) int {
	n := 0
	for n < max && e.sim.Active() {
		e.Advance(1)
		n++
	}
	return n
}

// Run drives the event loop in real time until ctx is done.
func (e *Explorer) Run(ctx context.Context) error {
	err := e.loop.Run(ctx)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Snapshot paints the current scene and writes it as PNG.
func (e *Explorer) Snapshot(w io.Writer) error {
	e.frames.PaintNow()
	if err := e.raster.EncodePNG(w); err != nil {
		return fmt.Errorf("explorer: encode png: %w", err)
	}
	return nil
}
