package interact

import (
	"log/slog"

	"github.com/msalah0e/clustermap/internal/camera"
	"github.com/msalah0e/clustermap/internal/graph"
	"github.com/msalah0e/clustermap/internal/metrics"
)

// State is what the controller is currently doing.
type State uint8

const (
	Idle State = iota
	Panning
	Dragging
)

func (s State) String() string {
	switch s {
	case Panning:
		return "panning"
	case Dragging:
		return "dragging"
	default:
		return "idle"
	}
}

// Cursor styles.
const (
	CursorGrab = "grab"
	CursorMove = "move"
)

// Host is the graph component the controller drives.
type Host interface {
	Arena() *graph.Arena
	Transform() camera.Transform
	SetTransform(t camera.Transform)
	Viewport() (w, h int)
	Reheat(alpha float64)
	Expand(clusterID int) bool
	Collapse(clusterID int) bool
	ResetLayout()
	OpenDetails(itemID int)
}

// Options tunes gestures and hit-testing.
type Options struct {
	Tolerance        float64
	MinScale         float64
	MaxScale         float64
	WheelSensitivity float64
	ZoomStep         float64
	PanStep          float64
	DragReheat       float64
	OpenModifier     Modifiers
	Radius           RadiusFunc
}

// DefaultOptions returns the standard gesture settings.
func DefaultOptions() Options {
	return Options{
		Tolerance:        5,
		MinScale:         0.1,
		MaxScale:         8,
		WheelSensitivity: 0.002,
		ZoomStep:         1.2,
		PanStep:          40,
		DragReheat:       0.3,
		OpenModifier:     Ctrl | Meta,
		Radius: func(n *graph.Node) float64 {
			if n.IsCluster() {
				return 15
			}
			return 5
		},
	}
}

// Controller is the interaction state machine. It must be driven from the
// goroutine that owns the host's arena.
type Controller struct {
	host Host
	opts Options

	state    State
	dragging string
	last     camera.Point

	hovered  string
	selected string
	cursor   string

	regs []*Registration
}

// NewController returns an idle controller.
func NewController(host Host, opts Options) *Controller {
	if opts.Radius == nil {
		opts.Radius = DefaultOptions().Radius
	}
	return &Controller{host: host, opts: opts, cursor: CursorGrab}
}

// State returns the current state.
func (c *Controller) State() State { return c.state }

// DragNode returns the id of the node being dragged, if any.
func (c *Controller) DragNode() string { return c.dragging }

// Hovered returns the id of the hovered node, or "".
func (c *Controller) Hovered() string { return c.hovered }

// Selected returns the id of the node whose details were last opened.
func (c *Controller) Selected() string { return c.selected }

// Cursor returns the cursor style for the last pointer position.
func (c *Controller) Cursor() string { return c.cursor }

// Attach registers the controller on every event kind of t.
func (c *Controller) Attach(t *Target) {
	for _, k := range Kinds() {
		c.regs = append(c.regs, t.On(k, c.Handle))
	}
}

// Detach removes every listener Attach registered.
func (c *Controller) Detach() {
	for _, r := range c.regs {
		r.Remove()
	}
	c.regs = nil
}

// Handle applies one event.
func (c *Controller) Handle(ev *Event) {
	metrics.Interactions.WithLabelValues(ev.Kind.String()).Inc()
	p := camera.Point{X: ev.X, Y: ev.Y}
	switch ev.Kind {
	case PointerDown:
		c.pointerDown(p)
	case PointerMove:
		c.pointerMove(p)
	case PointerUp:
		c.pointerUp()
	case Click:
		c.click(p, ev.Modifiers)
	case DblClick:
		ev.StopPropagation()
		c.dblClick(p)
	case Wheel:
		c.wheel(p, ev.DeltaY)
	case Key:
		c.key(ev.Key)
	}
}

func (c *Controller) sim(p camera.Point) camera.Point {
	return c.host.Transform().Invert(p)
}

func (c *Controller) pick(p camera.Point) *graph.Node {
	return PickFirst(c.host.Arena(), c.sim(p), c.opts.Radius, c.opts.Tolerance)
}

func (c *Controller) pointerDown(p camera.Point) {
	if c.state != Idle {
		return
	}
	if n := c.pick(p); n != nil {
		// The pin waits for the first move so a press alone leaves the node free.
		c.state = Dragging
		c.dragging = n.ID
		c.cursor = CursorMove
		slog.Debug("drag start", "node", n.ID)
		return
	}
	c.state = Panning
	c.last = p
}

func (c *Controller) pointerMove(p camera.Point) {
	switch c.state {
	case Dragging:
		n, ok := c.host.Arena().Node(c.dragging)
		if !ok {
			// The node vanished in a rebuild.
			c.state, c.dragging = Idle, ""
			return
		}
		s := c.sim(p)
		n.Pin(s.X, s.Y)
		c.host.Reheat(c.opts.DragReheat)
		return
	case Panning:
		c.host.SetTransform(c.host.Transform().Translate(p.X-c.last.X, p.Y-c.last.Y))
		c.last = p
	}
	c.hover(p)
}

func (c *Controller) hover(p camera.Point) {
	n := PickNearest(c.host.Arena(), c.sim(p), c.opts.Radius, c.opts.Tolerance)
	if n == nil {
		c.hovered = ""
		c.cursor = CursorGrab
		return
	}
	c.hovered = n.ID
	c.cursor = CursorMove
}

func (c *Controller) pointerUp() {
	if c.state == Dragging {
		slog.Debug("drag end", "node", c.dragging)
	}
	c.state, c.dragging = Idle, ""
}

func (c *Controller) click(p camera.Point, mods Modifiers) {
	if !mods.Has(c.opts.OpenModifier) {
		return
	}
	n := c.pick(p)
	if n == nil || n.IsCluster() {
		return
	}
	c.selected = n.ID
	c.host.OpenDetails(n.ItemID)
}

func (c *Controller) dblClick(p camera.Point) {
	n := c.pick(p)
	if n == nil {
		return
	}
	if n.IsCluster() {
		c.host.Expand(n.ClusterID)
	} else {
		c.host.Collapse(n.ClusterID)
	}
	c.hovered = ""
}

// wheel zooms about p unless a drag is running or the gesture starts on a node.
func (c *Controller) wheel(p camera.Point, deltaY float64) {
	if c.state == Dragging || c.pick(p) != nil {
		return
	}
	t := c.host.Transform().Wheel(deltaY, c.opts.WheelSensitivity, p, c.opts.MinScale, c.opts.MaxScale)
	c.host.SetTransform(t)
}

func (c *Controller) key(k string) {
	t := c.host.Transform()
	w, h := c.host.Viewport()
	centre := camera.Point{X: float64(w) / 2, Y: float64(h) / 2}
	switch k {
	case "r", "R":
		c.Reset()
		c.host.ResetLayout()
	case "+", "=":
		c.host.SetTransform(t.ScaleAt(t.K*c.opts.ZoomStep, centre, c.opts.MinScale, c.opts.MaxScale))
	case "-", "_":
		c.host.SetTransform(t.ScaleAt(t.K/c.opts.ZoomStep, centre, c.opts.MinScale, c.opts.MaxScale))
	case "ArrowLeft":
		c.host.SetTransform(t.Translate(c.opts.PanStep, 0))
	case "ArrowRight":
		c.host.SetTransform(t.Translate(-c.opts.PanStep, 0))
	case "ArrowUp":
		c.host.SetTransform(t.Translate(0, c.opts.PanStep))
	case "ArrowDown":
		c.host.SetTransform(t.Translate(0, -c.opts.PanStep))
	case "Escape":
		c.cancel()
	}
}

// cancel ends a pan or drag. A dragged node keeps its pin.
func (c *Controller) cancel() {
	c.state, c.dragging = Idle, ""
}

// Reset forgets hover and selection and returns to Idle.
func (c *Controller) Reset() {
	c.cancel()
	c.hovered, c.selected = "", ""
	c.cursor = CursorGrab
}
