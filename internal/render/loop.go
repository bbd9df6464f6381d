package render

import (
	"time"

	"github.com/msalah0e/clustermap/internal/eventloop"
	"github.com/msalah0e/clustermap/internal/metrics"
)

// Scheduler hands out animation frames.
type Scheduler interface {
	RequestFrame(cb func(now time.Time)) eventloop.FrameID
	CancelFrame(id eventloop.FrameID)
}

// SceneSource is read at the start of every frame, so a rebuilt arena is
// picked up on the next frame without the loop holding on to the old one.
type SceneSource interface {
	Scene() Scene
}

// RepaintPolicy decides whether a frame needs painting.
type RepaintPolicy interface {
	NeedsPaint(sc Scene) bool
}

// Always repaints every frame.
type Always struct{}

func (Always) NeedsPaint(Scene) bool { return true }

// WhenDirty repaints only when the scene generation has moved.
type WhenDirty struct {
	painted bool
	last    uint64
}

func (d *WhenDirty) NeedsPaint(sc Scene) bool {
	if d.painted && sc.Generation == d.last {
		return false
	}
	d.painted = true
	d.last = sc.Generation
	return true
}

// PolicyByName maps a config name to a policy; unknown names repaint always.
func PolicyByName(name string) RepaintPolicy {
	if name == "dirty" {
		return &WhenDirty{}
	}
	return Always{}
}

// Loop repaints the current scene once per animation frame for as long as it runs.
type Loop struct {
	sched   Scheduler
	source  SceneSource
	surface Surface
	painter *Painter
	policy  RepaintPolicy

	pending eventloop.FrameID
	running bool
	frames  uint64
	last    FrameStats
}

// NewLoop wires a render loop. A nil policy repaints always.
func NewLoop(sched Scheduler, source SceneSource, surface Surface, painter *Painter, policy RepaintPolicy) *Loop {
	if policy == nil {
		policy = Always{}
	}
	return &Loop{sched: sched, source: source, surface: surface, painter: painter, policy: policy}
}

// Start requests the first frame. Starting a running loop is a no-op.
func (l *Loop) Start() {
	if l.running {
		return
	}
	l.running = true
	l.pending = l.sched.RequestFrame(l.frame)
}

// Stop cancels the pending frame.
func (l *Loop) Stop() {
	if !l.running {
		return
	}
	l.running = false
	l.sched.CancelFrame(l.pending)
	l.pending = 0
}

// Running reports whether a frame is scheduled.
func (l *Loop) Running() bool { return l.running }

// Frames returns how many frames were painted.
func (l *Loop) Frames() uint64 { return l.frames }

// Last returns the stats of the last painted frame.
func (l *Loop) Last() FrameStats { return l.last }

// PaintNow paints the current scene immediately, regardless of policy.
func (l *Loop) PaintNow() FrameStats {
	l.last = l.painter.Paint(l.surface, l.source.Scene())
	l.frames++
	metrics.Frames.WithLabelValues("painted").Inc()
	return l.last
}

func (l *Loop) frame(time.Time) {
	if !l.running {
		return
	}
	sc := l.source.Scene()
	if l.policy.NeedsPaint(sc) {
		l.last = l.painter.Paint(l.surface, sc)
		l.frames++
		metrics.Frames.WithLabelValues("painted").Inc()
	} else {
		metrics.Frames.WithLabelValues("skipped").Inc()
	}
	l.pending = l.sched.RequestFrame(l.frame)
}
