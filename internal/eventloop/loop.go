// Package eventloop is a single-goroutine cooperative scheduler. Posted tasks,
// per-frame timers and animation-frame callbacks all run on the goroutine that
// drives the loop, so callbacks can share mutable state without locks.
//
// Each frame runs queued tasks, then active timers, then the animation-frame
// callbacks that were pending when the frame began.
package eventloop

import (
	"context"
	"time"
)

// FrameID identifies a pending animation-frame callback.
type FrameID uint64

type frameRequest struct {
	id FrameID
	cb func(now time.Time)
}

// Loop schedules work on one goroutine. Post is safe from any goroutine;
// every other method must be called from the loop goroutine (or, when the loop
// is driven manually with Beat, from the driving goroutine).
type Loop struct {
	interval time.Duration
	tasks    chan func()

	frames []frameRequest
	nextID FrameID
	timers []*Timer
	beats  uint64
}

// New returns a loop that beats frameRate times per second when Run.
func New(frameRate int) *Loop {
	if frameRate <= 0 {
		frameRate = 60
	}
	return &Loop{
		interval: time.Second / time.Duration(frameRate),
		tasks:    make(chan func(), 256),
	}
}

// Interval returns the frame interval.
func (l *Loop) Interval() time.Duration { return l.interval }

// Post queues fn to run on the loop goroutine. It blocks only if the queue is full.
func (l *Loop) Post(fn func()) {
	l.tasks <- fn
}

// PostContext is Post that gives up with ctx.Err() once ctx is done.
func (l *Loop) PostContext(ctx context.Context, fn func()) error {
	select {
	case l.tasks <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RequestFrame schedules cb for the next frame.
func (l *Loop) RequestFrame(cb func(now time.Time)) FrameID {
	l.nextID++
	l.frames = append(l.frames, frameRequest{id: l.nextID, cb: cb})
	return l.nextID
}

// CancelFrame drops a pending frame callback. Unknown ids are ignored.
func (l *Loop) CancelFrame(id FrameID) {
	for i, f := range l.frames {
		if f.id == id {
			l.frames = append(l.frames[:i], l.frames[i+1:]...)
			return
		}
	}
}

// PendingFrames returns how many frame callbacks are waiting.
func (l *Loop) PendingFrames() int { return len(l.frames) }

// Beats returns how many frames have run.
func (l *Loop) Beats() uint64 { return l.beats }

// Drain runs every queued task and returns how many ran.
func (l *Loop) Drain() int {
	n := 0
	for {
		select {
		case fn := <-l.tasks:
			fn()
			n++
		default:
			return n
		}
	}
}

// Beat runs one frame at now.
func (l *Loop) Beat(now time.Time) {
	l.Drain()
	l.beats++

	for _, t := range l.activeTimers() {
		if t.active {
			t.cb(now)
		}
	}

	frames := l.frames
	l.frames = nil
	for _, f := range frames {
		f.cb(now)
	}
}

// Run drives the loop in real time until ctx is done. Tasks run as soon as
// they are posted; frames run on the frame interval.
func (l *Loop) Run(ctx context.Context) error {
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case fn := <-l.tasks:
			fn()
		case now := <-ticker.C:
			l.Beat(now)
		}
	}
}

func (l *Loop) activeTimers() []*Timer {
	live := l.timers[:0]
	for _, t := range l.timers {
		if t.active {
			live = append(live, t)
		}
	}
	l.timers = live
	return append([]*Timer(nil), live...)
}

// Timer is a callback invoked once per frame until stopped.
type Timer struct {
	loop   *Loop
	cb     func(now time.Time)
	active bool
}

// NewTimer starts a per-frame timer.
func (l *Loop) NewTimer(cb func(now time.Time)) *Timer {
	t := &Timer{loop: l, cb: cb}
	t.Restart()
	return t
}

// Active reports whether the timer is running.
func (t *Timer) Active() bool { return t.active }

// Stop halts the timer; it can be restarted.
func (t *Timer) Stop() { t.active = false }

// Restart resumes a stopped timer.
func (t *Timer) Restart() {
	if t.active {
		return
	}
	t.active = true
	for _, existing := range t.loop.timers {
		if existing == t {
			return
		}
	}
	t.loop.timers = append(t.loop.timers, t)
}

// ActiveTimers returns how many timers are running.
func (l *Loop) ActiveTimers() int {
	n := 0
	for _, t := range l.timers {
		if t.active {
			n++
		}
	}
	return n
}
