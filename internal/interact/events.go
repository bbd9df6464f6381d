// Package interact turns pointer and keyboard events into camera, drag,
// selection and expand/collapse actions on the cluster graph.
package interact

import (
	"fmt"
	"strings"
)

// Kind names an event type.
type Kind uint8

const (
	PointerDown Kind = iota
	PointerMove
	PointerUp
	Click
	DblClick
	Wheel
	Key
)

var kindNames = [...]string{"pointerdown", "pointermove", "pointerup", "click", "dblclick", "wheel", "key"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", k)
}

// ParseKind maps an event name such as "dblclick" to its Kind.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if n == name {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown event kind %q", name)
}

// Kinds lists every event kind in dispatch order.
func Kinds() []Kind {
	return []Kind{PointerDown, PointerMove, PointerUp, Click, DblClick, Wheel, Key}
}

// Modifiers is a bit set of held modifier keys.
type Modifiers uint8

const (
	Shift Modifiers = 1 << iota
	Ctrl
	Alt
	Meta
)

// Has reports whether any of the bits in m are held.
func (m Modifiers) Has(o Modifiers) bool { return m&o != 0 }

// ParseModifiers reads names like "ctrl", "meta" or "ctrl+meta".
// Several names mean any of them will do.
func ParseModifiers(s string) (Modifiers, error) {
	var m Modifiers
	for _, part := range strings.FieldsFunc(strings.ToLower(s), func(r rune) bool { return r == '+' || r == ',' || r == '|' }) {
		switch strings.TrimSpace(part) {
		case "shift":
			m |= Shift
		case "ctrl", "control":
			m |= Ctrl
		case "alt", "option":
			m |= Alt
		case "meta", "cmd", "super":
			m |= Meta
		default:
			return 0, fmt.Errorf("unknown modifier %q", part)
		}
	}
	return m, nil
}

// Event is one input event. X and Y are screen coordinates.
type Event struct {
	Kind      Kind
	X, Y      float64
	Button    int
	Modifiers Modifiers
	DeltaY    float64
	Key       string

	stopped bool
}

// StopPropagation keeps later listeners from seeing the event.
func (e *Event) StopPropagation() { e.stopped = true }

// Stopped reports whether a listener stopped the event.
func (e *Event) Stopped() bool { return e.stopped }

// Handler receives dispatched events.
type Handler func(ev *Event)

type listener struct {
	id uint64
	h  Handler
}

// Target holds listeners by event kind, like a DOM element.
type Target struct {
	nextID    uint64
	listeners map[Kind][]listener
}

// NewTarget returns an empty target.
func NewTarget() *Target {
	return &Target{listeners: make(map[Kind][]listener)}
}

// Registration removes a listener.
type Registration struct {
	t    *Target
	kind Kind
	id   uint64
}

// Remove unregisters the listener. Removing twice is a no-op.
func (r *Registration) Remove() {
	if r == nil || r.t == nil {
		return
	}
	ls := r.t.listeners[r.kind]
	for i, l := range ls {
		if l.id == r.id {
			r.t.listeners[r.kind] = append(ls[:i:i], ls[i+1:]...)
			break
		}
	}
	r.t = nil
}

// On adds a listener for kind.
func (t *Target) On(kind Kind, h Handler) *Registration {
	t.nextID++
	t.listeners[kind] = append(t.listeners[kind], listener{id: t.nextID, h: h})
	return &Registration{t: t, kind: kind, id: t.nextID}
}

// Dispatch calls listeners in registration order until one stops the event.
func (t *Target) Dispatch(ev *Event) {
	for _, l := range append([]listener(nil), t.listeners[ev.Kind]...) {
		l.h(ev)
		if ev.stopped {
			return
		}
	}
}

// Listeners returns how many listeners are registered.
func (t *Target) Listeners() int {
	n := 0
	for _, ls := range t.listeners {
		n += len(ls)
	}
	return n
}
