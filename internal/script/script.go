// Package script replays YAML interaction scripts against a mounted graph,
// so pointer and keyboard sessions can be driven headlessly.
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/msalah0e/clustermap/internal/camera"
	"github.com/msalah0e/clustermap/internal/graph"
	"github.com/msalah0e/clustermap/internal/interact"
	"github.com/msalah0e/clustermap/internal/records"
)

// ErrUnknownAction is returned for a step whose action is not recognised.
var ErrUnknownAction = errors.New("script: unknown action")

// Step is one scripted action. Positions are screen coordinates, or the
// current screen position of Node when it is set.
type Step struct {
	Action    string  `yaml:"action"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Node      string  `yaml:"node"`
	To        *Point  `yaml:"to"`
	ToNode    string  `yaml:"to_node"`
	Steps     int     `yaml:"steps"`
	Button    int     `yaml:"button"`
	Modifiers string  `yaml:"modifiers"`
	Delta     float64 `yaml:"delta"`
	Key       string  `yaml:"key"`
	Frames    int     `yaml:"frames"`
	Value     int     `yaml:"value"`
	Clusters  []int   `yaml:"clusters"`
	Path      string  `yaml:"path"`
}

// Point is a screen position.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// Script is a named list of steps.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

var actions = map[string]bool{
	"pointerdown": true, "pointermove": true, "pointerup": true,
	"click": true, "dblclick": true, "wheel": true, "key": true, "drag": true,
	"wait": true, "density": true, "select": true, "reset": true, "snapshot": true,
}

// Parse decodes a script strictly, expanding environment variables first.
func Parse(data []byte) (*Script, error) {
	var s Script
	dec := yaml.NewDecoder(strings.NewReader(os.ExpandEnv(string(data))))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("script: yaml: %w", err)
	}
	for i, st := range s.Steps {
		if !actions[st.Action] {
			return nil, fmt.Errorf("step %d: %w %q", i+1, ErrUnknownAction, st.Action)
		}
		if st.Action == "drag" && st.To == nil && st.ToNode == "" {
			return nil, fmt.Errorf("step %d: drag needs to or to_node", i+1)
		}
		if _, err := interact.ParseModifiers(st.Modifiers); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &s, nil
}

// Load reads and parses a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read script '%s': %w", path, err)
	}
	return Parse(data)
}

// Target is what a script drives.
type Target interface {
	Dispatch(ev interact.Event)
	Advance(frames int)
	Arena() *graph.Arena
	Transform() camera.Transform
	SetDensity(percent int)
	SetSelection(sel records.Selection)
	ResetLayout()
	Snapshot(w io.Writer) error
}

// Report summarizes a run.
type Report struct {
	Steps     int
	Frames    int
	Snapshots []string
}

// Runner replays scripts.
type Runner struct {
	// Dir resolves relative snapshot paths.
	Dir string
	// FramesPerEvent frames run after each pointer or key event.
	FramesPerEvent int
}

// Run executes every step in order and stops at the first error.
func (r Runner) Run(t Target, s *Script) (Report, error) {
	var rep Report
	for i, st := range s.Steps {
		if err := r.step(t, st, &rep); err != nil {
			return rep, fmt.Errorf("step %d (%s): %w", i+1, st.Action, err)
		}
		rep.Steps++
	}
	return rep, nil
}

func (r Runner) advance(t Target, n int, rep *Report) {
	if n <= 0 {
		return
	}
	t.Advance(n)
	rep.Frames += n
}

// position resolves a step's pointer position.
func position(t Target, node string, x, y float64) (camera.Point, error) {
	if node == "" {
		return camera.Point{X: x, Y: y}, nil
	}
	n, ok := t.Arena().Node(node)
	if !ok {
		return camera.Point{}, fmt.Errorf("node %q not in graph", node)
	}
	return t.Transform().Apply(n.Pos()), nil
}

func (r Runner) step(t Target, st Step, rep *Report) error {
	mods, _ := interact.ParseModifiers(st.Modifiers)
	pointer := func(kind interact.Kind, p camera.Point) {
		t.Dispatch(interact.Event{Kind: kind, X: p.X, Y: p.Y, Button: st.Button, Modifiers: mods, DeltaY: st.Delta})
		r.advance(t, r.FramesPerEvent, rep)
	}

	switch st.Action {
	case "pointerdown", "pointermove", "pointerup", "click", "dblclick", "wheel":
		p, err := position(t, st.Node, st.X, st.Y)
		if err != nil {
			return err
		}
		kind, err := interact.ParseKind(st.Action)
		if err != nil {
			return err
		}
		pointer(kind, p)
	case "drag":
		from, err := position(t, st.Node, st.X, st.Y)
		if err != nil {
			return err
		}
		var to camera.Point
		if st.To != nil {
			to = camera.Point{X: st.To.X, Y: st.To.Y}
		} else if to, err = position(t, st.ToNode, 0, 0); err != nil {
			return err
		}
		steps := max(st.Steps, 1)
		pointer(interact.PointerDown, from)
		for i := 1; i <= steps; i++ {
			f := float64(i) / float64(steps)
			pointer(interact.PointerMove, camera.Point{X: from.X + (to.X-from.X)*f, Y: from.Y + (to.Y-from.Y)*f})
		}
		pointer(interact.PointerUp, to)
	case "key":
		t.Dispatch(interact.Event{Kind: interact.Key, Key: st.Key, Modifiers: mods})
		r.advance(t, r.FramesPerEvent, rep)
	case "wait":
		r.advance(t, max(st.Frames, 1), rep)
	case "density":
		t.SetDensity(st.Value)
	case "select":
		t.SetSelection(records.NewSelection(st.Clusters...))
	case "reset":
		t.ResetLayout()
	case "snapshot":
		path, err := r.snapshot(t, st.Path, len(rep.Snapshots))
		if err != nil {
			return err
		}
		rep.Snapshots = append(rep.Snapshots, path)
	default:
		return fmt.Errorf("%w %q", ErrUnknownAction, st.Action)
	}
	return nil
}

func (r Runner) snapshot(t Target, path string, n int) (string, error) {
	if path == "" {
		path = fmt.Sprintf("snapshot-%03d.png", n+1)
	}
	if !filepath.IsAbs(path) && r.Dir != "" {
		path = filepath.Join(r.Dir, path)
	}
	var buf bytes.Buffer
	if err := t.Snapshot(&buf); err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}
	return path, nil
}
