package physics

import (
	"math"
	"math/rand/v2"

	"github.com/msalah0e/clustermap/internal/graph"
)

// LinkForce keeps linked nodes near a resting distance.
type LinkForce struct {
	Distance   float64
	Strength   float64
	Iterations int

	rnd       *rand.Rand
	links     []resolvedLink
	strengths []float64
	bias      []float64
}

type resolvedLink struct {
	source, target *graph.Node
}

// Initialize resolves edge endpoints. Edges whose endpoints are missing are skipped.
func (f *LinkForce) Initialize(a *graph.Arena, rnd *rand.Rand) {
	f.rnd = rnd
	f.links = f.links[:0]
	if a == nil {
		return
	}

	count := make(map[*graph.Node]int)
	for _, e := range a.Edges {
		src, ok1 := a.Node(e.Source)
		dst, ok2 := a.Node(e.Target)
		if !ok1 || !ok2 {
			continue
		}
		f.links = append(f.links, resolvedLink{source: src, target: dst})
		count[src]++
		count[dst]++
	}

	f.strengths = make([]float64, len(f.links))
	f.bias = make([]float64, len(f.links))
	for i, l := range f.links {
		cs, ct := float64(count[l.source]), float64(count[l.target])
		f.bias[i] = cs / (cs + ct)
		if f.Strength != 0 {
			f.strengths[i] = f.Strength
		} else {
			f.strengths[i] = 1 / math.Min(cs, ct)
		}
	}
}

// Apply pulls or pushes each linked pair toward Distance.
func (f *LinkForce) Apply(alpha float64) {
	iterations := max(f.Iterations, 1)
	for k := 0; k < iterations; k++ {
		for i, l := range f.links {
			src, dst := l.source, l.target
			x := dst.X + dst.VX - src.X - src.VX
			if x == 0 {
				x = jiggle(f.rnd)
			}
			y := dst.Y + dst.VY - src.Y - src.VY
			if y == 0 {
				y = jiggle(f.rnd)
			}
			d := math.Sqrt(x*x + y*y)
			d = (d - f.Distance) / d * alpha * f.strengths[i]
			x *= d
			y *= d

			b := f.bias[i]
			dst.VX -= x * b
			dst.VY -= y * b
			src.VX += x * (1 - b)
			src.VY += y * (1 - b)
		}
	}
}

// ManyBodyForce applies pairwise attraction (positive strength) or repulsion
// (negative strength). A zero strength is a no-op kept as a tuning point.
type ManyBodyForce struct {
	Strength    float64
	DistanceMin float64
	DistanceMax float64

	rnd   *rand.Rand
	nodes []*graph.Node
}

func (f *ManyBodyForce) Initialize(a *graph.Arena, rnd *rand.Rand) {
	f.rnd = rnd
	f.nodes = nil
	if a != nil {
		f.nodes = a.Nodes
	}
}

func (f *ManyBodyForce) Apply(alpha float64) {
	if f.Strength == 0 {
		return
	}
	min2 := f.DistanceMin * f.DistanceMin
	max2 := f.DistanceMax * f.DistanceMax
	if f.DistanceMax == 0 {
		max2 = math.Inf(1)
	}

	for i, n := range f.nodes {
		for j, o := range f.nodes {
			if i == j {
				continue
			}
			x := o.X - n.X
			y := o.Y - n.Y
			l := x*x + y*y
			if l >= max2 {
				continue
			}
			if x == 0 {
				x = jiggle(f.rnd)
				l += x * x
			}
			if y == 0 {
				y = jiggle(f.rnd)
				l += y * y
			}
			if l < min2 {
				l = math.Sqrt(min2 * l)
			}
			w := f.Strength * alpha / l
			n.VX += x * w
			n.VY += y * w
		}
	}
}

// Axis selects the coordinate a PositionForce acts on.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

// PositionForce pulls every node toward Target along one axis.
type PositionForce struct {
	Axis     Axis
	Target   float64
	Strength float64

	nodes []*graph.Node
}

func (f *PositionForce) Initialize(a *graph.Arena, _ *rand.Rand) {
	f.nodes = nil
	if a != nil {
		f.nodes = a.Nodes
	}
}

func (f *PositionForce) Apply(alpha float64) {
	k := f.Strength * alpha
	for _, n := range f.nodes {
		if f.Axis == AxisX {
			n.VX += (f.Target - n.X) * k
		} else {
			n.VY += (f.Target - n.Y) * k
		}
	}
}

// CollideForce pushes apart nodes whose circles overlap.
type CollideForce struct {
	ClusterRadius float64
	ItemRadius    float64
	Strength      float64
	Iterations    int

	rnd   *rand.Rand
	nodes []*graph.Node
	radii []float64
}

func (f *CollideForce) Initialize(a *graph.Arena, rnd *rand.Rand) {
	f.rnd = rnd
	f.nodes = nil
	f.radii = f.radii[:0]
	if a == nil {
		return
	}
	f.nodes = a.Nodes
	for _, n := range a.Nodes {
		f.radii = append(f.radii, f.Radius(n))
	}
}

// Radius returns the collision radius of a node.
func (f *CollideForce) Radius(n *graph.Node) float64 {
	if n.IsCluster() {
		return f.ClusterRadius
	}
	return f.ItemRadius
}

func (f *CollideForce) Apply(float64) {
	iterations := max(f.Iterations, 1)
	for k := 0; k < iterations; k++ {
		for i, n := range f.nodes {
			ri := f.radii[i]
			ri2 := ri * ri
			xi := n.X + n.VX
			yi := n.Y + n.VY
			for j := i + 1; j < len(f.nodes); j++ {
				o := f.nodes[j]
				rj := f.radii[j]
				r := ri + rj
				x := xi - o.X - o.VX
				y := yi - o.Y - o.VY
				l := x*x + y*y
				if l >= r*r {
					continue
				}
				if x == 0 {
					x = jiggle(f.rnd)
					l += x * x
				}
				if y == 0 {
					y = jiggle(f.rnd)
					l += y * y
				}
				l = math.Sqrt(l)
				l = (r - l) / l * f.Strength
				x *= l
				y *= l
				rj2 := rj * rj
				w := rj2 / (ri2 + rj2)
				n.VX += x * w
				n.VY += y * w
				o.VX -= x * (1 - w)
				o.VY -= y * (1 - w)
			}
		}
	}
}
