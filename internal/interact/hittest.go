package interact

import (
	"math"

	"github.com/msalah0e/clustermap/internal/camera"
	"github.com/msalah0e/clustermap/internal/graph"
)

// RadiusFunc returns a node's hit radius in simulation units.
type RadiusFunc func(n *graph.Node) float64

// PickFirst returns the first node in build order whose radius plus
// tolerance contains p. p is in simulation space.
func PickFirst(a *graph.Arena, p camera.Point, radius RadiusFunc, tolerance float64) *graph.Node {
	if a == nil {
		return nil
	}
	for _, n := range a.Nodes {
		if math.Hypot(n.X-p.X, n.Y-p.Y) <= radius(n)+tolerance {
			return n
		}
	}
	return nil
}

// PickNearest returns the closest node whose radius plus tolerance contains p.
// Equal distances keep the earlier node.
func PickNearest(a *graph.Arena, p camera.Point, radius RadiusFunc, tolerance float64) *graph.Node {
	if a == nil {
		return nil
	}
	var best *graph.Node
	bestD := math.Inf(1)
	for _, n := range a.Nodes {
		d := math.Hypot(n.X-p.X, n.Y-p.Y)
		if d <= radius(n)+tolerance && d < bestD {
			best, bestD = n, d
		}
	}
	return best
}
