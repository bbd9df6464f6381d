// Package layout holds the accumulated view state of the cluster graph:
// which clusters are expanded, the density percentage, the camera transform
// and remembered node positions.
package layout

import (
	"github.com/tidwall/btree"

	"github.com/msalah0e/clustermap/internal/camera"
	"github.com/msalah0e/clustermap/internal/graph"
)

// State is in-memory only and not safe for concurrent use; it is owned by the
// explorer's event loop.
type State struct {
	expanded  btree.Set[int]
	positions btree.Map[string, graph.Position]
	centroids btree.Map[int, camera.Point]

	density   int
	transform camera.Transform
}

// New returns a state with the given density and an identity camera.
func New(density int) *State {
	return &State{
		density:   graph.ClampDensity(density),
		transform: camera.Identity(),
	}
}

// Contains reports whether a cluster is expanded.
func (s *State) Contains(clusterID int) bool {
	return s.expanded.Contains(clusterID)
}

// Expand adds a cluster to the expansion set. It reports whether anything changed.
func (s *State) Expand(clusterID int) bool {
	if s.expanded.Contains(clusterID) {
		return false
	}
	s.expanded.Insert(clusterID)
	return true
}

// Collapse removes a cluster from the expansion set. It reports whether anything changed.
func (s *State) Collapse(clusterID int) bool {
	if !s.expanded.Contains(clusterID) {
		return false
	}
	s.expanded.Delete(clusterID)
	return true
}

// Toggle flips a cluster's expansion and reports whether it is now expanded.
func (s *State) Toggle(clusterID int) bool {
	if s.Collapse(clusterID) {
		return false
	}
	s.Expand(clusterID)
	return true
}

// Expanded returns the expanded cluster ids in ascending order.
func (s *State) Expanded() []int {
	ids := make([]int, 0, s.expanded.Len())
	s.expanded.Scan(func(id int) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Density returns the density percentage.
func (s *State) Density() int { return s.density }

// SetDensity clamps and stores the density percentage. It reports whether it changed.
func (s *State) SetDensity(percent int) bool {
	percent = graph.ClampDensity(percent)
	if percent == s.density {
		return false
	}
	s.density = percent
	return true
}

// Transform returns the camera transform.
func (s *State) Transform() camera.Transform { return s.transform }

// SetTransform replaces the camera transform.
func (s *State) SetTransform(t camera.Transform) { s.transform = t }

// Position implements graph.Memory.
func (s *State) Position(id string) (graph.Position, bool) {
	return s.positions.Get(id)
}

// Centroid implements graph.Memory.
func (s *State) Centroid(clusterID int) (camera.Point, bool) {
	return s.centroids.Get(clusterID)
}

// Remember copies every node's position and pin from the arena into the cache
// and records the centroid of each cluster's visible nodes.
func (s *State) Remember(a *graph.Arena) {
	if a == nil {
		return
	}
	type sum struct {
		x, y float64
		n    int
	}
	sums := make(map[int]*sum)
	for _, n := range a.Nodes {
		if !n.Placed {
			continue
		}
		s.positions.Set(n.ID, graph.Position{X: n.X, Y: n.Y, Pinned: n.Pinned, FX: n.FX, FY: n.FY})
		c := sums[n.ClusterID]
		if c == nil {
			c = &sum{}
			sums[n.ClusterID] = c
		}
		c.x += n.X
		c.y += n.Y
		c.n++
	}
	for cid, c := range sums {
		s.centroids.Set(cid, camera.Point{X: c.x / float64(c.n), Y: c.y / float64(c.n)})
	}
}

// Forget drops the cached pin of one node, keeping its position.
func (s *State) Forget(id string) {
	if p, ok := s.positions.Get(id); ok {
		p.Pinned, p.FX, p.FY = false, 0, 0
		s.positions.Set(id, p)
	}
}

// Cached returns how many node positions are remembered.
func (s *State) Cached() int { return s.positions.Len() }

// Reset clears the expansion set, every pin and cached position, and the
// camera. The density is kept.
func (s *State) Reset() {
	s.expanded = btree.Set[int]{}
	s.positions = btree.Map[string, graph.Position]{}
	s.centroids = btree.Map[int, camera.Point]{}
	s.transform = camera.Identity()
}
