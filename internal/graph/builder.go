package graph

import (
	"fmt"
	"math"
	"sort"

	"github.com/msalah0e/clustermap/internal/camera"
	"github.com/msalah0e/clustermap/internal/records"
)

// goldenAngle spaces spiral seeds so successive points never line up.
var goldenAngle = math.Pi * (3 - math.Sqrt(5))

// Palette colours clusters that have no cluster record.
var Palette = []string{
	"#4e79a7", "#f28e2b", "#e15759", "#76b7b2", "#59a14f",
	"#edc948", "#b07aa1", "#ff9da7", "#9c755f", "#bab0ac",
}

// Position is a remembered node position, including its pin.
type Position struct {
	X, Y   float64
	Pinned bool
	FX, FY float64
}

// Memory supplies positions from earlier builds.
type Memory interface {
	Position(id string) (Position, bool)
	Centroid(clusterID int) (camera.Point, bool)
}

// ExpansionSet reports which clusters are expanded into items.
type ExpansionSet interface {
	Contains(clusterID int) bool
}

// Options tunes seeding and edge construction.
type Options struct {
	// Neighbors is k for the k-NN edges.
	Neighbors int
	// SpiralStep is the radial step of the item seed spiral.
	SpiralStep float64
	// ClusterSpread is the radial step of the default cluster seed spiral.
	ClusterSpread float64
}

// DefaultOptions returns the standard builder settings.
func DefaultOptions() Options {
	return Options{Neighbors: 5, SpiralStep: 4, ClusterSpread: 60}
}

// Input is everything one build depends on.
type Input struct {
	Papers    []records.Paper
	Clusters  []records.Cluster
	Selection records.Selection
	Expanded  ExpansionSet
	Density   int
	Previous  Memory
	Center    camera.Point
	Options   Options
}

// Build groups, samples and seeds the visible records into a new arena.
// Papers without coordinates or cluster id, or outside the selection, are dropped.
func Build(version uint64, in Input) *Arena {
	opts := in.Options
	if opts.Neighbors == 0 && opts.SpiralStep == 0 && opts.ClusterSpread == 0 {
		opts = DefaultOptions()
	}

	groups, ids := group(in)
	if len(groups) == 0 {
		return NewArena(version, nil, nil)
	}
	meta := clusterMeta(in.Clusters)

	var nodes []*Node
	var edges []Edge
	for i, cid := range ids {
		members := groups[cid]
		info := clusterInfo(cid, meta, len(members))
		center := spiral(in.Center, i, opts.ClusterSpread)
		if in.Previous != nil {
			if c, ok := in.Previous.Centroid(cid); ok {
				center = c
			}
		}

		if in.Expanded == nil || !in.Expanded.Contains(cid) {
			nodes = append(nodes, &Node{
				ID:          ClusterNodeID(cid),
				Kind:        ClusterKind,
				ClusterID:   cid,
				Label:       info.Label,
				Color:       info.Color,
				MemberCount: info.MemberCount,
				Placed:      true,
				X:           center.X,
				Y:           center.Y,
			})
			continue
		}

		sampled := Sample(members, in.Density)
		coords := make([][3]float64, len(sampled))
		for j, p := range sampled {
			seed := spiral(center, j+1, opts.SpiralStep)
			nodes = append(nodes, &Node{
				ID:        ItemNodeID(p.ID),
				Kind:      ItemKind,
				ClusterID: cid,
				Label:     p.Label(),
				Color:     info.Color,
				ItemID:    p.ID,
				Category:  p.Category(),
				Year:      p.PublicationYear(),
				Placed:    true,
				X:         seed.X,
				Y:         seed.Y,
			})
			coords[j] = p.Coords()
		}
		for _, pair := range NearestPairs(coords, opts.Neighbors) {
			edges = append(edges, Edge{
				Source: ItemNodeID(sampled[pair[0]].ID),
				Target: ItemNodeID(sampled[pair[1]].ID),
			})
		}
	}

	if in.Previous != nil {
		for _, n := range nodes {
			pos, ok := in.Previous.Position(n.ID)
			if !ok {
				continue
			}
			n.X, n.Y = pos.X, pos.Y
			if pos.Pinned {
				n.Pinned = true
				n.FX, n.FY = pos.FX, pos.FY
			}
		}
	}

	a := NewArena(version, nodes, edges)
	Assert(a)
	return a
}

// group buckets the valid, selected papers by cluster id and returns the ids
// in ascending order.
func group(in Input) (map[int][]records.Paper, []int) {
	groups := make(map[int][]records.Paper)
	for _, p := range in.Papers {
		if !p.Valid() || !in.Selection.Includes(*p.ClusterID) {
			continue
		}
		groups[*p.ClusterID] = append(groups[*p.ClusterID], p)
	}
	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return groups, ids
}

func clusterMeta(clusters []records.Cluster) map[int]records.Cluster {
	meta := make(map[int]records.Cluster, len(clusters))
	for _, c := range clusters {
		meta[c.ClusterID] = c
	}
	return meta
}

// clusterInfo merges the cluster record with defaults. The member count is the
// full, pre-sampling size of the cluster.
func clusterInfo(cid int, meta map[int]records.Cluster, present int) records.Cluster {
	c, ok := meta[cid]
	if !ok {
		c = records.Cluster{ClusterID: cid}
	}
	if c.Label == "" {
		c.Label = fmt.Sprintf("Cluster %d", cid)
	}
	if c.Color == "" {
		c.Color = Palette[((cid%len(Palette))+len(Palette))%len(Palette)]
	}
	if c.MemberCount <= 0 {
		c.MemberCount = present
	}
	return c
}

// spiral returns the i-th point of a phyllotaxis spiral around origin.
func spiral(origin camera.Point, i int, step float64) camera.Point {
	if i == 0 {
		return origin
	}
	r := step * math.Sqrt(float64(i))
	a := float64(i) * goldenAngle
	return camera.Point{X: origin.X + r*math.Cos(a), Y: origin.Y + r*math.Sin(a)}
}
