// Package graph turns paper and cluster records into the node and edge arena
// consumed by the physics integrator and the renderer.
package graph

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/msalah0e/clustermap/internal/camera"
)

// Kind discriminates the two node variants.
type Kind uint8

const (
	// ClusterKind is a collapsed cluster drawn as a single node.
	ClusterKind Kind = iota
	// ItemKind is one paper of an expanded cluster.
	ItemKind
)

func (k Kind) String() string {
	if k == ItemKind {
		return "item"
	}
	return "cluster"
}

// Node is a graph node. Fields after Color are variant specific: MemberCount
// belongs to cluster nodes, ItemID/Category/Year to item nodes.
type Node struct {
	ID        string
	Kind      Kind
	ClusterID int
	Label     string
	Color     string

	MemberCount int

	ItemID   int
	Category string
	Year     int

	// Placed is false until the node has a position.
	Placed bool
	X, Y   float64
	VX, VY float64

	// Pinned nodes are held at (FX, FY) by the integrator.
	Pinned bool
	FX, FY float64

	// Index is the node's position in build order.
	Index int
}

// ClusterNodeID returns the id of the node representing a collapsed cluster.
func ClusterNodeID(clusterID int) string {
	return "cluster-" + strconv.Itoa(clusterID)
}

// ItemNodeID returns the id of the node representing one paper.
func ItemNodeID(itemID int) string {
	return "item-" + strconv.Itoa(itemID)
}

// ParseNodeID splits a node id into its kind and numeric id.
func ParseNodeID(id string) (Kind, int, error) {
	var kind Kind
	var rest string
	switch {
	case strings.HasPrefix(id, "cluster-"):
		kind, rest = ClusterKind, strings.TrimPrefix(id, "cluster-")
	case strings.HasPrefix(id, "item-"):
		kind, rest = ItemKind, strings.TrimPrefix(id, "item-")
	default:
		return 0, 0, fmt.Errorf("graph: malformed node id %q", id)
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, 0, fmt.Errorf("graph: malformed node id %q: %w", id, err)
	}
	return kind, n, nil
}

// IsCluster reports whether n is a cluster node.
func (n *Node) IsCluster() bool { return n.Kind == ClusterKind }

// Pos returns the current position.
func (n *Node) Pos() camera.Point { return camera.Point{X: n.X, Y: n.Y} }

// Pin fixes the node at (x, y) and moves it there.
func (n *Node) Pin(x, y float64) {
	n.Pinned = true
	n.FX, n.FY = x, y
	n.X, n.Y = x, y
	n.VX, n.VY = 0, 0
	n.Placed = true
}

// Unpin releases the node back to the integrator.
func (n *Node) Unpin() {
	n.Pinned = false
	n.FX, n.FY = 0, 0
}

// Edge is an undirected link between two item nodes.
type Edge struct {
	Source string
	Target string
}

// Key identifies the edge regardless of direction.
func (e Edge) Key() [2]string {
	if e.Source < e.Target {
		return [2]string{e.Source, e.Target}
	}
	return [2]string{e.Target, e.Source}
}

// Arena owns one build's nodes and edges. A rebuild produces a new arena;
// the integrator and renderer always share the same one.
type Arena struct {
	Version uint64
	Nodes   []*Node
	Edges   []Edge
	byID    map[string]int
}

// NewArena indexes nodes by id and assigns build order.
func NewArena(version uint64, nodes []*Node, edges []Edge) *Arena {
	a := &Arena{
		Version: version,
		Nodes:   nodes,
		Edges:   edges,
		byID:    make(map[string]int, len(nodes)),
	}
	for i, n := range nodes {
		n.Index = i
		if _, dup := a.byID[n.ID]; !dup {
			a.byID[n.ID] = i
		}
	}
	return a
}

// Node looks a node up by id.
func (a *Arena) Node(id string) (*Node, bool) {
	if a == nil {
		return nil, false
	}
	i, ok := a.byID[id]
	if !ok {
		return nil, false
	}
	return a.Nodes[i], true
}

// Len returns the node count.
func (a *Arena) Len() int {
	if a == nil {
		return 0
	}
	return len(a.Nodes)
}

// Stats holds summary counts for one arena.
type Stats struct {
	ClusterNodes int
	ItemNodes    int
	Edges        int
	Pinned       int
}

// GetStats returns summary counts.
func (a *Arena) GetStats() Stats {
	var s Stats
	if a == nil {
		return s
	}
	for _, n := range a.Nodes {
		if n.IsCluster() {
			s.ClusterNodes++
		} else {
			s.ItemNodes++
		}
		if n.Pinned {
			s.Pinned++
		}
	}
	s.Edges = len(a.Edges)
	return s
}
