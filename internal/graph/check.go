package graph

import (
	"errors"
	"fmt"
)

// Invariant violations reported by Check.
var (
	ErrDuplicateNode    = errors.New("graph: duplicate node id")
	ErrDanglingEdge     = errors.New("graph: edge references unknown node")
	ErrCrossClusterEdge = errors.New("graph: edge connects different clusters")
	ErrDuplicateEdge    = errors.New("graph: duplicate edge")
	ErrMixedCluster     = errors.New("graph: cluster shown both collapsed and expanded")
)

// Check verifies the build invariants of an arena and returns the first violation.
func Check(a *Arena) error {
	if a == nil {
		return nil
	}

	seen := make(map[string]bool, len(a.Nodes))
	collapsed := make(map[int]bool)
	expanded := make(map[int]bool)
	for _, n := range a.Nodes {
		if seen[n.ID] {
			return fmt.Errorf("%w: %s", ErrDuplicateNode, n.ID)
		}
		seen[n.ID] = true
		if n.IsCluster() {
			collapsed[n.ClusterID] = true
		} else {
			expanded[n.ClusterID] = true
		}
	}
	for cid := range collapsed {
		if expanded[cid] {
			return fmt.Errorf("%w: %d", ErrMixedCluster, cid)
		}
	}

	edges := make(map[[2]string]bool, len(a.Edges))
	for _, e := range a.Edges {
		src, ok := a.Node(e.Source)
		if !ok {
			return fmt.Errorf("%w: %s", ErrDanglingEdge, e.Source)
		}
		dst, ok := a.Node(e.Target)
		if !ok {
			return fmt.Errorf("%w: %s", ErrDanglingEdge, e.Target)
		}
		if src.ClusterID != dst.ClusterID || src.IsCluster() || dst.IsCluster() {
			return fmt.Errorf("%w: %s-%s", ErrCrossClusterEdge, e.Source, e.Target)
		}
		if edges[e.Key()] {
			return fmt.Errorf("%w: %s-%s", ErrDuplicateEdge, e.Source, e.Target)
		}
		edges[e.Key()] = true
	}
	return nil
}
