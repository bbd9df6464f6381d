package graph

import (
	"errors"
	"testing"

	"github.com/msalah0e/clustermap/internal/camera"
	"github.com/msalah0e/clustermap/internal/records"
)

type expandSet map[int]bool

func (s expandSet) Contains(id int) bool { return s[id] }

type fakeMemory struct {
	positions map[string]Position
	centroids map[int]camera.Point
}

func (m fakeMemory) Position(id string) (Position, bool) {
	p, ok := m.positions[id]
	return p, ok
}

func (m fakeMemory) Centroid(cid int) (camera.Point, bool) {
	c, ok := m.centroids[cid]
	return c, ok
}

func fptr(v float64) *float64 { return &v }
func iptr(v int) *int         { return &v }

// paper builds a paper with coordinates (id, id*2) in the given cluster.
func paper(id, cluster int) records.Paper {
	return records.Paper{
		ID:        id,
		X:         fptr(float64(id)),
		Y:         fptr(float64(id * 2)),
		ClusterID: iptr(cluster),
	}
}

// scenario returns 3 clusters with 10, 5 and 2 members.
func scenario() ([]records.Paper, []records.Cluster) {
	var papers []records.Paper
	id := 1
	for cid, size := range map[int]int{1: 10, 2: 5, 3: 2} {
		for i := 0; i < size; i++ {
			papers = append(papers, paper(id, cid))
			id++
		}
	}
	clusters := []records.Cluster{
		{ClusterID: 1, Label: "One", MemberCount: 10, Color: "#ff0000"},
		{ClusterID: 2, Label: "Two", MemberCount: 5, Color: "#00ff00"},
		{ClusterID: 3, Label: "Three", MemberCount: 2, Color: "#0000ff"},
	}
	return papers, clusters
}

func countKind(a *Arena, kind Kind, cid int) int {
	n := 0
	for _, node := range a.Nodes {
		if node.Kind == kind && node.ClusterID == cid {
			n++
		}
	}
	return n
}

func TestNodeIDs(t *testing.T) {
	if ClusterNodeID(4) != "cluster-4" {
		t.Errorf("unexpected cluster id %q", ClusterNodeID(4))
	}
	if ItemNodeID(17) != "item-17" {
		t.Errorf("unexpected item id %q", ItemNodeID(17))
	}

	kind, n, err := ParseNodeID("item-17")
	if err != nil || kind != ItemKind || n != 17 {
		t.Errorf("ParseNodeID(item-17) = %v, %d, %v", kind, n, err)
	}
	if _, _, err := ParseNodeID("edge-1"); err == nil {
		t.Error("expected error for unknown prefix")
	}
	if _, _, err := ParseNodeID("cluster-x"); err == nil {
		t.Error("expected error for non-numeric id")
	}
}

func TestSampleScenario(t *testing.T) {
	papers, _ := scenario()
	groups := map[int][]records.Paper{}
	for _, p := range papers {
		groups[*p.ClusterID] = append(groups[*p.ClusterID], p)
	}

	want := map[int]int{1: 5, 2: 3, 3: 1}
	for cid, n := range want {
		if got := len(Sample(groups[cid], 50)); got != n {
			t.Errorf("cluster %d: expected %d sampled, got %d", cid, n, got)
		}
	}
}

func TestSampleDeterministic(t *testing.T) {
	var papers []records.Paper
	for _, id := range []int{9, 3, 27, 1, 14, 8, 22, 5, 11, 30, 2} {
		papers = append(papers, paper(id, 1))
	}

	first := Sample(papers, 40)
	for i := 0; i < 5; i++ {
		again := Sample(papers, 40)
		if len(again) != len(first) {
			t.Fatalf("sample size changed: %d vs %d", len(again), len(first))
		}
		for j := range first {
			if again[j].ID != first[j].ID {
				t.Fatalf("sample differs at %d: %d vs %d", j, again[j].ID, first[j].ID)
			}
		}
	}

	// Input order must not leak into the result.
	if papers[0].ID != 9 {
		t.Error("Sample must not reorder its input")
	}
	if first[0].ID != 1 {
		t.Errorf("expected lowest id first, got %d", first[0].ID)
	}
}

func TestSampleMonotonic(t *testing.T) {
	var papers []records.Paper
	for i := 1; i <= 37; i++ {
		papers = append(papers, paper(i, 1))
	}

	if got := len(Sample(papers, 100)); got != 37 {
		t.Errorf("density 100 should keep all 37, got %d", got)
	}
	for pct := 1; pct < 100; pct++ {
		if got := len(Sample(papers, pct)); got > 37 || got < 1 {
			t.Errorf("density %d: sampled %d out of range", pct, got)
		}
	}
	if got := len(Sample(papers, 1)); got != 1 {
		t.Errorf("density 1 should converge to 1, got %d", got)
	}
	if got := len(Sample(papers, -5)); got != 1 {
		t.Errorf("density below range should clamp to 1, got %d", got)
	}
	if got := len(Sample(nil, 50)); got != 0 {
		t.Errorf("empty cluster should sample to 0, got %d", got)
	}
}

func TestBuildEmpty(t *testing.T) {
	a := Build(1, Input{Density: 100})
	if a.Len() != 0 || len(a.Edges) != 0 {
		t.Errorf("expected empty arena, got %d nodes %d edges", a.Len(), len(a.Edges))
	}
}

func TestBuildDropsMalformed(t *testing.T) {
	noCluster := paper(1, 0)
	noCluster.ClusterID = nil
	noY := paper(2, 1)
	noY.Y = nil

	a := Build(1, Input{Papers: []records.Paper{noCluster, noY, paper(3, 1)}, Density: 100})
	if a.Len() != 1 {
		t.Fatalf("expected 1 node, got %d", a.Len())
	}
	if a.Nodes[0].MemberCount != 1 {
		t.Errorf("expected member count 1, got %d", a.Nodes[0].MemberCount)
	}
}

func TestBuildSelection(t *testing.T) {
	papers, clusters := scenario()
	a := Build(1, Input{
		Papers:    papers,
		Clusters:  clusters,
		Selection: records.NewSelection(2),
		Density:   100,
	})
	if a.Len() != 1 {
		t.Fatalf("expected only cluster 2, got %d nodes", a.Len())
	}
	if a.Nodes[0].ID != "cluster-2" {
		t.Errorf("expected cluster-2, got %s", a.Nodes[0].ID)
	}
}

func TestBuildCollapsedClusters(t *testing.T) {
	papers, clusters := scenario()
	a := Build(1, Input{Papers: papers, Clusters: clusters, Density: 50})

	if a.Len() != 3 {
		t.Fatalf("expected 3 cluster nodes, got %d", a.Len())
	}
	for i, want := range []int{10, 5, 2} {
		n := a.Nodes[i]
		if !n.IsCluster() {
			t.Errorf("node %d should be a cluster node", i)
		}
		if n.MemberCount != want {
			t.Errorf("node %s: expected member count %d, got %d", n.ID, want, n.MemberCount)
		}
		if n.Index != i {
			t.Errorf("node %s: expected index %d, got %d", n.ID, i, n.Index)
		}
	}
	if len(a.Edges) != 0 {
		t.Errorf("collapsed clusters should have no edges, got %d", len(a.Edges))
	}
}

func TestBuildExpandCollapseRoundTrip(t *testing.T) {
	papers, clusters := scenario()
	in := Input{Papers: papers, Clusters: clusters, Density: 50}

	before := Build(1, in)
	c1, _ := before.Node("cluster-1")
	memberCount := c1.MemberCount

	in.Expanded = expandSet{1: true}
	expanded := Build(2, in)
	if got := countKind(expanded, ItemKind, 1); got != 5 {
		t.Errorf("expected 5 item nodes, got %d", got)
	}
	if got := countKind(expanded, ClusterKind, 1); got != 0 {
		t.Errorf("expanded cluster must not keep its cluster node, got %d", got)
	}
	if len(expanded.Edges) > 5*5/2 {
		t.Errorf("expected at most %d edges, got %d", 5*5/2, len(expanded.Edges))
	}
	if err := Check(expanded); err != nil {
		t.Errorf("expanded arena violates invariants: %v", err)
	}

	in.Expanded = expandSet{}
	collapsed := Build(3, in)
	if got := countKind(collapsed, ClusterKind, 1); got != 1 {
		t.Fatalf("expected exactly one cluster node after collapse, got %d", got)
	}
	c1, _ = collapsed.Node("cluster-1")
	if c1.MemberCount != memberCount || c1.MemberCount != 10 {
		t.Errorf("member count changed: %d -> %d", memberCount, c1.MemberCount)
	}
}

func TestBuildEdgeInvariants(t *testing.T) {
	var papers []records.Paper
	for i := 1; i <= 30; i++ {
		papers = append(papers, paper(i, 1+i%2))
	}
	a := Build(1, Input{Papers: papers, Expanded: expandSet{1: true, 2: true}, Density: 100})

	if err := Check(a); err != nil {
		t.Fatalf("invariants violated: %v", err)
	}

	seen := map[[2]string]bool{}
	degree := map[string]int{}
	for _, e := range a.Edges {
		src, _ := a.Node(e.Source)
		dst, _ := a.Node(e.Target)
		if src.ClusterID != dst.ClusterID {
			t.Errorf("edge %s-%s crosses clusters", e.Source, e.Target)
		}
		if seen[e.Key()] {
			t.Errorf("duplicate edge %s-%s", e.Source, e.Target)
		}
		seen[e.Key()] = true
		degree[e.Source]++
		degree[e.Target]++
	}
	// 15 items per cluster, k=5: at most 5 outgoing each, so at most 15*5 edges per cluster.
	if len(a.Edges) > 2*15*5 {
		t.Errorf("too many edges: %d", len(a.Edges))
	}
	if len(a.Edges) < 15 {
		t.Errorf("expected every item to be linked, got %d edges", len(a.Edges))
	}
}

func TestBuildSeedsItemsAroundCentroid(t *testing.T) {
	papers, clusters := scenario()
	mem := fakeMemory{centroids: map[int]camera.Point{1: {X: 500, Y: 500}}}
	a := Build(1, Input{
		Papers:   papers,
		Clusters: clusters,
		Expanded: expandSet{1: true},
		Density:  100,
		Previous: mem,
	})
	for _, n := range a.Nodes {
		if n.ClusterID != 1 {
			continue
		}
		dx, dy := n.X-500, n.Y-500
		if dx*dx+dy*dy > 40*40 {
			t.Errorf("item %s seeded too far from centroid: (%v,%v)", n.ID, n.X, n.Y)
		}
	}
}

func TestBuildPositionStability(t *testing.T) {
	papers, clusters := scenario()
	mem := fakeMemory{positions: map[string]Position{
		"cluster-2": {X: 12, Y: 34},
		"cluster-3": {X: 1, Y: 2, Pinned: true, FX: 50, FY: 50},
	}}

	for _, density := range []int{100, 50, 10} {
		a := Build(1, Input{Papers: papers, Clusters: clusters, Density: density, Previous: mem})
		c2, _ := a.Node("cluster-2")
		if c2.X != 12 || c2.Y != 34 {
			t.Errorf("density %d: cluster-2 moved to (%v,%v)", density, c2.X, c2.Y)
		}
		c3, _ := a.Node("cluster-3")
		if !c3.Pinned || c3.FX != 50 || c3.FY != 50 {
			t.Errorf("density %d: pin not inherited: %+v", density, c3)
		}
	}
}

func TestBuildDefaultClusterInfo(t *testing.T) {
	a := Build(1, Input{Papers: []records.Paper{paper(1, 12), paper(2, 12)}, Density: 100})
	n := a.Nodes[0]
	if n.Label != "Cluster 12" {
		t.Errorf("expected default label, got %q", n.Label)
	}
	if n.Color != Palette[12%len(Palette)] {
		t.Errorf("expected palette colour, got %q", n.Color)
	}
	if n.MemberCount != 2 {
		t.Errorf("expected member count from records, got %d", n.MemberCount)
	}
}

func TestNearestPairs(t *testing.T) {
	// Points on a line: each one's nearest neighbour is adjacent.
	coords := [][3]float64{{0, 0, 0}, {1, 0, 0}, {2, 0, 0}, {10, 0, 0}}
	pairs := NearestPairs(coords, 1)
	want := map[[2]int]bool{{0, 1}: true, {1, 2}: true, {2, 3}: true}
	if len(pairs) != len(want) {
		t.Fatalf("expected %d pairs, got %v", len(want), pairs)
	}
	for _, p := range pairs {
		if !want[p] {
			t.Errorf("unexpected pair %v", p)
		}
		if p[0] >= p[1] {
			t.Errorf("pair not ordered: %v", p)
		}
	}

	if NearestPairs(coords[:1], 5) != nil {
		t.Error("single point should have no pairs")
	}
}

func TestNearestPairsUsesZ(t *testing.T) {
	// 0 and 1 coincide in x/y but are far apart in z.
	coords := [][3]float64{{0, 0, 0}, {0, 0, 100}, {3, 0, 0}}
	pairs := NearestPairs(coords, 1)
	found := false
	for _, p := range pairs {
		if p == [2]int{0, 2} {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 0-2 to be linked using 3D distance, got %v", pairs)
	}
}

func TestCheck(t *testing.T) {
	nodes := []*Node{
		{ID: "item-1", Kind: ItemKind, ClusterID: 1},
		{ID: "item-2", Kind: ItemKind, ClusterID: 1},
		{ID: "item-3", Kind: ItemKind, ClusterID: 2},
	}

	if err := Check(NewArena(1, nodes, []Edge{{"item-1", "item-2"}})); err != nil {
		t.Errorf("valid arena rejected: %v", err)
	}

	cases := []struct {
		name  string
		nodes []*Node
		edges []Edge
		want  error
	}{
		{"dangling", nodes, []Edge{{"item-1", "item-9"}}, ErrDanglingEdge},
		{"cross", nodes, []Edge{{"item-1", "item-3"}}, ErrCrossClusterEdge},
		{"duplicate edge", nodes, []Edge{{"item-1", "item-2"}, {"item-2", "item-1"}}, ErrDuplicateEdge},
		{"duplicate node", append(append([]*Node{}, nodes...), &Node{ID: "item-1", Kind: ItemKind}), nil, ErrDuplicateNode},
		{"mixed", append(append([]*Node{}, nodes...), &Node{ID: "cluster-1", Kind: ClusterKind, ClusterID: 1}), nil, ErrMixedCluster},
	}
	for _, tc := range cases {
		err := Check(NewArena(1, tc.nodes, tc.edges))
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestPinUnpin(t *testing.T) {
	n := &Node{ID: "item-1", Kind: ItemKind, VX: 3, VY: 4}
	n.Pin(50, 60)
	if !n.Pinned || n.X != 50 || n.Y != 60 || n.VX != 0 {
		t.Errorf("Pin did not fix node: %+v", n)
	}
	n.Unpin()
	if n.Pinned {
		t.Error("Unpin should release the node")
	}
	if n.X != 50 {
		t.Error("Unpin should keep the current position")
	}
}

func TestArenaStats(t *testing.T) {
	papers, clusters := scenario()
	a := Build(1, Input{Papers: papers, Clusters: clusters, Expanded: expandSet{2: true}, Density: 100})
	s := a.GetStats()
	if s.ClusterNodes != 2 || s.ItemNodes != 5 {
		t.Errorf("unexpected stats %+v", s)
	}
	if s.Edges != len(a.Edges) {
		t.Errorf("edge count mismatch %d vs %d", s.Edges, len(a.Edges))
	}

	var nilArena *Arena
	if nilArena.Len() != 0 {
		t.Error("nil arena should have length 0")
	}
	if _, ok := nilArena.Node("x"); ok {
		t.Error("nil arena should find nothing")
	}
}

func TestSummarize(t *testing.T) {
	papers, clusters := scenario()
	papers = append(papers, records.Paper{ID: 99, ClusterID: iptr(1)})

	got := Summarize(Input{
		Papers:    papers,
		Clusters:  clusters,
		Selection: records.NewSelection(1, 2, 3),
		Expanded:  expandSet{2: true},
		Density:   50,
	})
	if len(got) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(got))
	}
	want := []struct {
		id, present, sampled int
		expanded             bool
	}{
		{1, 10, 5, false},
		{2, 5, 3, true},
		{3, 2, 1, false},
	}
	for i, w := range want {
		s := got[i]
		if s.ClusterID != w.id || s.Present != w.present || s.Sampled != w.sampled || s.Expanded != w.expanded {
			t.Errorf("summary %d: got %+v, want %+v", i, s, w)
		}
	}
	if got[0].Label != "One" || got[0].MemberCount != 10 {
		t.Errorf("cluster record not carried through: %+v", got[0])
	}

	if got := Summarize(Input{Papers: papers, Selection: records.NewSelection(3), Density: 100}); len(got) != 1 || got[0].Label != "Cluster 3" {
		t.Errorf("selection should filter and defaults apply, got %+v", got)
	}
}
