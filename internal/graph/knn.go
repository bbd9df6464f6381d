package graph

import (
	"sort"

	"gonum.org/v1/gonum/spatial/kdtree"
)

// memberPoint is a paper's original-space coordinate tagged with its index in
// the sampled member slice.
type memberPoint struct {
	idx   int
	coord [3]float64
}

func (p memberPoint) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	return p.coord[d] - c.(memberPoint).coord[d]
}

func (p memberPoint) Dims() int { return len(p.coord) }

func (p memberPoint) Distance(c kdtree.Comparable) float64 {
	q := c.(memberPoint)
	var sum float64
	for d := range p.coord {
		diff := p.coord[d] - q.coord[d]
		sum += diff * diff
	}
	return sum
}

type memberPoints []memberPoint

func (p memberPoints) Index(i int) kdtree.Comparable        { return p[i] }
func (p memberPoints) Len() int                              { return len(p) }
func (p memberPoints) Slice(start, end int) kdtree.Interface { return p[start:end] }
func (p memberPoints) Pivot(d kdtree.Dim) int {
	return memberPlane{Dim: d, memberPoints: p}.Pivot()
}

type memberPlane struct {
	kdtree.Dim
	memberPoints
}

func (p memberPlane) Less(i, j int) bool {
	return p.memberPoints[i].coord[p.Dim] < p.memberPoints[j].coord[p.Dim]
}
func (p memberPlane) Pivot() int { return kdtree.Partition(p, kdtree.MedianOfMedians(p)) }
func (p memberPlane) Slice(start, end int) kdtree.SortSlicer {
	p.memberPoints = p.memberPoints[start:end]
	return p
}
func (p memberPlane) Swap(i, j int) {
	p.memberPoints[i], p.memberPoints[j] = p.memberPoints[j], p.memberPoints[i]
}

// NearestPairs links every point to its k nearest neighbours by Euclidean
// distance and returns the deduplicated unordered index pairs (i < j), sorted.
func NearestPairs(coords [][3]float64, k int) [][2]int {
	if len(coords) < 2 || k < 1 {
		return nil
	}

	pts := make(memberPoints, len(coords))
	for i, c := range coords {
		pts[i] = memberPoint{idx: i, coord: c}
	}
	// kdtree.New partitions in place, so it gets its own copy.
	tree := kdtree.New(append(memberPoints(nil), pts...), false)

	seen := make(map[[2]int]bool)
	var pairs [][2]int
	for _, q := range pts {
		keep := kdtree.NewNKeeper(k + 1)
		tree.NearestSet(keep, q)

		found := make([]kdtree.ComparableDist, 0, len(keep.Heap))
		for _, cd := range keep.Heap {
			if cd.Comparable == nil || cd.Comparable.(memberPoint).idx == q.idx {
				continue
			}
			found = append(found, cd)
		}
		sort.Slice(found, func(i, j int) bool {
			if found[i].Dist != found[j].Dist {
				return found[i].Dist < found[j].Dist
			}
			return found[i].Comparable.(memberPoint).idx < found[j].Comparable.(memberPoint).idx
		})
		if len(found) > k {
			found = found[:k]
		}

		for _, cd := range found {
			j := cd.Comparable.(memberPoint).idx
			key := [2]int{q.idx, j}
			if j < q.idx {
				key = [2]int{j, q.idx}
			}
			if seen[key] {
				continue
			}
			seen[key] = true
			pairs = append(pairs, key)
		}
	}

	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i][0] != pairs[j][0] {
			return pairs[i][0] < pairs[j][0]
		}
		return pairs[i][1] < pairs[j][1]
	})
	return pairs
}
