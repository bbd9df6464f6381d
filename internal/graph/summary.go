package graph

import "github.com/msalah0e/clustermap/internal/records"

// Summary describes one visible cluster without building nodes for it.
type Summary struct {
	records.Cluster
	// Present is the number of placeable papers in the cluster.
	Present int `json:"present"`
	// Sampled is how many of them an expansion would show at the input density.
	Sampled  int  `json:"sampled"`
	Expanded bool `json:"expanded"`
}

// Summarize reports every cluster Build would show for in, ordered by id.
func Summarize(in Input) []Summary {
	groups, ids := group(in)
	meta := clusterMeta(in.Clusters)

	out := make([]Summary, 0, len(ids))
	for _, cid := range ids {
		members := groups[cid]
		out = append(out, Summary{
			Cluster:  clusterInfo(cid, meta, len(members)),
			Present:  len(members),
			Sampled:  len(Sample(members, in.Density)),
			Expanded: in.Expanded != nil && in.Expanded.Contains(cid),
		})
	}
	return out
}
