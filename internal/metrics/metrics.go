package metrics

import (
	"sort"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GraphBuilds counts arena rebuilds.
	GraphBuilds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clustermap_graph_builds_total",
		Help: "Total number of node/edge arena rebuilds",
	})

	// GraphNodes tracks the node count of the current arena by kind.
	GraphNodes = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "clustermap_graph_nodes",
			Help: "Nodes in the current arena",
		},
		[]string{"kind"},
	)

	// GraphEdges tracks the edge count of the current arena.
	GraphEdges = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "clustermap_graph_edges",
		Help: "Edges in the current arena",
	})

	// PhysicsTicks counts integrator steps.
	PhysicsTicks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clustermap_physics_ticks_total",
		Help: "Total number of physics ticks",
	})

	// Frames counts animation frames, labeled painted or skipped.
	Frames = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clustermap_frames_total",
			Help: "Animation frames by outcome",
		},
		[]string{"result"},
	)

	// EdgesSkipped counts edges the painter could not resolve.
	EdgesSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "clustermap_edges_skipped_total",
		Help: "Edges skipped while painting because an endpoint was missing",
	})

	// Interactions counts handled input events by kind.
	Interactions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "clustermap_interactions_total",
			Help: "Input events handled by the interaction controller",
		},
		[]string{"event"},
	)
)

// Sample is one gathered metric value.
type Sample struct {
	Name   string
	Labels string
	Value  float64
}

// Snapshot gathers every clustermap metric from the default registry, sorted by name.
func Snapshot() ([]Sample, error) {
	families, err := prometheus.DefaultGatherer.Gather()
	if err != nil {
		return nil, err
	}

	var out []Sample
	for _, mf := range families {
		name := mf.GetName()
		if len(name) < 11 || name[:11] != "clustermap_" {
			continue
		}
		for _, m := range mf.GetMetric() {
			labels := ""
			for i, lp := range m.GetLabel() {
				if i > 0 {
					labels += ","
				}
				labels += lp.GetName() + "=" + lp.GetValue()
			}
			var v float64
			switch {
			case m.GetCounter() != nil:
				v = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				v = m.GetGauge().GetValue()
			}
			out = append(out, Sample{Name: name, Labels: labels, Value: v})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Labels < out[j].Labels
	})
	return out, nil
}
