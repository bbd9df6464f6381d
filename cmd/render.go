package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/msalah0e/clustermap/internal/activity"
	"github.com/msalah0e/clustermap/internal/explorer"
	"github.com/msalah0e/clustermap/internal/hooks"
	"github.com/msalah0e/clustermap/internal/metrics"
	"github.com/msalah0e/clustermap/internal/records"
	"github.com/msalah0e/clustermap/internal/script"
	"github.com/msalah0e/clustermap/internal/ui"
	"github.com/spf13/cobra"
)

// graphFlags are the input flags shared by render, inspect, sweep and serve.
type graphFlags struct {
	papers   string
	clusters string
	density  int
	expand   string
	selected string
}

func (g *graphFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&g.papers, "papers", "p", "", "Papers JSON file ({\"papers\": [...]})")
	cmd.Flags().StringVarP(&g.clusters, "clusters", "c", "", "Clusters JSON file ({\"clusters\": [...]})")
	cmd.Flags().IntVarP(&g.density, "density", "d", 0, "Sampling percentage for expanded clusters (1-100)")
	cmd.Flags().StringVar(&g.expand, "expand", "", "Cluster ids to expand, e.g. 1,4")
	cmd.Flags().StringVar(&g.selected, "select", "", "Only show these cluster ids")
	_ = cmd.MarkFlagRequired("papers")
}

// build creates an explorer from the config and loads the flagged inputs.
// It is returned unmounted.
func (g *graphFlags) build(cmd *cobra.Command) (*explorer.Explorer, error) {
	opts, err := explorerOptions(loadConfig())
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("density") {
		opts.Density = g.density
	}

	papers, clusters, err := loadRecords(g.papers, g.clusters)
	if err != nil {
		return nil, err
	}
	e, err := explorer.New(opts)
	if err != nil {
		return nil, err
	}
	e.SetRecords(papers, clusters)

	if g.selected != "" {
		ids, err := parseIDs(g.selected)
		if err != nil {
			return nil, fmt.Errorf("--select: %w", err)
		}
		e.SetSelection(records.NewSelection(ids...))
	}
	if g.expand != "" {
		ids, err := parseIDs(g.expand)
		if err != nil {
			return nil, fmt.Errorf("--expand: %w", err)
		}
		for _, id := range ids {
			if !e.Expand(id) {
				ui.Warn.Printf("  %s cluster %d is not visible or already expanded\n", ui.WarnIcon(), id)
			}
		}
	}
	return e, nil
}

func renderCmd() *cobra.Command {
	var (
		in          graphFlags
		out         string
		scriptPath  string
		frames      int
		showMetrics bool
	)

	cmd := &cobra.Command{
		Use:   "render",
		Short: "Build, settle and render a cluster graph to PNG",
		Long: `Load papers and clusters, build the graph, let the physics settle and
write the final frame as a PNG. An optional YAML script replays pointer and
keyboard events against the graph before the final frame is written.

  clustermap render -p papers.json -c clusters.json -o graph.png
  clustermap render -p papers.json --expand 3 --density 25
  clustermap render -p papers.json --script drag.yaml --metrics`,
		Run: func(cmd *cobra.Command, args []string) {
			start := time.Now()
			cfg := loadConfig()

			e, err := in.build(cmd)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			e.Mount()

			if frames > 0 {
				e.Advance(frames)
			} else {
				e.Settle(cfg.Physics.MaxTicks)
			}

			var rep script.Report
			if scriptPath != "" {
				s, err := script.Load(scriptPath)
				if err != nil {
					ui.Bad.Printf("  %v\n", err)
					os.Exit(1)
				}
				runner := script.Runner{Dir: filepath.Dir(out), FramesPerEvent: 1}
				rep, err = runner.Run(e, s)
				if err != nil {
					ui.Bad.Printf("  script %s: %v\n", s.Name, err)
					os.Exit(1)
				}
				e.Settle(cfg.Physics.MaxTicks)
				for _, p := range rep.Snapshots {
					runSnapshotHook(p)
				}
			}

			if err := writeSnapshot(e, out); err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			runSnapshotHook(out)

			ui.Banner("render")
			printGraphSummary(e)
			if scriptPath != "" {
				fmt.Printf("  Script:    %d steps, %d frames, %d snapshots\n", rep.Steps, rep.Frames, len(rep.Snapshots))
			}
			fmt.Printf("  Frames:    %d\n", e.Frames())
			fmt.Printf("  Output:    %s\n", ui.Brand.Sprint(out))

			if showMetrics {
				fmt.Println()
				printMetrics()
			}

			total := e.Frames()
			_ = e.Unmount()
			_ = activity.Log("render", in.papers, fmt.Sprintf("density=%d out=%s", e.Layout().Density(), out), total, time.Since(start))
		},
	}

	in.register(cmd)
	cmd.Flags().StringVarP(&out, "out", "o", "clustermap.png", "Output PNG path")
	cmd.Flags().StringVarP(&scriptPath, "script", "s", "", "YAML interaction script to replay")
	cmd.Flags().IntVarP(&frames, "frames", "n", 0, "Run exactly n frames instead of settling")
	cmd.Flags().BoolVar(&showMetrics, "metrics", false, "Print gathered metrics after rendering")
	return cmd
}

func writeSnapshot(e *explorer.Explorer, path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.Snapshot(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func runSnapshotHook(path string) {
	if err := hooks.Run(loadConfig().Hooks, hooks.Snapshot, map[string]string{"path": path}); err != nil {
		ui.Warn.Printf("  %s snapshot hook: %v\n", ui.WarnIcon(), err)
	}
}

func printGraphSummary(e *explorer.Explorer) {
	st := e.Arena().GetStats()
	fmt.Printf("  Clusters:  %d collapsed, %d expanded\n", st.ClusterNodes, len(e.Layout().Expanded()))
	fmt.Printf("  Items:     %d (density %d%%)\n", st.ItemNodes, e.Layout().Density())
	fmt.Printf("  Edges:     %d\n", st.Edges)
	if st.Pinned > 0 {
		fmt.Printf("  Pinned:    %d\n", st.Pinned)
	}
	fmt.Printf("  Ticks:     %d (alpha %.4f)\n", e.Simulation().Ticks(), e.Simulation().Alpha())
}

func printMetrics() {
	samples, err := metrics.Snapshot()
	if err != nil {
		ui.Warn.Printf("  %s metrics: %v\n", ui.WarnIcon(), err)
		return
	}
	var rows [][]string
	for _, s := range samples {
		rows = append(rows, []string{s.Name, s.Labels, strconv.FormatFloat(s.Value, 'f', -1, 64)})
	}
	ui.Table([]string{"Metric", "Labels", "Value"}, rows)
}
