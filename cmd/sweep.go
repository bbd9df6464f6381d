package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/msalah0e/clustermap/internal/activity"
	"github.com/msalah0e/clustermap/internal/cache"
	"github.com/msalah0e/clustermap/internal/parallel"
	"github.com/msalah0e/clustermap/internal/ui"
	"github.com/spf13/cobra"
)

func sweepCmd() *cobra.Command {
	var (
		in          graphFlags
		densities   string
		outDir      string
		name        string
		bundle      string
		concurrency int
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Render one PNG per density in parallel",
		Long: `Render the same graph at several densities. Each density gets its own
explorer, settled independently, and is written as density-NNN.png.
Frames go to --out, or to a named run under the clustermap cache.

  clustermap sweep -p papers.json --expand 1,2 --densities 10,25,50,100
  clustermap sweep -p papers.json --expand 3 --densities 10-100:10 --bundle frames.tar.gz`,
		Run: func(cmd *cobra.Command, args []string) {
			start := time.Now()
			cfg := loadConfig()

			list, err := parseDensities(densities)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}

			dir := outDir
			if dir == "" {
				if name == "" {
					name = "sweep-" + start.Format("20060102-150405")
				}
				if dir, err = cache.RunDir(name); err != nil {
					ui.Bad.Printf("  %v\n", err)
					os.Exit(1)
				}
			} else if err := os.MkdirAll(dir, 0o755); err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}

			if !cmd.Flags().Changed("concurrency") {
				concurrency = cfg.Parallel.Concurrency
			}

			ui.Banner("sweep")
			fmt.Printf("  Densities: %s\n", joinInts(list))
			fmt.Printf("  Output:    %s\n\n", dir)

			tasks := make([]parallel.Task, len(list))
			for i, d := range list {
				path := filepath.Join(dir, fmt.Sprintf("density-%03d.png", d))
				tasks[i] = parallel.Task{
					Name: fmt.Sprintf("density %d%%", d),
					Fn: func(ctx context.Context) (string, error) {
						e, err := in.build(cmd)
						if err != nil {
							return "", err
						}
						e.SetDensity(d)
						e.Mount()
						defer e.Unmount()
						e.Settle(cfg.Physics.MaxTicks)
						if err := ctx.Err(); err != nil {
							return "", err
						}
						if err := writeSnapshot(e, path); err != nil {
							return "", err
						}
						runSnapshotHook(path)
						st := e.Arena().GetStats()
						return fmt.Sprintf("%d items, %d edges, %d frames", st.ItemNodes, st.Edges, e.Frames()), nil
					},
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			results := parallel.Run(ctx, tasks, concurrency, os.Stdout)

			fmt.Println()
			var rows [][]string
			for _, r := range results {
				detail := r.Output
				if r.Err != nil {
					detail = r.Err.Error()
				}
				rows = append(rows, []string{ui.StatusIcon(r.OK), r.Name, formatDuration(r.Elapsed), truncate(detail, 48)})
			}
			ui.Table([]string{" ", "Task", "Time", "Result"}, rows)

			failed := parallel.Failed(results)
			if bundle != "" && len(failed) < len(results) {
				if err := cache.Bundle(dir, bundle); err != nil {
					ui.Bad.Printf("\n  bundle: %v\n", err)
					os.Exit(1)
				}
				ui.Good.Printf("\n  %s Bundled frames into %s\n", ui.StatusIcon(true), bundle)
			}

			_ = activity.Log("sweep", in.papers, joinInts(list)+" -> "+dir, 0, time.Since(start))
			if len(failed) > 0 {
				ui.Bad.Printf("\n  %d of %d renders failed\n", len(failed), len(results))
				os.Exit(1)
			}
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&densities, "densities", "10,25,50,100", "Densities: a list (10,50,100) or a range (10-100:10)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Output directory (default: a cache run directory)")
	cmd.Flags().StringVar(&name, "name", "", "Cache run name when --out is not set")
	cmd.Flags().StringVar(&bundle, "bundle", "", "Also write the frames as a tar.gz archive")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 4, "Renders to run at once")
	return cmd
}

func joinInts(v []int) string {
	s := make([]string, len(v))
	for i, n := range v {
		s[i] = strconv.Itoa(n)
	}
	return strings.Join(s, ",")
}
