package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/msalah0e/clustermap/internal/cache"
	"github.com/msalah0e/clustermap/internal/ui"
	"github.com/spf13/cobra"
)

func cacheCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached sweep runs",
	}

	cmd.AddCommand(
		cacheRunsCmd(),
		cacheBundleCmd(),
		cacheClearCmd(),
	)

	return cmd
}

func cacheRunsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "runs",
		Short: "List cached sweep runs",
		Run: func(cmd *cobra.Command, args []string) {
			runs, err := cache.Runs()
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			if len(runs) == 0 {
				fmt.Println("  No cached runs.")
				return
			}

			ui.Banner("cached runs")
			var rows [][]string
			for _, name := range runs {
				frames, _ := filepath.Glob(filepath.Join(cache.Dir(), "runs", name, "*.png"))
				rows = append(rows, []string{name, fmt.Sprintf("%d", len(frames))})
			}
			ui.Table([]string{"Run", "Frames"}, rows)
			fmt.Printf("\n  Cache: %s\n", cache.Dir())
		},
	}
}

func cacheBundleCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:               "bundle <run>",
		Short:             "Bundle a cached run into a tar.gz archive",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: runCompletionFunc,
		Run: func(cmd *cobra.Command, args []string) {
			src := filepath.Join(cache.Dir(), "runs", args[0])
			if output == "" {
				output = args[0] + ".tar.gz"
			}
			if err := cache.Bundle(src, output); err != nil {
				ui.Bad.Printf("  Bundle failed: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Bundle created: %s\n", ui.StatusIcon(true), output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output archive path")
	return cmd
}

func cacheClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached run",
		Run: func(cmd *cobra.Command, args []string) {
			if err := cache.Clear(); err != nil {
				ui.Bad.Printf("  Failed to clear cache: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s Cache cleared\n", ui.StatusIcon(true))
		},
	}
}
