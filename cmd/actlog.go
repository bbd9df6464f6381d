package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/msalah0e/clustermap/internal/activity"
	"github.com/msalah0e/clustermap/internal/ui"
	"github.com/spf13/cobra"
)

func historyCmd() *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"log"},
		Short:   "Show recent render, sweep and serve runs",
		Run: func(cmd *cobra.Command, args []string) {
			ui.Banner("history")

			entries, err := activity.Read(count)
			if err != nil || len(entries) == 0 {
				fmt.Println("  No runs recorded yet.")
				return
			}

			printEntries(entries, 40)
			fmt.Printf("\n  Showing %d most recent entries\n", len(entries))
		},
	}

	cmd.Flags().IntVarP(&count, "count", "n", 20, "Number of entries to show (0 for all)")
	cmd.AddCommand(
		historySearchCmd(),
		historyClearCmd(),
		historyExportCmd(),
	)

	return cmd
}

func printEntries(entries []activity.Entry, width int) {
	var rows [][]string
	for _, e := range entries {
		durStr := "-"
		if e.Duration > 0 {
			durStr = formatDuration(time.Duration(e.Duration * float64(time.Second)))
		}
		frames := "-"
		if e.Frames > 0 {
			frames = strconv.FormatUint(e.Frames, 10)
		}
		rows = append(rows, []string{
			e.Timestamp.Format("Jan 02 15:04"),
			e.Command,
			truncate(e.Input, 24),
			frames,
			durStr,
			truncate(e.Details, width),
		})
	}
	ui.Table([]string{"Time", "Command", "Input", "Frames", "Duration", "Details"}, rows)
}

func historySearchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "search <query>",
		Short: "Search recorded runs",
		Args:  cobra.ExactArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			results, err := activity.Search(args[0], 50)
			if err != nil || len(results) == 0 {
				fmt.Printf("  No entries matching %q\n", args[0])
				return
			}

			ui.Banner("search results")
			printEntries(results, 40)
			fmt.Printf("\n  %d results\n", len(results))
		},
	}
}

func historyClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the run history",
		Run: func(cmd *cobra.Command, args []string) {
			if err := activity.Clear(); err != nil {
				ui.Bad.Printf("  Failed to clear: %v\n", err)
				os.Exit(1)
			}
			ui.Good.Printf("  %s History cleared\n", ui.StatusIcon(true))
		},
	}
}

func historyExportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Export the run history as JSON",
		Run: func(cmd *cobra.Command, args []string) {
			entries, err := activity.Read(0)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			data, _ := json.MarshalIndent(entries, "", "  ")
			fmt.Println(string(data))
		},
	}
}
