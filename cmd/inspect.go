package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/msalah0e/clustermap/internal/ui"
	"github.com/spf13/cobra"
)

func inspectCmd() *cobra.Command {
	var (
		in     graphFlags
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Show per-cluster member and sample counts",
		Run: func(cmd *cobra.Command, args []string) {
			e, err := in.build(cmd)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			sums := e.Clusters()

			if asJSON {
				data, _ := json.MarshalIndent(sums, "", "  ")
				fmt.Println(string(data))
				return
			}

			ui.Banner("inspect")
			if len(sums) == 0 {
				fmt.Println("  No placeable papers. Records need x, y and cluster_id.")
				return
			}

			var rows [][]string
			for _, s := range sums {
				state := "collapsed"
				if s.Expanded {
					state = "expanded"
				}
				rows = append(rows, []string{
					"  ",
					strconv.Itoa(s.ClusterID),
					truncate(s.Label, 32),
					strconv.Itoa(s.MemberCount),
					strconv.Itoa(s.Present),
					strconv.Itoa(s.Sampled),
					state,
				})
			}
			ui.TableColored([]string{" ", "ID", "Label", "Members", "Present", "Sampled", "State"}, rows,
				func(row, col int, cell string) string {
					switch {
					case col == 0:
						return ui.Swatch(sums[row].Color)
					case col == 6 && cell == "expanded":
						return ui.Good.Sprint(cell)
					}
					return cell
				})

			st := e.Arena().GetStats()
			fmt.Printf("\n  %d nodes (%d clusters, %d items) · %d edges · density %d%%\n",
				e.Arena().Len(), st.ClusterNodes, st.ItemNodes, st.Edges, e.Layout().Density())
		},
	}

	in.register(cmd)
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print summaries as JSON")
	return cmd
}
