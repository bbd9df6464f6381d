package cmd

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/msalah0e/clustermap/internal/config"
	"github.com/msalah0e/clustermap/internal/ui"
	"github.com/spf13/cobra"
)

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or create the clustermap configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as TOML",
			Run: func(cmd *cobra.Command, args []string) {
				if err := toml.NewEncoder(os.Stdout).Encode(loadConfig()); err != nil {
					ui.Bad.Printf("  %v\n", err)
					os.Exit(1)
				}
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Write the default config file if none exists",
			Run: func(cmd *cobra.Command, args []string) {
				_, statErr := os.Stat(config.Path())
				if err := config.EnsureExists(); err != nil {
					ui.Bad.Printf("  Failed to write config: %v\n", err)
					os.Exit(1)
				}
				if statErr == nil {
					fmt.Printf("  Config already exists at %s\n", config.Path())
					return
				}
				ui.Good.Printf("  %s Wrote defaults to %s\n", ui.StatusIcon(true), config.Path())
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file path",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Println(config.Path())
			},
		},
	)

	return cmd
}
