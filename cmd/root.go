package cmd

import (
	"log/slog"
	"os"

	"github.com/msalah0e/clustermap/internal/config"
	"github.com/msalah0e/clustermap/internal/ui"
	"github.com/spf13/cobra"
)

var version = "0.3.0"

var (
	cfgPath string
	noColor bool
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "clustermap",
	Short: "clustermap · force-directed cluster graphs",
	Long: ui.Brand.Sprint(ui.Mark+" clustermap") + " · explore clustered papers as a force-directed graph\n" +
		ui.Subtle.Sprint("Build, settle, script and render cluster graphs headlessly"),
	Version:      version + " " + ui.Mark,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig()
		ui.SetColor(cfg.UI.Color && !noColor)

		level := slog.LevelWarn
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	rootCmd.SetVersionTemplate("clustermap {{ .Version }}\n")
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "Config file (default $XDG_CONFIG_HOME/clustermap/config.toml)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log debug output to stderr")

	rootCmd.AddCommand(
		renderCmd(),
		inspectCmd(),
		sweepCmd(),
		serveCmd(),
		configCmd(),
		historyCmd(),
		cacheCmd(),
		completionCmd(),
	)
}

var loaded *config.Config

// loadConfig returns the --config file when given, else the user and project
// config layered on the defaults.
func loadConfig() *config.Config {
	if loaded != nil {
		return loaded
	}
	if cfgPath != "" {
		cfg, err := config.LoadFile(cfgPath)
		if err != nil {
			ui.Bad.Printf("clustermap: %v\n", err)
			os.Exit(1)
		}
		loaded = cfg
		return loaded
	}
	loaded = config.Load()
	return loaded
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
