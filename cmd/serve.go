package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/msalah0e/clustermap/internal/activity"
	"github.com/msalah0e/clustermap/internal/serve"
	"github.com/msalah0e/clustermap/internal/ui"
	"github.com/spf13/cobra"
)

func serveCmd() *cobra.Command {
	var (
		in   graphFlags
		addr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Drive a live cluster graph over HTTP",
		Long: `Mount a cluster graph and run it in real time behind a small HTTP API.

  POST /events        {"kind":"dblclick","node":"cluster-3"}
  POST /density       {"value":25}
  POST /select        {"clusters":[1,4]}
  POST /reset
  GET  /state
  GET  /snapshot.png
  GET  /metrics
  GET  /healthz

  clustermap serve -p papers.json -c clusters.json --addr :8080`,
		Run: func(cmd *cobra.Command, args []string) {
			start := time.Now()
			e, err := in.build(cmd)
			if err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			e.Mount()

			ui.Banner("serve")
			printGraphSummary(e)
			fmt.Printf("  Listening: %s\n", ui.Brand.Sprint(addr))
			fmt.Println(ui.Subtle.Sprint("  Press Ctrl-C to stop"))

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := serve.New(addr, e, slog.Default())
			if err := srv.Run(ctx); err != nil {
				ui.Bad.Printf("  %v\n", err)
				os.Exit(1)
			}
			frames := e.Frames()
			_ = e.Unmount()
			_ = activity.Log("serve", in.papers, addr, frames, time.Since(start))
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "Listen address")
	return cmd
}
