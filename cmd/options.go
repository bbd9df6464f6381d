package cmd

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/msalah0e/clustermap/internal/config"
	"github.com/msalah0e/clustermap/internal/explorer"
	"github.com/msalah0e/clustermap/internal/hooks"
	"github.com/msalah0e/clustermap/internal/interact"
	"github.com/msalah0e/clustermap/internal/records"
	"github.com/msalah0e/clustermap/internal/ui"
)

// explorerOptions maps a loaded config onto explorer options. The open-details
// hook is bound to the item id.
func explorerOptions(cfg *config.Config) (explorer.Options, error) {
	opts := explorer.DefaultOptions()
	opts.Width = cfg.Canvas.Width
	opts.Height = cfg.Canvas.Height
	opts.Density = cfg.Graph.Density
	opts.FrameRate = cfg.Render.FrameRate
	opts.Repaint = cfg.Render.Repaint
	opts.Logger = slog.Default()

	opts.Builder.Neighbors = cfg.Graph.Neighbors
	if cfg.Graph.SpiralStep > 0 {
		opts.Builder.SpiralStep = cfg.Graph.SpiralStep
	}
	if cfg.Graph.ClusterSpread > 0 {
		opts.Builder.ClusterSpread = cfg.Graph.ClusterSpread
	}

	p := &opts.Physics
	p.Alpha = cfg.Physics.Alpha
	p.AlphaMin = cfg.Physics.AlphaMin
	p.AlphaDecay = cfg.Physics.AlphaDecay
	p.AlphaTarget = cfg.Physics.AlphaTarget
	p.VelocityDecay = cfg.Physics.VelocityDecay
	p.LinkDistance = cfg.Physics.LinkDistance
	p.LinkStrength = cfg.Physics.LinkStrength
	p.ChargeStrength = cfg.Physics.ChargeStrength
	p.CenterStrength = cfg.Physics.CenterStrength
	p.ClusterRadius = cfg.Physics.ClusterCollideRadius
	p.ItemRadius = cfg.Physics.ItemCollideRadius
	p.Seed = cfg.Physics.Seed

	s := &opts.Style
	if cfg.Canvas.Background != "" {
		s.Background = cfg.Canvas.Background
	}
	s.ClusterRadius = cfg.Render.ClusterRadius
	s.ItemRadius = cfg.Render.ItemRadius
	s.EdgeOpacity = cfg.Render.EdgeOpacity
	s.ClusterOpacity = cfg.Render.ClusterOpacity
	s.ItemOpacity = cfg.Render.ItemOpacity

	iopts := &opts.Interact
	iopts.Tolerance = cfg.Interact.HoverTolerance
	iopts.MinScale = cfg.Interact.MinScale
	iopts.MaxScale = cfg.Interact.MaxScale
	iopts.WheelSensitivity = cfg.Interact.WheelSensitivity
	iopts.DragReheat = cfg.Physics.DragReheat
	if cfg.Interact.OpenModifier != "" {
		mods, err := interact.ParseModifiers(cfg.Interact.OpenModifier)
		if err != nil {
			return opts, fmt.Errorf("interact.open_modifier: %w", err)
		}
		iopts.OpenModifier = mods
	}

	h := cfg.Hooks
	opts.OnOpen = func(itemID int) {
		if err := hooks.Run(h, hooks.OpenDetails, map[string]string{"item": strconv.Itoa(itemID)}); err != nil {
			ui.Warn.Printf("  %s open_details hook: %v\n", ui.WarnIcon(), err)
		}
	}
	return opts, nil
}

// loadRecords reads the papers file and, when given, the clusters file.
func loadRecords(papersPath, clustersPath string) ([]records.Paper, []records.Cluster, error) {
	papers, err := records.LoadPapers(papersPath)
	if err != nil {
		return nil, nil, err
	}
	if clustersPath == "" {
		return papers, nil, nil
	}
	clusters, err := records.LoadClusters(clustersPath)
	if err != nil {
		return nil, nil, err
	}
	return papers, clusters, nil
}

// parseIDs parses a comma-separated list of integers, e.g. "1,4,9".
func parseIDs(s string) ([]int, error) {
	var ids []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// parseDensities parses a density list such as "10,50,100" or a range "10-100:10".
// Values are clamped to 1..100, deduplicated and sorted.
func parseDensities(s string) ([]int, error) {
	var raw []int
	if lo, rest, ok := strings.Cut(s, "-"); ok {
		hi, step := rest, "10"
		if h, st, ok := strings.Cut(rest, ":"); ok {
			hi, step = h, st
		}
		a, err1 := strconv.Atoi(strings.TrimSpace(lo))
		b, err2 := strconv.Atoi(strings.TrimSpace(hi))
		c, err3 := strconv.Atoi(strings.TrimSpace(step))
		if err1 != nil || err2 != nil || err3 != nil || c <= 0 || b < a {
			return nil, fmt.Errorf("invalid density range %q", s)
		}
		for d := a; d <= b; d += c {
			raw = append(raw, d)
		}
	} else {
		ids, err := parseIDs(s)
		if err != nil {
			return nil, fmt.Errorf("invalid density list %q", s)
		}
		raw = ids
	}

	seen := make(map[int]bool)
	var out []int
	for _, d := range raw {
		d = max(1, min(100, d))
		if !seen[d] {
			seen[d] = true
			out = append(out, d)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no densities in %q", s)
	}
	sort.Ints(out)
	return out, nil
}

func formatDuration(d time.Duration) string {
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%dm%02ds", int(d.Minutes()), int(d.Seconds())%60)
	}
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max-3] + "..."
	}
	return s
}
