//go:build !clustermapdebug

package graph

import "log/slog"

// Assert logs invariant violations. Release builds keep going; the painter
// skips whatever cannot be drawn.
func Assert(a *Arena) {
	if err := Check(a); err != nil {
		slog.Warn("graph invariant violated", "version", a.Version, "err", err)
	}
}
