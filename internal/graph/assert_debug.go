//go:build clustermapdebug

package graph

// Assert panics when the arena violates a build invariant.
func Assert(a *Arena) {
	if err := Check(a); err != nil {
		panic(err)
	}
}
