// Package camera maps between simulation space and screen space.
package camera

import "math"

// Point is a position in either space.
type Point struct {
	X, Y float64
}

// Transform is translate(X, Y) then scale(K). Screen = sim*K + (X, Y).
type Transform struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
	K float64 `toml:"k"`
}

// Identity is the transform that maps simulation space onto screen space unchanged.
func Identity() Transform {
	return Transform{K: 1}
}

// IsIdentity reports whether t is the identity transform.
func (t Transform) IsIdentity() bool {
	return t.X == 0 && t.Y == 0 && t.K == 1
}

// Apply maps a simulation-space point to screen space.
func (t Transform) Apply(p Point) Point {
	return Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a screen-space point back to simulation space.
func (t Transform) Invert(p Point) Point {
	return Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// Translate shifts the transform by a screen-space delta.
func (t Transform) Translate(dx, dy float64) Transform {
	return Transform{X: t.X + dx, Y: t.Y + dy, K: t.K}
}

// ScaleAt rescales to k while keeping the simulation point under the screen
// point p fixed. k is clamped to [minK, maxK].
func (t Transform) ScaleAt(k float64, p Point, minK, maxK float64) Transform {
	k = math.Max(minK, math.Min(maxK, k))
	sim := t.Invert(p)
	return Transform{X: p.X - sim.X*k, Y: p.Y - sim.Y*k, K: k}
}

// Wheel applies a wheel gesture of deltaY at p. Negative deltas zoom in.
func (t Transform) Wheel(deltaY, sensitivity float64, p Point, minK, maxK float64) Transform {
	return t.ScaleAt(t.K*math.Pow(2, -deltaY*sensitivity), p, minK, maxK)
}
