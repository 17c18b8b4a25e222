// Package physics holds the deterministic bike and track models used by the
// race server. Nothing in here touches the network or the clock; every
// function is a pure step over its inputs.
package physics

import "math"

// Vec3 is a position or rotation in world space. The ground plane is x/z.
type Vec3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// PlanarDistance is the Euclidean distance between a and b on the x/z plane.
func PlanarDistance(a, b Vec3) float64 {
	return math.Hypot(a.X-b.X, a.Z-b.Z)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
