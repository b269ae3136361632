// Package vortex computes the topological charge of sampled spin
// configurations: the signed winding of the spin field around each
// lattice plaquette.
package vortex

import (
	"github.com/san-kum/xylab/internal/lattice"
	"github.com/san-kum/xylab/internal/spin"
)

// DefaultThreshold separates a full +-2pi winding from a near-zero
// angle sum. One radian is a wide margin on both sides, tolerating
// floating error around the exact multiples; it is a tunable
// heuristic, not a principled bound.
const DefaultThreshold = 1.0

// Field returns the signed angle sum around every plaquette, indexed
// by the plaquette's lower-left site. The four corners (site, east,
// north-east, north) are traversed in rotational order; each edge
// contributes the shortest signed angle between its two spins. A cell
// holding a vortex sums to +2pi, an antivortex to -2pi, anything else
// to roughly zero.
func Field(lat lattice.Lattice, cfg spin.Config) []float64 {
	out := make([]float64, lat.Sites())
	for y := 0; y < lat.DimY; y++ {
		for x := 0; x < lat.DimX; x++ {
			ax, ay := x, y
			bx, by := lat.Neighbor(ax, ay, lattice.East)
			cx, cy := lat.Neighbor(bx, by, lattice.North)
			dx, dy := lat.Neighbor(ax, ay, lattice.North)

			a := cfg[lat.Index(ax, ay)]
			b := cfg[lat.Index(bx, by)]
			c := cfg[lat.Index(cx, cy)]
			d := cfg[lat.Index(dx, dy)]

			out[lat.Index(x, y)] = spin.Angle(a, b) + spin.Angle(b, c) + spin.Angle(c, d) + spin.Angle(d, a)
		}
	}
	return out
}

// Count returns the number of counter-clockwise vortices: plaquettes
// whose winding exceeds threshold. Clockwise antivortices appear in
// equal number in expectation on a periodic lattice; only one sign is
// counted for density reporting. A non-positive threshold selects
// DefaultThreshold.
func Count(lat lattice.Lattice, cfg spin.Config, threshold float64) int {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	n := 0
	for _, w := range Field(lat, cfg) {
		if w > threshold {
			n++
		}
	}
	return n
}

// CountNegative returns the number of clockwise antivortices.
func CountNegative(lat lattice.Lattice, cfg spin.Config, threshold float64) int {
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	n := 0
	for _, w := range Field(lat, cfg) {
		if w < -threshold {
			n++
		}
	}
	return n
}

// Density is Count normalized by the number of lattice sites.
func Density(lat lattice.Lattice, cfg spin.Config, threshold float64) float64 {
	return float64(Count(lat, cfg, threshold)) / float64(lat.Sites())
}
