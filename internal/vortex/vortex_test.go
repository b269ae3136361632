package vortex

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/xylab/internal/lattice"
	"github.com/san-kum/xylab/internal/spin"
)

// rotational2x2 places corner spins at 0, 90, 180, 270 degrees in
// rotational order around the plaquette anchored at the origin.
func rotational2x2(t *testing.T) (lattice.Lattice, spin.Config) {
	t.Helper()
	lat, err := lattice.Square(2)
	require.NoError(t, err)

	cfg := make(spin.Config, lat.Sites())
	cfg[lat.Index(0, 0)] = spin.FromAngle(0)
	cfg[lat.Index(1, 0)] = spin.FromAngle(math.Pi / 2)
	cfg[lat.Index(1, 1)] = spin.FromAngle(math.Pi)
	cfg[lat.Index(0, 1)] = spin.FromAngle(3 * math.Pi / 2)
	return lat, cfg
}

func TestFullWindingPlaquette(t *testing.T) {
	lat, cfg := rotational2x2(t)

	field := Field(lat, cfg)
	// The anchored cell carries one full counter-clockwise winding.
	assert.InDelta(t, 2*math.Pi, field[lat.Index(0, 0)], 1e-9)

	// Periodicity forces compensating windings elsewhere: total charge
	// on the torus is zero, so vortices and antivortices pair up.
	assert.Equal(t, Count(lat, cfg, 0), CountNegative(lat, cfg, 0))
	assert.GreaterOrEqual(t, Count(lat, cfg, 0), 1)

	var total float64
	for _, w := range field {
		total += w
	}
	assert.InDelta(t, 0, total, 1e-9)
}

func TestAntivortexWinding(t *testing.T) {
	lat, cfg := rotational2x2(t)

	// Reverse the rotational order: the shortest angles around the
	// anchored cell now sum to -2pi.
	mirror := make(spin.Config, lat.Sites())
	for i, v := range cfg {
		mirror[i] = spin.Vec{v[0], -v[1]}
	}

	field := Field(lat, mirror)
	assert.InDelta(t, -2*math.Pi, field[lat.Index(0, 0)], 1e-9)
}

func TestCountInvariantUnderGlobalRotation(t *testing.T) {
	lat, err := lattice.Square(8)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(9))
	cfg := spin.Random(lat.Sites(), rng)

	base := Count(lat, cfg, 0)
	for _, theta := range []float64{0.1, math.Pi / 3, 1.0, 2.5, -0.7} {
		assert.Equal(t, base, Count(lat, cfg.Rotated(theta), 0), "rotation %g", theta)
	}
}

func TestAlignedConfigHasNoVortices(t *testing.T) {
	lat, _ := lattice.Square(8)
	cfg := spin.Aligned(lat.Sites(), spin.FromAngle(1.2))

	assert.Equal(t, 0, Count(lat, cfg, 0))
	assert.Equal(t, 0.0, Density(lat, cfg, 0))
}

func TestFieldNoNaNOnDegenerateAngles(t *testing.T) {
	lat, _ := lattice.Square(4)

	// Exactly opposite and exactly equal neighbors stress the acos
	// domain boundary.
	cfg := make(spin.Config, lat.Sites())
	for y := 0; y < lat.DimY; y++ {
		for x := 0; x < lat.DimX; x++ {
			if (x+y)%2 == 0 {
				cfg[lat.Index(x, y)] = spin.Vec{1, 0}
			} else {
				cfg[lat.Index(x, y)] = spin.Vec{-1, 0}
			}
		}
	}

	for i, w := range Field(lat, cfg) {
		assert.False(t, math.IsNaN(w), "plaquette %d", i)
	}
}

func TestThresholdIsTunable(t *testing.T) {
	lat, cfg := rotational2x2(t)

	// The winding is exactly 2pi, so any threshold below that counts
	// it and any above does not.
	assert.GreaterOrEqual(t, Count(lat, cfg, 1.0), 1)
	assert.Equal(t, 0, Count(lat, cfg, 7.0))
}
