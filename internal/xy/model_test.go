package xy

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/xylab/internal/lattice"
	"github.com/san-kum/xylab/internal/spin"
)

func TestAlignedGroundState(t *testing.T) {
	for _, n := range []int{2, 4, 8, 16} {
		lat, err := lattice.Square(n)
		require.NoError(t, err)

		m := New(lat, 1)
		cfg := spin.Aligned(lat.Sites(), spin.FromAngle(0.3))

		// Two bonds per site, dot product 1 on each.
		assert.InDelta(t, -2.0, m.EnergyPerSpin(cfg), 1e-12, "size %d", n)

		anti := New(lat, -1)
		assert.InDelta(t, 2.0, anti.EnergyPerSpin(cfg), 1e-12)
	}
}

func TestEnergyBounds(t *testing.T) {
	lat, _ := lattice.Square(6)
	m := New(lat, 1)
	rng := rand.New(rand.NewSource(1))

	for trial := 0; trial < 20; trial++ {
		cfg := spin.Random(lat.Sites(), rng)
		e := m.Energy(cfg)
		bound := 2 * float64(lat.Sites())
		assert.LessOrEqual(t, math.Abs(e), bound+1e-9)
	}
}

// Negating every other spin in a checkerboard pattern flips the sign of
// every bond, so it exactly compensates a flipped coupling.
func TestCheckerboardCouplingSymmetry(t *testing.T) {
	lat, _ := lattice.Square(4)
	rng := rand.New(rand.NewSource(2))
	cfg := spin.Random(lat.Sites(), rng)

	flipped := cfg.Clone()
	for y := 0; y < lat.DimY; y++ {
		for x := 0; x < lat.DimX; x++ {
			if (x+y)%2 == 1 {
				flipped[lat.Index(x, y)] = cfg[lat.Index(x, y)].Neg()
			}
		}
	}

	ferro := New(lat, 1)
	anti := New(lat, -1)
	assert.InDelta(t, ferro.Energy(cfg), anti.Energy(flipped), 1e-9)
}

func TestLogWeightDirection(t *testing.T) {
	// Lower energy must mean higher sampling weight at fixed temperature.
	assert.Greater(t, LogWeight(1.0, -10.0), LogWeight(1.0, -5.0))
	assert.InDelta(t, 5.0, LogWeight(2.0, -10.0), 1e-12)
}

func TestEnergyAnglesMatchesVectors(t *testing.T) {
	lat, _ := lattice.New(5, 3)
	m := New(lat, 1)
	tgt := NewTarget(m, 0.9)

	rng := rand.New(rand.NewSource(3))
	cfg := spin.Random(lat.Sites(), rng)

	assert.InDelta(t, m.Energy(cfg), tgt.EnergyAngles(cfg.Angles()), 1e-9)
}

func TestGradMatchesFiniteDifference(t *testing.T) {
	lat, _ := lattice.Square(4)
	tgt := NewTarget(New(lat, 1), 0.7)

	rng := rand.New(rand.NewSource(4))
	theta := spin.Random(lat.Sites(), rng).Angles()

	grad := make([]float64, len(theta))
	lp := tgt.Grad(theta, grad)
	assert.InDelta(t, tgt.LogDensity(theta), lp, 1e-12)

	const h = 1e-6
	for i := range theta {
		orig := theta[i]
		theta[i] = orig + h
		up := tgt.LogDensity(theta)
		theta[i] = orig - h
		down := tgt.LogDensity(theta)
		theta[i] = orig

		fd := (up - down) / (2 * h)
		assert.InDelta(t, fd, grad[i], 1e-5, "site %d", i)
	}
}

func TestDeltaLogDensityMatchesFull(t *testing.T) {
	cases := [][2]int{{4, 4}, {2, 5}, {3, 3}}
	rng := rand.New(rand.NewSource(5))

	for _, sz := range cases {
		lat, err := lattice.New(sz[0], sz[1])
		require.NoError(t, err)
		tgt := NewTarget(New(lat, 1), 1.1)

		theta := spin.Random(lat.Sites(), rng).Angles()
		for trial := 0; trial < 10; trial++ {
			i := rng.Intn(len(theta))
			v := 2 * math.Pi * rng.Float64()

			before := tgt.LogDensity(theta)
			delta := tgt.DeltaLogDensity(theta, i, v)

			mut := append([]float64(nil), theta...)
			mut[i] = v
			after := tgt.LogDensity(mut)

			assert.InDelta(t, after-before, delta, 1e-9, "%dx%d site %d", sz[0], sz[1], i)
		}
	}
}
