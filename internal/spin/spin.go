// Package spin represents XY-model spin configurations: one 2D unit
// vector per lattice site.
package spin

import (
	"fmt"
	"math"
	"math/rand"
)

// DefaultTolerance is the allowed deviation from unit norm.
const DefaultTolerance = 1e-9

// Vec is a single spin, a 2D vector constrained to unit length.
type Vec [2]float64

// FromAngle returns the unit vector at angle theta.
func FromAngle(theta float64) Vec {
	return Vec{math.Cos(theta), math.Sin(theta)}
}

func (v Vec) Dot(w Vec) float64 { return v[0]*w[0] + v[1]*w[1] }

// Cross is the z component of the 3D cross product; its sign gives the
// rotation direction from v to w.
func (v Vec) Cross(w Vec) float64 { return v[0]*w[1] - v[1]*w[0] }

func (v Vec) Norm() float64 { return math.Hypot(v[0], v[1]) }

// Theta returns the angle of v in (-pi, pi].
func (v Vec) Theta() float64 { return math.Atan2(v[1], v[0]) }

// Rotate returns v rotated counter-clockwise by theta.
func (v Vec) Rotate(theta float64) Vec {
	c, s := math.Cos(theta), math.Sin(theta)
	return Vec{c*v[0] - s*v[1], s*v[0] + c*v[1]}
}

// Neg returns the opposite spin.
func (v Vec) Neg() Vec { return Vec{-v[0], -v[1]} }

// Angle returns the signed shortest rotation from a to b, in (-pi, pi].
// The dot product is clamped before acos: accumulated rounding can push
// it epsilon outside [-1, 1], which would otherwise produce NaN.
func Angle(a, b Vec) float64 {
	mag := math.Acos(Clamp(a.Dot(b), -1, 1))
	if a.Cross(b) < 0 {
		return -mag
	}
	return mag
}

func Clamp(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

// Config is a full spin configuration, indexed by lattice site.
type Config []Vec

// Aligned returns n copies of the same spin (the ferromagnetic ground
// state for positive coupling).
func Aligned(n int, v Vec) Config {
	c := make(Config, n)
	for i := range c {
		c[i] = v
	}
	return c
}

// Random returns n spins with angles drawn uniformly on the circle.
func Random(n int, rng *rand.Rand) Config {
	c := make(Config, n)
	for i := range c {
		c[i] = FromAngle(2 * math.Pi * rng.Float64())
	}
	return c
}

// FromAngles builds a configuration from per-site angles. The result
// satisfies the unit-norm constraint by construction.
func FromAngles(thetas []float64) Config {
	c := make(Config, len(thetas))
	for i, th := range thetas {
		c[i] = FromAngle(th)
	}
	return c
}

// Angles returns per-site angles in (-pi, pi].
func (c Config) Angles() []float64 {
	out := make([]float64, len(c))
	for i, v := range c {
		out[i] = v.Theta()
	}
	return out
}

func (c Config) Clone() Config {
	out := make(Config, len(c))
	copy(out, c)
	return out
}

// Rotated returns a copy with every spin rotated by the same angle.
func (c Config) Rotated(theta float64) Config {
	out := make(Config, len(c))
	for i, v := range c {
		out[i] = v.Rotate(theta)
	}
	return out
}

// Validate checks the unit-norm invariant for every site. Downstream
// consumers (the energy functional in particular) assume it holds and
// do not re-check.
func (c Config) Validate(tol float64) error {
	if tol <= 0 {
		tol = DefaultTolerance
	}
	for i, v := range c {
		if math.Abs(v.Norm()-1) > tol {
			return fmt.Errorf("spin %d has norm %g, outside unit tolerance %g", i, v.Norm(), tol)
		}
	}
	return nil
}
