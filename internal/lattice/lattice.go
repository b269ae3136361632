package lattice

import "fmt"

// Direction selects one of the four nearest neighbors on the torus.
type Direction int

const (
	East Direction = iota
	North
	West
	South
)

func (d Direction) String() string {
	switch d {
	case East:
		return "east"
	case North:
		return "north"
	case West:
		return "west"
	case South:
		return "south"
	}
	return fmt.Sprintf("direction(%d)", int(d))
}

// Opposite returns the direction that undoes d.
func (d Direction) Opposite() Direction {
	switch d {
	case East:
		return West
	case West:
		return East
	case North:
		return South
	default:
		return North
	}
}

// Cardinal lists the four neighbor directions in traversal order.
var Cardinal = [4]Direction{East, North, West, South}

// Lattice is a fixed-size 2D torus. Immutable once constructed; it
// defines the neighbor topology used by every other component.
type Lattice struct {
	DimX int
	DimY int
}

func New(dimX, dimY int) (Lattice, error) {
	if dimX < 1 || dimY < 1 {
		return Lattice{}, fmt.Errorf("lattice dimensions must be positive, got %dx%d", dimX, dimY)
	}
	return Lattice{DimX: dimX, DimY: dimY}, nil
}

// Square returns an n-by-n lattice.
func Square(n int) (Lattice, error) {
	return New(n, n)
}

// Sites returns the number of lattice sites.
func (l Lattice) Sites() int { return l.DimX * l.DimY }

// Index maps a coordinate to its row-major site index.
func (l Lattice) Index(x, y int) int { return y*l.DimX + x }

// Coord is the inverse of Index.
func (l Lattice) Coord(i int) (x, y int) { return i % l.DimX, i / l.DimX }

// Neighbor returns the coordinate adjacent to (x, y) in direction d,
// wrapping around the boundary. There is no special casing: the torus
// guarantees exactly one neighbor per direction, and
// Neighbor(Neighbor(x, y, d), d.Opposite()) == (x, y) everywhere.
func (l Lattice) Neighbor(x, y int, d Direction) (int, int) {
	switch d {
	case East:
		return (x + 1) % l.DimX, y
	case West:
		return (x - 1 + l.DimX) % l.DimX, y
	case North:
		return x, (y + 1) % l.DimY
	default:
		return x, (y - 1 + l.DimY) % l.DimY
	}
}

// NeighborIndex is Neighbor for site indices.
func (l Lattice) NeighborIndex(i int, d Direction) int {
	x, y := l.Coord(i)
	nx, ny := l.Neighbor(x, y, d)
	return l.Index(nx, ny)
}
