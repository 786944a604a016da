// Package interp interpolates scattered station measurements onto a regular
// sampling grid.
package interp

import (
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/floats"
)

// DefaultResolution is the number of samples per grid axis.
const DefaultResolution = 100

// Grid is a regular 2-D lattice over a bounding envelope. X and Y are
// co-indexed [row][col] coordinate matrices: X varies along columns from
// the envelope's min to max longitude, Y varies along rows from min to max
// latitude, both linearly spaced inclusive of the endpoints.
type Grid struct {
	X [][]float64
	Y [][]float64
}

// NewGrid builds a resolution×resolution grid spanning the envelope.
// Resolutions below 2 fall back to DefaultResolution.
func NewGrid(bound orb.Bound, resolution int) Grid {
	if resolution < 2 {
		resolution = DefaultResolution
	}

	xs := make([]float64, resolution)
	ys := make([]float64, resolution)
	floats.Span(xs, bound.Min[0], bound.Max[0])
	floats.Span(ys, bound.Min[1], bound.Max[1])

	g := Grid{
		X: make([][]float64, resolution),
		Y: make([][]float64, resolution),
	}
	for row := 0; row < resolution; row++ {
		g.X[row] = make([]float64, resolution)
		g.Y[row] = make([]float64, resolution)
		for col := 0; col < resolution; col++ {
			g.X[row][col] = xs[col]
			g.Y[row][col] = ys[row]
		}
	}
	return g
}

// Rows returns the number of grid rows.
func (g Grid) Rows() int { return len(g.Y) }

// Cols returns the number of grid columns.
func (g Grid) Cols() int {
	if len(g.X) == 0 {
		return 0
	}
	return len(g.X[0])
}

// Field is a 2-D array of interpolated values co-indexed with a Grid.
// Cells outside the convex hull of the input points are NaN.
type Field [][]float64
