package interp_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatlas/climatlas/internal/interp"
)

func unitBound() orb.Bound {
	return orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{1, 1}}
}

// cornerPoints places samples on the four corners of the unit square, so
// the grid endpoints coincide with input points exactly.
func cornerPoints() ([]orb.Point, []float64) {
	points := []orb.Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	values := []float64{10, 20, 30, 40}
	return points, values
}

func TestNewGrid(t *testing.T) {
	g := interp.NewGrid(unitBound(), 5)

	require.Equal(t, 5, g.Rows())
	require.Equal(t, 5, g.Cols())

	// Linearly spaced inclusive of endpoints, X along columns, Y along rows.
	assert.InDelta(t, 0.0, g.X[0][0], 1e-12)
	assert.InDelta(t, 1.0, g.X[0][4], 1e-12)
	assert.InDelta(t, 0.25, g.X[3][1], 1e-12)
	assert.InDelta(t, 0.0, g.Y[0][0], 1e-12)
	assert.InDelta(t, 1.0, g.Y[4][0], 1e-12)
	assert.InDelta(t, 0.75, g.Y[3][2], 1e-12)
}

func TestNewGridDefaultResolution(t *testing.T) {
	g := interp.NewGrid(unitBound(), 0)
	assert.Equal(t, interp.DefaultResolution, g.Rows())
	assert.Equal(t, interp.DefaultResolution, g.Cols())
}

func TestInterpolateInputMismatch(t *testing.T) {
	points, _ := cornerPoints()
	_, err := interp.Interpolate(points, []float64{1, 2}, interp.NewGrid(unitBound(), 5), interp.MethodCubic)
	assert.ErrorIs(t, err, interp.ErrInputMismatch)
}

func TestInterpolateInsufficientPoints(t *testing.T) {
	g := interp.NewGrid(unitBound(), 5)

	for _, tc := range []struct {
		name   string
		points []orb.Point
		values []float64
	}{
		{"empty", nil, nil},
		{"one", []orb.Point{{0, 0}}, []float64{1}},
		{"two", []orb.Point{{0, 0}, {1, 1}}, []float64{1, 2}},
		{"collinear", []orb.Point{{0, 0}, {0.5, 0.5}, {1, 1}}, []float64{1, 2, 3}},
		{"duplicates", []orb.Point{{0, 0}, {0, 0}, {1, 1}}, []float64{1, 1, 2}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := interp.Interpolate(tc.points, tc.values, g, interp.MethodCubic)
			assert.ErrorIs(t, err, interp.ErrInsufficientPoints)
		})
	}
}

func TestInterpolateUnknownMethod(t *testing.T) {
	points, values := cornerPoints()
	_, err := interp.Interpolate(points, values, interp.NewGrid(unitBound(), 5), "quintic")
	assert.ErrorIs(t, err, interp.ErrUnknownMethod)
}

func TestInterpolatePassesThroughSamples(t *testing.T) {
	points, values := cornerPoints()
	g := interp.NewGrid(unitBound(), 11)

	for _, method := range []interp.Method{interp.MethodNearest, interp.MethodLinear, interp.MethodCubic} {
		t.Run(string(method), func(t *testing.T) {
			field, err := interp.Interpolate(points, values, g, method)
			require.NoError(t, err)

			// Grid corners coincide with the input points.
			assert.InDelta(t, 10, field[0][0], 1e-9)
			assert.InDelta(t, 20, field[0][10], 1e-9)
			assert.InDelta(t, 30, field[10][10], 1e-9)
			assert.InDelta(t, 40, field[10][0], 1e-9)
		})
	}
}

func TestInterpolateLinearReproducesPlane(t *testing.T) {
	plane := func(x, y float64) float64 { return 2 + 3*x - 1.5*y }

	points := []orb.Point{
		{0, 0}, {1, 0}, {1, 1}, {0, 1}, {0.3, 0.7}, {0.8, 0.2},
	}
	values := make([]float64, len(points))
	for i, p := range points {
		values[i] = plane(p[0], p[1])
	}

	g := interp.NewGrid(unitBound(), 9)
	for _, method := range []interp.Method{interp.MethodLinear, interp.MethodCubic} {
		field, err := interp.Interpolate(points, values, g, method)
		require.NoError(t, err)

		for row := range field {
			for col := range field[row] {
				want := plane(g.X[row][col], g.Y[row][col])
				assert.InDelta(t, want, field[row][col], 1e-9,
					"%s at (%d,%d)", method, row, col)
			}
		}
	}
}

func TestInterpolateNaNOutsideHull(t *testing.T) {
	// A triangle in the lower-left half of the envelope: the upper-right
	// grid corner is outside the convex hull and must stay undefined.
	points := []orb.Point{{0, 0}, {1, 0}, {0, 1}}
	values := []float64{1, 2, 3}

	field, err := interp.Interpolate(points, values, interp.NewGrid(unitBound(), 11), interp.MethodCubic)
	require.NoError(t, err)

	assert.True(t, math.IsNaN(field[10][10]), "outside hull is NaN, not extrapolated")
	assert.False(t, math.IsNaN(field[0][0]))
	assert.False(t, math.IsNaN(field[2][2]))
}

func TestInterpolateDuplicatesKeepFirst(t *testing.T) {
	points := []orb.Point{{0, 0}, {0, 0}, {1, 0}, {1, 1}, {0, 1}}
	values := []float64{10, 99, 20, 30, 40}

	field, err := interp.Interpolate(points, values, interp.NewGrid(unitBound(), 11), interp.MethodLinear)
	require.NoError(t, err)
	assert.InDelta(t, 10, field[0][0], 1e-9, "first value wins on duplicate coordinates")
}

func TestInterpolateDeterministic(t *testing.T) {
	points, values := cornerPoints()
	g := interp.NewGrid(unitBound(), 21)

	first, err := interp.Interpolate(points, values, g, interp.MethodCubic)
	require.NoError(t, err)
	second, err := interp.Interpolate(points, values, g, interp.MethodCubic)
	require.NoError(t, err)

	for row := range first {
		for col := range first[row] {
			a, b := first[row][col], second[row][col]
			if math.IsNaN(a) {
				assert.True(t, math.IsNaN(b))
				continue
			}
			assert.Equal(t, a, b)
		}
	}
}

func TestInterpolateDefaultMethodIsCubic(t *testing.T) {
	points, values := cornerPoints()
	g := interp.NewGrid(unitBound(), 11)

	byDefault, err := interp.Interpolate(points, values, g, "")
	require.NoError(t, err)
	cubic, err := interp.Interpolate(points, values, g, interp.MethodCubic)
	require.NoError(t, err)
	assert.Equal(t, cubic, byDefault)
}
