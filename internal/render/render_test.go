package render_test

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/climatlas/climatlas/internal/interp"
	"github.com/climatlas/climatlas/internal/render"
)

func testPanel(t *testing.T) render.Panel {
	t.Helper()

	bound := orb.Bound{Min: orb.Point{-90, 43}, Max: orb.Point{-89, 44}}
	grid := interp.NewGrid(bound, 20)

	field := make(interp.Field, grid.Rows())
	for r := range field {
		field[r] = make([]float64, grid.Cols())
		for c := range field[r] {
			field[r][c] = float64(r + c)
		}
	}
	// Hull edges leave NaN cells; the renderer must tolerate them.
	field[0][0] = math.NaN()
	field[19][19] = math.NaN()

	return render.Panel{
		Title: "TMIN",
		Grid:  grid,
		Field: field,
		Stations: []orb.Point{
			{-89.5, 43.5},
			{-89.2, 43.8},
		},
		Boundaries: []orb.Geometry{
			bound.ToPolygon(),
		},
	}
}

func TestTemperaturePNG(t *testing.T) {
	panel := testPanel(t)
	second := panel
	second.Title = "TMAX"

	data, err := render.TemperaturePNG([]render.Panel{panel, second})
	require.NoError(t, err)

	// PNG signature.
	require.Greater(t, len(data), 8)
	assert.Equal(t, []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, data[:8])
}

func TestTemperaturePNGNoPanels(t *testing.T) {
	_, err := render.TemperaturePNG(nil)
	assert.ErrorIs(t, err, render.ErrNoPanels)
}

func TestTemperaturePNGFieldMismatch(t *testing.T) {
	panel := testPanel(t)
	panel.Field = panel.Field[:5]

	_, err := render.TemperaturePNG([]render.Panel{panel})
	assert.Error(t, err)
}
