// Package render draws interpolated temperature fields as heatmap panels
// and encodes them as PNG artifacts.
package render

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"

	"github.com/paulmach/orb"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/climatlas/climatlas/internal/interp"
)

// ErrNoPanels indicates a render request without any panels.
var ErrNoPanels = errors.New("no panels to render")

// Default canvas size per panel.
const (
	panelWidth  = 5 * vg.Inch
	panelHeight = 4.5 * vg.Inch
)

// Panel is one heatmap: an interpolated field over a grid, with the station
// positions and region outlines drawn on top.
type Panel struct {
	Title      string
	Grid       interp.Grid
	Field      interp.Field
	Stations   []orb.Point
	Boundaries []orb.Geometry
}

// TemperaturePNG renders the panels side by side into a single PNG. Grid
// cells outside the interpolation hull carry NaN and are left blank.
func TemperaturePNG(panels []Panel) ([]byte, error) {
	if len(panels) == 0 {
		return nil, ErrNoPanels
	}

	plots := make([][]*plot.Plot, 1)
	plots[0] = make([]*plot.Plot, len(panels))
	for i, panel := range panels {
		p, err := panelPlot(panel)
		if err != nil {
			return nil, fmt.Errorf("panel %q: %w", panel.Title, err)
		}
		plots[0][i] = p
	}

	img := vgimg.New(panelWidth*vg.Length(len(panels)), panelHeight)
	dc := draw.New(img)
	tiles := draw.Tiles{
		Rows: 1,
		Cols: len(panels),
		PadX: vg.Millimeter * 2,
		PadY: vg.Millimeter * 2,
	}

	canvases := plot.Align(plots, tiles, dc)
	for i, p := range plots[0] {
		p.Draw(canvases[0][i])
	}

	var buf bytes.Buffer
	png := vgimg.PngCanvas{Canvas: img}
	if _, err := png.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func panelPlot(panel Panel) (*plot.Plot, error) {
	grid := fieldGrid{grid: panel.Grid, field: panel.Field}
	if err := grid.validate(); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = panel.Title
	p.X.Label.Text = "Longitude"
	p.Y.Label.Text = "Latitude"

	heatmap := plotter.NewHeatMap(grid, moreland.SmoothBlueRed().Palette(255))
	heatmap.Min, heatmap.Max = grid.valueRange()
	p.Add(heatmap)

	for _, g := range panel.Boundaries {
		for _, ring := range rings(g) {
			line, err := plotter.NewLine(ring)
			if err != nil {
				return nil, fmt.Errorf("boundary line: %w", err)
			}
			line.Color = color.Black
			line.Width = vg.Points(0.5)
			p.Add(line)
		}
	}

	if len(panel.Stations) > 0 {
		xys := make(plotter.XYs, len(panel.Stations))
		for i, pt := range panel.Stations {
			xys[i] = plotter.XY{X: pt[0], Y: pt[1]}
		}
		scatter, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("station scatter: %w", err)
		}
		scatter.Radius = vg.Points(1.5)
		scatter.Color = color.Black
		p.Add(scatter)
	}

	return p, nil
}

// rings flattens a geometry into the closed outlines to draw.
func rings(g orb.Geometry) []plotter.XYs {
	var out []plotter.XYs
	switch geom := g.(type) {
	case orb.Polygon:
		for _, ring := range geom {
			out = append(out, ringXYs(ring))
		}
	case orb.MultiPolygon:
		for _, poly := range geom {
			for _, ring := range poly {
				out = append(out, ringXYs(ring))
			}
		}
	case orb.Bound:
		out = append(out, ringXYs(geom.ToRing()))
	}
	return out
}

func ringXYs(ring orb.Ring) plotter.XYs {
	xys := make(plotter.XYs, len(ring))
	for i, pt := range ring {
		xys[i] = plotter.XY{X: pt[0], Y: pt[1]}
	}
	return xys
}

// fieldGrid adapts a grid and its interpolated field to the heatmap's
// GridXYZ interface.
type fieldGrid struct {
	grid  interp.Grid
	field interp.Field
}

func (f fieldGrid) validate() error {
	if f.grid.Rows() == 0 || f.grid.Cols() == 0 {
		return errors.New("empty grid")
	}
	if len(f.field) != f.grid.Rows() {
		return fmt.Errorf("field has %d rows, grid has %d", len(f.field), f.grid.Rows())
	}
	return nil
}

func (f fieldGrid) Dims() (c, r int) {
	return f.grid.Cols(), f.grid.Rows()
}

func (f fieldGrid) Z(c, r int) float64 {
	return f.field[r][c]
}

func (f fieldGrid) X(c int) float64 {
	return f.grid.X[0][c]
}

func (f fieldGrid) Y(r int) float64 {
	return f.grid.Y[r][0]
}

// valueRange finds the field's min and max, ignoring the NaN cells outside
// the hull. The heatmap's own range scan would propagate those NaNs.
func (f fieldGrid) valueRange() (min, max float64) {
	min, max = math.Inf(1), math.Inf(-1)
	for _, row := range f.field {
		for _, v := range row {
			if math.IsNaN(v) {
				continue
			}
			min = math.Min(min, v)
			max = math.Max(max, v)
		}
	}
	if min > max {
		return 0, 1
	}
	if min == max {
		max = min + 1
	}
	return min, max
}
