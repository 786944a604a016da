package interp

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// Sentinel errors for interpolation.
var (
	// ErrInsufficientPoints indicates fewer than 3 non-collinear input
	// points, for which no interpolation method is well-defined. Callers
	// needing graceful degradation must catch this and retry explicitly.
	ErrInsufficientPoints = errors.New("insufficient points for interpolation")
	// ErrInputMismatch indicates points and values of different lengths.
	ErrInputMismatch = errors.New("points and values length mismatch")
	// ErrUnknownMethod indicates an unrecognized interpolation method.
	ErrUnknownMethod = errors.New("unknown interpolation method")
)

// Method selects the interpolation scheme.
type Method string

const (
	// MethodNearest assigns each grid cell the value of the closest point.
	MethodNearest Method = "nearest"
	// MethodLinear interpolates barycentrically within Delaunay triangles.
	MethodLinear Method = "linear"
	// MethodCubic fits a local cubic surface per Delaunay triangle, using
	// least-squares vertex gradients. This is the default.
	MethodCubic Method = "cubic"
)

// Interpolate computes a field over the grid from scattered point samples.
// Grid cells inside the convex hull of the points get a locally interpolated
// value; cells outside the hull are NaN, never extrapolated. Duplicate point
// coordinates keep their first value. The interpolant passes through the
// samples: a grid node coincident with an input point takes that point's
// value.
func Interpolate(points []orb.Point, values []float64, g Grid, method Method) (Field, error) {
	if len(points) != len(values) {
		return nil, fmt.Errorf("%w: %d points, %d values", ErrInputMismatch, len(points), len(values))
	}
	if method == "" {
		method = MethodCubic
	}
	switch method {
	case MethodNearest, MethodLinear, MethodCubic:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}

	pts, vals := dedupe(points, values)
	if len(pts) < 3 {
		return nil, fmt.Errorf("%w: %d usable points", ErrInsufficientPoints, len(pts))
	}

	tr := newTriangulation(pts)
	if len(tr.triangles) == 0 {
		// All points collinear.
		return nil, fmt.Errorf("%w: %d collinear points", ErrInsufficientPoints, len(pts))
	}

	var gradients [][2]float64
	if method == MethodCubic {
		gradients = estimateGradients(tr, vals)
	}

	field := make(Field, g.Rows())
	for row := range field {
		field[row] = make([]float64, g.Cols())
		for col := range field[row] {
			p := orb.Point{g.X[row][col], g.Y[row][col]}

			t, w, inside := tr.locate(p)
			if !inside {
				field[row][col] = math.NaN()
				continue
			}

			switch method {
			case MethodNearest:
				field[row][col] = vals[nearest(pts, p)]
			case MethodLinear:
				field[row][col] = w[0]*vals[t.a] + w[1]*vals[t.b] + w[2]*vals[t.c]
			case MethodCubic:
				field[row][col] = cubicTriangle(tr.points, vals, gradients, t, w)
			}
		}
	}
	return field, nil
}

// dedupe drops points whose exact coordinates were already seen, keeping the
// first value, so the triangulation never sees coincident vertices.
func dedupe(points []orb.Point, values []float64) ([]orb.Point, []float64) {
	seen := make(map[orb.Point]struct{}, len(points))
	pts := make([]orb.Point, 0, len(points))
	vals := make([]float64, 0, len(values))
	for i, p := range points {
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		pts = append(pts, p)
		vals = append(vals, values[i])
	}
	return pts, vals
}

func nearest(pts []orb.Point, p orb.Point) int {
	best := 0
	bestDist := math.Inf(1)
	for i, q := range pts {
		dx, dy := q[0]-p[0], q[1]-p[1]
		if d := dx*dx + dy*dy; d < bestDist {
			bestDist = d
			best = i
		}
	}
	return best
}

// estimateGradients fits a plane through each vertex's Delaunay neighborhood
// by inverse-distance-weighted least squares. Every triangulated vertex has
// at least two neighbors spanning independent directions, so the 2x2 normal
// system is solvable except in degenerate cases, which fall back to a flat
// gradient.
func estimateGradients(tr *triangulation, vals []float64) [][2]float64 {
	adj := tr.neighbors()
	out := make([][2]float64, len(tr.points))

	for i, nbrs := range adj {
		var sxx, sxy, syy, sxz, syz float64
		for _, j := range nbrs {
			dx := tr.points[j][0] - tr.points[i][0]
			dy := tr.points[j][1] - tr.points[i][1]
			dz := vals[j] - vals[i]
			w := 1 / (dx*dx + dy*dy)
			sxx += w * dx * dx
			sxy += w * dx * dy
			syy += w * dy * dy
			sxz += w * dx * dz
			syz += w * dy * dz
		}

		det := sxx*syy - sxy*sxy
		if math.Abs(det) < 1e-14 {
			continue
		}
		out[i] = [2]float64{
			(syy*sxz - sxy*syz) / det,
			(sxx*syz - sxy*sxz) / det,
		}
	}
	return out
}

// cubicTriangle evaluates a cubic Bezier triangle over t at barycentric
// weights w. Corner control points are the sample values, edge control
// points come from the estimated vertex gradients, and the interior point is
// chosen so the patch reproduces quadratics on average. The surface
// interpolates the samples exactly at the vertices.
func cubicTriangle(pts []orb.Point, vals []float64, grads [][2]float64, t triangle, w [3]float64) float64 {
	p0, p1, p2 := pts[t.a], pts[t.b], pts[t.c]
	z0, z1, z2 := vals[t.a], vals[t.b], vals[t.c]
	g0, g1, g2 := grads[t.a], grads[t.b], grads[t.c]

	dir := func(g [2]float64, from, to orb.Point) float64 {
		return (g[0]*(to[0]-from[0]) + g[1]*(to[1]-from[1])) / 3
	}

	b210 := z0 + dir(g0, p0, p1)
	b201 := z0 + dir(g0, p0, p2)
	b120 := z1 + dir(g1, p1, p0)
	b021 := z1 + dir(g1, p1, p2)
	b012 := z2 + dir(g2, p2, p1)
	b102 := z2 + dir(g2, p2, p0)

	e := (b210 + b201 + b120 + b021 + b012 + b102) / 6
	v := (z0 + z1 + z2) / 3
	b111 := e + (e-v)/2

	w0, w1, w2 := w[0], w[1], w[2]
	return z0*w0*w0*w0 + z1*w1*w1*w1 + z2*w2*w2*w2 +
		3*b210*w0*w0*w1 + 3*b201*w0*w0*w2 +
		3*b120*w0*w1*w1 + 3*b021*w1*w1*w2 +
		3*b012*w1*w2*w2 + 3*b102*w0*w2*w2 +
		6*b111*w0*w1*w2
}
