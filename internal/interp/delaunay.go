package interp

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// triangle indexes three vertices of a triangulation, counterclockwise.
type triangle struct {
	a, b, c int
}

// edge is an undirected vertex pair, normalized so u < v.
type edge struct {
	u, v int
}

func newEdge(u, v int) edge {
	if u > v {
		u, v = v, u
	}
	return edge{u: u, v: v}
}

// triangulation is a Delaunay triangulation of a scattered point set, built
// with the Bowyer-Watson incremental algorithm. Triangles touching the
// synthetic super-triangle are discarded, so a fully collinear input yields
// an empty triangle list.
type triangulation struct {
	points    []orb.Point
	triangles []triangle
}

func orient(a, b, c orb.Point) float64 {
	return (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
}

// newTriangle normalizes vertex order to counterclockwise.
func newTriangle(pts []orb.Point, a, b, c int) triangle {
	if orient(pts[a], pts[b], pts[c]) < 0 {
		b, c = c, b
	}
	return triangle{a: a, b: b, c: c}
}

// inCircumcircle reports whether p lies strictly inside the circumcircle of
// the counterclockwise triangle abc.
func inCircumcircle(a, b, c, p orb.Point) bool {
	ax, ay := a[0]-p[0], a[1]-p[1]
	bx, by := b[0]-p[0], b[1]-p[1]
	cx, cy := c[0]-p[0], c[1]-p[1]

	det := (ax*ax+ay*ay)*(bx*cy-cx*by) -
		(bx*bx+by*by)*(ax*cy-cx*ay) +
		(cx*cx+cy*cy)*(ax*by-bx*ay)
	return det > 0
}

// newTriangulation triangulates the given points. The input must already be
// free of duplicate coordinates.
func newTriangulation(points []orb.Point) *triangulation {
	n := len(points)
	if n < 3 {
		return &triangulation{points: points}
	}

	// Working point list with a super-triangle appended that encloses the
	// whole input by a wide margin.
	bound := orb.MultiPoint(points).Bound()
	cx := (bound.Min[0] + bound.Max[0]) / 2
	cy := (bound.Min[1] + bound.Max[1]) / 2
	span := math.Max(bound.Max[0]-bound.Min[0], bound.Max[1]-bound.Min[1])
	if span == 0 {
		span = 1
	}
	m := span * 64

	work := make([]orb.Point, n, n+3)
	copy(work, points)
	work = append(work,
		orb.Point{cx - 2*m, cy - m},
		orb.Point{cx + 2*m, cy - m},
		orb.Point{cx, cy + 2*m},
	)

	triangles := []triangle{newTriangle(work, n, n+1, n+2)}

	for i := 0; i < n; i++ {
		p := work[i]

		// Triangles whose circumcircle contains the new point are removed;
		// the boundary of the removed cavity is re-triangulated with p.
		bad := triangles[:0:0]
		keep := triangles[:0:0]
		for _, t := range triangles {
			if inCircumcircle(work[t.a], work[t.b], work[t.c], p) {
				bad = append(bad, t)
			} else {
				keep = append(keep, t)
			}
		}

		edgeCount := make(map[edge]int)
		for _, t := range bad {
			edgeCount[newEdge(t.a, t.b)]++
			edgeCount[newEdge(t.b, t.c)]++
			edgeCount[newEdge(t.c, t.a)]++
		}

		triangles = keep
		for e, count := range edgeCount {
			if count != 1 {
				continue // interior edge of the cavity
			}
			if orient(work[e.u], work[e.v], p) == 0 {
				continue // degenerate sliver
			}
			triangles = append(triangles, newTriangle(work, e.u, e.v, i))
		}
	}

	// Drop triangles that still reference the super-triangle.
	final := triangles[:0:0]
	for _, t := range triangles {
		if t.a >= n || t.b >= n || t.c >= n {
			continue
		}
		final = append(final, t)
	}

	// Cavity edges come out of a map, so canonicalize the triangle order to
	// keep evaluation deterministic across runs.
	sort.Slice(final, func(i, j int) bool {
		if final[i].a != final[j].a {
			return final[i].a < final[j].a
		}
		if final[i].b != final[j].b {
			return final[i].b < final[j].b
		}
		return final[i].c < final[j].c
	})

	return &triangulation{points: points, triangles: final}
}

// locate finds the triangle containing p and its barycentric coordinates.
// Points on shared edges resolve to the first matching triangle.
func (tr *triangulation) locate(p orb.Point) (triangle, [3]float64, bool) {
	const tol = 1e-10

	for _, t := range tr.triangles {
		a, b, c := tr.points[t.a], tr.points[t.b], tr.points[t.c]
		area := orient(a, b, c)
		if area == 0 {
			continue
		}
		w0 := orient(p, b, c) / area
		w1 := orient(a, p, c) / area
		w2 := orient(a, b, p) / area
		if w0 < -tol || w1 < -tol || w2 < -tol {
			continue
		}

		// Clamp roundoff and renormalize so the weights sum to one.
		w0 = math.Max(w0, 0)
		w1 = math.Max(w1, 0)
		w2 = math.Max(w2, 0)
		sum := w0 + w1 + w2
		return t, [3]float64{w0 / sum, w1 / sum, w2 / sum}, true
	}
	return triangle{}, [3]float64{}, false
}

// neighbors returns, per vertex, the set of vertices sharing an edge with it.
func (tr *triangulation) neighbors() [][]int {
	adj := make(map[edge]struct{})
	for _, t := range tr.triangles {
		adj[newEdge(t.a, t.b)] = struct{}{}
		adj[newEdge(t.b, t.c)] = struct{}{}
		adj[newEdge(t.c, t.a)] = struct{}{}
	}

	out := make([][]int, len(tr.points))
	for e := range adj {
		out[e.u] = append(out[e.u], e.v)
		out[e.v] = append(out[e.v], e.u)
	}
	for i := range out {
		sort.Ints(out[i]) // summation order must not depend on map iteration
	}
	return out
}
