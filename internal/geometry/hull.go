package geometry

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
)

// convexHull returns the closed counter-clockwise hull of points, or nil when the
// points do not span an area.
func convexHull(points []orb.Point) orb.Ring {
	pts := make([]orb.Point, len(points))
	copy(pts, points)
	sort.Slice(pts, func(i, j int) bool {
		if pts[i][0] != pts[j][0] {
			return pts[i][0] < pts[j][0]
		}
		return pts[i][1] < pts[j][1]
	})
	pts = dedupe(pts)
	if len(pts) < 3 {
		return nil
	}

	hull := make([]orb.Point, 0, 2*len(pts))
	// lower chain
	for _, p := range pts {
		for len(hull) >= 2 && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}
	// upper chain
	lower := len(hull) + 1
	for i := len(pts) - 2; i >= 0; i-- {
		p := pts[i]
		for len(hull) >= lower && cross(hull[len(hull)-2], hull[len(hull)-1], p) <= 0 {
			hull = hull[:len(hull)-1]
		}
		hull = append(hull, p)
	}

	// collinear input collapses to first, last, first
	if len(hull) < 4 {
		return nil
	}
	return orb.Ring(hull)
}

func cross(o, a, b orb.Point) float64 {
	return (a[0]-o[0])*(b[1]-o[1]) - (a[1]-o[1])*(b[0]-o[0])
}

func dedupe(sorted []orb.Point) []orb.Point {
	out := sorted[:0]
	for _, p := range sorted {
		if len(out) > 0 && p.Equal(out[len(out)-1]) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func centroid(ring orb.Ring) orb.Point {
	// the closing point repeats the first
	n := len(ring) - 1
	var c orb.Point
	for _, p := range ring[:n] {
		c[0] += p[0]
		c[1] += p[1]
	}
	c[0] /= float64(n)
	c[1] /= float64(n)
	return c
}

// bufferHull pushes every vertex of a closed ring away from its centroid by distance.
func bufferHull(ring orb.Ring, distance float64) orb.Ring {
	center := centroid(ring)
	out := make(orb.Ring, len(ring))
	for i, p := range ring {
		dx, dy := p[0]-center[0], p[1]-center[1]
		length := math.Hypot(dx, dy)
		if length == 0 {
			out[i] = p
			continue
		}
		scale := (length + distance) / length
		out[i] = orb.Point{center[0] + dx*scale, center[1] + dy*scale}
	}
	return out
}
