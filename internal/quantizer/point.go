package quantizer

import (
	"github.com/maax3v3/palcalc/internal/color"
)

// unassigned marks a point that has not been assigned to a cluster in the
// current attempt.
const unassigned = -1

// Point is a distinct observed color with the number of pixels that had it.
type Point struct {
	Color  color.Sample
	Weight uint64

	cluster   int
	minDistSq float64 // squared distance to the nearest seed chosen so far
}

// Cluster returns the index of the centroid the point is assigned to, or -1
// before the first assignment step of an attempt.
func (p *Point) Cluster() int {
	return p.cluster
}

// ColorSource enumerates colors with their pixel counts in a fixed order.
// *histogram.Histogram implements it.
type ColorSource interface {
	Each(fn func(c color.RGB8, count uint64))
}

// Extract builds the weighted point set of src: one point per color with a
// nonzero count, in the order src yields them.
func Extract(src ColorSource) []Point {
	var points []Point
	src.Each(func(c color.RGB8, count uint64) {
		if count == 0 {
			return
		}
		points = append(points, Point{Color: c.Sample(), Weight: count})
	})
	return points
}
