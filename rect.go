package rtree

import (
	"fmt"
	"math"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// tolerance is used when comparing coordinates for equality.
const tolerance = 1e-4

// Rect is an axis-aligned 3D bounding box. It is a value type, so a Rect
// stored in the tree never shares memory with the caller's copy.
type Rect struct {
	Min, Max [Dimensions]float64
}

// NewRect creates a rectangle from its minimum and maximum corners. Both
// slices must hold exactly Dimensions coordinates. Bounds given in the wrong
// order are swapped.
func NewRect(lo, hi []float64) (Rect, error) {
	var r Rect
	if len(lo) != Dimensions || len(hi) != Dimensions {
		return r, errors.New("rectangle has wrong number of dimensions").
			WithType(ErrTypeDimensionMismatch).
			WithTag("expected", Dimensions).
			WithTag("min", len(lo)).
			WithTag("max", len(hi))
	}
	for d := 0; d < Dimensions; d++ {
		r.Min[d] = math.Min(lo[d], hi[d])
		r.Max[d] = math.Max(lo[d], hi[d])
	}
	return r, nil
}

// R is shorthand for building a rectangle from its six bounds.
func R(minX, minY, minZ, maxX, maxY, maxZ float64) Rect {
	r, _ := NewRect(
		[]float64{minX, minY, minZ},
		[]float64{maxX, maxY, maxZ},
	)
	return r
}

// PointRect returns the degenerate rectangle covering only p.
func PointRect(p Point) Rect {
	return Rect{Min: p, Max: p}
}

// Set overwrites r with the bounds of other.
func (r *Rect) Set(other Rect) {
	*r = other
}

// Add grows r so that it also covers other.
func (r *Rect) Add(other Rect) {
	for d := 0; d < Dimensions; d++ {
		if other.Min[d] < r.Min[d] {
			r.Min[d] = other.Min[d]
		}
		if other.Max[d] > r.Max[d] {
			r.Max[d] = other.Max[d]
		}
	}
}

// Union gives the smallest rectangle containing both r and other.
func (r Rect) Union(other Rect) Rect {
	r.Add(other)
	return r
}

// Intersects reports whether r and other share at least one point. Touching
// edges count as intersecting.
func (r Rect) Intersects(other Rect) bool {
	for d := 0; d < Dimensions; d++ {
		if r.Max[d] < other.Min[d] || r.Min[d] > other.Max[d] {
			return false
		}
	}
	return true
}

// Contains reports whether other lies entirely within r.
func (r Rect) Contains(other Rect) bool {
	for d := 0; d < Dimensions; d++ {
		if r.Max[d] < other.Max[d] || r.Min[d] > other.Min[d] {
			return false
		}
	}
	return true
}

// ContainedBy reports whether r lies entirely within other.
func (r Rect) ContainedBy(other Rect) bool {
	return other.Contains(r)
}

// EdgeOverlaps reports whether any bound of other coincides with the same
// bound of r.
func (r Rect) EdgeOverlaps(other Rect) bool {
	for d := 0; d < Dimensions; d++ {
		if nearlyEqual(r.Min[d], other.Min[d]) || nearlyEqual(r.Max[d], other.Max[d]) {
			return true
		}
	}
	return false
}

// Equal compares the bounds of r and other within a small tolerance.
func (r Rect) Equal(other Rect) bool {
	return compareArrays(r.Min, other.Min) && compareArrays(r.Max, other.Max)
}

// Area is the area of the rectangle projected onto the XY plane. The Z extent
// does not take part in area or enlargement calculations.
func (r Rect) Area() float64 {
	return (r.Max[0] - r.Min[0]) * (r.Max[1] - r.Min[1])
}

// Enlargement returns how much additional area r would have to grow by to
// accommodate other.
func (r Rect) Enlargement(other Rect) float64 {
	return r.Union(other).Area() - r.Area()
}

// Distance is the Euclidean distance from p to the nearest point of r. It is
// zero when p lies inside r.
func (r Rect) Distance(p Point) float64 {
	var sum float64
	for d := 0; d < Dimensions; d++ {
		gap := math.Max(r.Min[d]-p[d], p[d]-r.Max[d])
		if gap > 0 {
			sum += gap * gap
		}
	}
	return math.Sqrt(sum)
}

// DistanceRect is the Euclidean distance between the nearest points of r and
// other. It is zero when they intersect.
func (r Rect) DistanceRect(other Rect) float64 {
	var sum float64
	for d := 0; d < Dimensions; d++ {
		gap := math.Max(r.Min[d]-other.Max[d], other.Min[d]-r.Max[d])
		if gap > 0 {
			sum += gap * gap
		}
	}
	return math.Sqrt(sum)
}

func (r Rect) String() string {
	return fmt.Sprintf("(%g %g %g, %g %g %g)",
		r.Min[0], r.Min[1], r.Min[2],
		r.Max[0], r.Max[1], r.Max[2],
	)
}

func compareArrays(a, b [Dimensions]float64) bool {
	for d := 0; d < Dimensions; d++ {
		if !nearlyEqual(a[d], b[d]) {
			return false
		}
	}
	return true
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < tolerance
}
