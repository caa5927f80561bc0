package rtree

import (
	"fmt"

	"github.com/aukilabs/go-tooling/pkg/errors"
)

// Dimensions is the number of coordinates of every Point and Rect.
const Dimensions = 3

// Point is a location in 3D space. It is only used as the argument of
// nearest neighbour queries.
type Point [Dimensions]float64

// NewPoint creates a point from a coordinate slice, which must hold exactly
// Dimensions values.
func NewPoint(coords []float64) (Point, error) {
	var p Point
	if len(coords) != Dimensions {
		return p, errors.New("point has wrong number of dimensions").
			WithType(ErrTypeDimensionMismatch).
			WithTag("expected", Dimensions).
			WithTag("got", len(coords))
	}
	copy(p[:], coords)
	return p, nil
}

func (p Point) String() string {
	return fmt.Sprintf("(%g %g %g)", p[0], p[1], p[2])
}
