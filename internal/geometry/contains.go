package geometry

import (
	"errors"
	"fmt"

	"github.com/ctessum/geom"
)

var (
	ErrSpatialReferenceMismatch = errors.New("spatial reference mismatch")
	ErrEmptyPolygon             = errors.New("polygon has no outer ring")
)

// Contains reports whether p lies inside footprint. Points on the boundary
// are inside. The reference systems of both inputs are normalized first; an
// unspecified side adopts the other's. Reprojection is the caller's job, so
// a real mismatch is an error rather than a false.
func Contains(footprint Polygon, p Point) (bool, error) {
	if footprint.IsEmpty() {
		return false, ErrEmptyPolygon
	}
	if err := checkReferences(footprint.SR, p.SR); err != nil {
		return false, err
	}

	status := geom.Point{X: p.X, Y: p.Y}.Within(toGeom(footprint))
	return status == geom.Inside || status == geom.OnEdge, nil
}

func checkReferences(polySR, pointSR SpatialReference) error {
	if polySR.IsZero() || pointSR.IsZero() {
		return nil
	}
	if !polySR.Equal(pointSR) {
		return fmt.Errorf("%w: polygon wkid %d, point wkid %d",
			ErrSpatialReferenceMismatch, polySR.WKID, pointSR.WKID)
	}
	return nil
}

func toGeom(p Polygon) geom.Polygon {
	out := make(geom.Polygon, 0, len(p.Rings))
	for _, ring := range p.Rings {
		path := make([]geom.Point, 0, len(ring))
		for _, pt := range ring {
			path = append(path, geom.Point{X: pt.X, Y: pt.Y})
		}
		out = append(out, path)
	}
	return out
}
