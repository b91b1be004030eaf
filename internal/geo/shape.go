// Package geo wraps the geometry and hexagonal grid libraries behind the
// small surface the pipeline needs.
package geo

import (
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Kind classifies a geometry for tessellation.
type Kind int

const (
	KindUnsupported Kind = iota
	KindPolygon
	KindMultiPolygon
)

func (k Kind) String() string {
	switch k {
	case KindPolygon:
		return "Polygon"
	case KindMultiPolygon:
		return "MultiPolygon"
	default:
		return "Unsupported"
	}
}

// ErrEmptyGeometry is returned by Centroid for nil or coordinate-less shapes.
var ErrEmptyGeometry = errors.New("geo: empty geometry")

// Geometry is the view of a boundary shape used by the join and the
// tessellator.
type Geometry interface {
	Kind() Kind
	Centroid() (LatLng, error)
	Parts() iter.Seq[*geom.Polygon]
}

// LatLng is a geographic coordinate in degrees.
type LatLng struct {
	Lat float64
	Lng float64
}

// Shape adapts a go-geom geometry to Geometry.
type Shape struct {
	g geom.T
}

var _ Geometry = Shape{}

// NewShape wraps g. A nil g is allowed and behaves as an empty, unsupported
// geometry.
func NewShape(g geom.T) Shape {
	return Shape{g: g}
}

// Kind reports whether the shape can be tessellated.
func (s Shape) Kind() Kind {
	switch s.g.(type) {
	case *geom.Polygon:
		return KindPolygon
	case *geom.MultiPolygon:
		return KindMultiPolygon
	default:
		return KindUnsupported
	}
}

// Empty reports whether the shape has no coordinates at all.
func (s Shape) Empty() bool {
	return s.g == nil || s.g.Empty()
}

// Centroid returns the area-weighted centroid computed directly on lon/lat
// degrees. No projection is applied.
func (s Shape) Centroid() (LatLng, error) {
	if s.Empty() {
		return LatLng{}, ErrEmptyGeometry
	}
	if _, ok := s.g.(*geom.GeometryCollection); ok {
		return LatLng{}, fmt.Errorf("geo: no centroid for %T", s.g)
	}

	c, err := xy.Centroid(s.g)
	if err != nil {
		return LatLng{}, fmt.Errorf("geo: centroid: %w", err)
	}
	if len(c) < 2 || math.IsNaN(c.X()) || math.IsNaN(c.Y()) || math.IsInf(c.X(), 0) || math.IsInf(c.Y(), 0) {
		return LatLng{}, fmt.Errorf("geo: centroid is not finite for %T", s.g)
	}

	return LatLng{Lat: c.Y(), Lng: c.X()}, nil
}

// Parts yields each polygon of the shape: the polygon itself, every member
// of a multi-polygon, or nothing for other kinds.
func (s Shape) Parts() iter.Seq[*geom.Polygon] {
	return func(yield func(*geom.Polygon) bool) {
		switch g := s.g.(type) {
		case *geom.Polygon:
			yield(g)
		case *geom.MultiPolygon:
			for i := 0; i < g.NumPolygons(); i++ {
				if !yield(g.Polygon(i)) {
					return
				}
			}
		}
	}
}
