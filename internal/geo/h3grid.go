package geo

import (
	"fmt"

	"pincode-hexmap/internal/models"

	"github.com/twpayne/go-geom"
	"github.com/uber/h3-go/v4"
)

// Resolution bounds of the H3 grid.
const (
	MinResolution = 0
	MaxResolution = 15
)

// H3Grid tessellates polygons with Uber's H3 hierarchical grid.
type H3Grid struct{}

// NewH3Grid creates a new H3 grid
func NewH3Grid() H3Grid {
	return H3Grid{}
}

// ValidResolution reports whether res is a valid H3 resolution.
func ValidResolution(res int) bool {
	return res >= MinResolution && res <= MaxResolution
}

// CellsCovering returns the cells whose centres fall inside poly, holes
// excluded. Coordinates of poly are lon/lat.
func (H3Grid) CellsCovering(poly *geom.Polygon, resolution int) ([]models.CellIndex, error) {
	if !ValidResolution(resolution) {
		return nil, fmt.Errorf("geo: resolution %d out of range [%d, %d]", resolution, MinResolution, MaxResolution)
	}
	if poly == nil || poly.NumLinearRings() == 0 {
		return nil, nil
	}

	gp := h3.GeoPolygon{GeoLoop: toGeoLoop(poly.LinearRing(0))}
	for i := 1; i < poly.NumLinearRings(); i++ {
		gp.Holes = append(gp.Holes, toGeoLoop(poly.LinearRing(i)))
	}
	if len(gp.GeoLoop) < 3 {
		return nil, nil
	}

	cells, err := h3.PolygonToCells(gp, resolution)
	if err != nil {
		return nil, fmt.Errorf("geo: polyfill: %w", err)
	}

	out := make([]models.CellIndex, 0, len(cells))
	for _, c := range cells {
		out = append(out, models.CellIndex(c))
	}
	return out, nil
}

// BoundaryOf returns the closed [lon, lat] ring of the cell.
func (H3Grid) BoundaryOf(idx models.CellIndex) ([][2]float64, error) {
	b, err := h3.Cell(idx).Boundary()
	if err != nil {
		return nil, fmt.Errorf("geo: boundary of %s: %w", idx, err)
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("geo: boundary of %s is empty", idx)
	}

	ring := make([][2]float64, 0, len(b)+1)
	for _, ll := range b {
		ring = append(ring, [2]float64{ll.Lng, ll.Lat})
	}
	return append(ring, ring[0]), nil
}

// AreaOf returns the exact spherical area of the cell in km².
func (H3Grid) AreaOf(idx models.CellIndex) (float64, error) {
	area, err := h3.CellAreaKm2(h3.Cell(idx))
	if err != nil {
		return 0, fmt.Errorf("geo: area of %s: %w", idx, err)
	}
	return area, nil
}

// toGeoLoop converts a lon/lat ring into an H3 loop, dropping the closing
// vertex.
func toGeoLoop(ring *geom.LinearRing) h3.GeoLoop {
	coords := ring.Coords()
	if n := len(coords); n > 1 && coords[0].Equal(geom.XY, coords[n-1]) {
		coords = coords[:n-1]
	}

	loop := make(h3.GeoLoop, 0, len(coords))
	for _, c := range coords {
		loop = append(loop, h3.LatLng{Lat: c.Y(), Lng: c.X()})
	}
	return loop
}
