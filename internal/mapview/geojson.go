// Package mapview turns a pipeline result into GeoJSON payloads and a
// standalone Leaflet page.
package mapview

import (
	"math"

	"pincode-hexmap/internal/models"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// PolygonCollection returns one feature per boundary, carrying its source
// properties plus "pincode".
func PolygonCollection(polygons []models.Polygon) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(polygons))}
	for _, p := range polygons {
		props := make(map[string]any, len(p.Properties)+1)
		for k, v := range p.Properties {
			props[k] = v
		}
		props["pincode"] = p.Identifier

		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   p.Geometry,
			Properties: props,
		})
	}
	return fc
}

// HexagonCollection returns one Polygon feature per cell with "hex_id" and
// "area_km2" properties. Cells appear in input order, duplicates included.
func HexagonCollection(cells []models.HexCell) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(cells))}
	for _, c := range cells {
		flat := make([]float64, 0, 2*len(c.Boundary))
		for _, v := range c.Boundary {
			flat = append(flat, v[0], v[1])
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPolygonFlat(geom.XY, flat, []int{len(flat)}),
			Properties: map[string]any{
				"hex_id":   c.Index.String(),
				"area_km2": c.AreaKm2,
			},
		})
	}
	return fc
}

// MarkerCollection returns a Point feature at each matched record's
// location. Properties are the record's columns plus "pincode".
func MarkerCollection(records []models.MatchedRecord) *geojson.FeatureCollection {
	fc := &geojson.FeatureCollection{Features: make([]*geojson.Feature, 0, len(records))}
	for _, r := range records {
		props := make(map[string]any, len(r.Attributes)+1)
		for k, v := range r.Attributes {
			props[k] = v
		}
		props["pincode"] = r.Pincode

		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry:   geom.NewPointFlat(geom.XY, []float64{r.Longitude, r.Latitude}),
			Properties: props,
		})
	}
	return fc
}

// TotalBounds returns [[minLat, minLng], [maxLat, maxLng]] over every
// boundary geometry, the shape Leaflet's fitBounds expects. ok is false when
// no polygon has coordinates.
func TotalBounds(polygons []models.Polygon) (bounds [2][2]float64, ok bool) {
	minLng, minLat := math.Inf(1), math.Inf(1)
	maxLng, maxLat := math.Inf(-1), math.Inf(-1)
	for _, p := range polygons {
		if p.Geometry == nil || p.Geometry.Empty() {
			continue
		}
		// Bounds, unlike FlatCoords, is defined for geometry collections.
		b := p.Geometry.Bounds()
		minLng, minLat = math.Min(minLng, b.Min(0)), math.Min(minLat, b.Min(1))
		maxLng, maxLat = math.Max(maxLng, b.Max(0)), math.Max(maxLat, b.Max(1))
		ok = true
	}
	if !ok {
		return bounds, false
	}
	return [2][2]float64{{minLat, minLng}, {maxLat, maxLng}}, true
}
