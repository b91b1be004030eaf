package repository

import (
	"context"
	"fmt"
	"strings"

	"pincode-hexmap/internal/models"

	"github.com/jonas-p/go-shp"
	"github.com/rs/zerolog/log"
	"github.com/twpayne/go-geom"
)

// ShapefilePolygonSource reads pincode boundaries from an ESRI shapefile and
// its .dbf attribute table
type ShapefilePolygonSource struct {
	path    string
	idField string
}

// NewShapefilePolygonSource creates a new shapefile polygon source
func NewShapefilePolygonSource(path, idField string) *ShapefilePolygonSource {
	return &ShapefilePolygonSource{path: path, idField: idField}
}

// LoadPolygons reads every shape. Polygon records become *geom.Polygon or
// *geom.MultiPolygon; other shape types are kept as points or lines so the
// tessellator can skip them.
func (s *ShapefilePolygonSource) LoadPolygons(ctx context.Context) ([]models.Polygon, error) {
	r, err := shp.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to open shapefile: %w", err)
	}
	defer r.Close()

	fields := r.Fields()
	idIdx := -1
	for i, f := range fields {
		if strings.EqualFold(f.String(), s.idField) {
			idIdx = i
			break
		}
	}
	if idIdx < 0 {
		return nil, fmt.Errorf("repository: shapefile %s has no %q field", s.path, s.idField)
	}

	var polygons []models.Polygon
	for r.Next() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		n, shape := r.Shape()
		id := strings.TrimSpace(r.ReadAttribute(n, idIdx))
		if id == "" {
			log.Warn().Int("shape", n).Str("field", s.idField).Msg("boundary shape has no identifier, skipping")
			continue
		}

		g, err := shapeToGeom(shape)
		if err != nil {
			return nil, fmt.Errorf("repository: shape %d: %w", n, err)
		}

		props := make(map[string]any, len(fields)-1)
		for i, f := range fields {
			if i != idIdx {
				props[f.String()] = strings.TrimSpace(r.ReadAttribute(n, i))
			}
		}

		polygons = append(polygons, models.Polygon{Identifier: id, Geometry: g, Properties: props})
	}
	if err := r.Err(); err != nil {
		return nil, fmt.Errorf("repository: failed to read shapefile: %w", err)
	}

	return polygons, nil
}

func shapeToGeom(shape shp.Shape) (geom.T, error) {
	switch t := shape.(type) {
	case *shp.Polygon:
		return ringsToGeom(t.Parts, t.Points)
	case *shp.PolygonZ:
		return ringsToGeom(t.Parts, t.Points)
	case *shp.PolygonM:
		return ringsToGeom(t.Parts, t.Points)
	case *shp.Point:
		return geom.NewPointFlat(geom.XY, []float64{t.X, t.Y}), nil
	case *shp.PolyLine:
		return geom.NewLineStringFlat(geom.XY, flatten(t.Points)), nil
	case *shp.Null, nil:
		return nil, nil
	default:
		return geom.NewGeometryCollection(), nil
	}
}

// ringsToGeom groups shapefile rings into polygons. Outer rings are
// clockwise; each counter-clockwise ring is a hole of the preceding outer
// ring.
func ringsToGeom(parts []int32, points []shp.Point) (geom.T, error) {
	var polys [][][]geom.Coord
	for i, start := range parts {
		end := int32(len(points))
		if i+1 < len(parts) {
			end = parts[i+1]
		}
		if start < 0 || start >= end || end > int32(len(points)) {
			return nil, fmt.Errorf("invalid ring bounds [%d, %d)", start, end)
		}

		ring := make([]geom.Coord, 0, end-start)
		for _, p := range points[start:end] {
			ring = append(ring, geom.Coord{p.X, p.Y})
		}

		if signedArea(ring) <= 0 || len(polys) == 0 {
			polys = append(polys, [][]geom.Coord{ring})
			continue
		}
		last := len(polys) - 1
		polys[last] = append(polys[last], ring)
	}

	switch len(polys) {
	case 0:
		return geom.NewPolygon(geom.XY), nil
	case 1:
		return geom.NewPolygon(geom.XY).SetCoords(polys[0])
	default:
		return geom.NewMultiPolygon(geom.XY).SetCoords(polys)
	}
}

// signedArea is positive for counter-clockwise rings (shoelace formula).
func signedArea(ring []geom.Coord) float64 {
	sum := 0.0
	for i := 0; i+1 < len(ring); i++ {
		sum += ring[i].X()*ring[i+1].Y() - ring[i+1].X()*ring[i].Y()
	}
	return sum / 2
}

func flatten(points []shp.Point) []float64 {
	flat := make([]float64, 0, 2*len(points))
	for _, p := range points {
		flat = append(flat, p.X, p.Y)
	}
	return flat
}
