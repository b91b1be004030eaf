package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"pincode-hexmap/internal/identifier"
	"pincode-hexmap/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// GeoJSONPolygonSource reads pincode boundaries from a GeoJSON
// FeatureCollection file
type GeoJSONPolygonSource struct {
	path    string
	idField string
}

// NewGeoJSONPolygonSource creates a new GeoJSON polygon source
func NewGeoJSONPolygonSource(path, idField string) *GeoJSONPolygonSource {
	return &GeoJSONPolygonSource{path: path, idField: idField}
}

// LoadPolygons decodes every feature of the collection. Features without
// the identifier property are skipped.
func (s *GeoJSONPolygonSource) LoadPolygons(ctx context.Context) ([]models.Polygon, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to read boundaries: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("repository: failed to decode %s: %w", s.path, err)
	}

	polygons := make([]models.Polygon, 0, len(fc.Features))
	for i, f := range fc.Features {
		id, ok := identifier.Text(f.Properties[s.idField])
		if !ok {
			log.Warn().Int("feature", i).Str("field", s.idField).Msg("boundary feature has no identifier, skipping")
			continue
		}

		polygons = append(polygons, models.Polygon{
			Identifier: id,
			Geometry:   f.Geometry,
			Properties: without(f.Properties, s.idField),
		})
	}

	return polygons, nil
}

func without(props map[string]any, key string) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		if k != key {
			out[k] = v
		}
	}
	return out
}
