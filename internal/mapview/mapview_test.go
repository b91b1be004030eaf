package mapview

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"pincode-hexmap/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

func square(t *testing.T, minX, minY, maxX, maxY float64) *geom.Polygon {
	t.Helper()
	p, err := geom.NewPolygon(geom.XY).SetCoords([][]geom.Coord{{
		{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY},
	}})
	require.NoError(t, err)
	return p
}

func sampleResult(t *testing.T) *models.PipelineResult {
	t.Helper()
	return &models.PipelineResult{
		RunID: "run-1",
		Polygons: []models.Polygon{
			{Identifier: "560001", Geometry: square(t, 77.5, 12.9, 77.7, 13.1), Properties: map[string]any{"office": "GPO"}},
			{Identifier: "560002", Geometry: square(t, 77.7, 12.8, 77.9, 13.0)},
		},
		Records: []models.MatchedRecord{{
			Record:    models.Record{Row: 2, Identifier: "560001", Attributes: map[string]string{"Ref no": "R1", "Brand": "<b>Acme</b>"}},
			Pincode:   "560001",
			Latitude:  13.0,
			Longitude: 77.6,
		}},
		Cells: []models.HexCell{{
			Index:    models.CellIndex(0x8660e4a4fffffff),
			Boundary: [][2]float64{{77.6, 13.0}, {77.61, 13.0}, {77.61, 13.01}, {77.6, 13.0}},
			AreaKm2:  36.1,
		}},
	}
}

// decode round-trips a collection through JSON the way a browser sees it.
func decode(t *testing.T, fc *geojson.FeatureCollection) map[string]any {
	t.Helper()
	b, err := json.Marshal(fc)
	require.NoError(t, err)
	var out map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	return out
}

func TestPolygonCollection(t *testing.T) {
	result := sampleResult(t)
	fc := PolygonCollection(result.Polygons)
	require.Len(t, fc.Features, 2)

	assert.Equal(t, map[string]any{"pincode": "560001", "office": "GPO"}, fc.Features[0].Properties)
	assert.Equal(t, map[string]any{"pincode": "560002"}, fc.Features[1].Properties)
	assert.Same(t, result.Polygons[0].Geometry, fc.Features[0].Geometry)

	// source properties are copied, not aliased
	assert.NotContains(t, result.Polygons[0].Properties, "pincode")
}

func TestHexagonCollection(t *testing.T) {
	result := sampleResult(t)
	out := decode(t, HexagonCollection(result.Cells))

	features := out["features"].([]any)
	require.Len(t, features, 1)
	f := features[0].(map[string]any)

	props := f["properties"].(map[string]any)
	assert.Equal(t, "8660e4a4fffffff", props["hex_id"])
	assert.InDelta(t, 36.1, props["area_km2"], 1e-9)

	g := f["geometry"].(map[string]any)
	assert.Equal(t, "Polygon", g["type"])
	ring := g["coordinates"].([]any)[0].([]any)
	assert.Len(t, ring, 4)
	assert.Equal(t, []any{77.6, 13.0}, ring[0])
}

func TestHexagonCollection_KeepsDuplicates(t *testing.T) {
	cell := sampleResult(t).Cells[0]
	fc := HexagonCollection([]models.HexCell{cell, cell})
	assert.Len(t, fc.Features, 2)
}

func TestMarkerCollection(t *testing.T) {
	result := sampleResult(t)
	fc := MarkerCollection(result.Records)
	require.Len(t, fc.Features, 1)

	p, ok := fc.Features[0].Geometry.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, 77.6, p.X())
	assert.Equal(t, 13.0, p.Y())
	assert.Equal(t, "560001", fc.Features[0].Properties["pincode"])
	assert.Equal(t, "R1", fc.Features[0].Properties["Ref no"])
}

func TestTotalBounds(t *testing.T) {
	tests := []struct {
		name     string
		polygons []models.Polygon
		expected [2][2]float64
		ok       bool
	}{
		{
			name:     "two squares",
			polygons: sampleResult(t).Polygons,
			expected: [2][2]float64{{12.8, 77.5}, {13.1, 77.9}},
			ok:       true,
		},
		{
			name: "geometry collection alongside a square",
			polygons: []models.Polygon{
				{Identifier: "1", Geometry: geom.NewGeometryCollection().MustPush(geom.NewPointFlat(geom.XY, []float64{77.0, 12.0}))},
				{Identifier: "2", Geometry: square(t, 77.5, 12.9, 77.7, 13.1)},
			},
			expected: [2][2]float64{{12.0, 77.0}, {13.1, 77.7}},
			ok:       true,
		},
		{
			name:     "empty geometry collection",
			polygons: []models.Polygon{{Identifier: "1", Geometry: geom.NewGeometryCollection()}},
		},
		{
			name:     "geometry missing",
			polygons: []models.Polygon{{Identifier: "1"}},
		},
		{
			name: "no polygons",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				bounds [2][2]float64
				ok     bool
			)
			require.NotPanics(t, func() { bounds, ok = TotalBounds(tt.polygons) })
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.expected, bounds)
		})
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, sampleResult(t)))
	html := buf.String()

	assert.Contains(t, html, "leaflet.markercluster")
	assert.Contains(t, html, `"h3 Hexes": hexLayer`)
	assert.Contains(t, html, "8660e4a4fffffff")
	assert.Contains(t, html, "const bounds = [[12.8,77.5],[13.1,77.9]];")
	assert.Contains(t, html, `data-run-id="run-1"`)
	// record attributes are JSON-escaped inside the script
	assert.NotContains(t, html, "<b>Acme</b>")
	assert.Contains(t, html, `\u003cb\u003eAcme`)
}

func TestRender_WithoutBounds(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, &models.PipelineResult{}))
	assert.Contains(t, buf.String(), "const bounds = null;")
}

func TestRender_GeometryCollectionBoundary(t *testing.T) {
	result := sampleResult(t)
	result.Polygons = append(result.Polygons, models.Polygon{
		Identifier: "560009",
		Geometry:   geom.NewGeometryCollection().MustPush(geom.NewPointFlat(geom.XY, []float64{77.0, 12.0})),
	})

	var buf bytes.Buffer
	require.NotPanics(t, func() { require.NoError(t, Render(&buf, result)) })
	assert.Contains(t, buf.String(), "GeometryCollection")
	assert.Contains(t, buf.String(), "const bounds = [[12,77],[13.1,77.9]];")
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "pincode_map.html")
	require.NoError(t, WriteFile(path, sampleResult(t)))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "<!DOCTYPE html>")
}

func TestWriteGeoJSON(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "geojson")
	require.NoError(t, WriteGeoJSON(dir, sampleResult(t)))

	for _, name := range []string{"polygons.geojson", "records.geojson", "hexagons.geojson"} {
		b, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err, name)

		var fc geojson.FeatureCollection
		require.NoError(t, json.Unmarshal(b, &fc), name)
		assert.NotEmpty(t, fc.Features, name)
	}
}
