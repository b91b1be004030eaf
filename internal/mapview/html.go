package mapview

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"html/template"
	"io"
	"os"
	"path/filepath"

	"pincode-hexmap/internal/models"
)

//go:embed map.html.tmpl
var mapTemplate string

var page = template.Must(template.New("map").Parse(mapTemplate))

const defaultZoom = 10

type pageData struct {
	Title     string
	RunID     string
	Polygons  template.JS
	Hexagons  template.JS
	Markers   template.JS
	Bounds    template.JS
	CenterLat float64
	CenterLng float64
	Zoom      int
}

// Render writes the interactive map for result to w.
func Render(w io.Writer, result *models.PipelineResult) error {
	data := pageData{
		Title:  "Pincode map",
		RunID:  result.RunID,
		Bounds: "null",
		Zoom:   defaultZoom,
	}

	var err error
	if data.Polygons, err = marshalJS(PolygonCollection(result.Polygons)); err != nil {
		return err
	}
	if data.Hexagons, err = marshalJS(HexagonCollection(result.Cells)); err != nil {
		return err
	}
	if data.Markers, err = marshalJS(MarkerCollection(result.Records)); err != nil {
		return err
	}

	if b, ok := TotalBounds(result.Polygons); ok {
		if data.Bounds, err = marshalJS(b); err != nil {
			return err
		}
		data.CenterLat = (b[0][0] + b[1][0]) / 2
		data.CenterLng = (b[0][1] + b[1][1]) / 2
	}

	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("mapview: failed to render map: %w", err)
	}
	return nil
}

// WriteFile renders the map into path, creating parent directories. The
// file is only replaced once rendering has succeeded.
func WriteFile(path string, result *models.PipelineResult) error {
	var buf bytes.Buffer
	if err := Render(&buf, result); err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mapview: failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("mapview: failed to write %s: %w", path, err)
	}
	return nil
}

// WriteGeoJSON writes the three payloads of result as polygons.geojson,
// records.geojson and hexagons.geojson under dir.
func WriteGeoJSON(dir string, result *models.PipelineResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mapview: failed to create output directory: %w", err)
	}

	payloads := []struct {
		name string
		v    any
	}{
		{"polygons.geojson", PolygonCollection(result.Polygons)},
		{"records.geojson", MarkerCollection(result.Records)},
		{"hexagons.geojson", HexagonCollection(result.Cells)},
	}
	for _, p := range payloads {
		b, err := json.Marshal(p.v)
		if err != nil {
			return fmt.Errorf("mapview: failed to encode %s: %w", p.name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, p.name), b, 0o644); err != nil {
			return fmt.Errorf("mapview: failed to write %s: %w", p.name, err)
		}
	}
	return nil
}

// json.Marshal escapes <, > and &, so the output is safe inside <script>.
func marshalJS(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("mapview: failed to encode layer: %w", err)
	}
	return template.JS(b), nil
}
