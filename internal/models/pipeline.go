package models

// RunOptions tunes a single pipeline run.
type RunOptions struct {
	Resolution       int  `json:"resolution"`
	DeduplicateCells bool `json:"deduplicate_cells"`
}

// PipelineResult holds the three map payloads produced by one run.
// EmptyJoin is set when no boundary matched any record; the other slices are
// then empty and nothing should be rendered.
type PipelineResult struct {
	RunID     string            `json:"run_id"`
	Options   RunOptions        `json:"options"`
	Polygons  []Polygon         `json:"polygons"`
	Records   []MatchedRecord   `json:"records"`
	Cells     []HexCell         `json:"cells"`
	Coverage  []PolygonCoverage `json:"coverage"`
	EmptyJoin bool              `json:"empty_join"`
}
