package service

import (
	"context"
	"fmt"
	"time"

	"pincode-hexmap/internal/geo"
	"pincode-hexmap/internal/metrics"
	"pincode-hexmap/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// RecordSource interface for dependency injection
type RecordSource interface {
	LoadRecords(ctx context.Context) ([]models.Record, error)
}

// PolygonSource interface for dependency injection
type PolygonSource interface {
	LoadPolygons(ctx context.Context) ([]models.Polygon, error)
}

// PipelineService runs load, join and tessellation as one batch
type PipelineService struct {
	records     RecordSource
	polygons    PolygonSource
	join        *SpatialJoinService
	tessellator *TessellationService
	defaults    models.RunOptions
}

// NewPipelineService creates a new pipeline service. defaults apply to runs
// that do not override them.
func NewPipelineService(records RecordSource, polygons PolygonSource, grid HexGrid, defaults models.RunOptions) *PipelineService {
	return &PipelineService{
		records:     records,
		polygons:    polygons,
		join:        NewSpatialJoinService(),
		tessellator: NewTessellationService(grid),
		defaults:    defaults,
	}
}

// Defaults returns the run options used when a caller does not override them
func (s *PipelineService) Defaults() models.RunOptions {
	return s.defaults
}

// Run executes the pipeline once. When no polygon matches any record the
// result has EmptyJoin set and carries no records or cells; that is not an
// error.
func (s *PipelineService) Run(ctx context.Context, opts models.RunOptions) (result *models.PipelineResult, err error) {
	if !geo.ValidResolution(opts.Resolution) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResolution, opts.Resolution)
	}

	start := time.Now()
	defer func() { observe(start, result, err) }()

	result, err = s.joined(ctx, opts)
	if err != nil || result.EmptyJoin {
		return result, err
	}

	tess, err := s.tessellator.Tessellate(result.Polygons, opts)
	if err != nil {
		return nil, err
	}
	result.Cells = tess.Cells
	result.Coverage = tess.Coverage

	log.Info().
		Str("run_id", result.RunID).
		Int("matched", len(result.Records)).
		Int("polygons", len(result.Polygons)).
		Int("cells", len(tess.Cells)).
		Int("resolution", opts.Resolution).
		Bool("deduplicate", opts.DeduplicateCells).
		Dur("took", time.Since(start)).
		Msg("pipeline finished")

	return result, nil
}

// Join loads both sources and places the records on their boundaries
// without tessellating. Cells and Coverage stay empty.
func (s *PipelineService) Join(ctx context.Context) (result *models.PipelineResult, err error) {
	start := time.Now()
	defer func() { observe(start, result, err) }()

	return s.joined(ctx, s.defaults)
}

func (s *PipelineService) joined(ctx context.Context, opts models.RunOptions) (*models.PipelineResult, error) {
	runID := uuid.NewString()
	logger := log.With().Str("run_id", runID).Logger()

	records, err := s.records.LoadRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load records: %w", err)
	}
	polygons, err := s.polygons.LoadPolygons(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load polygons: %w", err)
	}

	result := &models.PipelineResult{
		RunID:    runID,
		Options:  opts,
		Polygons: []models.Polygon{},
		Records:  []models.MatchedRecord{},
		Cells:    []models.HexCell{},
		Coverage: []models.PolygonCoverage{},
	}

	filtered := s.join.FilterPolygons(polygons, records)
	if len(filtered) == 0 {
		logger.Warn().
			Int("records", len(records)).
			Int("polygons", len(polygons)).
			Msg("no polygon matched the record pincodes; check that both sides use the same pincode format")
		result.EmptyJoin = true
		return result, nil
	}

	result.Polygons = filtered
	result.Records = s.join.JoinRecords(records, polygons)

	logger.Debug().
		Int("records", len(records)).
		Int("matched", len(result.Records)).
		Int("polygons", len(filtered)).
		Msg("records joined")

	return result, nil
}

func observe(start time.Time, result *models.PipelineResult, err error) {
	status := "ok"
	switch {
	case err != nil:
		status = "error"
	case result.EmptyJoin:
		status = "empty"
	}
	metrics.PipelineRunsTotal.WithLabelValues(status).Inc()
	metrics.PipelineDurationSeconds.Observe(time.Since(start).Seconds())
}
