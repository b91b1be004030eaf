package service

import (
	"errors"
	"fmt"
	"strconv"

	"pincode-hexmap/internal/geo"
	"pincode-hexmap/internal/identifier"
	"pincode-hexmap/internal/metrics"
	"pincode-hexmap/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/twpayne/go-geom"
)

// ErrInvalidResolution is returned when a run asks for a grid resolution the
// grid does not support.
var ErrInvalidResolution = errors.New("service: invalid hex resolution")

// HexGrid interface for dependency injection
type HexGrid interface {
	CellsCovering(poly *geom.Polygon, resolution int) ([]models.CellIndex, error)
	BoundaryOf(idx models.CellIndex) ([][2]float64, error)
	AreaOf(idx models.CellIndex) (float64, error)
}

var _ HexGrid = geo.H3Grid{}

// Tessellation is the output of one tessellation pass.
type Tessellation struct {
	Cells    []models.HexCell
	Coverage []models.PolygonCoverage
}

// TessellationService covers boundary polygons with hexagonal cells
type TessellationService struct {
	grid HexGrid
}

// NewTessellationService creates a new tessellation service
func NewTessellationService(grid HexGrid) *TessellationService {
	return &TessellationService{grid: grid}
}

// Tessellate covers every polygon in order and returns one HexCell per
// accumulated index. Cells shared by adjacent polygons are emitted once per
// polygon unless opts.DeduplicateCells is set.
func (s *TessellationService) Tessellate(polygons []models.Polygon, opts models.RunOptions) (*Tessellation, error) {
	if !geo.ValidResolution(opts.Resolution) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidResolution, opts.Resolution)
	}

	cache := newCellCache(s.grid)
	indices := make([]models.CellIndex, 0)
	coverage := make([]models.PolygonCoverage, 0, len(polygons))

	for _, p := range polygons {
		cells, err := s.CoverPolygon(p, opts.Resolution)
		if err != nil {
			return nil, err
		}

		cov := models.PolygonCoverage{Pincode: identifier.Normalize(p.Identifier), Cells: len(cells)}
		for _, idx := range cells {
			area, err := cache.area(idx)
			if err != nil {
				return nil, fmt.Errorf("service: tessellate %s: %w", cov.Pincode, err)
			}
			cov.AreaKm2 += area
		}

		coverage = append(coverage, cov)
		indices = append(indices, cells...)
	}

	if opts.DeduplicateCells {
		indices = dedupe(indices)
	}

	out := make([]models.HexCell, 0, len(indices))
	for _, idx := range indices {
		boundary, err := cache.boundary(idx)
		if err != nil {
			return nil, fmt.Errorf("service: tessellate: %w", err)
		}
		area, err := cache.area(idx)
		if err != nil {
			return nil, fmt.Errorf("service: tessellate: %w", err)
		}
		out = append(out, models.HexCell{Index: idx, Boundary: boundary, AreaKm2: area})
	}

	metrics.HexCellsTotal.WithLabelValues(strconv.Itoa(opts.Resolution)).Add(float64(len(out)))

	return &Tessellation{Cells: out, Coverage: coverage}, nil
}

// CoverPolygon returns the cells of a single polygon. Multi-polygons are
// covered part by part and concatenated without deduplication; other
// geometry kinds yield no cells.
func (s *TessellationService) CoverPolygon(p models.Polygon, resolution int) ([]models.CellIndex, error) {
	var shape geo.Geometry = geo.NewShape(p.Geometry)
	if shape.Kind() == geo.KindUnsupported {
		metrics.SkippedGeometriesTotal.Inc()
		log.Debug().Str("pincode", p.Identifier).Msgf("skipping %T geometry", p.Geometry)
		return nil, nil
	}

	var cells []models.CellIndex
	for part := range shape.Parts() {
		partCells, err := s.grid.CellsCovering(part, resolution)
		if err != nil {
			return nil, fmt.Errorf("service: cover %s: %w", p.Identifier, err)
		}
		cells = append(cells, partCells...)
	}
	return cells, nil
}

func dedupe(indices []models.CellIndex) []models.CellIndex {
	seen := make(map[models.CellIndex]struct{}, len(indices))
	out := make([]models.CellIndex, 0, len(indices))
	for _, idx := range indices {
		if _, ok := seen[idx]; ok {
			continue
		}
		seen[idx] = struct{}{}
		out = append(out, idx)
	}
	return out
}

// cellCache memoises grid lookups for the lifetime of one tessellation.
type cellCache struct {
	grid       HexGrid
	areas      map[models.CellIndex]float64
	boundaries map[models.CellIndex][][2]float64
}

func newCellCache(grid HexGrid) *cellCache {
	return &cellCache{
		grid:       grid,
		areas:      make(map[models.CellIndex]float64),
		boundaries: make(map[models.CellIndex][][2]float64),
	}
}

func (c *cellCache) area(idx models.CellIndex) (float64, error) {
	if a, ok := c.areas[idx]; ok {
		return a, nil
	}
	a, err := c.grid.AreaOf(idx)
	if err != nil {
		return 0, err
	}
	c.areas[idx] = a
	return a, nil
}

func (c *cellCache) boundary(idx models.CellIndex) ([][2]float64, error) {
	if b, ok := c.boundaries[idx]; ok {
		return b, nil
	}
	b, err := c.grid.BoundaryOf(idx)
	if err != nil {
		return nil, err
	}
	c.boundaries[idx] = b
	return b, nil
}
