package repository

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"pincode-hexmap/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PolygonLoader is implemented by every boundary source in this package.
type PolygonLoader interface {
	LoadPolygons(ctx context.Context) ([]models.Polygon, error)
}

// NewPolygonFileSource picks the boundary reader for path by its extension.
func NewPolygonFileSource(path, idField string) (PolygonLoader, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".geojson", ".json":
		return NewGeoJSONPolygonSource(path, idField), nil
	case ".shp":
		return NewShapefilePolygonSource(path, idField), nil
	default:
		return nil, fmt.Errorf("repository: unsupported boundary file type %q", ext)
	}
}

// OpenPolygonSource resolves ref to a boundary source. A PostgreSQL
// connection string opens a pool on table; anything else is treated as a
// file path. The returned close func releases the pool, if any.
func OpenPolygonSource(ctx context.Context, ref, idField, table string) (PolygonLoader, func(), error) {
	if !IsPostgresSource(ref) {
		src, err := NewPolygonFileSource(ref, idField)
		return src, func() {}, err
	}

	pool, err := pgxpool.New(ctx, ref)
	if err != nil {
		return nil, nil, fmt.Errorf("repository: cannot connect to db: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("repository: cannot reach db: %w", err)
	}
	return NewPolygonRepository(pool, table), pool.Close, nil
}
