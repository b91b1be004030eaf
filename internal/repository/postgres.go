package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"pincode-hexmap/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"github.com/twpayne/go-geom/encoding/wkb"
)

// PolygonRepository stores and loads pincode boundaries in a PostGIS table
type PolygonRepository struct {
	db    *pgxpool.Pool
	table string
}

// NewPolygonRepository creates a new PostGIS polygon repository
func NewPolygonRepository(db *pgxpool.Pool, table string) *PolygonRepository {
	return &PolygonRepository{db: db, table: pq.QuoteIdentifier(table)}
}

// IsPostgresSource reports whether ref is a PostgreSQL connection string
// rather than a file path.
func IsPostgresSource(ref string) bool {
	return strings.HasPrefix(ref, "postgres://") || strings.HasPrefix(ref, "postgresql://")
}

// EnsureSchema creates the boundary table and its spatial index if absent
func (r *PolygonRepository) EnsureSchema(ctx context.Context) error {
	index := pq.QuoteIdentifier(strings.Trim(r.table, `"`) + "_geom_idx")
	query := fmt.Sprintf(`
	CREATE EXTENSION IF NOT EXISTS postgis;
	CREATE TABLE IF NOT EXISTS %[1]s (
		id BIGSERIAL PRIMARY KEY,
		pincode VARCHAR(32) NOT NULL,
		geom GEOMETRY(Geometry, 4326)
	);
	CREATE INDEX IF NOT EXISTS %[2]s ON %[1]s USING GIST (geom);
	`, r.table, index)

	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("repository: failed to create schema: %w", err)
	}
	return nil
}

// LoadPolygons reads every boundary row, decoding geometry from WKB
func (r *PolygonRepository) LoadPolygons(ctx context.Context) ([]models.Polygon, error) {
	sql := fmt.Sprintf(`
		SELECT
			pincode,
			ST_AsBinary(geom)
		FROM %s
		ORDER BY id
	`, r.table)

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute boundary query: %w", err)
	}
	defer rows.Close()

	var polygons []models.Polygon
	for rows.Next() {
		var (
			pincode string
			raw     []byte
		)
		if err := rows.Scan(&pincode, &raw); err != nil {
			return nil, fmt.Errorf("repository: failed to scan boundary: %w", err)
		}

		p := models.Polygon{Identifier: pincode}
		if raw != nil {
			g, err := wkb.Unmarshal(raw)
			if err != nil {
				return nil, fmt.Errorf("repository: failed to decode geometry of %s: %w", pincode, err)
			}
			p.Geometry = g
		}
		polygons = append(polygons, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}

	return polygons, nil
}

// ImportPolygons inserts boundaries in one batch and returns the number of
// rows written
func (r *PolygonRepository) ImportPolygons(ctx context.Context, polygons []models.Polygon) (int, error) {
	sql := fmt.Sprintf(`INSERT INTO %s (pincode, geom) VALUES ($1, ST_SetSRID(ST_GeomFromWKB($2), 4326))`, r.table)

	batch := &pgx.Batch{}
	for _, p := range polygons {
		var raw []byte
		if p.Geometry != nil {
			b, err := wkb.Marshal(p.Geometry, wkb.NDR)
			if err != nil {
				return 0, fmt.Errorf("repository: failed to encode geometry of %s: %w", p.Identifier, err)
			}
			raw = b
		}
		batch.Queue(sql, p.Identifier, raw)
	}

	results := r.db.SendBatch(ctx, batch)
	var errs []error
	for range polygons {
		if _, err := results.Exec(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := results.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return 0, fmt.Errorf("repository: failed to import boundaries: %w", errors.Join(errs...))
	}

	return len(polygons), nil
}

// CountPolygons returns the number of stored boundaries
func (r *PolygonRepository) CountPolygons(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", r.table)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("repository: failed to count boundaries: %w", err)
	}
	return count, nil
}
