package service

import (
	"pincode-hexmap/internal/geo"
	"pincode-hexmap/internal/identifier"
	"pincode-hexmap/internal/metrics"
	"pincode-hexmap/internal/models"

	"github.com/rs/zerolog/log"
)

// SpatialJoinService matches location records to pincode boundaries
type SpatialJoinService struct{}

// NewSpatialJoinService creates a new spatial join service
func NewSpatialJoinService() *SpatialJoinService {
	return &SpatialJoinService{}
}

// FilterPolygons keeps the polygons whose normalized identifier appears among
// the record identifiers. Polygon order is preserved.
func (s *SpatialJoinService) FilterPolygons(polygons []models.Polygon, records []models.Record) []models.Polygon {
	keys := make(map[string]struct{}, len(records))
	for _, r := range records {
		key := identifier.Normalize(r.Identifier)
		if key == identifier.Missing {
			continue
		}
		keys[key] = struct{}{}
	}

	filtered := make([]models.Polygon, 0)
	for _, p := range polygons {
		key := identifier.Normalize(p.Identifier)
		if key == identifier.Missing {
			continue
		}
		if _, ok := keys[key]; ok {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// JoinRecords left-joins records onto polygons and places every match at
// the centroid of its polygon. Records without a usable geometry are
// dropped. A record matching several polygon rows yields one entry per row.
func (s *SpatialJoinService) JoinRecords(records []models.Record, polygons []models.Polygon) []models.MatchedRecord {
	type anchor struct {
		centroid geo.LatLng
		ok       bool
	}

	byKey := make(map[string][]anchor, len(polygons))
	for _, p := range polygons {
		key := identifier.Normalize(p.Identifier)
		if key == identifier.Missing {
			continue
		}

		c, err := geo.NewShape(p.Geometry).Centroid()
		if err != nil {
			log.Debug().Err(err).Str("pincode", key).Msg("polygon has no usable centroid")
		}
		byKey[key] = append(byKey[key], anchor{centroid: c, ok: err == nil})
	}

	matched := make([]models.MatchedRecord, 0, len(records))
	dropped := 0
	for _, r := range records {
		key := identifier.Normalize(r.Identifier)
		anchors := byKey[key]
		if key == identifier.Missing || len(anchors) == 0 {
			dropped++
			log.Debug().Int("row", r.Row).Str("pincode", key).Msg("record has no matching polygon")
			continue
		}

		joined := false
		for _, a := range anchors {
			if !a.ok {
				continue
			}
			matched = append(matched, models.MatchedRecord{
				Record:    r,
				Pincode:   key,
				Latitude:  a.centroid.Lat,
				Longitude: a.centroid.Lng,
			})
			joined = true
		}
		if !joined {
			dropped++
			log.Debug().Int("row", r.Row).Str("pincode", key).Msg("matching polygon has no geometry")
		}
	}

	metrics.MatchedRecordsTotal.Add(float64(len(matched)))
	metrics.DroppedRecordsTotal.Add(float64(dropped))

	return matched
}
