package models

import "strconv"

// CellIndex is a hexagonal grid cell index.
type CellIndex uint64

// String returns the lowercase hexadecimal form used by H3 tooling.
func (c CellIndex) String() string {
	return strconv.FormatUint(uint64(c), 16)
}

// HexCell is a single tessellation cell. Boundary is a closed ring of
// [lon, lat] pairs with the first vertex repeated at the end.
type HexCell struct {
	Index    CellIndex    `json:"hex_id"`
	Boundary [][2]float64 `json:"boundary"`
	AreaKm2  float64      `json:"area_km2"`
}

// PolygonCoverage summarises the cells one polygon contributed before any
// cross-polygon deduplication.
type PolygonCoverage struct {
	Pincode string  `json:"pincode"`
	Cells   int     `json:"cells"`
	AreaKm2 float64 `json:"area_km2"`
}
