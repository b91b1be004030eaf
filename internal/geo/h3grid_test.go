package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

// bangalore is roughly 22 km x 22 km around 13°N.
var bangalore = square(77.5, 12.9, 77.7, 13.1)

// approxAreaKm2 is the spherical area of an axis-aligned lon/lat box.
func approxAreaKm2(minLng, minLat, maxLng, maxLat float64) float64 {
	const earthRadiusKm = 6371.007180918475
	rad := math.Pi / 180
	return earthRadiusKm * earthRadiusKm * (maxLng - minLng) * rad *
		math.Abs(math.Sin(maxLat*rad)-math.Sin(minLat*rad))
}

func TestH3Grid_CellsCovering(t *testing.T) {
	grid := NewH3Grid()

	cells, err := grid.CellsCovering(bangalore, 6)
	require.NoError(t, err)
	assert.NotEmpty(t, cells)

	again, err := grid.CellsCovering(bangalore, 6)
	require.NoError(t, err)
	assert.Equal(t, cells, again)
}

func TestH3Grid_CellsCovering_InvalidResolution(t *testing.T) {
	grid := NewH3Grid()

	for _, res := range []int{-1, 16} {
		_, err := grid.CellsCovering(bangalore, res)
		assert.Error(t, err, "resolution %d", res)
	}
}

func TestH3Grid_CellsCovering_Degenerate(t *testing.T) {
	grid := NewH3Grid()

	cells, err := grid.CellsCovering(nil, 6)
	require.NoError(t, err)
	assert.Empty(t, cells)

	cells, err = grid.CellsCovering(geom.NewPolygon(geom.XY), 6)
	require.NoError(t, err)
	assert.Empty(t, cells)
}

func TestH3Grid_HoleIsExcluded(t *testing.T) {
	grid := NewH3Grid()

	withHole := geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{
		{{77.5, 12.9}, {77.7, 12.9}, {77.7, 13.1}, {77.5, 13.1}, {77.5, 12.9}},
		{{77.55, 12.95}, {77.55, 13.05}, {77.65, 13.05}, {77.65, 12.95}, {77.55, 12.95}},
	})

	full, err := grid.CellsCovering(bangalore, 8)
	require.NoError(t, err)
	holed, err := grid.CellsCovering(withHole, 8)
	require.NoError(t, err)

	assert.Less(t, len(holed), len(full))
}

func TestH3Grid_CountMonotonicInResolution(t *testing.T) {
	grid := NewH3Grid()

	prev := 0
	for res := 4; res <= 8; res++ {
		cells, err := grid.CellsCovering(bangalore, res)
		require.NoError(t, err)
		assert.GreaterOrEqual(t, len(cells), prev, "resolution %d", res)
		prev = len(cells)
	}
}

func TestH3Grid_TotalAreaApproximatesPolygon(t *testing.T) {
	grid := NewH3Grid()
	want := approxAreaKm2(77.5, 12.9, 77.7, 13.1)

	for _, res := range []int{7, 8} {
		cells, err := grid.CellsCovering(bangalore, res)
		require.NoError(t, err)

		total := 0.0
		for _, c := range cells {
			area, err := grid.AreaOf(c)
			require.NoError(t, err)
			total += area
		}
		assert.InEpsilon(t, want, total, 0.15, "resolution %d", res)
	}
}

func TestH3Grid_BoundaryOf(t *testing.T) {
	grid := NewH3Grid()

	cells, err := grid.CellsCovering(bangalore, 6)
	require.NoError(t, err)
	require.NotEmpty(t, cells)

	ring, err := grid.BoundaryOf(cells[0])
	require.NoError(t, err)

	// hexagon (or pentagon) plus the closing vertex
	assert.GreaterOrEqual(t, len(ring), 6)
	assert.Equal(t, ring[0], ring[len(ring)-1])
	for _, v := range ring {
		assert.InDelta(t, 77.6, v[0], 1.0, "longitude first")
		assert.InDelta(t, 13.0, v[1], 1.0, "latitude second")
	}
}

func TestH3Grid_AreaOf(t *testing.T) {
	grid := NewH3Grid()

	cells, err := grid.CellsCovering(bangalore, 6)
	require.NoError(t, err)
	require.NotEmpty(t, cells)

	polygonArea := approxAreaKm2(77.5, 12.9, 77.7, 13.1)
	for _, c := range cells {
		area, err := grid.AreaOf(c)
		require.NoError(t, err)
		assert.Greater(t, area, 0.0)
		assert.Less(t, area, polygonArea)
	}
}
