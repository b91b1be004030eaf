package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	PipelineRunsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hexmap_pipeline_runs_total",
		Help: "Pipeline runs by outcome (ok, empty, error)",
	}, []string{"status"})
	PipelineDurationSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "hexmap_pipeline_duration_seconds",
		Help:    "Wall time of a full pipeline run",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	})
	MatchedRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hexmap_matched_records_total",
		Help: "Records joined to a boundary polygon",
	})
	DroppedRecordsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hexmap_dropped_records_total",
		Help: "Records without a matching polygon or geometry",
	})
	HexCellsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "hexmap_hex_cells_total",
		Help: "Hexagon cells emitted, by resolution",
	}, []string{"resolution"})
	SkippedGeometriesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hexmap_skipped_geometries_total",
		Help: "Polygons skipped by the tessellator because of their geometry kind",
	})
	CacheHitsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hexmap_cache_hits_total",
		Help: "Response cache hits",
	})
	CacheMissesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "hexmap_cache_misses_total",
		Help: "Response cache misses",
	})
)

func init() {
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(PipelineDurationSeconds)
	prometheus.MustRegister(MatchedRecordsTotal)
	prometheus.MustRegister(DroppedRecordsTotal)
	prometheus.MustRegister(HexCellsTotal)
	prometheus.MustRegister(SkippedGeometriesTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(CacheMissesTotal)
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
