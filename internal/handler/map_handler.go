package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"pincode-hexmap/internal/mapview"
	"pincode-hexmap/internal/models"
	"pincode-hexmap/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	contentTypeGeoJSON = "application/geo+json"
	contentTypeHTML    = "text/html; charset=utf-8"
)

// MapService interface for dependency injection
type MapService interface {
	Run(ctx context.Context, opts models.RunOptions) (*models.PipelineResult, error)
	Join(ctx context.Context) (*models.PipelineResult, error)
	Defaults() models.RunOptions
}

// ResponseCache interface for dependency injection
type ResponseCache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, payload []byte) error
}

// MapHandler serves the map payloads of a pipeline run
type MapHandler struct {
	service MapService
	cache   ResponseCache
}

// NewMapHandler creates a new map handler. cache may be nil.
func NewMapHandler(svc MapService, cache ResponseCache) *MapHandler {
	return &MapHandler{service: svc, cache: cache}
}

// Polygons godoc
// @Summary      Matched pincode boundaries
// @Description  Boundary polygons whose pincode occurs in the record sheet
// @Tags         map
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /polygons [get]
func (h *MapHandler) Polygons(c *gin.Context) {
	const key = "polygons"
	if h.serveCached(c, key, contentTypeGeoJSON) {
		return
	}

	result, ok := h.join(c)
	if !ok {
		return
	}
	h.writeGeoJSON(c, key, mapview.PolygonCollection(result.Polygons))
}

// Records godoc
// @Summary      Located records
// @Description  Records placed at the centroid of their pincode boundary
// @Tags         map
// @Produce      json
// @Success      200  {object}  map[string]any
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /records [get]
func (h *MapHandler) Records(c *gin.Context) {
	const key = "records"
	if h.serveCached(c, key, contentTypeGeoJSON) {
		return
	}

	result, ok := h.join(c)
	if !ok {
		return
	}
	h.writeGeoJSON(c, key, mapview.MarkerCollection(result.Records))
}

// Hexagons godoc
// @Summary      Hexagon tessellation
// @Description  H3 cells covering the matched boundaries
// @Tags         map
// @Produce      json
// @Param        resolution  query     int   false  "H3 resolution (0-15)"
// @Param        dedupe      query     bool  false  "Drop cells shared by several boundaries"
// @Success      200  {object}  map[string]any
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /hexagons [get]
func (h *MapHandler) Hexagons(c *gin.Context) {
	opts, ok := h.options(c)
	if !ok {
		return
	}

	key := cacheKey("hexagons", opts)
	if h.serveCached(c, key, contentTypeGeoJSON) {
		return
	}

	result, ok := h.run(c, opts)
	if !ok {
		return
	}
	h.writeGeoJSON(c, key, mapview.HexagonCollection(result.Cells))
}

// Map godoc
// @Summary      Interactive map
// @Description  Leaflet page with boundaries, hexagons and clustered records
// @Tags         map
// @Produce      html
// @Param        resolution  query     int   false  "H3 resolution (0-15)"
// @Param        dedupe      query     bool  false  "Drop cells shared by several boundaries"
// @Success      200  {string}  string
// @Failure      400  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /map [get]
func (h *MapHandler) Map(c *gin.Context) {
	opts, ok := h.options(c)
	if !ok {
		return
	}

	key := cacheKey("map", opts)
	if h.serveCached(c, key, contentTypeHTML) {
		return
	}

	result, ok := h.run(c, opts)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := mapview.Render(&buf, result); err != nil {
		log.Error().Err(err).Str("run_id", result.RunID).Msg("failed to render map")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.store(c, key, buf.Bytes())
	c.Data(http.StatusOK, contentTypeHTML, buf.Bytes())
}

// options reads resolution and dedupe from the query, falling back to the
// service defaults.
func (h *MapHandler) options(c *gin.Context) (models.RunOptions, bool) {
	opts := h.service.Defaults()

	if raw := c.Query("resolution"); raw != "" {
		res, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'resolution' parameter"})
			return opts, false
		}
		opts.Resolution = res
	}

	if raw := c.Query("dedupe"); raw != "" {
		dedupe, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid 'dedupe' parameter"})
			return opts, false
		}
		opts.DeduplicateCells = dedupe
	}

	return opts, true
}

func (h *MapHandler) run(c *gin.Context, opts models.RunOptions) (*models.PipelineResult, bool) {
	result, err := h.service.Run(c.Request.Context(), opts)
	return h.check(c, result, err)
}

// join skips tessellation; boundaries and records do not depend on it.
func (h *MapHandler) join(c *gin.Context) (*models.PipelineResult, bool) {
	result, err := h.service.Join(c.Request.Context())
	return h.check(c, result, err)
}

func (h *MapHandler) check(c *gin.Context, result *models.PipelineResult, err error) (*models.PipelineResult, bool) {
	switch {
	case errors.Is(err, service.ErrInvalidResolution):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, false
	case err != nil:
		log.Error().Err(err).Msg("pipeline run failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return nil, false
	case result.EmptyJoin:
		c.JSON(http.StatusNotFound, gin.H{"error": "no boundary matches any record pincode"})
		return nil, false
	}
	return result, true
}

func (h *MapHandler) writeGeoJSON(c *gin.Context, key string, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode payload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	h.store(c, key, b)
	c.Data(http.StatusOK, contentTypeGeoJSON, b)
}

func (h *MapHandler) serveCached(c *gin.Context, key, contentType string) bool {
	if h.cache == nil {
		return false
	}

	payload, ok, err := h.cache.Get(c.Request.Context(), key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache lookup failed")
		return false
	}
	if !ok {
		return false
	}

	c.Data(http.StatusOK, contentType, payload)
	return true
}

func (h *MapHandler) store(c *gin.Context, key string, payload []byte) {
	if h.cache == nil {
		return
	}
	if err := h.cache.Set(c.Request.Context(), key, payload); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache store failed")
	}
}

func cacheKey(route string, opts models.RunOptions) string {
	return fmt.Sprintf("%s:%d:%t", route, opts.Resolution, opts.DeduplicateCells)
}
