package main

import (
	"context"
	"net/http"

	"pincode-hexmap/docs"
	"pincode-hexmap/internal/cache"
	"pincode-hexmap/internal/config"
	"pincode-hexmap/internal/geo"
	"pincode-hexmap/internal/handler"
	"pincode-hexmap/internal/logger"
	"pincode-hexmap/internal/metrics"
	"pincode-hexmap/internal/models"
	"pincode-hexmap/internal/repository"
	"pincode-hexmap/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// @title        Pincode Hex Map API
// @version      1.0
// @description  Joins location records to pincode boundaries and tessellates them into H3 hexagons.
// @BasePath     /
func main() {
	config, err := config.LoadConfig("./configs")
	if err != nil {
		log.Fatal().Err(err).Msg("cannot load config")
	}
	logger.Setup(config.LogLevel, config.LogFormat)

	ctx := context.Background()

	// Boundary source: PostGIS when SHAPE_FILE_PATH is a connection string
	polygons, closePolygons, err := repository.OpenPolygonSource(ctx, config.ShapeFilePath, config.PolygonIDField, config.PolygonTable)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot open boundary source")
	}
	defer closePolygons()

	redisCache, err := cache.NewResponseCache(ctx, config.RedisAddr, config.RedisPassword, config.RedisDB, config.CacheTTL)
	if err != nil {
		log.Fatal().Err(err).Msg("cannot connect to redis")
	}
	defer redisCache.Close()

	// Initialize layers
	records := repository.NewRecordFileSource(config.DataFilePath, config.RecordIDColumn)
	pipeline := service.NewPipelineService(records, polygons, geo.NewH3Grid(), models.RunOptions{
		Resolution:       config.HexResolution,
		DeduplicateCells: config.DeduplicateCells,
	})

	// A nil *cache.ResponseCache must not reach the handler as a non-nil interface.
	var responseCache handler.ResponseCache
	if redisCache != nil {
		responseCache = redisCache
	}
	mapHandler := handler.NewMapHandler(pipeline, responseCache)

	r := gin.Default()

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
		})
	})

	r.GET("/polygons", mapHandler.Polygons)
	r.GET("/records", mapHandler.Records)
	r.GET("/hexagons", mapHandler.Hexagons)
	r.GET("/map", mapHandler.Map)

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	docs.SwaggerInfo.BasePath = "/"
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	log.Info().Str("address", config.ServerAddress).Msg("starting server")
	if err := r.Run(config.ServerAddress); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
