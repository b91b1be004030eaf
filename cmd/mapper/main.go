package main

import (
	"context"
	"fmt"
	"os"

	"pincode-hexmap/internal/config"
	"pincode-hexmap/internal/geo"
	"pincode-hexmap/internal/logger"
	"pincode-hexmap/internal/mapview"
	"pincode-hexmap/internal/models"
	"pincode-hexmap/internal/repository"
	"pincode-hexmap/internal/service"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

type flags struct {
	configDir  string
	data       string
	boundaries string
	resolution int
	dedupe     bool
	output     string
	geojsonDir string
}

func main() {
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		log.Error().Err(err).Msg("mapper failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "mapper",
		Short: "Render located records, pincode boundaries and H3 hexagons as a map",
		Long: `mapper joins the record sheet to pincode boundaries once and writes
an interactive HTML map. Flags override the values from configs/app.env and
the environment.`,
		Example:       "  mapper --resolution 7 --dedupe --geojson-dir out/",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.ReadConfig(f.configDir)
			if err != nil {
				return err
			}
			applyFlags(cmd, f, &cfg)
			if err := cfg.Validate(); err != nil {
				return err
			}

			logger.Setup(cfg.LogLevel, cfg.LogFormat)
			return execute(cmd.Context(), cfg, f.geojsonDir)
		},
	}

	cmd.Flags().StringVar(&f.configDir, "config-dir", "./configs", "directory holding app.env")
	cmd.Flags().StringVar(&f.data, "data", "", "record sheet (.xlsx or .csv)")
	cmd.Flags().StringVar(&f.boundaries, "boundaries", "", "boundary file (.geojson, .shp) or postgres:// connection string")
	cmd.Flags().IntVarP(&f.resolution, "resolution", "r", 6, "H3 resolution (0-15)")
	cmd.Flags().BoolVar(&f.dedupe, "dedupe", false, "drop hexagons shared by several boundaries")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "HTML map path")
	cmd.Flags().StringVar(&f.geojsonDir, "geojson-dir", "", "also write the three GeoJSON layers into this directory")

	return cmd
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(cmd *cobra.Command, f *flags, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("data") {
		cfg.DataFilePath = f.data
	}
	if changed("boundaries") {
		cfg.ShapeFilePath = f.boundaries
	}
	if changed("resolution") {
		cfg.HexResolution = f.resolution
	}
	if changed("dedupe") {
		cfg.DeduplicateCells = f.dedupe
	}
	if changed("output") {
		cfg.OutputPath = f.output
	}
}

// execute runs the pipeline once and writes its artifacts. A run where no
// boundary matched writes nothing and is not an error.
func execute(ctx context.Context, cfg config.Config, geojsonDir string) error {
	polygons, closePolygons, err := repository.OpenPolygonSource(ctx, cfg.ShapeFilePath, cfg.PolygonIDField, cfg.PolygonTable)
	if err != nil {
		return err
	}
	defer closePolygons()

	records := repository.NewRecordFileSource(cfg.DataFilePath, cfg.RecordIDColumn)
	pipeline := service.NewPipelineService(records, polygons, geo.NewH3Grid(), models.RunOptions{
		Resolution:       cfg.HexResolution,
		DeduplicateCells: cfg.DeduplicateCells,
	})

	result, err := pipeline.Run(ctx, pipeline.Defaults())
	if err != nil {
		return err
	}
	if result.EmptyJoin {
		log.Warn().Str("run_id", result.RunID).Msg("nothing to render")
		return nil
	}

	if err := mapview.WriteFile(cfg.OutputPath, result); err != nil {
		return err
	}
	log.Info().Str("run_id", result.RunID).Str("path", cfg.OutputPath).Msg("map written")

	if geojsonDir != "" {
		if err := mapview.WriteGeoJSON(geojsonDir, result); err != nil {
			return err
		}
		log.Info().Str("run_id", result.RunID).Str("dir", geojsonDir).Msg("geojson layers written")
	}

	fmt.Printf("%d records on %d boundaries, %d hexagons at resolution %d\n",
		len(result.Records), len(result.Polygons), len(result.Cells), result.Options.Resolution)
	return nil
}
