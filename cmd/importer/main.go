package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"pincode-hexmap/internal/config"
	"pincode-hexmap/internal/repository"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	file := flag.String("file", "", "Path to the GeoJSON or shapefile to import")
	idField := flag.String("id-field", "", "Boundary property holding the pincode (default POLYGON_ID_FIELD)")
	table := flag.String("table", "", "Target table (default POLYGON_TABLE)")
	flag.Parse()

	if *file == "" {
		fmt.Println("Error: --file flag is required")
		os.Exit(1)
	}

	// Load config
	cfg, err := config.ReadConfig("configs")
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}
	if !repository.IsPostgresSource(cfg.DBSource) {
		fmt.Println("Error: DB_SOURCE must be a postgres:// connection string")
		os.Exit(1)
	}
	if *idField == "" {
		*idField = cfg.PolygonIDField
	}
	if *table == "" {
		*table = cfg.PolygonTable
	}

	fmt.Printf("Starting import from file: %s\n", *file)

	src, err := repository.NewPolygonFileSource(*file, *idField)
	if err != nil {
		fmt.Printf("Error opening boundaries: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	polygons, err := src.LoadPolygons(ctx)
	if err != nil {
		fmt.Printf("Error parsing boundaries: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Parsed %d boundaries\n", len(polygons))

	// Connect to DB
	pool, err := pgxpool.New(ctx, cfg.DBSource)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	repo := repository.NewPolygonRepository(pool, *table)

	// Ensure table exists
	if err := repo.EnsureSchema(ctx); err != nil {
		fmt.Printf("Error creating table: %v\n", err)
		os.Exit(1)
	}

	before, err := repo.CountPolygons(ctx)
	if err != nil {
		fmt.Printf("Error counting boundaries: %v\n", err)
		os.Exit(1)
	}

	imported, err := repo.ImportPolygons(ctx, polygons)
	if err != nil {
		fmt.Printf("Error inserting boundaries: %v\n", err)
		os.Exit(1)
	}

	// Verify data
	after, err := repo.CountPolygons(ctx)
	if err != nil {
		fmt.Printf("Error verifying import: %v\n", err)
		os.Exit(1)
	}
	if after-before != imported {
		fmt.Printf("Error verifying import: boundary count mismatch: expected %d new rows, got %d\n", imported, after-before)
		os.Exit(1)
	}

	fmt.Printf("Successfully imported %d boundaries into %s\n", imported, *table)
}
