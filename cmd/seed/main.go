package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/leafsii/georef/internal/config"
	gdb "github.com/leafsii/georef/internal/db"
	"github.com/leafsii/georef/internal/geo"
	"github.com/leafsii/georef/internal/log"
	"github.com/leafsii/georef/internal/repository"
	"github.com/leafsii/georef/internal/seed"
)

var (
	file    = flag.String("file", "", "seed YAML file (defaults to the bundled reference data)")
	migrate = flag.Bool("migrate", true, "apply migrations before seeding")
	show    = flag.String("show", "", "print the countries of a continent code after seeding")
)

func main() {
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := log.NewSugar(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ds, err := loadDataset(*file)
	if err != nil {
		logger.Fatalw("Failed to load seed data", "file", *file, "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	database, err := gdb.NewDatabase(cfg.Database.DB(), logger)
	if err != nil {
		logger.Fatalw("Failed to create database", "error", err)
	}
	if *migrate || cfg.Database.Engine() == "memory" {
		err = gdb.ConnectAndMigrate(ctx, database, gdb.AllSchemas())
	} else {
		err = database.Connect(ctx)
	}
	if err != nil {
		logger.Fatalw("Failed to initialize database", "error", err)
	}
	defer database.Disconnect(context.Background())

	geoSvc := geo.NewService(logger, nil)
	summary, err := seed.NewRunner(geoSvc, logger).Seed(ctx, database, ds)
	if err != nil {
		logger.Fatalw("Seeding failed", "error", err)
	}
	fmt.Printf("Seeded %d continents and %d countries\n", summary.Continents, summary.Countries)

	if *show == "" {
		return
	}

	session, err := database.Fork(ctx)
	if err != nil {
		logger.Fatalw("Failed to open session", "error", err)
	}
	defer session.Close()

	page := geoSvc.CountriesByContinentPaged(ctx, session, *show, repository.PageRequest{
		PageNumber: 1,
		PageSize:   50,
		OrderBy:    "countryName",
	})
	countries, err := page.Data()
	if err != nil {
		logger.Fatalw("Failed to list countries", "continentCode", *show, "error", err)
	}
	fmt.Printf("\n%s: %d countries\n", *show, page.TotalItems())
	for _, c := range countries {
		fmt.Printf("  - %s (%s)\n", c.CountryName, c.CountryCode)
	}
}

func loadDataset(path string) (*seed.Dataset, error) {
	if path == "" {
		return seed.Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return seed.Parse(raw)
}
