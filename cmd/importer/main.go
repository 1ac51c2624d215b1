package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"nearby-imagery-api/internal/cache"
	"nearby-imagery-api/internal/config"
	"nearby-imagery-api/internal/logger"
	"nearby-imagery-api/internal/models"
	"nearby-imagery-api/internal/provider"
	"nearby-imagery-api/internal/refresh"
	"nearby-imagery-api/internal/repository"
	"nearby-imagery-api/internal/service"
)

// SeedPoint is one row of the seed CSV.
type SeedPoint struct {
	Name     string
	Lat      float64
	Lon      float64
	RadiusKm float64
}

func main() {
	file := flag.String("file", "", "Path to the CSV file of seed points")
	configDir := flag.String("config", "configs", "Directory containing app.env")
	flag.Parse()

	if *file == "" {
		fmt.Println("Error: --file flag is required")
		os.Exit(1)
	}

	fmt.Printf("Starting seed import from file: %s\n", *file)

	points, err := parseCSV(*file)
	if err != nil {
		fmt.Printf("Error parsing CSV: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Parsed %d seed points\n", len(points))

	// Load config
	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		fmt.Printf("Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	log := logger.New(cfg.LogLevel, cfg.LogFormat)

	// Connect to DB
	repo, closeDB, err := repository.Open(ctx, cfg.DBDriver, cfg.DBSource)
	if err != nil {
		fmt.Printf("Error connecting to database: %v\n", err)
		os.Exit(1)
	}
	defer closeDB()

	providers := provider.NewSet(provider.Options{
		StreetLevel: provider.StreetLevelOptions{
			AccessToken: cfg.MapillaryAccessToken,
			BaseURL:     cfg.MapillaryBaseURL,
			Limit:       cfg.MapillaryLimit,
		},
		SyntheticMap: provider.SyntheticMapOptions{
			AccessToken: cfg.MapboxAccessToken,
			BaseURL:     cfg.MapboxBaseURL,
			Style:       cfg.MapboxStyle,
			Zoom:        cfg.MapboxZoom,
			SampleCount: cfg.MapboxSampleCount,
		},
	})
	if len(providers) == 0 {
		fmt.Println("Error: no provider access tokens configured")
		os.Exit(1)
	}

	limits := service.QueryLimits{
		DefaultRadiusKm: cfg.DefaultRadiusKm,
		MaxRadiusKm:     cfg.MaxRadiusKm,
		DefaultLimit:    cfg.DefaultLimit,
		MaxLimit:        cfg.MaxLimit,
	}
	imagery := service.NewImageryService(providers, nil, cfg.ProviderTimeout, log)
	imagery.SetLimits(limits)
	store := cache.NewStore(repo)
	orchestrator := refresh.New(imagery, store, nil, refresh.Options{Timeout: cfg.RefreshTimeout}, log)
	populator := service.NewCacheService(store, imagery, orchestrator, service.CacheServiceOptions{
		Freshness: cache.NewFreshnessPolicy(cfg.CacheMaxAge),
		Limits:    limits,
	}, log)

	total, failed := importPoints(ctx, populator, points, limits.DefaultRadiusKm)

	fmt.Printf("Stored %d records from %d seed points (%d failed)\n", total, len(points), failed)
	if failed > 0 {
		os.Exit(1)
	}
}

// Populator stores aggregated imagery for one point.
type Populator interface {
	Populate(ctx context.Context, q models.NearbyQuery) (*service.PopulateResult, error)
}

func importPoints(ctx context.Context, p Populator, points []SeedPoint, defaultRadiusKm float64) (total, failed int) {
	for _, pt := range points {
		radius := pt.RadiusKm
		if radius == 0 {
			radius = defaultRadiusKm
		}

		result, err := p.Populate(ctx, models.NearbyQuery{Latitude: pt.Lat, Longitude: pt.Lon, RadiusKm: radius})
		if err != nil {
			fmt.Printf("  %-24s failed: %v\n", pt.Name, err)
			failed++
			continue
		}

		fmt.Printf("  %-24s stored %d (street-level %d, synthetic-map %d)\n",
			pt.Name, result.Count,
			result.CountsBySource[models.SourceStreetLevel],
			result.CountsBySource[models.SourceSyntheticMap])
		total += result.Count
	}
	return total, failed
}

func parseCSV(filePath string) ([]SeedPoint, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return readSeedPoints(file)
}

func readSeedPoints(r io.Reader) ([]SeedPoint, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // radius_km is optional
	reader.TrimLeadingSpace = true

	// Skip header
	if _, err := reader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	var points []SeedPoint
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read record: %w", err)
		}

		if len(record) < 3 {
			return nil, fmt.Errorf("line %d: invalid record length: %d, expected at least 3 columns", line, len(record))
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid latitude: %s", line, record[1])
		}

		lon, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid longitude: %s", line, record[2])
		}

		if err := service.ValidatePoint(lat, lon); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		point := SeedPoint{Name: record[0], Lat: lat, Lon: lon}
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			point.RadiusKm, err = strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
			if err != nil || point.RadiusKm <= 0 {
				return nil, fmt.Errorf("line %d: invalid radius_km: %s", line, record[3])
			}
		}

		points = append(points, point)
	}

	return points, nil
}
