package repository

import (
	"context"
	"fmt"
	"time"

	"nearby-imagery-api/internal/geo"
	"nearby-imagery-api/internal/models"
)

// Store is what the application needs from either backend.
type Store interface {
	FindImagesInBox(ctx context.Context, box geo.BBox) ([]models.ImageRecord, error)
	UpsertImages(ctx context.Context, records []models.ImageRecord) ([]models.ImageRecord, error)
	AddLocation(ctx context.Context, lat, lon float64, tags models.LocationTags) (*models.Location, error)
	FindLocation(ctx context.Context, lat, lon float64) (*models.Location, error)
	FindLocationByExternalID(ctx context.Context, externalID string) (*models.Location, error)
}

var (
	_ Store = (*Postgres)(nil)
	_ Store = (*SQLite)(nil)
)

// Open connects to the configured backend and migrates it. The returned func releases the connection.
func Open(ctx context.Context, driver, source string) (Store, func(), error) {
	switch driver {
	case "postgres":
		pool, err := ConnectPostgres(ctx, source, 10, 2*time.Second)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgres(pool), pool.Close, nil
	case "sqlite":
		db, err := OpenSQLite(source)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLite(db), func() { db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("repository: unsupported driver %q", driver)
	}
}
