package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"nearby-imagery-api/internal/geo"
	"nearby-imagery-api/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS locations (
		id BIGSERIAL PRIMARY KEY,
		external_id TEXT UNIQUE,
		latitude DOUBLE PRECISION NOT NULL,
		longitude DOUBLE PRECISION NOT NULL,
		hotspot BOOLEAN NOT NULL DEFAULT FALSE,
		near_greenery BOOLEAN NOT NULL DEFAULT FALSE,
		halal BOOLEAN NOT NULL DEFAULT FALSE,
		crowded BOOLEAN NOT NULL DEFAULT FALSE,
		source TEXT,
		captured_at BIGINT,
		compass_angle DOUBLE PRECISION,
		is_pano BOOLEAN,
		map_style TEXT,
		map_zoom INTEGER,
		thumbnail_url TEXT,
		full_image_url TEXT,
		cached_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS locations_lat_lon_idx ON locations (latitude, longitude)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS locations_bare_point_idx ON locations (latitude, longitude) WHERE external_id IS NULL`,
}

// Postgres implements the storage collaborator on PostgreSQL. No PostGIS is assumed:
// spatial reads are plain range filters on the latitude/longitude columns.
type Postgres struct {
	db  *pgxpool.Pool
	now func() time.Time
}

// NewPostgres creates a new PostgreSQL repository
func NewPostgres(db *pgxpool.Pool) *Postgres {
	return &Postgres{db: db, now: time.Now}
}

// ConnectPostgres opens a pool, retrying while the server comes up, and migrates the schema.
func ConnectPostgres(ctx context.Context, dsn string, attempts int, delay time.Duration) (*pgxpool.Pool, error) {
	var lastErr error
	for i := 1; i <= attempts; i++ {
		pool, err := pgxpool.New(ctx, dsn)
		if err == nil {
			if err = pool.Ping(ctx); err == nil {
				if err := MigratePostgres(ctx, pool); err != nil {
					pool.Close()
					return nil, err
				}
				return pool, nil
			}
			pool.Close()
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
	}
	return nil, fmt.Errorf("repository: db connect failed after %d attempts: %w", attempts, lastErr)
}

// MigratePostgres creates the locations table and its indexes if missing.
func MigratePostgres(ctx context.Context, db *pgxpool.Pool) error {
	for _, q := range postgresSchema {
		if _, err := db.Exec(ctx, q); err != nil {
			return fmt.Errorf("repository: migration failed: %w", err)
		}
	}
	return nil
}

// FindImagesInBox returns every imagery row inside the bounding box.
func (r *Postgres) FindImagesInBox(ctx context.Context, box geo.BBox) ([]models.ImageRecord, error) {
	ranges := box.LonRanges()
	if len(ranges) == 1 {
		ranges = append(ranges, ranges[0])
	}

	sql := `
		SELECT ` + imageColumns + `
		FROM locations
		WHERE external_id IS NOT NULL
			AND latitude BETWEEN $1 AND $2
			AND (longitude BETWEEN $3 AND $4 OR longitude BETWEEN $5 AND $6)
	`

	rows, err := r.db.Query(ctx, sql, box.MinLat, box.MaxLat, ranges[0][0], ranges[0][1], ranges[1][0], ranges[1][1])
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute bounding box query: %w", err)
	}
	defer rows.Close()

	records := []models.ImageRecord{}
	for rows.Next() {
		rec, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan image: %w", err)
		}
		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating rows: %w", err)
	}

	return records, nil
}

// UpsertImages writes records in one transaction. Each record updates the row with its
// external id, else claims a bare location at the same coordinates, else inserts.
func (r *Postgres) UpsertImages(ctx context.Context, records []models.ImageRecord) ([]models.ImageRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	cachedAt := r.now().UTC()
	saved := make([]models.ImageRecord, 0, len(records))

	for _, rec := range lockOrder(records) {
		payload := imagePayload(rec, cachedAt)

		out, err := scanImage(tx.QueryRow(ctx, `
			UPDATE locations SET `+assignments(dollar, 2)+`
			WHERE external_id = $1
			RETURNING `+imageColumns, append([]any{rec.ExternalID}, payload...)...))

		located := append([]any{rec.ExternalID, rec.Latitude, rec.Longitude}, payload...)
		if errors.Is(err, pgx.ErrNoRows) {
			out, err = scanImage(tx.QueryRow(ctx, `
				UPDATE locations SET external_id = $1, `+assignments(dollar, 4)+`
				WHERE external_id IS NULL AND latitude = $2 AND longitude = $3
				RETURNING `+imageColumns, located...))
		}
		if errors.Is(err, pgx.ErrNoRows) {
			out, err = scanImage(tx.QueryRow(ctx, `
				INSERT INTO locations (external_id, latitude, longitude, `+strings.Join(imagePayloadColumns, ", ")+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
				ON CONFLICT (external_id) DO UPDATE SET `+excludedAssignments()+`
				RETURNING `+imageColumns, located...))
		}
		if err != nil {
			return nil, fmt.Errorf("repository: failed to upsert %s: %w", rec.ExternalID, err)
		}
		saved = append(saved, out)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("repository: failed to commit upsert: %w", err)
	}
	return saved, nil
}

// AddLocation inserts a bare location, or updates the tags of the row already at those coordinates.
func (r *Postgres) AddLocation(ctx context.Context, lat, lon float64, tags models.LocationTags) (*models.Location, error) {
	loc, err := scanLocation(r.db.QueryRow(ctx, `
		UPDATE locations SET hotspot = $3, near_greenery = $4, halal = $5, crowded = $6
		WHERE id = (SELECT id FROM locations WHERE latitude = $1 AND longitude = $2 ORDER BY id LIMIT 1)
		RETURNING `+locationColumns,
		lat, lon, tags.Hotspot, tags.NearGreenery, tags.Halal, tags.Crowded))
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("repository: failed to update location: %w", err)
	}

	loc, err = scanLocation(r.db.QueryRow(ctx, `
		INSERT INTO locations (latitude, longitude, hotspot, near_greenery, halal, crowded)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (latitude, longitude) WHERE external_id IS NULL DO UPDATE SET
			hotspot = EXCLUDED.hotspot,
			near_greenery = EXCLUDED.near_greenery,
			halal = EXCLUDED.halal,
			crowded = EXCLUDED.crowded
		RETURNING `+locationColumns,
		lat, lon, tags.Hotspot, tags.NearGreenery, tags.Halal, tags.Crowded))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert location: %w", err)
	}
	return loc, nil
}

// FindLocation looks a location up by its exact coordinates. Returns nil when absent.
func (r *Postgres) FindLocation(ctx context.Context, lat, lon float64) (*models.Location, error) {
	loc, err := scanLocation(r.db.QueryRow(ctx, `
		SELECT `+locationColumns+`
		FROM locations
		WHERE latitude = $1 AND longitude = $2
		ORDER BY id
		LIMIT 1
	`, lat, lon))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: failed to find location: %w", err)
	}
	return loc, nil
}

// FindLocationByExternalID looks a location up by its imagery id. Returns nil when absent.
func (r *Postgres) FindLocationByExternalID(ctx context.Context, externalID string) (*models.Location, error) {
	loc, err := scanLocation(r.db.QueryRow(ctx, `
		SELECT `+locationColumns+`
		FROM locations
		WHERE external_id = $1
	`, externalID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: failed to find location: %w", err)
	}
	return loc, nil
}

func scanImage(row pgx.Row) (models.ImageRecord, error) {
	var (
		rec      models.ImageRecord
		isPano   *bool
		style    *string
		zoom     *int
		cachedAt *time.Time
	)
	err := row.Scan(
		&rec.ExternalID,
		&rec.Latitude,
		&rec.Longitude,
		&rec.Source,
		&rec.CapturedAt,
		&rec.CompassAngle,
		&isPano,
		&style,
		&zoom,
		&rec.ThumbnailURL,
		&rec.FullImageURL,
		&cachedAt,
	)
	if err != nil {
		return models.ImageRecord{}, err
	}

	applyVariant(&rec, isPano, style, zoom)
	if cachedAt != nil {
		rec.CachedAt = cachedAt.UTC()
	}
	return rec, nil
}

func scanLocation(row pgx.Row) (*models.Location, error) {
	var loc models.Location
	err := row.Scan(
		&loc.ID,
		&loc.ExternalID,
		&loc.Latitude,
		&loc.Longitude,
		&loc.Hotspot,
		&loc.NearGreenery,
		&loc.Halal,
		&loc.Crowded,
		&loc.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &loc, nil
}
