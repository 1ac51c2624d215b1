package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"nearby-imagery-api/internal/geo"
	"nearby-imagery-api/internal/models"

	_ "modernc.org/sqlite" // Register driver
)

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS locations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		external_id TEXT UNIQUE,
		latitude REAL NOT NULL,
		longitude REAL NOT NULL,
		hotspot BOOLEAN NOT NULL DEFAULT 0,
		near_greenery BOOLEAN NOT NULL DEFAULT 0,
		halal BOOLEAN NOT NULL DEFAULT 0,
		crowded BOOLEAN NOT NULL DEFAULT 0,
		source TEXT,
		captured_at INTEGER,
		compass_angle REAL,
		is_pano BOOLEAN,
		map_style TEXT,
		map_zoom INTEGER,
		thumbnail_url TEXT,
		full_image_url TEXT,
		cached_at INTEGER,
		created_at INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS locations_lat_lon_idx ON locations (latitude, longitude)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS locations_bare_point_idx ON locations (latitude, longitude) WHERE external_id IS NULL`,
}

// SQLite implements the storage collaborator on an embedded database file.
// Timestamps are stored as unix milliseconds.
type SQLite struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLite wraps an already opened and migrated database.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db, now: time.Now}
}

// OpenSQLite opens the database at path and runs migrations. ":memory:" is accepted.
func OpenSQLite(path string) (*sql.DB, error) {
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("repository: failed to create db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to open db: %w", err)
	}
	// One connection: writes are serialized and an in-memory database is shared.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("repository: failed to ping db: %w", err)
	}

	pragmas := []string{"PRAGMA journal_mode=WAL;", "PRAGMA busy_timeout=30000;"}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("repository: %s failed: %w", p, err)
		}
	}

	for _, q := range sqliteSchema {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("repository: migration failed: %w", err)
		}
	}
	return db, nil
}

// FindImagesInBox returns every imagery row inside the bounding box.
func (r *SQLite) FindImagesInBox(ctx context.Context, box geo.BBox) ([]models.ImageRecord, error) {
	ranges := box.LonRanges()
	if len(ranges) == 1 {
		ranges = append(ranges, ranges[0])
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT `+imageColumns+`
		FROM locations
		WHERE external_id IS NOT NULL
			AND latitude BETWEEN ? AND ?
			AND (longitude BETWEEN ? AND ? OR longitude BETWEEN ? AND ?)
	`, box.MinLat, box.MaxLat, ranges[0][0], ranges[0][1], ranges[1][0], ranges[1][1])
	if err != nil {
		return nil, fmt.Errorf("repository: failed to execute bounding box query: %w", err)
	}
	defer rows.Close()

	records := []models.ImageRecord{}
	for rows.Next() {
		rec, err := scanSQLiteImage(rows)
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

// UpsertImages follows the same update, claim, insert order as the PostgreSQL repository.
func (r *SQLite) UpsertImages(ctx context.Context, records []models.ImageRecord) ([]models.ImageRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := r.now().UTC()
	cachedAt := now.UnixMilli()
	saved := make([]models.ImageRecord, 0, len(records))

	for _, rec := range lockOrder(records) {
		payload := imagePayload(rec, cachedAt)

		args := append(append([]any{}, payload...), rec.ExternalID)
		out, err := scanSQLiteImage(tx.QueryRowContext(ctx, `
			UPDATE locations SET `+assignments(question, 0)+`
			WHERE external_id = ?
			RETURNING `+imageColumns, args...))

		if errors.Is(err, sql.ErrNoRows) {
			args = append(append([]any{rec.ExternalID}, payload...), rec.Latitude, rec.Longitude)
			out, err = scanSQLiteImage(tx.QueryRowContext(ctx, `
				UPDATE locations SET external_id = ?, `+assignments(question, 0)+`
				WHERE external_id IS NULL AND latitude = ? AND longitude = ?
				RETURNING `+imageColumns, args...))
		}
		if errors.Is(err, sql.ErrNoRows) {
			args = append([]any{rec.ExternalID, rec.Latitude, rec.Longitude}, payload...)
			args = append(args, now.UnixMilli())
			out, err = scanSQLiteImage(tx.QueryRowContext(ctx, `
				INSERT INTO locations (external_id, latitude, longitude, `+strings.Join(imagePayloadColumns, ", ")+`, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
				ON CONFLICT (external_id) DO UPDATE SET `+excludedAssignments()+`
				RETURNING `+imageColumns, args...))
		}
		if err != nil {
			return nil, fmt.Errorf("repository: failed to upsert %s: %w", rec.ExternalID, err)
		}
		saved = append(saved, out)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("repository: failed to commit upsert: %w", err)
	}
	return saved, nil
}

// AddLocation inserts a bare location, or updates the tags of the row already at those coordinates.
func (r *SQLite) AddLocation(ctx context.Context, lat, lon float64, tags models.LocationTags) (*models.Location, error) {
	loc, err := scanSQLiteLocation(r.db.QueryRowContext(ctx, `
		UPDATE locations SET hotspot = ?, near_greenery = ?, halal = ?, crowded = ?
		WHERE id = (SELECT id FROM locations WHERE latitude = ? AND longitude = ? ORDER BY id LIMIT 1)
		RETURNING `+locationColumns,
		tags.Hotspot, tags.NearGreenery, tags.Halal, tags.Crowded, lat, lon))
	if err == nil {
		return loc, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("repository: failed to update location: %w", err)
	}

	loc, err = scanSQLiteLocation(r.db.QueryRowContext(ctx, `
		INSERT INTO locations (latitude, longitude, hotspot, near_greenery, halal, crowded, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING `+locationColumns,
		lat, lon, tags.Hotspot, tags.NearGreenery, tags.Halal, tags.Crowded, r.now().UTC().UnixMilli()))
	if err != nil {
		return nil, fmt.Errorf("repository: failed to insert location: %w", err)
	}
	return loc, nil
}

// FindLocation looks a location up by its exact coordinates. Returns nil when absent.
func (r *SQLite) FindLocation(ctx context.Context, lat, lon float64) (*models.Location, error) {
	loc, err := scanSQLiteLocation(r.db.QueryRowContext(ctx, `
		SELECT `+locationColumns+`
		FROM locations
		WHERE latitude = ? AND longitude = ?
		ORDER BY id
		LIMIT 1
	`, lat, lon))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: failed to find location: %w", err)
	}
	return loc, nil
}

// FindLocationByExternalID looks a location up by its imagery id. Returns nil when absent.
func (r *SQLite) FindLocationByExternalID(ctx context.Context, externalID string) (*models.Location, error) {
	loc, err := scanSQLiteLocation(r.db.QueryRowContext(ctx, `
		SELECT `+locationColumns+`
		FROM locations
		WHERE external_id = ?
	`, externalID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("repository: failed to find location: %w", err)
	}
	return loc, nil
}

type sqlScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteImage(row sqlScanner) (models.ImageRecord, error) {
	var (
		rec          models.ImageRecord
		source       sql.NullString
		capturedAt   sql.NullInt64
		compassAngle sql.NullFloat64
		isPano       sql.NullBool
		style        sql.NullString
		zoom         sql.NullInt64
		thumbnail    sql.NullString
		fullImage    sql.NullString
		cachedAt     sql.NullInt64
	)
	err := row.Scan(
		&rec.ExternalID,
		&rec.Latitude,
		&rec.Longitude,
		&source,
		&capturedAt,
		&compassAngle,
		&isPano,
		&style,
		&zoom,
		&thumbnail,
		&fullImage,
		&cachedAt,
	)
	if err != nil {
		return models.ImageRecord{}, err
	}

	rec.Source = models.Source(source.String)
	rec.CapturedAt = capturedAt.Int64
	rec.CompassAngle = compassAngle.Float64
	rec.ThumbnailURL = thumbnail.String
	rec.FullImageURL = fullImage.String
	if cachedAt.Valid {
		rec.CachedAt = fromUnixMilli(cachedAt.Int64)
	}

	var (
		panoPtr  *bool
		stylePtr *string
		zoomPtr  *int
	)
	if isPano.Valid {
		panoPtr = &isPano.Bool
	}
	if style.Valid {
		stylePtr = &style.String
	}
	if zoom.Valid {
		z := int(zoom.Int64)
		zoomPtr = &z
	}
	applyVariant(&rec, panoPtr, stylePtr, zoomPtr)
	return rec, nil
}

func scanSQLiteLocation(row sqlScanner) (*models.Location, error) {
	var (
		loc        models.Location
		externalID sql.NullString
		createdAt  int64
	)
	err := row.Scan(
		&loc.ID,
		&externalID,
		&loc.Latitude,
		&loc.Longitude,
		&loc.Hotspot,
		&loc.NearGreenery,
		&loc.Halal,
		&loc.Crowded,
		&createdAt,
	)
	if err != nil {
		return nil, err
	}
	if externalID.Valid {
		loc.ExternalID = &externalID.String
	}
	loc.CreatedAt = fromUnixMilli(createdAt)
	return &loc, nil
}
