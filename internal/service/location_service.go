package service

import (
	"context"
	"fmt"

	"nearby-imagery-api/internal/models"
)

// LocationRepository stores tagged locations.
type LocationRepository interface {
	AddLocation(ctx context.Context, lat, lon float64, tags models.LocationTags) (*models.Location, error)
	FindLocation(ctx context.Context, lat, lon float64) (*models.Location, error)
	FindLocationByExternalID(ctx context.Context, externalID string) (*models.Location, error)
}

// LocationService contains the business logic for tagged locations
type LocationService struct {
	repo LocationRepository
}

// NewLocationService creates a new location service
func NewLocationService(repo LocationRepository) *LocationService {
	return &LocationService{repo: repo}
}

// AddLocation stores a location, updating the tags of an existing one at the same coordinates
func (s *LocationService) AddLocation(ctx context.Context, lat, lon float64, tags models.LocationTags) (*models.Location, error) {
	if err := ValidatePoint(lat, lon); err != nil {
		return nil, err
	}

	location, err := s.repo.AddLocation(ctx, lat, lon, tags)
	if err != nil {
		return nil, fmt.Errorf("service: failed to add location: %w", err)
	}

	return location, nil
}

// FindLocation looks a location up by coordinates. Returns nil when absent.
func (s *LocationService) FindLocation(ctx context.Context, lat, lon float64) (*models.Location, error) {
	if err := ValidatePoint(lat, lon); err != nil {
		return nil, err
	}

	location, err := s.repo.FindLocation(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("service: failed to find location: %w", err)
	}

	return location, nil
}

// FindByExternalID looks a location up by the id of the image stored on it.
func (s *LocationService) FindByExternalID(ctx context.Context, externalID string) (*models.Location, error) {
	if externalID == "" {
		return nil, fmt.Errorf("%w: external id cannot be empty", ErrInvalidQuery)
	}

	location, err := s.repo.FindLocationByExternalID(ctx, externalID)
	if err != nil {
		return nil, fmt.Errorf("service: failed to find location: %w", err)
	}

	return location, nil
}
