package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"nearby-imagery-api/internal/geo"
	"nearby-imagery-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockRepository is a mock implementation of Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) FindImagesInBox(ctx context.Context, box geo.BBox) ([]models.ImageRecord, error) {
	args := m.Called(ctx, box)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ImageRecord), args.Error(1)
}

func (m *MockRepository) UpsertImages(ctx context.Context, records []models.ImageRecord) ([]models.ImageRecord, error) {
	args := m.Called(ctx, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ImageRecord), args.Error(1)
}

const (
	originLat = 50.82055797368375
	originLon = 4.402875123647935
)

// offset moves north by km, which keeps the distance exact along a meridian.
func offset(id string, km float64) models.ImageRecord {
	return models.ImageRecord{
		ExternalID: id,
		Latitude:   originLat + km/geo.KmPerDegree,
		Longitude:  originLon,
		Source:     models.SourceStreetLevel,
	}
}

func TestStore_ReadNearby(t *testing.T) {
	// 3 street-level records, 20 synthetic tiles and one 5km outlier.
	var stored []models.ImageRecord
	for i := 0; i < 3; i++ {
		stored = append(stored, offset(fmt.Sprintf("mapillary_%d", i), 0.5+float64(i)))
	}
	for i := 0; i < 20; i++ {
		r := offset(fmt.Sprintf("mapbox_%d", i), 0.1*float64(i+1))
		r.Source = models.SourceSyntheticMap
		stored = append(stored, r)
	}
	stored = append(stored, offset("mapillary_far", 5))

	repo := new(MockRepository)
	repo.On("FindImagesInBox", mock.Anything, mock.AnythingOfType("geo.BBox")).Return(stored, nil)

	store := NewStore(repo)
	records, err := store.ReadNearby(context.Background(), originLat, originLon, 4, 10)
	require.NoError(t, err)
	require.Len(t, records, 10)

	for i, r := range records {
		assert.LessOrEqual(t, r.DistanceKm, 4.0)
		assert.NotEqual(t, "mapillary_far", r.ExternalID)
		if i > 0 {
			assert.LessOrEqual(t, records[i-1].DistanceKm, r.DistanceKm)
		}
	}

	all, err := store.ReadNearby(context.Background(), originLat, originLon, 4, 0)
	require.NoError(t, err)
	assert.Len(t, all, 23)

	repo.AssertExpectations(t)
}

func TestStore_ReadNearby_Errors(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		setup   func(*MockRepository)
		wantErr error
	}{
		{
			name:    "polar latitude",
			lat:     90,
			setup:   func(m *MockRepository) {},
			wantErr: geo.ErrPolarLatitude,
		},
		{
			name: "repository failure",
			lat:  originLat,
			setup: func(m *MockRepository) {
				m.On("FindImagesInBox", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setup(repo)

			_, err := NewStore(repo).ReadNearby(context.Background(), tt.lat, originLon, 2, 10)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestStore_Upsert(t *testing.T) {
	first := offset("mapillary_1", 1)
	first.ThumbnailURL = "old"
	first.DistanceKm = 1
	second := offset("mapillary_1", 1)
	second.ThumbnailURL = "new"
	second.DistanceKm = 1

	repo := new(MockRepository)
	repo.On("UpsertImages", mock.Anything, mock.MatchedBy(func(batch []models.ImageRecord) bool {
		return len(batch) == 1 && batch[0].ThumbnailURL == "new"
	})).Return([]models.ImageRecord{{
		ExternalID:   "mapillary_1",
		Latitude:     second.Latitude,
		Longitude:    second.Longitude,
		ThumbnailURL: "new",
		Source:       models.SourceStreetLevel,
	}}, nil)

	saved, err := NewStore(repo).Upsert(context.Background(), []models.ImageRecord{first, second})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	assert.Equal(t, "new", saved[0].ThumbnailURL)
	assert.Equal(t, 1.0, saved[0].DistanceKm)
	repo.AssertExpectations(t)
}

func TestStore_Upsert_Errors(t *testing.T) {
	tests := []struct {
		name    string
		records []models.ImageRecord
		setup   func(*MockRepository)
	}{
		{
			name:    "missing external id",
			records: []models.ImageRecord{{Source: models.SourceStreetLevel}},
			setup:   func(m *MockRepository) {},
		},
		{
			name:    "unknown source",
			records: []models.ImageRecord{{ExternalID: "x", Source: "satellite"}},
			setup:   func(m *MockRepository) {},
		},
		{
			name:    "repository failure",
			records: []models.ImageRecord{offset("mapillary_1", 1)},
			setup: func(m *MockRepository) {
				m.On("UpsertImages", mock.Anything, mock.Anything).Return(nil, errors.New("constraint"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(MockRepository)
			tt.setup(repo)

			_, err := NewStore(repo).Upsert(context.Background(), tt.records)
			assert.ErrorIs(t, err, ErrCacheWrite)
			repo.AssertExpectations(t)
		})
	}
}

func TestStore_Upsert_Empty(t *testing.T) {
	repo := new(MockRepository)
	saved, err := NewStore(repo).Upsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, saved)
	repo.AssertNotCalled(t, "UpsertImages", mock.Anything, mock.Anything)
}
