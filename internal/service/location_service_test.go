package service

import (
	"context"
	"testing"

	"nearby-imagery-api/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockLocationRepository is a mock implementation of LocationRepository
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) AddLocation(ctx context.Context, lat, lon float64, tags models.LocationTags) (*models.Location, error) {
	args := m.Called(ctx, lat, lon, tags)
	return args.Get(0).(*models.Location), args.Error(1)
}

func (m *MockLocationRepository) FindLocation(ctx context.Context, lat, lon float64) (*models.Location, error) {
	args := m.Called(ctx, lat, lon)
	return args.Get(0).(*models.Location), args.Error(1)
}

func (m *MockLocationRepository) FindLocationByExternalID(ctx context.Context, externalID string) (*models.Location, error) {
	args := m.Called(ctx, externalID)
	return args.Get(0).(*models.Location), args.Error(1)
}

func TestLocationService_AddLocation(t *testing.T) {
	tags := models.LocationTags{Hotspot: true, NearGreenery: true}

	tests := []struct {
		name         string
		lat          float64
		lon          float64
		mockLocation *models.Location
		mockError    error
		expected     *models.Location
		expectError  bool
		expectRepo   bool
	}{
		{
			name:         "valid coordinates",
			lat:          50.8206,
			lon:          4.4029,
			mockLocation: &models.Location{ID: 1, Latitude: 50.8206, Longitude: 4.4029, Hotspot: true, NearGreenery: true},
			expected:     &models.Location{ID: 1, Latitude: 50.8206, Longitude: 4.4029, Hotspot: true, NearGreenery: true},
			expectRepo:   true,
		},
		{
			name:        "invalid latitude",
			lat:         91,
			lon:         4.4029,
			expectError: true,
		},
		{
			name:        "invalid longitude",
			lat:         50.8206,
			lon:         181,
			expectError: true,
		},
		{
			name:        "repository error",
			lat:         50.8206,
			lon:         4.4029,
			mockError:   assert.AnError,
			expectError: true,
			expectRepo:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockRepo := new(MockLocationRepository)
			service := NewLocationService(mockRepo)

			if tt.expectRepo {
				mockRepo.On("AddLocation", mock.Anything, tt.lat, tt.lon, tags).Return(tt.mockLocation, tt.mockError)
			}

			result, err := service.AddLocation(context.Background(), tt.lat, tt.lon, tags)

			if tt.expectError {
				assert.Error(t, err)
				if !tt.expectRepo {
					assert.ErrorIs(t, err, ErrInvalidQuery)
				}
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expected, result)
			}

			mockRepo.AssertExpectations(t)
		})
	}
}

func TestLocationService_FindLocation(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	service := NewLocationService(mockRepo)

	found := &models.Location{ID: 7, Latitude: 10, Longitude: 20}
	mockRepo.On("FindLocation", mock.Anything, 10.0, 20.0).Return(found, nil)
	mockRepo.On("FindLocation", mock.Anything, 11.0, 20.0).Return((*models.Location)(nil), nil)

	result, err := service.FindLocation(context.Background(), 10, 20)
	assert.NoError(t, err)
	assert.Equal(t, found, result)

	result, err = service.FindLocation(context.Background(), 11, 20)
	assert.NoError(t, err)
	assert.Nil(t, result)

	_, err = service.FindLocation(context.Background(), 90, 20)
	assert.ErrorIs(t, err, ErrInvalidQuery)

	mockRepo.AssertExpectations(t)
}

func TestLocationService_FindByExternalID(t *testing.T) {
	mockRepo := new(MockLocationRepository)
	service := NewLocationService(mockRepo)

	id := "mapillary_1"
	found := &models.Location{ID: 3, ExternalID: &id}
	mockRepo.On("FindLocationByExternalID", mock.Anything, id).Return(found, nil)
	mockRepo.On("FindLocationByExternalID", mock.Anything, "broken").Return((*models.Location)(nil), assert.AnError)

	result, err := service.FindByExternalID(context.Background(), id)
	assert.NoError(t, err)
	assert.Equal(t, found, result)

	_, err = service.FindByExternalID(context.Background(), "broken")
	assert.ErrorIs(t, err, assert.AnError)

	_, err = service.FindByExternalID(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidQuery)

	mockRepo.AssertExpectations(t)
}
