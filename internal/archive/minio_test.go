package archive

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"nearby-imagery-api/internal/models"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockObjectStore struct {
	mock.Mock
	body []byte
}

func (m *MockObjectStore) BucketExists(ctx context.Context, bucketName string) (bool, error) {
	args := m.Called(ctx, bucketName)
	return args.Bool(0), args.Error(1)
}

func (m *MockObjectStore) MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error {
	return m.Called(ctx, bucketName, opts).Error(0)
}

func (m *MockObjectStore) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	m.body, _ = io.ReadAll(reader)
	args := m.Called(ctx, bucketName, objectName, objectSize, opts.ContentType)
	return minio.UploadInfo{Key: objectName, Size: objectSize}, args.Error(0)
}

func snapshot() models.RefreshSnapshot {
	return models.RefreshSnapshot{
		ID:          uuid.MustParse("0b5c7c5e-8f0e-4a43-9a55-0d1b0c2b6b11"),
		Query:       models.NearbyQuery{Latitude: 50.82, Longitude: 4.40, RadiusKm: 2},
		Records:     []models.ImageRecord{{ExternalID: "mapbox_1", Source: models.SourceSyntheticMap}},
		CompletedAt: time.Date(2026, 3, 7, 23, 30, 0, 0, time.FixedZone("CET", 3600)),
	}
}

func TestObjectKey(t *testing.T) {
	assert.Equal(t, "refresh/2026/03/07/0b5c7c5e-8f0e-4a43-9a55-0d1b0c2b6b11.json", ObjectKey(snapshot()))
}

func TestMinioArchiver_Archive(t *testing.T) {
	store := new(MockObjectStore)
	store.On("BucketExists", mock.Anything, "snapshots").Return(false, nil).Once()
	store.On("MakeBucket", mock.Anything, "snapshots", mock.Anything).Return(nil).Once()
	store.On("PutObject", mock.Anything, "snapshots", ObjectKey(snapshot()), mock.AnythingOfType("int64"), "application/json").Return(nil).Twice()

	a := newMinioArchiver(store, "snapshots", zerolog.Nop())
	require.NoError(t, a.Archive(context.Background(), snapshot()))
	require.NoError(t, a.Archive(context.Background(), snapshot()))

	var decoded models.RefreshSnapshot
	require.NoError(t, json.Unmarshal(store.body, &decoded))
	assert.Equal(t, snapshot().ID, decoded.ID)
	require.Len(t, decoded.Records, 1)
	assert.Equal(t, "mapbox_1", decoded.Records[0].ExternalID)

	store.AssertExpectations(t)
}

func TestMinioArchiver_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*MockObjectStore)
	}{
		{
			name: "bucket check fails",
			setup: func(m *MockObjectStore) {
				m.On("BucketExists", mock.Anything, DefaultBucket).Return(false, errors.New("unreachable"))
			},
		},
		{
			name: "upload fails",
			setup: func(m *MockObjectStore) {
				m.On("BucketExists", mock.Anything, DefaultBucket).Return(true, nil)
				m.On("PutObject", mock.Anything, DefaultBucket, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("denied"))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := new(MockObjectStore)
			tt.setup(store)

			a := newMinioArchiver(store, "", zerolog.Nop())
			assert.Error(t, a.Archive(context.Background(), snapshot()))
			store.AssertExpectations(t)
		})
	}
}
