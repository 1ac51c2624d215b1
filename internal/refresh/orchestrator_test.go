package refresh

import (
	"context"
	"errors"
	"testing"
	"time"

	"nearby-imagery-api/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockAggregator struct {
	mock.Mock
}

func (m *MockAggregator) GetNearbyImages(ctx context.Context, lat, lon, radiusKm float64) ([]models.ImageRecord, error) {
	args := m.Called(ctx, lat, lon, radiusKm)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ImageRecord), args.Error(1)
}

type MockWriter struct {
	mock.Mock
}

func (m *MockWriter) Upsert(ctx context.Context, records []models.ImageRecord) ([]models.ImageRecord, error) {
	args := m.Called(ctx, records)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ImageRecord), args.Error(1)
}

type MockArchiver struct {
	mock.Mock
}

func (m *MockArchiver) Archive(ctx context.Context, snap models.RefreshSnapshot) error {
	return m.Called(ctx, snap).Error(0)
}

// blockingAggregator waits for its context to end.
type blockingAggregator struct {
	started chan struct{}
}

func (b *blockingAggregator) GetNearbyImages(ctx context.Context, _, _, _ float64) ([]models.ImageRecord, error) {
	close(b.started)
	<-ctx.Done()
	return nil, ctx.Err()
}

var query = models.NearbyQuery{Latitude: 50.8206, Longitude: 4.4029, RadiusKm: 2}

func records(ids ...string) []models.ImageRecord {
	out := make([]models.ImageRecord, 0, len(ids))
	for _, id := range ids {
		out = append(out, models.ImageRecord{ExternalID: id, Source: models.SourceSyntheticMap})
	}
	return out
}

func TestOrchestrator_Refresh(t *testing.T) {
	agg := new(MockAggregator)
	writer := new(MockWriter)
	archiver := new(MockArchiver)

	agg.On("GetNearbyImages", mock.Anything, query.Latitude, query.Longitude, query.RadiusKm).Return(records("a", "b"), nil)
	writer.On("Upsert", mock.Anything, records("a", "b")).Return(records("a", "b"), nil)
	archiver.On("Archive", mock.Anything, mock.MatchedBy(func(s models.RefreshSnapshot) bool {
		return s.Query == query && len(s.Records) == 2 && !s.CompletedAt.IsZero()
	})).Return(nil)

	o := New(agg, writer, archiver, Options{}, zerolog.Nop())
	saved, err := o.Refresh(context.Background(), query)
	require.NoError(t, err)
	assert.Len(t, saved, 2)

	agg.AssertExpectations(t)
	writer.AssertExpectations(t)
	archiver.AssertExpectations(t)
}

func TestOrchestrator_Refresh_Errors(t *testing.T) {
	writeErr := errors.New("cache write failure")

	tests := []struct {
		name        string
		setup       func(*MockAggregator, *MockWriter, *MockArchiver)
		expectError error
		expectLen   int
	}{
		{
			name: "nothing aggregated skips the write",
			setup: func(a *MockAggregator, w *MockWriter, ar *MockArchiver) {
				a.On("GetNearbyImages", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return([]models.ImageRecord{}, nil)
			},
		},
		{
			name: "write failure is returned",
			setup: func(a *MockAggregator, w *MockWriter, ar *MockArchiver) {
				a.On("GetNearbyImages", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(records("a"), nil)
				w.On("Upsert", mock.Anything, mock.Anything).Return(nil, writeErr)
			},
			expectError: writeErr,
		},
		{
			name: "archive failure is only logged",
			setup: func(a *MockAggregator, w *MockWriter, ar *MockArchiver) {
				a.On("GetNearbyImages", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(records("a"), nil)
				w.On("Upsert", mock.Anything, mock.Anything).Return(records("a"), nil)
				ar.On("Archive", mock.Anything, mock.Anything).Return(errors.New("bucket gone"))
			},
			expectLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, writer, archiver := new(MockAggregator), new(MockWriter), new(MockArchiver)
			tt.setup(agg, writer, archiver)

			o := New(agg, writer, archiver, Options{}, zerolog.Nop())
			saved, err := o.Refresh(context.Background(), query)

			if tt.expectError != nil {
				assert.ErrorIs(t, err, tt.expectError)
			} else {
				require.NoError(t, err)
				assert.Len(t, saved, tt.expectLen)
			}
			agg.AssertExpectations(t)
			writer.AssertExpectations(t)
			archiver.AssertExpectations(t)
		})
	}
}

func TestOrchestrator_DispatchRunsDetached(t *testing.T) {
	agg := new(MockAggregator)
	writer := new(MockWriter)
	done := make(chan struct{})

	agg.On("GetNearbyImages", mock.Anything, query.Latitude, query.Longitude, query.RadiusKm).Return(records("a"), nil)
	writer.On("Upsert", mock.Anything, mock.Anything).Return(records("a"), nil).Run(func(mock.Arguments) {
		close(done)
	})

	o := New(agg, writer, nil, Options{Workers: 1, QueueSize: 1}, zerolog.Nop())
	require.NoError(t, o.Start(context.Background()))

	assert.True(t, o.Dispatch(query))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatched refresh did not run")
	}

	require.NoError(t, o.Stop(context.Background()))
	agg.AssertExpectations(t)
}

func TestOrchestrator_DispatchDropsWhenFull(t *testing.T) {
	o := New(new(MockAggregator), new(MockWriter), nil, Options{Workers: 1, QueueSize: 1}, zerolog.Nop())
	// Marked running without workers so nothing drains the queue.
	o.running = true

	assert.True(t, o.Dispatch(query))
	assert.False(t, o.Dispatch(query))
}

func TestOrchestrator_DispatchWhenStopped(t *testing.T) {
	o := New(new(MockAggregator), new(MockWriter), nil, Options{}, zerolog.Nop())
	assert.False(t, o.Dispatch(query))
}

func TestOrchestrator_StopCancelsInFlight(t *testing.T) {
	agg := &blockingAggregator{started: make(chan struct{})}
	o := New(agg, new(MockWriter), nil, Options{Workers: 1, Timeout: time.Minute}, zerolog.Nop())
	require.NoError(t, o.Start(context.Background()))

	require.True(t, o.Dispatch(query))
	<-agg.started

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, o.Stop(ctx))
}

func TestOrchestrator_Lifecycle(t *testing.T) {
	o := New(new(MockAggregator), new(MockWriter), nil, Options{}, zerolog.Nop())

	assert.ErrorIs(t, o.Stop(context.Background()), ErrNotRunning)
	require.NoError(t, o.Start(context.Background()))
	assert.ErrorIs(t, o.Start(context.Background()), ErrAlreadyRunning)
	require.NoError(t, o.Stop(context.Background()))
}
