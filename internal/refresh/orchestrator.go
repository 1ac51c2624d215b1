package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"nearby-imagery-api/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	ErrAlreadyRunning = errors.New("refresh orchestrator is already running")
	ErrNotRunning     = errors.New("refresh orchestrator is not running")
)

// Aggregator fetches fresh imagery for a neighbourhood.
type Aggregator interface {
	GetNearbyImages(ctx context.Context, lat, lon, radiusKm float64) ([]models.ImageRecord, error)
}

// Writer persists refreshed records.
type Writer interface {
	Upsert(ctx context.Context, records []models.ImageRecord) ([]models.ImageRecord, error)
}

// Archiver stores a snapshot of a completed refresh. Optional.
type Archiver interface {
	Archive(ctx context.Context, snap models.RefreshSnapshot) error
}

// Options sizes the worker pool.
type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
}

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 64
	DefaultTimeout   = 30 * time.Second
)

type job struct {
	id    uuid.UUID
	query models.NearbyQuery
}

// Orchestrator runs cache refreshes detached from the request that asked for them.
// Dispatched jobs go through a bounded queue drained by a fixed set of workers.
type Orchestrator struct {
	aggregator Aggregator
	writer     Writer
	archiver   Archiver
	opts       Options
	logger     zerolog.Logger

	jobs    chan job
	mu      sync.RWMutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	newID func() uuid.UUID
	now   func() time.Time
}

// New creates an orchestrator. archiver may be nil.
func New(aggregator Aggregator, writer Writer, archiver Archiver, opts Options, logger zerolog.Logger) *Orchestrator {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	return &Orchestrator{
		aggregator: aggregator,
		writer:     writer,
		archiver:   archiver,
		opts:       opts,
		logger:     logger.With().Str("component", "refresh").Logger(),
		jobs:       make(chan job, opts.QueueSize),
		newID:      uuid.New,
		now:        time.Now,
	}
}

// Start launches the workers. Jobs run under contexts derived from ctx.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.running {
		return ErrAlreadyRunning
	}

	o.ctx, o.cancel = context.WithCancel(ctx)
	o.running = true

	o.wg.Add(o.opts.Workers)
	for i := 0; i < o.opts.Workers; i++ {
		go o.worker()
	}

	o.logger.Info().
		Int("workers", o.opts.Workers).
		Int("queue_size", o.opts.QueueSize).
		Msg("refresh orchestrator started")
	return nil
}

// Stop cancels in-flight jobs and waits for the workers until ctx expires.
// Queued jobs that have not started are dropped.
func (o *Orchestrator) Stop(ctx context.Context) error {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return ErrNotRunning
	}
	o.running = false
	o.cancel()
	o.mu.Unlock()

	done := make(chan struct{})
	go func() {
		o.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		o.logger.Info().Msg("refresh orchestrator stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("refresh: stop: %w", ctx.Err())
	}
}

// Dispatch queues a detached refresh and returns immediately. It reports false when
// the job was dropped because the queue is full or the orchestrator is stopped.
func (o *Orchestrator) Dispatch(q models.NearbyQuery) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()

	j := job{id: o.newID(), query: q}
	log := o.logger.With().
		Str("job_id", j.id.String()).
		Float64("latitude", q.Latitude).
		Float64("longitude", q.Longitude).
		Float64("radius_km", q.RadiusKm).
		Logger()

	if !o.running {
		log.Warn().Msg("refresh dropped: orchestrator not running")
		return false
	}

	select {
	case o.jobs <- j:
		log.Debug().Msg("refresh queued")
		return true
	default:
		log.Warn().Msg("refresh dropped: queue full")
		return false
	}
}

// Refresh aggregates and upserts synchronously, returning the persisted records.
func (o *Orchestrator) Refresh(ctx context.Context, q models.NearbyQuery) ([]models.ImageRecord, error) {
	return o.refresh(ctx, o.newID(), q)
}

func (o *Orchestrator) worker() {
	defer o.wg.Done()
	for {
		select {
		case <-o.ctx.Done():
			return
		case j := <-o.jobs:
			o.run(j)
		}
	}
}

func (o *Orchestrator) run(j job) {
	ctx, cancel := context.WithTimeout(o.ctx, o.opts.Timeout)
	defer cancel()

	start := o.now()
	saved, err := o.refresh(ctx, j.id, j.query)
	if err != nil {
		o.logger.Error().Err(err).Str("job_id", j.id.String()).Msg("background refresh failed")
		return
	}

	o.logger.Info().
		Str("job_id", j.id.String()).
		Int("records", len(saved)).
		Dur("took", o.now().Sub(start)).
		Msg("background refresh completed")
}

func (o *Orchestrator) refresh(ctx context.Context, id uuid.UUID, q models.NearbyQuery) ([]models.ImageRecord, error) {
	records, err := o.aggregator.GetNearbyImages(ctx, q.Latitude, q.Longitude, q.RadiusKm)
	if err != nil {
		return nil, fmt.Errorf("refresh: aggregation failed: %w", err)
	}
	if len(records) == 0 {
		return []models.ImageRecord{}, nil
	}

	saved, err := o.writer.Upsert(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("refresh: %w", err)
	}

	if o.archiver != nil {
		snap := models.RefreshSnapshot{ID: id, Query: q, Records: saved, CompletedAt: o.now().UTC()}
		if err := o.archiver.Archive(ctx, snap); err != nil {
			o.logger.Warn().Err(err).Str("job_id", id.String()).Msg("refresh snapshot not archived")
		}
	}
	return saved, nil
}
