package media

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/cliptube/backend/internal/logging"
)

// VideoAssetUpdater persists ingestion status updates for uploaded videos.
type VideoAssetUpdater interface {
	MarkAssetReady(ctx context.Context, videoID, videoURL, thumbnailURL string) error
	MarkAssetFailed(ctx context.Context, videoID string) error
}

// IngestorConfig controls the concurrency characteristics of the ingestor.
type IngestorConfig struct {
	QueueSize int
	Workers   int
}

// IngestJob names the staged files belonging to one published video. The
// staged paths are removed once the job finishes, success or not.
type IngestJob struct {
	VideoID       string
	VideoPath     string
	VideoKey      string
	ThumbnailPath string
	ThumbnailKey  string
}

// Ingestor pushes staged uploads to object storage in the background and
// records the outcome on the video row.
type Ingestor struct {
	storage AssetStorage
	updater VideoAssetUpdater
	logger  *slog.Logger

	jobs   chan IngestJob
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	once   sync.Once
}

var errIngestorClosed = errors.New("media ingestor closed")

// NewIngestor constructs a background worker pool that persists assets.
func NewIngestor(storage AssetStorage, updater VideoAssetUpdater, cfg IngestorConfig, logger *slog.Logger) *Ingestor {
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	ing := &Ingestor{
		storage: storage,
		updater: updater,
		logger:  logger,
		jobs:    make(chan IngestJob, cfg.QueueSize),
		ctx:     ctx,
		cancel:  cancel,
	}

	ing.wg.Add(cfg.Workers)
	for i := 0; i < cfg.Workers; i++ {
		go ing.worker()
	}

	return ing
}

// Enqueue schedules asset persistence for the supplied job.
func (i *Ingestor) Enqueue(ctx context.Context, job IngestJob) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	default:
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-i.ctx.Done():
		return errIngestorClosed
	case i.jobs <- job:
		return nil
	}
}

// Shutdown waits for the worker pool to drain outstanding jobs.
func (i *Ingestor) Shutdown(ctx context.Context) error {
	i.once.Do(func() {
		i.cancel()
		close(i.jobs)
	})

	done := make(chan struct{})
	go func() {
		i.wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-done:
		return nil
	}
}

func (i *Ingestor) worker() {
	defer i.wg.Done()

	for job := range i.jobs {
		// Jobs already queued still run to completion during shutdown; the
		// uploads use a background context so a canceled server context does
		// not strand assets in the pending state.
		i.process(context.Background(), job)
	}
}

func (i *Ingestor) process(ctx context.Context, job IngestJob) {
	ctx = logging.WithLogger(ctx, i.logger)
	ctx, op := logging.StartOp(ctx, "video_ingest", slog.String("videoId", job.VideoID))

	op.Done(i.run(ctx, job))
	job.Cleanup()
}

func (i *Ingestor) run(ctx context.Context, job IngestJob) error {
	videoURL, err := i.uploadStaged(ctx, job.VideoPath, job.VideoKey)
	if err != nil {
		i.fail(ctx, job)
		return fmt.Errorf("upload video asset: %w", err)
	}

	thumbnailURL := ""
	if job.ThumbnailPath != "" {
		thumbnailURL, err = i.uploadStaged(ctx, job.ThumbnailPath, job.ThumbnailKey)
		if err != nil {
			i.fail(ctx, job)
			return fmt.Errorf("upload thumbnail: %w", err)
		}
	}

	if err := i.updater.MarkAssetReady(ctx, job.VideoID, videoURL, thumbnailURL); err != nil {
		return fmt.Errorf("mark asset ready: %w", err)
	}
	return nil
}

func (i *Ingestor) fail(ctx context.Context, job IngestJob) {
	if err := i.updater.MarkAssetFailed(ctx, job.VideoID); err != nil {
		logging.FromContext(ctx).Error("mark asset failed errored", "error", err)
	}
}

func (i *Ingestor) uploadStaged(ctx context.Context, path, key string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open staged asset: %w", err)
	}
	defer f.Close()

	return i.storage.Save(ctx, key, f)
}

// Cleanup removes the staged files. Callers invoke it when a job never
// reaches the queue; workers invoke it once a job finishes.
func (j IngestJob) Cleanup() {
	for _, path := range []string{j.VideoPath, j.ThumbnailPath} {
		if path != "" {
			_ = os.Remove(path)
		}
	}
}
