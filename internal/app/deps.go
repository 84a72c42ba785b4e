package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cliptube/backend/internal/auth"
	"github.com/cliptube/backend/internal/config"
	"github.com/cliptube/backend/internal/db"
	"github.com/cliptube/backend/internal/handlers"
	"github.com/cliptube/backend/internal/media"
	"github.com/cliptube/backend/internal/repositories"
	"github.com/cliptube/backend/internal/stats"
	"github.com/cliptube/backend/internal/storage"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. The returned ingestor, when non-nil, must be shut down after the
// HTTP server drains so queued uploads complete.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config, logger *slog.Logger) (handlers.Dependencies, *media.Ingestor, error) {
	users := repositories.NewPostgresUserRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)

	issuer := auth.NewIssuer(cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	var (
		assets   media.AssetStorage
		ingestor *media.Ingestor
	)
	if cfg.ObjectStore.Bucket != "" {
		s3, err := storage.NewS3Storage(ctx, cfg.ObjectStore)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("configure object storage: %w", err)
		}
		assets = s3
		ingestor = media.NewIngestor(s3, videos, media.IngestorConfig{
			QueueSize: cfg.IngestQueue,
			Workers:   cfg.IngestWorkers,
		}, logger)
	} else {
		logger.Warn("no media bucket configured; uploads are disabled")
	}

	deps := handlers.Dependencies{
		Users:          users,
		Sessions:       auth.NewManager(users, issuer),
		Videos:         videos,
		Tweets:         repositories.NewPostgresTweetRepository(pool),
		Comments:       repositories.NewPostgresCommentRepository(pool),
		Likes:          repositories.NewPostgresLikeRepository(pool),
		Subscriptions:  repositories.NewPostgresSubscriptionRepository(pool),
		Playlists:      repositories.NewPostgresPlaylistRepository(pool),
		Stats:          stats.NewCachingProvider(repositories.NewPostgresStatsRepository(pool), cfg.StatsCacheTTL),
		Media:          assets,
		Issuer:         issuer,
		MaxUploadBytes: cfg.MaxUploadBytes,
	}
	if ingestor != nil {
		deps.Ingestor = ingestor
	}
	if pinger, ok := pool.(handlers.Pinger); ok {
		deps.DB = pinger
	}

	return deps, ingestor, nil
}
