package app

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cliptube/backend/internal/config"
)

func TestBuildDependenciesWithoutObjectStore(t *testing.T) {
	cfg := config.Config{
		AccessTokenSecret:  "access-secret",
		RefreshTokenSecret: "refresh-secret",
		AccessTokenTTL:     15 * time.Minute,
		RefreshTokenTTL:    24 * time.Hour,
		StatsCacheTTL:      time.Minute,
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	deps, ingestor, err := buildDependencies(context.Background(), nil, cfg, logger)
	if err != nil {
		t.Fatalf("build dependencies: %v", err)
	}

	if ingestor != nil {
		t.Fatal("expected no ingestor without a media bucket")
	}
	if deps.Ingestor != nil {
		t.Fatal("expected no ingestor dependency without a media bucket")
	}
	if deps.Media != nil {
		t.Fatal("expected no media storage without a media bucket")
	}

	if deps.Users == nil || deps.Sessions == nil || deps.Videos == nil || deps.Tweets == nil ||
		deps.Comments == nil || deps.Likes == nil || deps.Subscriptions == nil ||
		deps.Playlists == nil || deps.Stats == nil || deps.Issuer == nil {
		t.Fatalf("expected all core dependencies to be wired, got %+v", deps)
	}
}
