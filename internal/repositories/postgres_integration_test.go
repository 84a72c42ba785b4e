package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cliptube/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE watch_history, playlist_videos, playlists, subscriptions, likes, comments, tweets, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     username + " example",
		PasswordHash: "password-hash",
		Role:         models.RoleUser,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestVideo(t *testing.T, repo *PostgresVideoRepository, ownerID, title string, published bool) models.Video {
	t.Helper()
	video := models.Video{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Title:       title,
		IsPublished: published,
		AssetStatus: models.AssetStatusReady,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := repo.Create(context.Background(), video); err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return video
}

func TestPostgresUserRepository_CreateFindAndSessions(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	dup := user
	dup.ID = uuid.NewString()
	dup.Email = "other@example.com"
	dup.Username = "ALICE"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	fetched, err := repo.FindByIdentifier(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("find by email identifier: %v", err)
	}
	if fetched.ID != user.ID || fetched.RefreshToken != "" {
		t.Fatalf("unexpected user fetched: %+v", fetched)
	}

	if err := repo.SetRefreshToken(ctx, user.ID, "session-token"); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}
	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.RefreshToken != "session-token" {
		t.Fatalf("expected refresh token to persist, got %q", fetched.RefreshToken)
	}

	// Clearing stores NULL, which scans back as the empty string.
	if err := repo.SetRefreshToken(ctx, user.ID, ""); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}
	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.RefreshToken != "" {
		t.Fatalf("expected refresh token to be cleared, got %q", fetched.RefreshToken)
	}

	if err := repo.UpdatePassword(ctx, user.ID, "rotated-hash"); err != nil {
		t.Fatalf("update password: %v", err)
	}
	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find by id: %v", err)
	}
	if fetched.PasswordHash != "rotated-hash" {
		t.Fatalf("expected password hash to rotate, got %q", fetched.PasswordHash)
	}

	if _, err := repo.FindByID(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestPostgresVideoRepository_ListAndAssetLifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)

	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bob")

	published := createTestVideo(t, videos, alice.ID, "published clip", true)
	createTestVideo(t, videos, alice.ID, "draft clip", false)
	createTestVideo(t, videos, bob.ID, "bob clip", true)

	listed, err := videos.List(ctx, VideoListFilter{SortBy: "created_at", SortDesc: true, Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list videos: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 published videos, got %d", len(listed))
	}

	mine, err := videos.List(ctx, VideoListFilter{OwnerID: alice.ID, SortBy: "created_at", Page: 1, Limit: 10})
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != published.ID {
		t.Fatalf("expected only alice's published video, got %+v", mine)
	}

	if err := videos.IncrementViews(ctx, published.ID); err != nil {
		t.Fatalf("increment views: %v", err)
	}
	fetched, err := videos.FindByID(ctx, published.ID)
	if err != nil {
		t.Fatalf("find video: %v", err)
	}
	if fetched.Views != 1 {
		t.Fatalf("expected 1 view, got %d", fetched.Views)
	}

	if err := videos.MarkAssetReady(ctx, published.ID, "https://cdn/video.mp4", "https://cdn/thumb.jpg"); err != nil {
		t.Fatalf("mark asset ready: %v", err)
	}
	fetched, err = videos.FindByID(ctx, published.ID)
	if err != nil {
		t.Fatalf("find video: %v", err)
	}
	if fetched.AssetStatus != models.AssetStatusReady || fetched.VideoURL == "" {
		t.Fatalf("expected ready asset with URL, got %+v", fetched)
	}

	if err := videos.Delete(ctx, uuid.NewString()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting missing video, got %v", err)
	}
}

func TestPostgresLikeRepository_Toggle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	likes := NewPostgresLikeRepository(testPool)

	alice := createTestUser(t, users, "alice")
	video := createTestVideo(t, videos, alice.ID, "clip", true)

	like := models.Like{ID: uuid.NewString(), VideoID: video.ID, LikedBy: alice.ID, CreatedAt: time.Now().UTC()}

	liked, err := likes.Toggle(ctx, like)
	if err != nil {
		t.Fatalf("toggle like on: %v", err)
	}
	if !liked {
		t.Fatal("expected first toggle to like")
	}

	likedVideos, err := likes.ListLikedVideos(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list liked videos: %v", err)
	}
	if len(likedVideos) != 1 || likedVideos[0].ID != video.ID {
		t.Fatalf("expected the liked video, got %+v", likedVideos)
	}

	like.ID = uuid.NewString()
	liked, err = likes.Toggle(ctx, like)
	if err != nil {
		t.Fatalf("toggle like off: %v", err)
	}
	if liked {
		t.Fatal("expected second toggle to unlike")
	}

	ghost := models.Like{ID: uuid.NewString(), VideoID: uuid.NewString(), LikedBy: alice.ID, CreatedAt: time.Now().UTC()}
	if _, err := likes.Toggle(ctx, ghost); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing target, got %v", err)
	}
}

func TestPostgresSubscriptionRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	subs := NewPostgresSubscriptionRepository(testPool)

	alice := createTestUser(t, users, "alice")
	bob := createTestUser(t, users, "bob")

	sub := models.Subscription{ID: uuid.NewString(), SubscriberID: alice.ID, ChannelID: bob.ID, CreatedAt: time.Now().UTC()}
	if err := subs.Create(ctx, sub); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	dup := sub
	dup.ID = uuid.NewString()
	if err := subs.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate subscription, got %v", err)
	}

	channels, err := subs.ListChannels(ctx, alice.ID)
	if err != nil {
		t.Fatalf("list channels: %v", err)
	}
	if len(channels) != 1 || channels[0].ID != bob.ID {
		t.Fatalf("expected bob's channel, got %+v", channels)
	}

	subscribers, err := subs.ListSubscribers(ctx, bob.ID)
	if err != nil {
		t.Fatalf("list subscribers: %v", err)
	}
	if len(subscribers) != 1 || subscribers[0].ID != alice.ID {
		t.Fatalf("expected alice as subscriber, got %+v", subscribers)
	}

	if err := subs.Delete(ctx, alice.ID, bob.ID); err != nil {
		t.Fatalf("delete subscription: %v", err)
	}
	if err := subs.Delete(ctx, alice.ID, bob.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting missing subscription, got %v", err)
	}
}

func TestPostgresPlaylistRepository_Ordering(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	playlists := NewPostgresPlaylistRepository(testPool)

	alice := createTestUser(t, users, "alice")
	first := createTestVideo(t, videos, alice.ID, "first", true)
	second := createTestVideo(t, videos, alice.ID, "second", true)

	playlist := models.Playlist{
		ID:        uuid.NewString(),
		OwnerID:   alice.ID,
		Name:      "favorites",
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
	if err := playlists.Create(ctx, playlist); err != nil {
		t.Fatalf("create playlist: %v", err)
	}

	if err := playlists.AddVideo(ctx, playlist.ID, first.ID); err != nil {
		t.Fatalf("add first video: %v", err)
	}
	if err := playlists.AddVideo(ctx, playlist.ID, second.ID); err != nil {
		t.Fatalf("add second video: %v", err)
	}
	if err := playlists.AddVideo(ctx, playlist.ID, first.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict re-adding a video, got %v", err)
	}

	fetched, err := playlists.FindByID(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("find playlist: %v", err)
	}
	if len(fetched.VideoIDs) != 2 || fetched.VideoIDs[0] != first.ID || fetched.VideoIDs[1] != second.ID {
		t.Fatalf("expected insertion order preserved, got %v", fetched.VideoIDs)
	}

	if err := playlists.RemoveVideo(ctx, playlist.ID, first.ID); err != nil {
		t.Fatalf("remove video: %v", err)
	}
	fetched, err = playlists.FindByID(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("find playlist: %v", err)
	}
	if len(fetched.VideoIDs) != 1 || fetched.VideoIDs[0] != second.ID {
		t.Fatalf("expected only the second video to remain, got %v", fetched.VideoIDs)
	}
}

func TestPostgresUserRepository_WatchHistory(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)

	alice := createTestUser(t, users, "alice")
	video := createTestVideo(t, videos, alice.ID, "clip", true)

	if err := users.RecordWatch(ctx, alice.ID, video.ID); err != nil {
		t.Fatalf("record watch: %v", err)
	}
	// Re-watching the same video updates the timestamp instead of duplicating.
	if err := users.RecordWatch(ctx, alice.ID, video.ID); err != nil {
		t.Fatalf("record repeat watch: %v", err)
	}

	history, err := users.WatchHistory(ctx, alice.ID, 10)
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(history) != 1 || history[0].Video.ID != video.ID {
		t.Fatalf("expected one history entry, got %+v", history)
	}
}

func TestPostgresStatsRepository_Totals(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	users := NewPostgresUserRepository(testPool)
	videos := NewPostgresVideoRepository(testPool)
	stats := NewPostgresStatsRepository(testPool)

	alice := createTestUser(t, users, "alice")
	createTestVideo(t, videos, alice.ID, "clip", true)

	totals, err := stats.Totals(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.Users != 1 || totals.Videos != 1 {
		t.Fatalf("unexpected totals: %+v", totals)
	}
	if totals.FetchedAt.IsZero() {
		t.Fatal("expected FetchedAt to be stamped")
	}
}
