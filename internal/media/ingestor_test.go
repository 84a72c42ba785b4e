package media

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"
	"time"
)

type fakeStorage struct {
	mu    sync.Mutex
	saved map[string]string
	fail  bool
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{saved: make(map[string]string)}
}

func (s *fakeStorage) Save(_ context.Context, name string, r io.Reader) (string, error) {
	if s.fail {
		return "", errors.New("storage unavailable")
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	s.saved[name] = string(data)
	s.mu.Unlock()
	return "https://cdn.example.com/" + name, nil
}

type fakeUpdater struct {
	mu     sync.Mutex
	ready  map[string][2]string
	failed map[string]bool
}

func newFakeUpdater() *fakeUpdater {
	return &fakeUpdater{ready: make(map[string][2]string), failed: make(map[string]bool)}
}

func (u *fakeUpdater) MarkAssetReady(_ context.Context, videoID, videoURL, thumbnailURL string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.ready[videoID] = [2]string{videoURL, thumbnailURL}
	return nil
}

func (u *fakeUpdater) MarkAssetFailed(_ context.Context, videoID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.failed[videoID] = true
	return nil
}

func stageFile(t *testing.T, contents string) string {
	t.Helper()

	f, err := os.CreateTemp(t.TempDir(), "staged-*")
	if err != nil {
		t.Fatalf("create temp file: %v", err)
	}
	if _, err := f.WriteString(contents); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close temp file: %v", err)
	}
	return f.Name()
}

func TestIngestorProcessesJob(t *testing.T) {
	storage := newFakeStorage()
	updater := newFakeUpdater()
	ing := NewIngestor(storage, updater, IngestorConfig{Workers: 1, QueueSize: 4}, nil)

	job := IngestJob{
		VideoID:       "video-1",
		VideoPath:     stageFile(t, "video bytes"),
		VideoKey:      "videos/video-1.mp4",
		ThumbnailPath: stageFile(t, "thumb bytes"),
		ThumbnailKey:  "thumbnails/video-1.jpg",
	}

	if err := ing.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ing.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	urls, ok := updater.ready["video-1"]
	if !ok {
		t.Fatal("expected the video to be marked ready")
	}
	if urls[0] == "" || urls[1] == "" {
		t.Fatalf("expected both asset URLs, got %v", urls)
	}
	if storage.saved["videos/video-1.mp4"] != "video bytes" {
		t.Fatal("expected the staged video contents to reach storage")
	}

	// Staged files are removed once the job completes.
	if _, err := os.Stat(job.VideoPath); !os.IsNotExist(err) {
		t.Fatal("expected the staged video file to be deleted")
	}
	if _, err := os.Stat(job.ThumbnailPath); !os.IsNotExist(err) {
		t.Fatal("expected the staged thumbnail file to be deleted")
	}
}

func TestIngestorMarksFailure(t *testing.T) {
	storage := newFakeStorage()
	storage.fail = true
	updater := newFakeUpdater()
	ing := NewIngestor(storage, updater, IngestorConfig{Workers: 1, QueueSize: 4}, nil)

	job := IngestJob{
		VideoID:   "video-1",
		VideoPath: stageFile(t, "video bytes"),
		VideoKey:  "videos/video-1.mp4",
	}

	if err := ing.Enqueue(context.Background(), job); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ing.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if !updater.failed["video-1"] {
		t.Fatal("expected the video to be marked failed")
	}
	if len(updater.ready) != 0 {
		t.Fatal("expected no videos to be marked ready")
	}
}

func TestIngestorEnqueueAfterShutdown(t *testing.T) {
	ing := NewIngestor(newFakeStorage(), newFakeUpdater(), IngestorConfig{Workers: 1, QueueSize: 1}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ing.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown: %v", err)
	}

	if err := ing.Enqueue(context.Background(), IngestJob{VideoID: "late"}); err == nil {
		t.Fatal("expected enqueue after shutdown to fail")
	}
}
