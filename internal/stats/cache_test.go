package stats

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cliptube/backend/internal/models"
)

type countingProvider struct {
	calls int
	fail  bool
}

func (p *countingProvider) Totals(context.Context) (models.Stats, error) {
	p.calls++
	if p.fail {
		return models.Stats{}, errors.New("database down")
	}
	return models.Stats{Users: int64(p.calls), FetchedAt: time.Now()}, nil
}

func TestCachingProviderServesSnapshot(t *testing.T) {
	base := &countingProvider{}
	provider := NewCachingProvider(base, time.Minute)
	ctx := context.Background()

	first, err := provider.Totals(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	second, err := provider.Totals(ctx)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}

	if base.calls != 1 {
		t.Fatalf("expected one underlying call inside the TTL, got %d", base.calls)
	}
	if first.Users != second.Users {
		t.Fatalf("expected identical snapshots, got %d and %d", first.Users, second.Users)
	}
}

func TestCachingProviderRefreshesAfterTTL(t *testing.T) {
	base := &countingProvider{}
	provider := NewCachingProvider(base, time.Nanosecond)
	ctx := context.Background()

	if _, err := provider.Totals(ctx); err != nil {
		t.Fatalf("totals: %v", err)
	}

	time.Sleep(time.Millisecond)

	if _, err := provider.Totals(ctx); err != nil {
		t.Fatalf("totals: %v", err)
	}
	if base.calls != 2 {
		t.Fatalf("expected a refresh after the TTL, got %d calls", base.calls)
	}
}

func TestCachingProviderPropagatesErrors(t *testing.T) {
	base := &countingProvider{fail: true}
	provider := NewCachingProvider(base, time.Minute)

	if _, err := provider.Totals(context.Background()); err == nil {
		t.Fatal("expected the underlying error to surface")
	}
}
