package analytics

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStore(client)
}

func TestStore_IncrementAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := s.Increment(ctx, MetricViews); err != nil {
			t.Fatalf("increment: %v", err)
		}
	}

	n, err := s.Get(ctx, MetricViews)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n != 3 {
		t.Errorf("expected 3 views, got %d", n)
	}
}

func TestStore_GetMissingIsZero(t *testing.T) {
	s := newTestStore(t)

	n, err := s.Get(context.Background(), MetricShares)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n != 0 {
		t.Errorf("expected 0 for untouched counter, got %d", n)
	}
}

func TestStore_GetAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if _, err := s.Increment(ctx, MetricViews); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if _, err := s.Increment(ctx, MetricReactions); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if _, err := s.Increment(ctx, MetricReactions); err != nil {
		t.Fatalf("increment: %v", err)
	}

	counts, err := s.GetAll(ctx)
	if err != nil {
		t.Fatalf("get all: %v", err)
	}
	want := map[Metric]int64{
		MetricViews:     1,
		MetricShares:    0,
		MetricReactions: 2,
		MetricEntries:   0,
	}
	for m, expected := range want {
		if counts[m] != expected {
			t.Errorf("metric %s: expected %d, got %d", m, expected, counts[m])
		}
	}
}

func TestIsMetric(t *testing.T) {
	for _, m := range AllowedMetrics {
		if !IsMetric(string(m)) {
			t.Errorf("expected %s to be a valid metric", m)
		}
	}
	if IsMetric("downloads") {
		t.Error("expected downloads to be rejected")
	}
}
