package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/packscan/internal/repository"
)

// recordingCache is an in-memory Cache that tracks writes.
type recordingCache struct {
	values map[string]string
	sets   int
}

func newRecordingCache() *recordingCache {
	return &recordingCache{values: make(map[string]string)}
}

func (c *recordingCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	c.sets++
	c.values[key] = value.(string)
	return nil
}

func (c *recordingCache) Get(ctx context.Context, key string) (string, error) {
	if value, ok := c.values[key]; ok {
		return value, nil
	}
	return "", redis.Nil
}

func newChartUseCase(posts *stubPosts, accounts *stubAccounts, cache Cache) *PostUseCase {
	registry := NewRegistry(accounts, zap.NewNop())
	return NewPostUseCase(registry, posts, newStubFiles(), cache, &stubPredictor{}, zap.NewNop())
}

func TestGetChartDataComputesAndCaches(t *testing.T) {
	posts := newStubPosts()
	accounts := newStubAccounts()
	accounts.packagers["acmeco"] = &repository.Packager{ID: 1, Name: "acmeco", DisplayName: "Acme Co", UsageCount: 5}
	cache := newRecordingCache()
	uc := newChartUseCase(posts, accounts, cache)

	data, err := uc.GetChartData(context.Background())
	if err != nil {
		t.Fatalf("GetChartData failed: %v", err)
	}

	if len(data.Months) != 12 || len(data.MonthsCount) != 12 {
		t.Fatalf("expected 12 month buckets, got %d/%d", len(data.Months), len(data.MonthsCount))
	}
	if len(data.Packagers) != 1 || data.Packagers[0] != "Acme Co" {
		t.Fatalf("unexpected packagers: %v", data.Packagers)
	}
	if data.PackagersCount[0] != 5 {
		t.Fatalf("expected usage count 5, got %d", data.PackagersCount[0])
	}
	if cache.sets != 1 {
		t.Fatalf("expected the result to be cached once, got %d sets", cache.sets)
	}
}

func TestGetChartDataServesFromCache(t *testing.T) {
	cached := &ChartData{
		Packagers:      []string{"Cached Co"},
		PackagersCount: []int64{9},
		Months:         monthLabels,
		MonthsCount:    make([]int64, 12),
		Plastic:        monthLabels,
		PlasticCount:   make([]int64, 12),
	}
	serialized, err := json.Marshal(cached)
	if err != nil {
		t.Fatalf("failed to marshal fixture: %v", err)
	}

	cache := newRecordingCache()
	cache.values[chartCacheKey] = string(serialized)
	uc := newChartUseCase(newStubPosts(), newStubAccounts(), cache)

	data, err := uc.GetChartData(context.Background())
	if err != nil {
		t.Fatalf("GetChartData failed: %v", err)
	}
	if len(data.Packagers) != 1 || data.Packagers[0] != "Cached Co" {
		t.Fatalf("expected cached payload, got %v", data.Packagers)
	}
	if cache.sets != 0 {
		t.Fatalf("cache hit must not rewrite the cache, got %d sets", cache.sets)
	}
}

func TestGetChartDataMapsMonthSeries(t *testing.T) {
	posts := newStubPosts()
	uc := newChartUseCase(posts, newStubAccounts(), nopCache{})

	// monthSeries places counts into 1-based month slots and drops
	// out-of-range rows.
	series := monthSeries([]repository.MonthCount{
		{Month: 1, Count: 3},
		{Month: 12, Count: 7},
		{Month: 0, Count: 99},
		{Month: 13, Count: 99},
	})
	if series[0] != 3 || series[11] != 7 {
		t.Fatalf("unexpected series: %v", series)
	}
	for i := 1; i < 11; i++ {
		if series[i] != 0 {
			t.Fatalf("expected zero at month %d, got %d", i+1, series[i])
		}
	}

	if _, err := uc.GetChartData(context.Background()); err != nil {
		t.Fatalf("GetChartData failed: %v", err)
	}
}
