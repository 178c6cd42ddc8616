package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/example/packscan/internal/logging"
	"github.com/example/packscan/internal/repository"
)

const (
	chartCacheKey = "chartdata"
	chartCacheTTL = 5 * time.Minute
	chartTopLimit = 10
)

var monthLabels = []string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// ChartData aggregates the dashboard counters: packager usage, posts per
// month, predictions per month.
type ChartData struct {
	Packagers      []string `json:"packagers"`
	PackagersCount []int64  `json:"packagersCount"`
	Months         []string `json:"months"`
	MonthsCount    []int64  `json:"monthsCount"`
	Plastic        []string `json:"plastic"`
	PlasticCount   []int64  `json:"plasticCount"`
}

// GetChartData serves the dashboard aggregates cache-aside: a redis hit is
// returned directly, a miss recomputes from storage and refills the cache.
// Cache failures degrade to plain storage reads.
func (uc *PostUseCase) GetChartData(ctx context.Context) (*ChartData, error) {
	opLogger := logging.WithOperation(uc.logger, "usecase.chart_data", "")

	if cached, err := uc.withRedisGet(ctx, "cache.get.chartdata", chartCacheKey); err == nil {
		var data ChartData
		if err := json.Unmarshal([]byte(cached), &data); err != nil {
			opLogger.Warn("failed to decode cached chart data", zap.Error(err))
		} else {
			return &data, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		opLogger.Warn("failed to read chart cache", zap.Error(err))
	}

	data, err := uc.computeChartData(ctx)
	if err != nil {
		return nil, err
	}

	if serialized, err := json.Marshal(data); err != nil {
		opLogger.Warn("failed to serialize chart data", zap.Error(err))
	} else if err := uc.withRedisRetry(ctx, "cache.set.chartdata", func() error {
		return uc.cache.Set(ctx, chartCacheKey, string(serialized), chartCacheTTL)
	}); err != nil {
		opLogger.Warn("failed to cache chart data", zap.Error(err))
	}

	return data, nil
}

func (uc *PostUseCase) computeChartData(ctx context.Context) (*ChartData, error) {
	packagers, err := uc.registry.accounts.TopPackagers(ctx, chartTopLimit)
	if err != nil {
		return nil, err
	}

	year := time.Now().UTC().Year()
	postCounts, err := uc.posts.MonthlyPostCounts(ctx, year)
	if err != nil {
		return nil, err
	}
	predictionCounts, err := uc.posts.MonthlyPredictionCounts(ctx, year)
	if err != nil {
		return nil, err
	}

	data := &ChartData{
		Packagers:      make([]string, 0, len(packagers)),
		PackagersCount: make([]int64, 0, len(packagers)),
		Months:         monthLabels,
		MonthsCount:    monthSeries(postCounts),
		Plastic:        monthLabels,
		PlasticCount:   monthSeries(predictionCounts),
	}
	for _, packager := range packagers {
		data.Packagers = append(data.Packagers, packager.DisplayName)
		data.PackagersCount = append(data.PackagersCount, packager.UsageCount)
	}
	return data, nil
}

func monthSeries(rows []repository.MonthCount) []int64 {
	series := make([]int64, len(monthLabels))
	for _, row := range rows {
		if row.Month >= 1 && row.Month <= len(series) {
			series[row.Month-1] = row.Count
		}
	}
	return series
}

func (uc *PostUseCase) withRedisRetry(ctx context.Context, operation string, fn func() error) error {
	if uc.retryAttempts <= 1 {
		return logging.NewOperationError(operation, "", fn())
	}

	backoff := uc.initialBackoff
	opLogger := logging.WithOperation(uc.logger, operation, "")
	var err error
	for attempt := 0; attempt < uc.retryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return logging.NewOperationError(operation, "", ctx.Err())
			case <-time.After(backoff):
			}
			if next := backoff * 2; next <= uc.maxBackoff {
				backoff = next
			}
		}

		err = fn()
		if err == nil {
			if attempt > 0 {
				opLogger.Info("redis operation succeeded after retry", zap.Int("attempt", attempt+1))
			}
			return nil
		}
		if errors.Is(err, redis.Nil) {
			return err
		}

		if !isTransientError(err) || attempt == uc.retryAttempts-1 {
			opLogger.Warn("redis operation failed", zap.Error(err), zap.Int("attempt", attempt+1))
			return logging.NewOperationError(operation, "", err)
		}

		opLogger.Warn("transient redis error", zap.Error(err), zap.Int("attempt", attempt+1))
	}
	return logging.NewOperationError(operation, "", err)
}

func (uc *PostUseCase) withRedisGet(ctx context.Context, operation, key string) (string, error) {
	var result string
	err := uc.withRedisRetry(ctx, operation, func() error {
		value, err := uc.cache.Get(ctx, key)
		if err != nil {
			return err
		}
		result = value
		return nil
	})
	if err != nil {
		return "", err
	}
	return result, nil
}

func isTransientError(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var timeoutErr interface{ Timeout() bool }
	if errors.As(err, &timeoutErr) && timeoutErr.Timeout() {
		return true
	}

	var temporaryErr interface{ Temporary() bool }
	if errors.As(err, &temporaryErr) && temporaryErr.Temporary() {
		return true
	}

	return false
}
