package analytics

import (
	"context"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// Metric is one site-wide engagement counter.
type Metric string

const (
	MetricViews     Metric = "views"
	MetricShares    Metric = "shares"
	MetricReactions Metric = "reactions"
	MetricEntries   Metric = "entries"
)

// AllowedMetrics is the full counter set, in response order.
var AllowedMetrics = []Metric{MetricViews, MetricShares, MetricReactions, MetricEntries}

func IsMetric(s string) bool {
	for _, m := range AllowedMetrics {
		if string(m) == s {
			return true
		}
	}
	return false
}

type Store struct {
	redis *redis.Client
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{redis: redisClient}
}

func metricKey(m Metric) string {
	return fmt.Sprintf("analytics:%s", m)
}

func (s *Store) Increment(ctx context.Context, m Metric) (int64, error) {
	return s.redis.Incr(ctx, metricKey(m)).Result()
}

func (s *Store) Get(ctx context.Context, m Metric) (int64, error) {
	v, err := s.redis.Get(ctx, metricKey(m)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	return v, err
}

// GetAll fetches every counter in one round trip.
func (s *Store) GetAll(ctx context.Context) (map[Metric]int64, error) {
	keys := make([]string, len(AllowedMetrics))
	for i, m := range AllowedMetrics {
		keys[i] = metricKey(m)
	}

	values, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	counts := make(map[Metric]int64, len(AllowedMetrics))
	for i, m := range AllowedMetrics {
		counts[m] = 0
		if raw, ok := values[i].(string); ok {
			if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
				counts[m] = n
			}
		}
	}
	return counts, nil
}
