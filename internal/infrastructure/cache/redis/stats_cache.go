// Package redis caches per-patient compliance statistics.  The cache is an
// optimization only: every miss or error falls through to recomputation.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/turtacn/MedRx-Intelligence/internal/config"
	"github.com/turtacn/MedRx-Intelligence/internal/domain/medication"
	"github.com/turtacn/MedRx-Intelligence/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/MedRx-Intelligence/pkg/errors"
)

// StatsCache implements medication.StatsCache on Redis.
type StatsCache struct {
	client *goredis.Client
	ttl    time.Duration
	logger logging.Logger
}

// NewStatsCache connects to Redis and verifies the connection.
func NewStatsCache(ctx context.Context, cfg config.RedisConfig, logger logging.Logger) (*StatsCache, error) {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "ping redis")
	}
	return &StatsCache{client: client, ttl: cfg.StatsTTL, logger: logger.Named("cache.stats")}, nil
}

func statsKey(patientID int64) string {
	return fmt.Sprintf("medrx:compliance:%d", patientID)
}

// Get returns (nil, nil) on a miss.
func (c *StatsCache) Get(ctx context.Context, patientID int64) (*medication.ComplianceStats, error) {
	data, err := c.client.Get(ctx, statsKey(patientID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "get compliance stats")
	}
	var stats medication.ComplianceStats
	if err := json.Unmarshal(data, &stats); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeCacheError, "decode compliance stats")
	}
	return &stats, nil
}

func (c *StatsCache) Set(ctx context.Context, patientID int64, stats *medication.ComplianceStats) error {
	data, err := json.Marshal(stats)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "encode compliance stats")
	}
	if err := c.client.Set(ctx, statsKey(patientID), data, c.ttl).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "set compliance stats")
	}
	return nil
}

func (c *StatsCache) Invalidate(ctx context.Context, patientID int64) error {
	if err := c.client.Del(ctx, statsKey(patientID)).Err(); err != nil {
		return errors.Wrap(err, errors.ErrCodeCacheError, "invalidate compliance stats")
	}
	return nil
}

// Close releases the client.
func (c *StatsCache) Close() error {
	return c.client.Close()
}
