package persistence

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/hydrowatch/tank-service/internal/config"
	"github.com/hydrowatch/tank-service/internal/domain"
)

const lastReadingKeyPrefix = "tank:last_reading:"

// Redis wraps the go-redis client and the latest-reading cache the dashboard
// polls for live values.
type Redis struct {
	Client *redis.Client
}

// NewRedis connects to Redis using the provided configuration.
func NewRedis(cfg config.RedisConfig, logger *zap.Logger) *Redis {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.Warn("unable to reach redis", zap.Error(err))
	} else {
		logger.Info("connected to redis")
	}

	return &Redis{Client: client}
}

// Close closes the client.
func (r *Redis) Close() {
	if r != nil && r.Client != nil {
		_ = r.Client.Close()
	}
}

// Ping verifies Redis connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	return r.Client.Ping(ctx).Err()
}

// SetLastReading caches the most recent reading snapshot for a tank.
func (r *Redis) SetLastReading(ctx context.Context, tankID string, snapshot domain.ReadingSnapshot) error {
	if r == nil || r.Client == nil {
		return errors.New("redis client not configured")
	}
	payload, err := json.Marshal(snapshot)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, lastReadingKeyPrefix+tankID, payload, 0).Err()
}

// LastReading returns the cached snapshot for a tank, or nil when absent.
func (r *Redis) LastReading(ctx context.Context, tankID string) (*domain.ReadingSnapshot, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("redis client not configured")
	}
	payload, err := r.Client.Get(ctx, lastReadingKeyPrefix+tankID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var snapshot domain.ReadingSnapshot
	if err := json.Unmarshal(payload, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}
