package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"sitescan/internal/config"
	"sitescan/internal/domain"
)

// RedisFeed pushes the latest snapshot to redis for live consumers:
// a SET of the full snapshot under a fixed key plus a PUBLISH on the
// update channel so dashboards can react without polling.
type RedisFeed struct {
	client  *redis.Client
	key     string
	channel string
	log     *slog.Logger
}

func NewRedisFeed(cfg *config.RedisConfig, log *slog.Logger) (*RedisFeed, error) {
	client := redis.NewClient(cfg.GetRedisOptions())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("connected to redis", "addr", cfg.Addr)
	return &RedisFeed{client: client, key: cfg.Key, channel: cfg.Channel, log: log}, nil
}

func (r *RedisFeed) Close() error {
	return r.client.Close()
}

// feedPayload is the wire form pushed to redis: the run id plus the
// full row set in one document.
func feedPayload(runID string, rows []domain.SnapshotRow) ([]byte, error) {
	return json.Marshal(map[string]any{
		"run_id": runID,
		"rows":   rows,
	})
}

// Publish replaces the latest-snapshot key and notifies subscribers.
func (r *RedisFeed) Publish(ctx context.Context, runID string, rows []domain.SnapshotRow) error {
	payload, err := feedPayload(runID, rows)
	if err != nil {
		return fmt.Errorf("marshal redis feed: %w", err)
	}

	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", r.key, err)
	}
	if err := r.client.Publish(ctx, r.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", r.channel, err)
	}
	return nil
}
