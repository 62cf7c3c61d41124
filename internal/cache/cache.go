// Package cache publishes game action records to a Redis queue for the
// historian consumer. Publishing is best effort: failures are logged by the
// caller, never retried, and never block game state.
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// Rdb is the shared Redis client. Nil when Redis is not configured; callers
// must check before publishing.
var Rdb *redis.Client

// actionQueueKey is the list the historian consumes from.
const actionQueueKey = "cribbage:action_queue"

// InitRedis connects the shared client and verifies connectivity.
func InitRedis(ctx context.Context, addr string) error {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	Rdb = client
	logrus.WithField("addr", addr).Info("cache: redis connected")
	return nil
}

// ActionRecord is one audit entry: who did what in which game, in order.
type ActionRecord struct {
	GameHistoryID int64                  `json:"gameHistoryId"`
	ActionIndex   int                    `json:"actionIndex"`
	PlayerName    string                 `json:"playerName,omitempty"`
	ActionType    string                 `json:"actionType"`
	Payload       map[string]interface{} `json:"payload,omitempty"`
	Timestamp     int64                  `json:"timestamp"`
}

// PublishAction pushes one record onto the historian queue.
func PublishAction(ctx context.Context, rec ActionRecord) error {
	if Rdb == nil {
		return fmt.Errorf("redis client not initialized")
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal action record: %w", err)
	}
	if err := Rdb.RPush(ctx, actionQueueKey, raw).Err(); err != nil {
		return fmt.Errorf("rpush action record: %w", err)
	}
	return nil
}
