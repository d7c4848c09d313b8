// Package presence mirrors participant liveness into Redis so external
// dashboards can read it without a mutation path into the pairing core.
// Each participant gets a hash with TTL-based expiry; the core never reads
// these keys back.
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// KeyPrefix is the Redis key prefix for presence hashes.
	KeyPrefix = "presence:"

	// TTL is the time-to-live for presence keys; refreshed on every state
	// change so only truly dead entries expire.
	TTL = 1 * time.Hour
)

// Store writes participant presence to Redis.
type Store struct {
	client     *redis.Client
	serverName string // identifier for this signaling server instance
}

// NewStore creates a presence store on an existing Redis client.
func NewStore(client *redis.Client, serverName string) *Store {
	return &Store{client: client, serverName: serverName}
}

// Create records a newly admitted participant.
func (s *Store) Create(ctx context.Context, id, country string) error {
	key := KeyPrefix + id
	now := time.Now().Unix()

	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, map[string]interface{}{
		"id":          id,
		"country":     country,
		"status":      "idle",
		"partner_id":  "",
		"server":      s.serverName,
		"created_at":  now,
		"last_active": now,
	})
	pipe.Expire(ctx, key, TTL)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return fmt.Errorf("presence: create %s: %w", id, err)
	}
	return nil
}

// UpdateStatus updates the mirrored status ("idle", "queued", "matched") and
// partner id, refreshing the TTL.
func (s *Store) UpdateStatus(ctx context.Context, id, status, partnerID string) error {
	key := KeyPrefix + id
	pipe := s.client.Pipeline()
	pipe.HSet(ctx, key, "status", status, "partner_id", partnerID, "last_active", time.Now().Unix())
	pipe.Expire(ctx, key, TTL)
	_, err := pipe.Exec(ctx)
	return err
}

// Delete removes a participant's presence record.
func (s *Store) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, KeyPrefix+id).Err()
}
