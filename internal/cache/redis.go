// internal/cache/redis.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/tazjel/baloot-ai-sub002/internal/models"
)

// DefaultQueueName is the Redis list (queue) name for round archive records.
const DefaultQueueName = "baloot_rounds"

// DefaultSnapshotTTL keeps abandoned room snapshots from living forever.
const DefaultSnapshotTTL = 2 * time.Hour

// Store wraps the Redis client used for room snapshots and the archive
// queue. It is passed explicitly into every orchestration entry point; there
// is no package-level client.
type Store struct {
	rdb       *redis.Client
	queueName string
	ttl       time.Duration
}

// Connect initializes a Store from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//   - ARCHIVE_QUEUE_NAME (optional)
//   - SNAPSHOT_TTL (optional duration, default 2h)
func Connect() (*Store, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   dbIdx,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}

	ttl := DefaultSnapshotTTL
	if raw := os.Getenv("SNAPSHOT_TTL"); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil {
			ttl = d
		}
	}
	return &Store{
		rdb:       rdb,
		queueName: getEnv("ARCHIVE_QUEUE_NAME", DefaultQueueName),
		ttl:       ttl,
	}, nil
}

// NewStore wraps an existing client, for tests.
func NewStore(rdb *redis.Client, queueName string, ttl time.Duration) *Store {
	return &Store{rdb: rdb, queueName: queueName, ttl: ttl}
}

func snapshotKey(roomID uuid.UUID) string {
	return "baloot:room:" + roomID.String()
}

// SaveSnapshot writes the serialized game aggregate under the room key with
// the configured TTL. Every successful mutation is followed by a save so
// any worker process handling the next request sees the latest state.
func (s *Store) SaveSnapshot(ctx context.Context, roomID uuid.UUID, data []byte) error {
	if err := s.rdb.Set(ctx, snapshotKey(roomID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save snapshot for room %s: %w", roomID, err)
	}
	return nil
}

// LoadSnapshot reads the latest persisted aggregate for the room. A missing
// key returns (nil, nil).
func (s *Store) LoadSnapshot(ctx context.Context, roomID uuid.UUID) ([]byte, error) {
	data, err := s.rdb.Get(ctx, snapshotKey(roomID)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for room %s: %w", roomID, err)
	}
	return data, nil
}

// DeleteSnapshot removes the room's snapshot, typically at GAMEOVER.
func (s *Store) DeleteSnapshot(ctx context.Context, roomID uuid.UUID) error {
	if err := s.rdb.Del(ctx, snapshotKey(roomID)).Err(); err != nil {
		return fmt.Errorf("failed to delete snapshot for room %s: %w", roomID, err)
	}
	return nil
}

// PublishRoundRecord serializes the record to JSON and pushes it onto the
// archive queue. The archiver worker drains the queue into Postgres; this
// path is write-only from the engine's perspective.
func (s *Store) PublishRoundRecord(ctx context.Context, record models.RoundRecord) error {
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal RoundRecord: %w", err)
	}
	if err := s.rdb.RPush(ctx, s.queueName, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list %q: %w", s.queueName, err)
	}
	return nil
}

// PopRoundRecord blocks up to timeout waiting for one archived record.
// Returns (nil, nil) on timeout. Used by the archiver worker.
func (s *Store) PopRoundRecord(ctx context.Context, timeout time.Duration) (*models.RoundRecord, error) {
	res, err := s.rdb.BLPop(ctx, timeout, s.queueName).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to BLPop from Redis list %q: %w", s.queueName, err)
	}
	// BLPop returns [key, value].
	var record models.RoundRecord
	if err := json.Unmarshal([]byte(res[1]), &record); err != nil {
		return nil, fmt.Errorf("failed to unmarshal RoundRecord: %w", err)
	}
	return &record, nil
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
