package expense

import (
	"context"
	"log"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const processedKeyPrefix = "expense:processed:"

// RedisMarkers tracks applied event external ids in Redis.
type RedisMarkers struct {
	client *goredis.Client
}

func NewRedisMarkers(client *goredis.Client) *RedisMarkers {
	return &RedisMarkers{client: client}
}

// IsProcessed returns true if this external id has already been applied.
// Guards against duplicate delivery under at-least-once stream semantics.
func (m *RedisMarkers) IsProcessed(ctx context.Context, externalID string) bool {
	val, err := m.client.Exists(ctx, processedKeyPrefix+externalID).Result()
	return err == nil && val > 0
}

// MarkProcessed records that an event has been applied. The key expires
// after 72 hours, long enough to cover any realistic redelivery window
// from a consumer group.
func (m *RedisMarkers) MarkProcessed(ctx context.Context, externalID string) {
	key := processedKeyPrefix + externalID
	if err := m.client.Set(ctx, key, "1", 72*time.Hour).Err(); err != nil {
		log.Printf("Failed to mark expense %s as processed: %v", externalID, err)
	}
}
