package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisService is an optional read-through cache in front of hot lookups
// (today's journal, mostly). Every method is safe on a nil receiver, so
// callers never have to branch on whether Redis is configured.
type RedisService struct {
	client *redis.Client
}

// NewRedisService connects to Redis if a URL is configured. Returns nil
// (not an error) when the URL is empty or the server is unreachable; the
// app degrades to direct DB reads.
func NewRedisService(redisURL string) *RedisService {
	if redisURL == "" {
		return nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("⚠️ [REDIS] Invalid REDIS_URL, caching disabled: %v", err)
		return nil
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️ [REDIS] Ping failed, caching disabled: %v", err)
		client.Close()
		return nil
	}

	log.Printf("✅ [REDIS] Connected")
	return &RedisService{client: client}
}

// SetJSON caches a value under key with a TTL. Best effort.
func (s *RedisService) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if s == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		log.Printf("⚠️ [REDIS] SET %s failed: %v", key, err)
	}
}

// GetJSON loads a cached value into out. Returns false on miss or error.
func (s *RedisService) GetJSON(ctx context.Context, key string, out interface{}) bool {
	if s == nil {
		return false
	}
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(data, out) == nil
}

// Delete removes cached keys. Best effort.
func (s *RedisService) Delete(ctx context.Context, keys ...string) {
	if s == nil || len(keys) == 0 {
		return
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		log.Printf("⚠️ [REDIS] DEL failed: %v", err)
	}
}

// Close shuts the client down
func (s *RedisService) Close() {
	if s == nil {
		return
	}
	s.client.Close()
}

// TodayJournalKey is the cache key for a user's journal on a given date
func TodayJournalKey(userID, date string) string {
	return fmt.Sprintf("questlog:today:%s:%s", userID, date)
}
