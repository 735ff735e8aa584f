package continuity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/tacs-assistant/server/internal/core/error"
	logx "github.com/tacs-assistant/server/pkg/logger"
)

// RedisStore is an opt-in Store backend that keeps tokens in Redis, one JSON
// value per chat. It is a deployment choice, not a requirement: the bot
// defaults to MemoryStore and treats token loss on restart as expected.
type RedisStore[T any] struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisStore[T any](rdb redis.Cmdable, ttl time.Duration) *RedisStore[T] {
	return &RedisStore[T]{rdb: rdb, ttl: ttl}
}

func (s *RedisStore[T]) tokenKey(chatID int64) string {
	return fmt.Sprintf("continuity:%d:token", chatID)
}

func (s *RedisStore[T]) Get(ctx context.Context, chatID int64) (T, bool, error) {
	var token T

	b, err := s.rdb.Get(ctx, s.tokenKey(chatID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return token, false, nil
		}
		logx.Error().Err(err).Int64("chat_id", chatID).Msg("failed to read continuity token from redis")
		return token, false, errx.WrapRedis(err)
	}

	if err := json.Unmarshal(b, &token); err != nil {
		logx.Error().Err(err).Int64("chat_id", chatID).Msg("failed to unmarshal continuity token")
		return token, false, fmt.Errorf("unmarshal token: %w", err)
	}
	return token, true, nil
}

func (s *RedisStore[T]) Set(ctx context.Context, chatID int64, token T) error {
	b, err := json.Marshal(token)
	if err != nil {
		logx.Error().Err(err).Int64("chat_id", chatID).Msg("failed to marshal continuity token")
		return fmt.Errorf("marshal token: %w", err)
	}

	// TTL is refreshed on every write so active chats stay warm.
	if err := s.rdb.Set(ctx, s.tokenKey(chatID), b, s.ttl).Err(); err != nil {
		logx.Error().Err(err).Int64("chat_id", chatID).Msg("failed to write continuity token to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (s *RedisStore[T]) Clear(ctx context.Context, chatID int64) (bool, error) {
	if err := s.rdb.Del(ctx, s.tokenKey(chatID)).Err(); err != nil {
		logx.Error().Err(err).Int64("chat_id", chatID).Msg("failed to delete continuity token from redis")
		return false, errx.WrapRedis(err)
	}
	return true, nil
}
