package sessions

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key prefix
const sessionPrefix = "sessions:"

// RedisStore keeps one sorted set per user, scored by token expiry.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func sessionKey(userID string) string { return sessionPrefix + userID }

func (s *RedisStore) Add(ctx context.Context, userID, tokenID string, expiresAt time.Time) error {
	key := sessionKey(userID)
	now := s.now()

	pipe := s.rdb.TxPipeline()
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(now.Unix(), 10))
	pipe.ZAdd(ctx, key, redis.Z{Score: float64(expiresAt.Unix()), Member: tokenID})
	pipe.ExpireAt(ctx, key, expiresAt)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *RedisStore) Active(ctx context.Context, userID, tokenID string) (bool, error) {
	score, err := s.rdb.ZScore(ctx, sessionKey(userID), tokenID).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return int64(score) > s.now().Unix(), nil
}

func (s *RedisStore) Remove(ctx context.Context, userID, tokenID string) error {
	return s.rdb.ZRem(ctx, sessionKey(userID), tokenID).Err()
}

func (s *RedisStore) RemoveAll(ctx context.Context, userID string) error {
	return s.rdb.Del(ctx, sessionKey(userID)).Err()
}
