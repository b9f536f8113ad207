package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// RedisStore держит окно в sorted set, score = время запроса в мс.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = "invent:ratelimit:"
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Allow(ctx context.Context, key string, limit int, window time.Duration, now time.Time) (Result, error) {
	k := s.prefix + key
	nowMs := now.UnixMilli()
	cut := strconv.FormatInt(now.Add(-window).UnixMilli(), 10)
	member := strconv.FormatInt(nowMs, 10) + "-" + uuid.NewString()

	var card *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRemRangeByScore(ctx, k, "-inf", cut)
		p.ZAdd(ctx, k, &redis.Z{Score: float64(nowMs), Member: member})
		card = p.ZCard(ctx, k)
		p.PExpire(ctx, k, window)
		return nil
	})
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit %s: %w", key, err)
	}

	oldest := now
	first, err := s.client.ZRangeWithScores(ctx, k, 0, 0).Result()
	if err != nil {
		return Result{}, fmt.Errorf("ratelimit %s: %w", key, err)
	}
	if len(first) == 1 {
		oldest = time.UnixMilli(int64(first[0].Score))
	}

	n := int(card.Val())
	if n > limit {
		// отклонённый запрос не занимает слот
		if err := s.client.ZRem(ctx, k, member).Err(); err != nil {
			return Result{}, fmt.Errorf("ratelimit %s: %w", key, err)
		}
		return denied(limit, oldest, window, now), nil
	}
	return Result{
		Allowed:   true,
		Limit:     limit,
		Remaining: limit - n,
		Reset:     oldest.Add(window),
	}, nil
}
