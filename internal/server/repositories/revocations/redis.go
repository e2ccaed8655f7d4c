package revocations

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/spendkeeper/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPrefix namespaces blacklist keys.
const DefaultRedisPrefix = "spendkeeper:revoked:"

const scanBatch = 100

// RedisRepository keeps one key per revoked token. The key TTL is the
// remaining lifetime of the token, so Redis drops records by itself and
// DeleteExpired has nothing left to do. The value is the token's exp as a
// unix timestamp.
type RedisRepository struct {
	client redis.UniversalClient
	prefix string
}

func NewRedisRepository(client redis.UniversalClient, prefix string) *RedisRepository {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisRepository{client: client, prefix: prefix}
}

func (r *RedisRepository) key(token string) string {
	return r.prefix + token
}

// Insert stores the token with NX semantics. A token that is already past its
// expiry is not stored and reports false.
func (r *RedisRepository) Insert(ctx context.Context, token string, blacklistedAt, expiresAt time.Time) (bool, error) {
	ttl := expiresAt.Sub(blacklistedAt)
	if ttl <= 0 {
		return false, nil
	}
	ok, err := r.client.SetNX(ctx, r.key(token), expiresAt.Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return ok, nil
}

func (r *RedisRepository) Exists(ctx context.Context, token string) (bool, error) {
	n, err := r.client.Exists(ctx, r.key(token)).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n > 0, nil
}

// DeleteExpired is a no-op: keys expire through their TTL.
func (r *RedisRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

// Stats scans the prefix and classifies each record by its stored expiry.
func (r *RedisRepository) Stats(ctx context.Context, now time.Time) (models.RevocationStats, error) {
	var s models.RevocationStats

	iter := r.client.Scan(ctx, 0, r.prefix+"*", scanBatch).Iterator()
	batch := make([]string, 0, scanBatch)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		values, err := r.client.MGet(ctx, batch...).Result()
		if err != nil {
			return err
		}
		for _, v := range values {
			str, ok := v.(string)
			if !ok {
				// expired between SCAN and MGET
				continue
			}
			s.Total++
			exp, err := strconv.ParseInt(str, 10, 64)
			if err == nil && time.Unix(exp, 0).Before(now) {
				s.Expired++
			}
		}
		batch = batch[:0]
		return nil
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == scanBatch {
			if err := flush(); err != nil {
				return models.RevocationStats{}, fmt.Errorf("redis error: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil && !errors.Is(err, redis.Nil) {
		return models.RevocationStats{}, fmt.Errorf("redis error: %w", err)
	}
	if err := flush(); err != nil {
		return models.RevocationStats{}, fmt.Errorf("redis error: %w", err)
	}

	s.Active = s.Total - s.Expired
	return s, nil
}
