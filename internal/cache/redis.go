package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"
	"github.com/yukikurage/daily-task-api/internal/constants"
	"github.com/yukikurage/daily-task-api/internal/models"
)

// NewRedisClient connects a rueidis client to addr
func NewRedisClient(addr string) (rueidis.Client, error) {
	client, err := rueidis.NewClient(
		rueidis.ClientOption{
			InitAddress: []string{addr},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create redis client: %w", err)
	}

	return client, nil
}

// RedisLeaderboardCache keeps leaderboards in Redis under a generation
// counter. Invalidate bumps the counter instead of scanning keys; stale
// entries expire through their TTL.
type RedisLeaderboardCache struct {
	client rueidis.Client
	ttl    time.Duration
}

func NewRedisLeaderboardCache(client rueidis.Client, ttl time.Duration) *RedisLeaderboardCache {
	return &RedisLeaderboardCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisLeaderboardCache) Key(ctx context.Context, q LeaderboardQuery) (string, error) {
	cmd := r.client.B().Get().Key(constants.LeaderboardGenerationKey).Build()
	gen, err := r.client.Do(ctx, cmd).ToString()
	if err != nil {
		if !rueidis.IsRedisNil(err) {
			return "", err
		}
		gen = "0"
	}

	return constants.LeaderboardKeyPrefix + gen + ":" + q.suffix(), nil
}

func (r *RedisLeaderboardCache) Get(ctx context.Context, key string) ([]models.UserProgress, bool, error) {
	cmd := r.client.B().Get().Key(key).Build()
	raw, err := r.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}

	var rows []models.UserProgress
	if err := json.Unmarshal([]byte(raw), &rows); err != nil {
		return nil, false, fmt.Errorf("decode cached leaderboard: %w", err)
	}

	return rows, true, nil
}

func (r *RedisLeaderboardCache) Set(ctx context.Context, key string, rows []models.UserProgress) error {
	raw, err := json.Marshal(rows)
	if err != nil {
		return err
	}

	if r.ttl < time.Second {
		return r.client.Do(ctx, r.client.B().Set().Key(key).Value(string(raw)).Build()).Error()
	}

	cmd := r.client.B().Set().Key(key).Value(string(raw)).ExSeconds(int64(r.ttl / time.Second)).Build()
	return r.client.Do(ctx, cmd).Error()
}

func (r *RedisLeaderboardCache) Invalidate(ctx context.Context) error {
	cmd := r.client.B().Incr().Key(constants.LeaderboardGenerationKey).Build()
	return r.client.Do(ctx, cmd).Error()
}
