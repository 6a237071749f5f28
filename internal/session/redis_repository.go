package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pusit-hanp/capstone-image-store/internal/domain"
	"github.com/redis/go-redis/v9"
)

// RedisRepository stores each snapshot as a JSON document under userInfo:<id>.
// A zero ttl keeps documents until sign-out.
type RedisRepository struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisRepository(client *redis.Client, ttl time.Duration) *RedisRepository {
	return &RedisRepository{
		client: client,
		ttl:    ttl,
	}
}

func ConnectRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

func (r *RedisRepository) Load(ctx context.Context, userID string) (*domain.UserSnapshot, error) {
	data, err := r.client.Get(ctx, snapshotKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSnapshotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}

	var snapshot domain.UserSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot failed: %w", err)
	}
	snapshot.Normalize()

	return &snapshot, nil
}

func (r *RedisRepository) Save(ctx context.Context, snapshot *domain.UserSnapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot failed: %w", err)
	}

	if err := r.client.Set(ctx, snapshotKey(snapshot.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *RedisRepository) Delete(ctx context.Context, userID string) error {
	n, err := r.client.Del(ctx, snapshotKey(userID)).Result()
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	if n == 0 {
		return ErrSnapshotNotFound
	}
	return nil
}

func snapshotKey(userID string) string {
	return fmt.Sprintf("userInfo:%s", userID)
}
