package redis

import (
	"context"
	"fmt"
	"time"

	"credentials_service/internal/lib/keygen"

	"github.com/redis/go-redis/v9"
)

const consumedKeyPrefix = "refresh:consumed:"

type RedisRepo struct {
	client    *redis.Client
	markerTTL time.Duration
}

func New(ctx context.Context, addr, pass string, db int, markerTTL time.Duration) (*RedisRepo, error) {
	const op = "storage.redis.New"

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     pass,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return NewWithClient(client, markerTTL), nil
}

func NewWithClient(client *redis.Client, markerTTL time.Duration) *RedisRepo {
	return &RedisRepo{
		client:    client,
		markerTTL: markerTTL,
	}
}

// * MarkConsumed помечает refresh credential как использованный (атомарно через SETNX)
// Возвращает true если credential предъявлен первый раз
// Возвращает false если credential уже был использован ранее
func (r *RedisRepo) MarkConsumed(ctx context.Context, key string) (bool, error) {
	const op = "storage.redis.MarkConsumed"

	success, err := r.client.SetNX(ctx, consumedKey(key), "consumed", r.markerTTL).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}

	return success, nil
}

// * Release снимает отметку, если ротация не состоялась
func (r *RedisRepo) Release(ctx context.Context, key string) error {
	const op = "storage.redis.Release"

	if err := r.client.Del(ctx, consumedKey(key)).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	return nil
}

// * Close закрывает соединение с базой данных.
func (r *RedisRepo) Close() {
	_ = r.client.Close()
}

func consumedKey(key string) string {
	return consumedKeyPrefix + keygen.Hash(key)
}
