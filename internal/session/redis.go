package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// keyPrefix はRedis上のセッションキーの接頭辞。
const keyPrefix = "session:"

// RedisStore はRedisに保持するセッションストア。
// 複数ノードでgatewayを動かす場合にセッションを共有するために使う。
// 有効期限はRedisのキーTTLに委ねる。
type RedisStore struct {
	// client はRedisクライアント。
	client *redis.Client
	// ttl はセッションの有効期間。
	ttl time.Duration
}

// NewRedisStore は新しいRedisセッションストアを生成する。
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Create は新しいセッションを生成し、セッションIDを返す。
func (s *RedisStore) Create(ctx context.Context) (string, error) {
	id := uuid.New().String()
	if err := s.client.Set(ctx, keyPrefix+id, "", s.ttl).Err(); err != nil {
		return "", fmt.Errorf("セッションの作成に失敗: %w", err)
	}
	return id, nil
}

// JWT はセッションのJWTスロットを返す。
func (s *RedisStore) JWT(ctx context.Context, id string) (string, error) {
	value, err := s.client.Get(ctx, keyPrefix+id).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("セッションの取得に失敗: %w", err)
	}
	return value, nil
}

// SetJWT はセッションのJWTスロットを設定し、有効期限を更新する。
func (s *RedisStore) SetJWT(ctx context.Context, id, token string) error {
	key := keyPrefix + id
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("セッションの確認に失敗: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}
	if err := s.client.Set(ctx, key, token, s.ttl).Err(); err != nil {
		return fmt.Errorf("セッションの更新に失敗: %w", err)
	}
	return nil
}

// Destroy はセッションを破棄する。
func (s *RedisStore) Destroy(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, keyPrefix+id).Err(); err != nil {
		return fmt.Errorf("セッションの破棄に失敗: %w", err)
	}
	return nil
}
