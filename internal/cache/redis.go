package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hitoshi/bookshelf/internal/model"
)

// redisKeyPrefix はRedisキーの接頭辞。
const redisKeyPrefix = "bookshelf:isbn:"

// Redis はRedisを使った共有キャッシュ。
// 複数プロセス間でキャッシュを共有する場合に使う。期限切れと容量管理はRedisに委ねる。
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis は新しいRedisキャッシュを生成する。
func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

// OpenRedis はURLからRedisクライアントを生成し、疎通を確認する。
func OpenRedis(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return client, nil
}

// Get はキーに対応するレコードを返す。redis.Nilは未登録として扱う。
func (r *Redis) Get(ctx context.Context, key string) (*model.Book, bool, error) {
	val, err := r.client.Get(ctx, redisKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("キャッシュの取得に失敗しました: %w", err)
	}

	var book model.Book
	if err := json.Unmarshal(val, &book); err != nil {
		return nil, false, fmt.Errorf("キャッシュのデコードに失敗しました: %w", err)
	}
	return &book, true, nil
}

// Set はレコードをTTL付きで登録する。
func (r *Redis) Set(ctx context.Context, key string, book *model.Book) error {
	val, err := json.Marshal(book)
	if err != nil {
		return fmt.Errorf("キャッシュのエンコードに失敗しました: %w", err)
	}
	if err := r.client.Set(ctx, redisKey(key), val, r.ttl).Err(); err != nil {
		return fmt.Errorf("キャッシュの登録に失敗しました: %w", err)
	}
	return nil
}

func redisKey(key string) string {
	return redisKeyPrefix + key
}
