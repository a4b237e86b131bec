package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
)

// setupTestRedis はテスト用のRedisキャッシュを準備する。
// 環境変数 TEST_REDIS_URL が未設定、または接続できない場合はスキップする。
func setupTestRedis(t *testing.T) *Redis {
	t.Helper()

	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		url = "redis://localhost:6379/15"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	client, err := OpenRedis(ctx, url)
	if err != nil {
		t.Skipf("テスト用Redisに接続できません（スキップ）: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewRedis(client, time.Minute)
}

func TestRedisKey(t *testing.T) {
	if got := redisKey("978-4-7973-8257-0"); got != "bookshelf:isbn:978-4-7973-8257-0" {
		t.Errorf("redisKey() = %q", got)
	}
}

func TestOpenRedis_InvalidURL(t *testing.T) {
	if _, err := OpenRedis(context.Background(), "not-a-url://"); err == nil {
		t.Error("不正なURLではエラーを返すべき")
	}
}

func TestRedis_SetAndGet(t *testing.T) {
	r := setupTestRedis(t)
	ctx := context.Background()
	key := "test-" + time.Now().Format("150405.000000")

	if _, ok, err := r.Get(ctx, key); err != nil || ok {
		t.Fatalf("未登録キーはミス: ok=%v err=%v", ok, err)
	}

	book := &model.Book{ISBN: "9784797382570", Title: "リーダブルコード", Author: "Dustin Boswell", PageCount: 237}
	if err := r.Set(ctx, key, book); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	t.Cleanup(func() { r.client.Del(context.Background(), redisKey(key)) })

	got, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("Get() ok=%v err=%v", ok, err)
	}
	if *got != *book {
		t.Errorf("Get() = %+v, want %+v", got, book)
	}
}
