package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Server
	ServerPort string

	// Database（空の場合は書誌情報の保存を無効にする）
	DatabaseURL string

	// Cache（REDIS_URLが空の場合はプロセス内キャッシュを使う）
	RedisURL        string
	CacheTTL        time.Duration
	CacheMaxEntries int

	// CORS
	CORSAllowedOrigin string

	// Rate Limit（req/min/client）
	RateLimitGeneral int
	RateLimitLookup  int

	// 国立国会図書館サーチ
	NDLSRUEndpoint        string
	NDLOpenSearchEndpoint string
	NDLTimeout            time.Duration
	NDLMaxRetries         int

	// Google Books
	GoogleBooksEndpoint   string
	GoogleBooksAPIKey     string
	GoogleBooksTimeout    time.Duration
	GoogleBooksMaxRetries int

	// Retry
	RetryBaseDelay time.Duration
	RetryMaxDelay  time.Duration

	// Circuit Breaker
	BreakerThreshold    int
	BreakerResetTimeout time.Duration

	// Batch
	LookupBatchConcurrency int

	// Logging
	LogLevel string
}

// Load は環境変数からConfigを読み込む。
// 未設定の項目にはデフォルト値を適用し、値が不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{
		ServerPort:             getEnvString("SERVER_PORT", "8080"),
		DatabaseURL:            os.Getenv("DATABASE_URL"),
		RedisURL:               os.Getenv("REDIS_URL"),
		CacheTTL:               getEnvDuration("CACHE_TTL", 24*time.Hour),
		CacheMaxEntries:        getEnvInt("CACHE_MAX_ENTRIES", 1000),
		CORSAllowedOrigin:      getEnvString("CORS_ALLOWED_ORIGIN", "http://localhost:3000"),
		RateLimitGeneral:       getEnvInt("RATE_LIMIT_GENERAL", 120),
		RateLimitLookup:        getEnvInt("RATE_LIMIT_LOOKUP", 30),
		NDLSRUEndpoint:         getEnvString("NDL_SRU_ENDPOINT", "https://ndlsearch.ndl.go.jp/api/sru"),
		NDLOpenSearchEndpoint:  getEnvString("NDL_OPENSEARCH_ENDPOINT", "https://ndlsearch.ndl.go.jp/api/opensearch"),
		NDLTimeout:             getEnvDuration("NDL_TIMEOUT", 15*time.Second),
		NDLMaxRetries:          getEnvInt("NDL_MAX_RETRIES", 3),
		GoogleBooksEndpoint:    getEnvString("GOOGLE_BOOKS_ENDPOINT", "https://www.googleapis.com/books/v1/volumes"),
		GoogleBooksAPIKey:      os.Getenv("GOOGLE_BOOKS_API_KEY"),
		GoogleBooksTimeout:     getEnvDuration("GOOGLE_BOOKS_TIMEOUT", 10*time.Second),
		GoogleBooksMaxRetries:  getEnvInt("GOOGLE_BOOKS_MAX_RETRIES", 3),
		RetryBaseDelay:         getEnvDuration("RETRY_BASE_DELAY", time.Second),
		RetryMaxDelay:          getEnvDuration("RETRY_MAX_DELAY", 10*time.Second),
		BreakerThreshold:       getEnvInt("BREAKER_THRESHOLD", 5),
		BreakerResetTimeout:    getEnvDuration("BREAKER_RESET_TIMEOUT", 60*time.Second),
		LookupBatchConcurrency: getEnvInt("LOOKUP_BATCH_CONCURRENCY", 4),
		LogLevel:               getEnvString("LOG_LEVEL", "info"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate は設定値の整合性を検証する。
func (c *Config) validate() error {
	var errs []error

	endpoints := []struct {
		key string
		val string
	}{
		{"NDL_SRU_ENDPOINT", c.NDLSRUEndpoint},
		{"NDL_OPENSEARCH_ENDPOINT", c.NDLOpenSearchEndpoint},
		{"GOOGLE_BOOKS_ENDPOINT", c.GoogleBooksEndpoint},
	}
	for _, e := range endpoints {
		u, err := url.Parse(e.val)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("%s must be an absolute http(s) URL: %q", e.key, e.val))
		}
	}

	positives := []struct {
		key string
		val int
	}{
		{"CACHE_MAX_ENTRIES", c.CacheMaxEntries},
		{"RATE_LIMIT_GENERAL", c.RateLimitGeneral},
		{"RATE_LIMIT_LOOKUP", c.RateLimitLookup},
		{"NDL_MAX_RETRIES", c.NDLMaxRetries},
		{"GOOGLE_BOOKS_MAX_RETRIES", c.GoogleBooksMaxRetries},
		{"BREAKER_THRESHOLD", c.BreakerThreshold},
		{"LOOKUP_BATCH_CONCURRENCY", c.LookupBatchConcurrency},
	}
	for _, p := range positives {
		if p.val < 1 {
			errs = append(errs, fmt.Errorf("%s must be at least 1: %d", p.key, p.val))
		}
	}

	if c.RetryMaxDelay < c.RetryBaseDelay {
		errs = append(errs, fmt.Errorf("RETRY_MAX_DELAY (%s) must not be less than RETRY_BASE_DELAY (%s)",
			c.RetryMaxDelay, c.RetryBaseDelay))
	}

	return errors.Join(errs...)
}

// RequireDatabase はDATABASE_URLが設定されていることを確認する。
func (c *Config) RequireDatabase() error {
	if c.DatabaseURL == "" {
		return errors.New("required environment variables are not set: [DATABASE_URL]")
	}
	return nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
