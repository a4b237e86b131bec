// Package googlebooks はGoogle Books APIの書誌検索クライアントを提供する。
// APIキーの事前確認、日次クォータの追跡、HTTPステータスに応じたエラー分類、
// 指数バックオフによるリトライを行う。
package googlebooks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/resilience"
	"github.com/hitoshi/bookshelf/internal/security"
	"github.com/hitoshi/bookshelf/internal/source"
)

const (
	// Name は取得元の名前。
	Name = "google_books"

	// DefaultEndpoint はGoogle Books APIのボリューム検索エンドポイント。
	DefaultEndpoint = "https://www.googleapis.com/books/v1/volumes"

	// defaultRetryAfter はレート制限時にRetry-Afterヘッダーがない場合の待機時間。
	defaultRetryAfter = 60 * time.Second

	userAgent       = "Bookshelf/1.0"
	maxResponseSize = 2 * 1024 * 1024
)

// 403レスポンスのreason
const (
	reasonDailyLimitExceeded    = "dailyLimitExceeded"
	reasonQuotaExceeded         = "quotaExceeded"
	reasonUserRateLimitExceeded = "userRateLimitExceeded"
)

// Client はGoogle Books APIのクライアント。
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	retry      resilience.Policy
	apiKey     string
	quota      *QuotaTracker
	sanitizer  *security.TextSanitizer
	endpoint   string // テスト用にエンドポイントを差し替え可能
}

// NewClient はClientの新しいインスタンスを生成する。
// quotaは取得元ごとに1つの状態を共有するため、呼び出し側で生成して渡す。
func NewClient(httpClient *http.Client, logger *slog.Logger, retry resilience.Policy, apiKey string, quota *QuotaTracker) *Client {
	if quota == nil {
		quota = NewQuotaTracker(nil)
	}
	return &Client{
		httpClient: httpClient,
		logger:     logger,
		retry:      retry,
		apiKey:     apiKey,
		quota:      quota,
		sanitizer:  security.NewTextSanitizer(),
		endpoint:   DefaultEndpoint,
	}
}

// SetEndpoint はエンドポイントを設定する。空文字列の場合は変更しない。
func (c *Client) SetEndpoint(endpoint string) {
	if endpoint != "" {
		c.endpoint = endpoint
	}
}

// Name は取得元の名前を返す。
func (c *Client) Name() string {
	return Name
}

// Quota はクォータ状態を返す。
func (c *Client) Quota() QuotaState {
	return c.quota.Snapshot()
}

// Search はISBNで書誌レコードを検索する。
// APIキー未設定、日次クォータ超過の場合は通信せずに失敗を返す。
func (c *Client) Search(ctx context.Context, isbn string) source.Result {
	if c.apiKey == "" {
		return source.Failed(&source.Error{
			Source:  Name,
			Kind:    source.KindConfiguration,
			Message: "Google Books APIキーが設定されていません",
		})
	}

	var resp *volumesResponse
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		resp, err = c.fetch(ctx, isbn)
		return err
	})
	if err != nil {
		var srcErr *source.Error
		if !errors.As(err, &srcErr) {
			srcErr = &source.Error{Source: Name, Kind: source.KindTransport, Message: "検索に失敗しました", Err: err}
		}
		c.logFailure(isbn, srcErr)
		return source.Failed(srcErr)
	}

	book := c.toBook(resp, isbn)
	if book == nil {
		c.logger.Info("Google Booksに該当する書誌情報がありません", slog.String("isbn", isbn))
		return source.NotFound(Name, isbn)
	}
	return source.Found(book)
}

// fetch はリクエストを1回送信する。
func (c *Client) fetch(ctx context.Context, isbn string) (*volumesResponse, error) {
	if c.quota.DailyExceeded() {
		return nil, &source.Error{
			Source:  Name,
			Kind:    source.KindQuotaExceeded,
			Message: "Google Books APIの日次クォータを超過しています",
		}
	}

	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &source.Error{Source: Name, Kind: source.KindConfiguration, Message: "エンドポイントURLのパースに失敗しました", Err: err}
	}
	q := reqURL.Query()
	q.Set("q", "isbn:"+isbn)
	q.Set("key", c.apiKey)
	q.Set("maxResults", "1")
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, &source.Error{Source: Name, Kind: source.KindConfiguration, Message: "HTTPリクエストの作成に失敗しました", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	c.quota.RecordRequest()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &source.Error{Source: Name, Kind: source.KindTransport, Message: "Google Books APIへの接続に失敗しました", Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &source.Error{Source: Name, Kind: source.KindTransport, Message: "レスポンスボディの読み取りに失敗しました", Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.classify(resp, body)
	}

	var result volumesResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &source.Error{Source: Name, Kind: source.KindParse, Message: "レスポンスJSONのパースに失敗しました", Err: err}
	}
	return &result, nil
}

// classify はエラーレスポンスを取得元エラーに変換し、クォータ状態を更新する。
func (c *Client) classify(resp *http.Response, body []byte) *source.Error {
	apiErr := parseAPIError(body)
	srcErr := &source.Error{
		Source:     Name,
		Kind:       source.ClassifyStatus(resp.StatusCode),
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("Google Books APIがステータス %d を返しました", resp.StatusCode),
	}
	if apiErr.Message != "" {
		srcErr.Message = apiErr.Message
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		srcErr.Alert = true
	case resp.StatusCode == http.StatusForbidden:
		switch apiErr.Reason {
		case reasonDailyLimitExceeded, reasonQuotaExceeded:
			c.quota.MarkDailyExceeded()
			srcErr.Kind = source.KindQuotaExceeded
		case reasonUserRateLimitExceeded:
			c.quota.MarkPerUserExceeded()
			srcErr.Kind = source.KindRateLimited
			srcErr.RetryAfter = defaultRetryAfter
		}
	case resp.StatusCode == http.StatusTooManyRequests:
		srcErr.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
	}
	return srcErr
}

func (c *Client) logFailure(isbn string, err *source.Error) {
	attrs := []any{
		slog.String("isbn", isbn),
		slog.String("kind", string(err.Kind)),
		slog.Int("http_status", err.StatusCode),
		slog.String("error", err.Error()),
	}
	switch {
	case err.Alert:
		c.logger.Error("Google Books APIの認証に失敗しました。APIキーを確認してください",
			append(attrs, slog.Bool("alert", true))...)
	case err.Kind == source.KindConfiguration:
		c.logger.Info("Google Books APIキーが未設定のため検索をスキップしました", slog.String("isbn", isbn))
	default:
		c.logger.Warn("Google Booksの検索に失敗しました", attrs...)
	}
}

// parseRetryAfter はRetry-Afterヘッダー（秒数またはHTTP日付）を解釈する。
func parseRetryAfter(v string) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return defaultRetryAfter
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
		return 0
	}
	return defaultRetryAfter
}

// toBook は検索結果の最初の項目を書誌レコードに変換する。
// タイトルまたは著者が欠けている場合はnilを返す。
func (c *Client) toBook(resp *volumesResponse, isbn string) *model.Book {
	if resp == nil || len(resp.Items) == 0 {
		return nil
	}
	item := resp.Items[0]
	info := item.VolumeInfo

	authors := make([]string, 0, len(info.Authors))
	for _, a := range info.Authors {
		if a = strings.TrimSpace(a); a != "" {
			authors = append(authors, a)
		}
	}
	book, err := model.NewBook(isbn, info.Title, strings.Join(authors, ", "))
	if err != nil {
		return nil
	}

	book.Publisher = strings.TrimSpace(info.Publisher)
	book.PublishedDate = strings.TrimSpace(info.PublishedDate)
	book.Description = c.sanitizer.Sanitize(info.Description)
	book.PageCount = info.PageCount
	if info.ImageLinks != nil {
		thumb := info.ImageLinks.Thumbnail
		if thumb == "" {
			thumb = info.ImageLinks.SmallThumbnail
		}
		book.ThumbnailURL = security.NormalizeImageURL(thumb)
	}
	if price := item.SaleInfo.price(); price != nil {
		book.Price = int(math.Round(price.Amount))
	}
	if info.SeriesInfo != nil {
		book.Series = strings.TrimSpace(info.SeriesInfo.ShortSeriesBookTitle)
	}
	book.Source = Name
	return book
}
