// Package ndl は国立国会図書館サーチ（NDLサーチ）の書誌検索クライアントを提供する。
// SRU（searchRetrieve）でISBN検索を行い、DC-NDL形式のXMLを正規化済み書誌レコードに変換する。
// OpenSearch（RSS）によるタイトル検索も提供する。
package ndl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/resilience"
	"github.com/hitoshi/bookshelf/internal/source"
)

const (
	// Name は取得元の名前。
	Name = "ndl"

	// DefaultSRUEndpoint はNDLサーチのSRUエンドポイント。
	DefaultSRUEndpoint = "https://ndlsearch.ndl.go.jp/api/sru"
	// DefaultOpenSearchEndpoint はNDLサーチのOpenSearchエンドポイント。
	DefaultOpenSearchEndpoint = "https://ndlsearch.ndl.go.jp/api/opensearch"

	userAgent = "Bookshelf/1.0"
	// maxResponseSize はレスポンスボディの最大サイズ（5MB）。
	maxResponseSize = 5 * 1024 * 1024
)

// Client はNDLサーチのクライアント。
type Client struct {
	httpClient         *http.Client
	logger             *slog.Logger
	retry              resilience.Policy
	publisherPolicy    PublisherPolicy
	endpoint           string // テスト用にエンドポイントを差し替え可能
	openSearchEndpoint string
}

// NewClient はClientの新しいインスタンスを生成する。
// httpClientのタイムアウトが1回の試行あたりのタイムアウトになる。
func NewClient(httpClient *http.Client, logger *slog.Logger, retry resilience.Policy) *Client {
	return &Client{
		httpClient:         httpClient,
		logger:             logger,
		retry:              retry,
		publisherPolicy:    DefaultPublisherPolicy(),
		endpoint:           DefaultSRUEndpoint,
		openSearchEndpoint: DefaultOpenSearchEndpoint,
	}
}

// SetEndpoints はSRUとOpenSearchのエンドポイントを設定する。空文字列の場合は変更しない。
func (c *Client) SetEndpoints(sru, openSearch string) {
	if sru != "" {
		c.endpoint = sru
	}
	if openSearch != "" {
		c.openSearchEndpoint = openSearch
	}
}

// SetPublisherPolicy は出版者名の整形方針を差し替える。
func (c *Client) SetPublisherPolicy(p PublisherPolicy) {
	c.publisherPolicy = p
}

// Name は取得元の名前を返す。
func (c *Client) Name() string {
	return Name
}

// Search はISBNで書誌レコードを検索する。
// 該当なし、または必須項目（タイトル・著者）が欠けたレコードはNotFoundを返す。
func (c *Client) Search(ctx context.Context, isbn string) source.Result {
	var body []byte
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		body, err = c.fetch(ctx, isbn)
		return err
	})
	if err != nil {
		var srcErr *source.Error
		if !errors.As(err, &srcErr) {
			srcErr = &source.Error{Source: Name, Kind: source.KindTransport, Message: "検索に失敗しました", Err: err}
		}
		c.logger.Warn("NDLサーチの検索に失敗しました",
			slog.String("isbn", isbn),
			slog.String("kind", string(srcErr.Kind)),
			slog.String("error", srcErr.Error()),
		)
		return source.Failed(srcErr)
	}

	book, err := c.parse(body, isbn)
	if err != nil {
		c.logger.Warn("NDLサーチのレスポンスのパースに失敗しました",
			slog.String("isbn", isbn),
			slog.String("error", err.Error()),
		)
		return source.Failed(&source.Error{Source: Name, Kind: source.KindParse, Message: "レスポンスXMLのパースに失敗しました", Err: err})
	}
	if book == nil {
		c.logger.Info("NDLサーチに該当する書誌情報がありません", slog.String("isbn", isbn))
		return source.NotFound(Name, isbn)
	}
	return source.Found(book)
}

// fetch はSRUリクエストを1回送信し、レスポンスボディを返す。
func (c *Client) fetch(ctx context.Context, isbn string) ([]byte, error) {
	reqURL, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, &source.Error{Source: Name, Kind: source.KindConfiguration, Message: "エンドポイントURLのパースに失敗しました", Err: err}
	}

	q := reqURL.Query()
	q.Set("operation", "searchRetrieve")
	q.Set("version", "1.2")
	q.Set("recordSchema", "dcndl")
	q.Set("onlyBib", "true")
	q.Set("recordPacking", "xml")
	q.Set("maximumRecords", "1")
	q.Set("query", fmt.Sprintf(`isbn="%s"`, isbn))
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, &source.Error{Source: Name, Kind: source.KindConfiguration, Message: "HTTPリクエストの作成に失敗しました", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &source.Error{Source: Name, Kind: source.KindTransport, Message: "NDLサーチへの接続に失敗しました", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseSize))
		return nil, &source.Error{
			Source:     Name,
			Kind:       source.ClassifyStatus(resp.StatusCode),
			Message:    fmt.Sprintf("NDLサーチがステータス %d を返しました", resp.StatusCode),
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, &source.Error{Source: Name, Kind: source.KindTransport, Message: "レスポンスボディの読み取りに失敗しました", Err: err}
	}
	return body, nil
}

// parse はSRUレスポンスから最初の書誌レコードを取り出して正規化する。
// レコードがない、または必須項目が欠けている場合はnilを返す。
func (c *Client) parse(body []byte, isbn string) (*model.Book, error) {
	root, err := parseXML(body)
	if err != nil {
		return nil, err
	}

	if n := root.find(nsSRW, "numberOfRecords"); n != nil {
		if count, err := strconv.Atoi(strings.TrimSpace(n.Text)); err == nil && count == 0 {
			return nil, nil
		}
	}

	record, err := findRecord(root)
	if err != nil || record == nil {
		return nil, err
	}
	return c.toBook(record, isbn), nil
}

// findRecord は最初の書誌レコード要素を返す。
// recordPacking=string で返された場合はエスケープされたXMLを再パースする。
func findRecord(root *node) (*node, error) {
	data := root.find("", "recordData")
	if data == nil {
		return nil, nil
	}

	if len(data.Children) == 0 {
		text := strings.TrimSpace(data.Text)
		if !strings.HasPrefix(text, "<") {
			return nil, nil
		}
		inner, err := parseXML([]byte(text))
		if err != nil {
			return nil, fmt.Errorf("recordDataの再パースに失敗しました: %w", err)
		}
		data = inner
	}

	if bib := data.find(nsDCNDL, "BibResource"); bib != nil {
		return bib, nil
	}
	return data, nil
}

// toBook は書誌レコードを正規化済み書誌レコードに変換する。
// タイトル・著者が空またはプレースホルダーの場合はnilを返す。
func (c *Client) toBook(record *node, isbn string) *model.Book {
	title := cleanTitle(firstText(record, fieldTitle))
	creator := cleanCreator(firstText(record, fieldCreator))
	if isPlaceholder(title) || isPlaceholder(creator) {
		return nil
	}

	book, err := model.NewBook(isbn, title, creator)
	if err != nil {
		return nil
	}
	book.Publisher = resolvePublisher(record, c.publisherPolicy)
	book.PublishedDate = firstText(record, fieldDate)
	book.Description = firstText(record, fieldDescription)
	book.PageCount = parsePageCount(firstText(record, fieldExtent))
	book.Price = parsePrice(firstText(record, fieldPrice))
	book.Series = cleanTitle(firstText(record, fieldSeries))
	book.Source = Name
	return book
}
