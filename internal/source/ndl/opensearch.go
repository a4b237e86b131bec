package ndl

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/hitoshi/bookshelf/internal/isbn"
	"github.com/hitoshi/bookshelf/internal/model"
	"github.com/hitoshi/bookshelf/internal/source"
)

const (
	// defaultSearchLimit はタイトル検索のデフォルト件数。
	defaultSearchLimit = 20
	// maxSearchLimit はタイトル検索の最大件数。
	maxSearchLimit = 100
)

// SearchByTitle はOpenSearch（RSS）でタイトル検索を行う。
// ISBN・タイトル・著者のいずれかが欠けた項目は結果に含めない。
func (c *Client) SearchByTitle(ctx context.Context, title string, limit int) ([]model.Book, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("検索するタイトルが指定されていません")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	var body []byte
	err := c.retry.Do(ctx, func(ctx context.Context) error {
		var err error
		body, err = c.fetchOpenSearch(ctx, title, limit)
		return err
	})
	if err != nil {
		c.logger.Warn("NDLサーチのタイトル検索に失敗しました",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	parser := gofeed.NewParser()
	feed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		c.logger.Warn("OpenSearchレスポンスのパースに失敗しました",
			slog.String("title", title),
			slog.String("error", err.Error()),
		)
		return nil, &source.Error{Source: Name, Kind: source.KindParse, Message: "OpenSearchレスポンスのパースに失敗しました", Err: err}
	}

	books := make([]model.Book, 0, len(feed.Items))
	for _, item := range feed.Items {
		if book := c.convertItem(item); book != nil {
			books = append(books, *book)
		}
		if len(books) >= limit {
			break
		}
	}
	return books, nil
}

func (c *Client) fetchOpenSearch(ctx context.Context, title string, limit int) ([]byte, error) {
	reqURL, err := url.Parse(c.openSearchEndpoint)
	if err != nil {
		return nil, &source.Error{Source: Name, Kind: source.KindConfiguration, Message: "エンドポイントURLのパースに失敗しました", Err: err}
	}
	q := reqURL.Query()
	q.Set("title", title)
	q.Set("cnt", strconv.Itoa(limit))
	q.Set("mediatype", "books")
	reqURL.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL.String(), nil)
	if err != nil {
		return nil, &source.Error{Source: Name, Kind: source.KindConfiguration, Message: "HTTPリクエストの作成に失敗しました", Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/rss+xml, application/xml, text/xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &source.Error{Source: Name, Kind: source.KindTransport, Message: "NDLサーチへの接続に失敗しました", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
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

// convertItem はRSSの項目を書誌レコードに変換する。必須項目が欠けている場合はnilを返す。
func (c *Client) convertItem(item *gofeed.Item) *model.Book {
	if item == nil {
		return nil
	}

	var identifiers, creators, publishers, dates []string
	if dc := item.DublinCoreExt; dc != nil {
		identifiers = dc.Identifier
		creators = dc.Creator
		publishers = dc.Publisher
		dates = dc.Date
	}

	normalized := ""
	for _, id := range identifiers {
		if info := isbn.Analyze(id); info.IsValid {
			normalized = isbn.Normalize(info)
			break
		}
	}

	title := cleanTitle(item.Title)
	author := ""
	if len(creators) > 0 {
		author = strings.Join(creators, ", ")
	} else if item.Author != nil {
		author = item.Author.Name
	}
	if normalized == "" || isPlaceholder(title) || isPlaceholder(author) {
		return nil
	}

	book, err := model.NewBook(normalized, title, cleanCreator(author))
	if err != nil {
		return nil
	}
	if len(publishers) > 0 {
		book.Publisher = c.publisherPolicy.Clean(publishers[0])
	}
	if len(dates) > 0 {
		book.PublishedDate = strings.TrimSpace(dates[0])
	}
	book.Price = parsePrice(extensionValue(item, "dcndl", "price"))
	book.Series = cleanTitle(extensionValue(item, "dcndl", "seriesTitle"))
	book.Source = Name
	return book
}

// extensionValue はgofeedが保持する拡張要素の最初の値を返す。
func extensionValue(item *gofeed.Item, prefix, name string) string {
	if item.Extensions == nil {
		return ""
	}
	values := item.Extensions[prefix][name]
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0].Value)
}
