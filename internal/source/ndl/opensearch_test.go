package ndl

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const openSearchRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0" xmlns:dc="http://purl.org/dc/elements/1.1/"
  xmlns:dcndl="http://ndl.go.jp/dcndl/terms/"
  xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"
  xmlns:openSearch="http://a9.com/-/spec/opensearchrss/1.0/">
  <channel>
    <title>リーダブルコード - 国立国会図書館サーチ OpenSearch</title>
    <link>https://ndlsearch.ndl.go.jp/api/opensearch?title=リーダブルコード</link>
    <description>Search results</description>
    <openSearch:totalResults>3</openSearch:totalResults>
    <item>
      <title>リーダブルコード</title>
      <link>https://ndlsearch.ndl.go.jp/books/R100000002-I023633470</link>
      <dc:title>リーダブルコード</dc:title>
      <dc:creator>Dustin Boswell</dc:creator>
      <dc:creator>Trevor Foucher</dc:creator>
      <dc:publisher>オライリー・ジャパン</dc:publisher>
      <dc:date>2012</dc:date>
      <dcndl:price>2400円</dcndl:price>
      <dc:identifier xsi:type="dcndl:ISBN">978-4-87311-565-8</dc:identifier>
      <dc:identifier xsi:type="dcndl:NDLBibID">023633470</dc:identifier>
    </item>
    <item>
      <title>ISBNのない資料</title>
      <dc:creator>匿名</dc:creator>
    </item>
    <item>
      <title>リーダブルコード 第2版</title>
      <dc:creator>Dustin Boswell</dc:creator>
      <dc:publisher>株式会社翔泳社</dc:publisher>
      <dc:identifier xsi:type="dcndl:ISBN">4797382570</dc:identifier>
    </item>
  </channel>
</rss>`

func TestClient_SearchByTitle(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("title"); got != "リーダブルコード" {
			t.Errorf("title = %q", got)
		}
		if got := r.URL.Query().Get("cnt"); got != "10" {
			t.Errorf("cnt = %q, want 10", got)
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(openSearchRSS))
	}))
	defer server.Close()

	c, _ := newTestClient(t, server, 1)
	books, err := c.SearchByTitle(context.Background(), "リーダブルコード", 10)
	if err != nil {
		t.Fatalf("SearchByTitle() error = %v", err)
	}

	if len(books) != 2 {
		t.Fatalf("ISBNのない項目は除外される: len = %d, want 2", len(books))
	}

	first := books[0]
	if first.ISBN != "9784873115658" {
		t.Errorf("ISBN = %q, want 9784873115658", first.ISBN)
	}
	if first.Author != "Dustin Boswell, Trevor Foucher" {
		t.Errorf("Author = %q", first.Author)
	}
	if first.Price != 2400 {
		t.Errorf("Price = %d, want 2400", first.Price)
	}
	if first.PublishedDate != "2012" {
		t.Errorf("PublishedDate = %q", first.PublishedDate)
	}

	second := books[1]
	if second.ISBN != "9784797382570" {
		t.Errorf("ISBN-10はISBN-13に正規化される: got %q", second.ISBN)
	}
	if second.Publisher != "翔泳社" {
		t.Errorf("Publisher = %q, want 翔泳社", second.Publisher)
	}
}

func TestClient_SearchByTitle_Limit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(openSearchRSS))
	}))
	defer server.Close()

	c, _ := newTestClient(t, server, 1)
	books, err := c.SearchByTitle(context.Background(), "リーダブルコード", 1)
	if err != nil {
		t.Fatalf("SearchByTitle() error = %v", err)
	}
	if len(books) != 1 {
		t.Errorf("len = %d, want 1", len(books))
	}
}

func TestClient_SearchByTitle_EmptyTitle(t *testing.T) {
	var buf bytes.Buffer
	c := NewClient(http.DefaultClient, newTestLogger(&buf), noWaitPolicy(1))
	if _, err := c.SearchByTitle(context.Background(), "  ", 10); err == nil {
		t.Error("空のタイトルはエラーを返すべき")
	}
}

func TestClient_SearchByTitle_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	c, _ := newTestClient(t, server, 2)
	if _, err := c.SearchByTitle(context.Background(), "リーダブルコード", 10); err == nil {
		t.Error("5xxはエラーを返すべき")
	}
}
