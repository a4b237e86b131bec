// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"strings"
	"time"
)

// ErrIncompleteRecord は必須項目（タイトル・著者）が欠けた書誌レコードを表す。
// 取得元はこのエラーを「該当なし」として扱い、部分的なレコードを返さない。
var ErrIncompleteRecord = errors.New("書誌レコードの必須項目（タイトル・著者）が不足しています")

// Book は正規化済みの書誌レコード。
// ISBN・Title・Authorは常に空でない。
type Book struct {
	ISBN          string `json:"isbn"`
	Title         string `json:"title"`
	Author        string `json:"author"`
	Publisher     string `json:"publisher,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	Description   string `json:"description,omitempty"`
	PageCount     int    `json:"page_count,omitempty"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
	Price         int    `json:"price,omitempty"`
	Series        string `json:"series,omitempty"`
	// Source は書誌情報を解決した取得元の名前。
	Source string `json:"source,omitempty"`
}

// NewBook は必須項目を検証してBookを生成する。
// いずれかが空の場合はErrIncompleteRecordを返す。
func NewBook(isbn, title, author string) (*Book, error) {
	isbn = strings.TrimSpace(isbn)
	title = strings.TrimSpace(title)
	author = strings.TrimSpace(author)
	if isbn == "" || title == "" || author == "" {
		return nil, ErrIncompleteRecord
	}
	return &Book{ISBN: isbn, Title: title, Author: author}, nil
}

// StoredBook は永続化された書誌レコード。
type StoredBook struct {
	ID string `json:"id"`
	Book
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
