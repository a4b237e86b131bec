// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"

	"github.com/hitoshi/bookshelf/internal/model"
)

// BookRepository は解決済み書誌レコードの永続化インターフェース。
type BookRepository interface {
	// FindByISBN は正規化済みISBNで書誌レコードを取得する。見つからない場合はnilを返す。
	FindByISBN(ctx context.Context, isbn string) (*model.StoredBook, error)

	// Upsert は書誌レコードを登録する。同じISBNが既にあれば内容を更新する。
	// 登録後のレコード（ID・作成日時を含む）を返す。
	Upsert(ctx context.Context, book *model.Book) (*model.StoredBook, error)
}

// nullString は空文字列をNULLとして扱うsql.NullStringを返す。
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullStringValue はsql.NullStringから文字列を取得する。
func nullStringValue(ns sql.NullString) string {
	if ns.Valid {
		return ns.String
	}
	return ""
}

// nullInt は0をNULLとして扱うsql.NullInt64を返す。
func nullInt(n int) sql.NullInt64 {
	if n == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(n), Valid: true}
}
