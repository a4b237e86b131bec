package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/hitoshi/bookshelf/internal/model"
)

// PostgresBookRepo はPostgreSQLを使用した書誌レコードリポジトリ。
type PostgresBookRepo struct {
	db *sql.DB
}

// NewPostgresBookRepo はPostgresBookRepoを生成する。
func NewPostgresBookRepo(db *sql.DB) *PostgresBookRepo {
	return &PostgresBookRepo{db: db}
}

const bookColumns = `id, isbn, title, author, publisher, published_date, description,
	page_count, thumbnail_url, price, series, source, created_at, updated_at`

// FindByISBN はISBNで書誌レコードを取得する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByISBN(ctx context.Context, isbn string) (*model.StoredBook, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+bookColumns+` FROM books WHERE isbn = $1`,
		isbn,
	)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("書誌レコードの取得に失敗しました: %w", err)
	}
	return book, nil
}

// Upsert は書誌レコードを登録または更新する。
// ISBNが既に存在する場合はIDと作成日時を維持したまま内容を更新する。
func (r *PostgresBookRepo) Upsert(ctx context.Context, book *model.Book) (*model.StoredBook, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO books (id, isbn, title, author, publisher, published_date, description,
		                    page_count, thumbnail_url, price, series, source, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		 ON CONFLICT (isbn) DO UPDATE SET
		     title = EXCLUDED.title,
		     author = EXCLUDED.author,
		     publisher = EXCLUDED.publisher,
		     published_date = EXCLUDED.published_date,
		     description = EXCLUDED.description,
		     page_count = EXCLUDED.page_count,
		     thumbnail_url = EXCLUDED.thumbnail_url,
		     price = EXCLUDED.price,
		     series = EXCLUDED.series,
		     source = EXCLUDED.source,
		     updated_at = NOW()
		 RETURNING `+bookColumns,
		uuid.New().String(), book.ISBN, book.Title, book.Author,
		nullString(book.Publisher), nullString(book.PublishedDate), nullString(book.Description),
		nullInt(book.PageCount), nullString(book.ThumbnailURL), nullInt(book.Price),
		nullString(book.Series), book.Source,
	)
	stored, err := scanBook(row)
	if err != nil {
		return nil, fmt.Errorf("書誌レコードの登録に失敗しました: %w", err)
	}
	return stored, nil
}

// scanBook は1行分の書誌レコードを読み取る。
func scanBook(row *sql.Row) (*model.StoredBook, error) {
	var b model.StoredBook
	var publisher, publishedDate, description, thumb, series sql.NullString
	var pageCount, price sql.NullInt64
	err := row.Scan(
		&b.ID, &b.ISBN, &b.Title, &b.Author,
		&publisher, &publishedDate, &description,
		&pageCount, &thumb, &price, &series, &b.Source,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	b.Publisher = nullStringValue(publisher)
	b.PublishedDate = nullStringValue(publishedDate)
	b.Description = nullStringValue(description)
	b.ThumbnailURL = nullStringValue(thumb)
	b.Series = nullStringValue(series)
	b.PageCount = int(pageCount.Int64)
	b.Price = int(price.Int64)
	return &b, nil
}
