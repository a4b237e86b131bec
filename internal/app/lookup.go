package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/hitoshi/bookshelf/internal/config"
	"github.com/hitoshi/bookshelf/internal/lookup"
	"github.com/hitoshi/bookshelf/internal/metrics"
	"github.com/hitoshi/bookshelf/internal/model"
)

// batchResolver は複数のISBNを一括で解決するインターフェース。
type batchResolver interface {
	ResolveBatch(ctx context.Context, raws []string, concurrency int) []lookup.BatchItem
}

// lookupResult はlookupサブコマンドが出力する1件分の結果。
type lookupResult struct {
	Input string      `json:"input"`
	Book  *model.Book `json:"book,omitempty"`
	Error string      `json:"error,omitempty"`
}

// runLookup は引数のISBNを解決し、結果をJSON配列としてoutに書き出す。
// 1件でも解決できなかった場合はエラーを返す。
func runLookup(ctx context.Context, cfg *config.Config, out io.Writer, isbns []string) error {
	if len(isbns) == 0 {
		return errors.New("usage: bookshelf lookup <isbn>...")
	}

	comps, err := buildComponents(ctx, cfg, slog.Default(), metrics.Nop{})
	if err != nil {
		return err
	}
	defer comps.Close()

	return printLookup(ctx, comps.resolver, out, isbns, cfg.LookupBatchConcurrency)
}

// printLookup はISBNを一括で解決し、入力順にJSONで書き出す。
func printLookup(ctx context.Context, resolver batchResolver, out io.Writer, isbns []string, concurrency int) error {
	items := resolver.ResolveBatch(ctx, isbns, concurrency)

	results := make([]lookupResult, 0, len(items))
	failed := 0
	for _, item := range items {
		res := lookupResult{Input: item.Input, Book: item.Book}
		if item.Err != nil {
			res.Error = item.Err.Error()
			failed++
		}
		results = append(results, res)
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(results); err != nil {
		return fmt.Errorf("failed to write lookup results: %w", err)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d lookups failed", failed, len(items))
	}
	return nil
}
