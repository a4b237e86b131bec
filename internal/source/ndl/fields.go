package ndl

import (
	"regexp"
	"strconv"
	"strings"
)

// field は書誌レコードの論理フィールド名。
type field string

const (
	fieldTitle       field = "title"
	fieldCreator     field = "creator"
	fieldPublisher   field = "publisher"
	fieldDate        field = "date"
	fieldDescription field = "description"
	fieldExtent      field = "extent"
	fieldPrice       field = "price"
	fieldSeries      field = "series"
)

// tag は名前空間修飾されたタグ名。
type tag struct {
	Space string
	Local string
}

// fieldTags は論理フィールドごとに試行するタグ名を優先順に定義する。
// 最初に空でないテキストが得られたタグを採用する。
var fieldTags = map[field][]tag{
	fieldTitle:       {{nsDCTerms, "title"}, {nsDC, "title"}},
	fieldCreator:     {{nsDC, "creator"}, {nsDCTerms, "creator"}},
	fieldPublisher:   {{nsDCTerms, "publisher"}},
	fieldDate:        {{nsDCTerms, "issued"}, {nsDCTerms, "date"}, {nsDC, "date"}},
	fieldDescription: {{nsDCTerms, "description"}, {nsDC, "description"}, {nsDCTerms, "abstract"}},
	fieldExtent:      {{nsDCTerms, "extent"}, {nsDC, "format"}},
	fieldPrice:       {{nsDCNDL, "price"}},
	fieldSeries:      {{nsDCNDL, "seriesTitle"}, {nsDCTerms, "isPartOf"}},
}

// firstText はfieldTagsの定義順にタグを試し、最初に見つかった空でないテキストを返す。
// どのタグにも一致しない場合は空文字列を返す。
func firstText(record *node, f field) string {
	return firstTextOf(record, fieldTags[f])
}

func firstTextOf(record *node, tags []tag) string {
	for _, t := range tags {
		for _, n := range record.findAll(t.Space, t.Local) {
			if v := n.value(); v != "" {
				return v
			}
		}
	}
	return ""
}

var (
	// pagePattern は「237p」「237 ページ」「237頁」などのページ数表記に一致する。
	pagePattern = regexp.MustCompile(`(\d+)\s*(?:p|P|ページ|頁)`)
	// pricePattern は価格表記の最初の整数部分に一致する。
	pricePattern = regexp.MustCompile(`\d+`)

	// placeholderValues はタイトル・著者として扱わない値。
	placeholderValues = map[string]bool{
		"":        true,
		"-":       true,
		"不明":      true,
		"unknown": true,
		"n/a":     true,
	}
)

// cleanTitle は読みが改行後に埋め込まれたタイトルから1行目だけを取り出す。
func cleanTitle(raw string) string {
	return firstLine(raw)
}

// cleanCreator は著者表記の1行目を返す。
func cleanCreator(raw string) string {
	return firstLine(raw)
}

// isPlaceholder は値が空またはプレースホルダーかどうかを返す。
func isPlaceholder(s string) bool {
	return placeholderValues[strings.ToLower(strings.TrimSpace(s))]
}

// parsePageCount は形態（extent）表記からページ数を取り出す。見つからない場合は0を返す。
func parsePageCount(extent string) int {
	m := pagePattern.FindStringSubmatch(extent)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

// parsePrice は価格表記から最初の整数を取り出す。通貨記号や税表記は無視する。
func parsePrice(raw string) int {
	m := pricePattern.FindString(strings.ReplaceAll(raw, ",", ""))
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}
