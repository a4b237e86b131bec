package ndl

import (
	"regexp"
	"strings"
	"unicode"
)

// countryCodeSentinel は出版者フィールドに出版国コードだけが入っている場合の値。
const countryCodeSentinel = "JP"

// alternatePublisherTags は主要な出版者タグで解決できない場合に試す代替タグ。
var alternatePublisherTags = []tag{
	{nsDC, "publisher"},
	{nsDCNDL, "publisher"},
}

// publisherKeywords は出版者名であることを示す部分文字列。
var publisherKeywords = []string{"出版", "書店", "書房", "新社", "社", "株式会社", "Publishing", "Press", "Books"}

// publisherStrategy は書誌レコードから出版者名の候補を取り出す純粋関数。
// 解決できない場合は空文字列を返す。
type publisherStrategy func(record *node) string

// publisherStrategies は出版者の解決を試す順序。
var publisherStrategies = []publisherStrategy{
	primaryPublisher,
	alternatePublisher,
	scanPublisher,
}

// resolvePublisher は戦略を順に試し、最初に得られた候補をpolicyで整形して返す。
func resolvePublisher(record *node, policy PublisherPolicy) string {
	for _, strategy := range publisherStrategies {
		if raw := strategy(record); raw != "" {
			return policy.Clean(raw)
		}
	}
	return ""
}

// primaryPublisher は出版者フィールドを読む。国コードのみの場合は未解決とする。
func primaryPublisher(record *node) string {
	v := firstText(record, fieldPublisher)
	if v == countryCodeSentinel {
		return ""
	}
	return v
}

// alternatePublisher は代替タグを順に試す。
func alternatePublisher(record *node) string {
	for _, t := range alternatePublisherTags {
		for _, n := range record.findAll(t.Space, t.Local) {
			if v := n.value(); v != "" && v != countryCodeSentinel {
				return v
			}
		}
	}
	return ""
}

// scanPublisher はレコード内の全要素を走査し、出版者を示す語を含む最初のテキストを返す。
// タイトル・著者・説明文などの部分木は対象外とする。
func scanPublisher(record *node) string {
	if isExcludedFromScan(record) {
		return ""
	}
	if text := strings.TrimSpace(record.Text); text != "" {
		for _, kw := range publisherKeywords {
			if strings.Contains(text, kw) {
				return text
			}
		}
	}
	for _, c := range record.Children {
		if v := scanPublisher(c); v != "" {
			return v
		}
	}
	return ""
}

func isExcludedFromScan(n *node) bool {
	switch n.Name.Local {
	case "title", "alternative", "creator", "contributor", "description", "abstract", "subject", "seriesTitle", "partInformation":
		return true
	}
	return false
}

// PublisherPolicy は出版者名の整形方針。
// 整形は常にベストエフォートであり、結果が空になった場合は元の値から候補を選ぶ。
type PublisherPolicy struct {
	// StripPhonetic はカタカナ（読み）を除去するかどうか。
	StripPhonetic bool
	// PlaceNames は除去する地名（都道府県名など）。
	PlaceNames []string
	// PlaceSuffixes は地名に続く行政区分の語。
	PlaceSuffixes []string
	// CompanySuffixes は除去する会社種別の語。
	CompanySuffixes []string
}

// DefaultPublisherPolicy は国立国会図書館の書誌データ向けの整形方針を返す。
func DefaultPublisherPolicy() PublisherPolicy {
	return PublisherPolicy{
		StripPhonetic: true,
		PlaceNames: []string{
			"東京", "大阪", "京都", "北海道", "神奈川", "愛知", "福岡", "兵庫", "埼玉", "千葉",
			"横浜", "名古屋", "札幌", "神戸", "仙台", "広島",
		},
		PlaceSuffixes:   []string{"都", "道", "府", "県", "市", "区"},
		CompanySuffixes: []string{"株式会社", "有限会社", "合同会社", "合資会社", "(株)", "（株）", "㈱", "(有)", "（有）"},
	}
}

var digitsAndHyphens = regexp.MustCompile(`[0-9０-９\-‐－]+`)

// Clean は出版者名を整形する。
func (p PublisherPolicy) Clean(raw string) string {
	s := firstLine(raw)
	// 「東京 : 講談社」のような出版地付き表記は出版者部分だけを使う
	if parts := strings.FieldsFunc(s, isColon); len(parts) > 1 {
		if last := strings.TrimSpace(parts[len(parts)-1]); last != "" {
			s = last
		}
	}
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	}

	if p.StripPhonetic {
		s = strings.Map(func(r rune) rune {
			if isPhonetic(r) || unicode.IsSpace(r) {
				return -1
			}
			return r
		}, s)
	}
	s = p.stripPlaceNames(s)
	for _, suffix := range p.CompanySuffixes {
		s = strings.ReplaceAll(s, suffix, "")
	}
	s = digitsAndHyphens.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)

	if s != "" {
		return s
	}
	return fallbackPublisher(raw)
}

func (p PublisherPolicy) stripPlaceNames(s string) string {
	for _, place := range p.PlaceNames {
		if !strings.HasPrefix(s, place) {
			continue
		}
		rest := strings.TrimPrefix(s, place)
		for _, suffix := range p.PlaceSuffixes {
			if strings.HasPrefix(rest, suffix) {
				rest = strings.TrimPrefix(rest, suffix)
				break
			}
		}
		return rest
	}
	return s
}

// fallbackPublisher は整形で空になった場合に、元の値から
// 2文字以上かつカタカナだけではない最初の語を返す。該当がなければ最初の語を返す。
func fallbackPublisher(raw string) string {
	tokens := strings.FieldsFunc(firstLine(raw), func(r rune) bool {
		return unicode.IsSpace(r) || isColon(r)
	})
	for _, tok := range tokens {
		if len([]rune(tok)) > 1 && !isAllPhonetic(tok) {
			return tok
		}
	}
	if len(tokens) > 0 {
		return tokens[0]
	}
	return ""
}

// isPhonetic はカタカナ（全角・半角）および長音・中黒かどうかを返す。
func isPhonetic(r rune) bool {
	return unicode.In(r, unicode.Katakana) || r == 'ー' || r == '・' || (r >= 0xFF65 && r <= 0xFF9F)
}

func isAllPhonetic(s string) bool {
	for _, r := range s {
		if !isPhonetic(r) {
			return false
		}
	}
	return s != ""
}

func isColon(r rune) bool {
	return r == ':' || r == '：'
}
