package ndl

import "testing"

func TestFirstText_FirstMatchWins(t *testing.T) {
	record := mustParse(t, recordHeader+`
  <dc:title>dcのタイトル</dc:title>
  <dcterms:title>dctermsのタイトル</dcterms:title>
</dcndl:BibResource>`)

	if got := firstText(record, fieldTitle); got != "dctermsのタイトル" {
		t.Errorf("定義順で先のタグが優先される: got %q", got)
	}
}

func TestFirstText_SkipsEmptyAndFallsBack(t *testing.T) {
	record := mustParse(t, recordHeader+`
  <dcterms:title>   </dcterms:title>
  <dc:title>代替タイトル</dc:title>
</dcndl:BibResource>`)

	if got := firstText(record, fieldTitle); got != "代替タイトル" {
		t.Errorf("空のタグは無視される: got %q", got)
	}
}

func TestFirstText_Absent(t *testing.T) {
	record := mustParse(t, recordHeader+`</dcndl:BibResource>`)
	if got := firstText(record, fieldSeries); got != "" {
		t.Errorf("got %q, want empty", got)
	}
}

func TestParsePageCount(t *testing.T) {
	tests := []struct {
		extent string
		want   int
	}{
		{"xv, 237p ; 21cm", 237},
		{"350ページ", 350},
		{"120 頁", 120},
		{"21cm", 0},
		{"", 0},
	}
	for _, tt := range tests {
		if got := parsePageCount(tt.extent); got != tt.want {
			t.Errorf("parsePageCount(%q) = %d, want %d", tt.extent, got, tt.want)
		}
	}
}

func TestParsePrice(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"2,400円 (税別)", 2400},
		{"￥1800", 1800},
		{"1500円+税", 1500},
		{"価格不明", 0},
	}
	for _, tt := range tests {
		if got := parsePrice(tt.raw); got != tt.want {
			t.Errorf("parsePrice(%q) = %d, want %d", tt.raw, got, tt.want)
		}
	}
}

func TestCleanTitle(t *testing.T) {
	if got := cleanTitle("リーダブルコード\nリーダブル コード"); got != "リーダブルコード" {
		t.Errorf("cleanTitle() = %q", got)
	}
}

func TestIsPlaceholder(t *testing.T) {
	for _, s := range []string{"", "  ", "-", "不明", "Unknown"} {
		if !isPlaceholder(s) {
			t.Errorf("isPlaceholder(%q) = false, want true", s)
		}
	}
	if isPlaceholder("夏目漱石") {
		t.Error("isPlaceholder(夏目漱石) = true")
	}
}
