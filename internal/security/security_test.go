package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewOutboundClient_Timeout(t *testing.T) {
	client := NewOutboundClient(5 * time.Second)
	if client == nil {
		t.Fatal("NewOutboundClient() returned nil")
	}
	if client.Timeout != 5*time.Second {
		t.Errorf("expected timeout 5s, got %v", client.Timeout)
	}
	if client.Transport == nil || client.Transport == http.DefaultTransport {
		t.Error("safeurlのTransportが設定されているべき")
	}
}

// httptestサーバーは127.0.0.1で起動されるため、safeurlがブロックする。
func TestNewOutboundClient_BlocksLoopback(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer ts.Close()

	client := NewOutboundClient(5 * time.Second)
	if _, err := client.Get(ts.URL); err == nil {
		t.Fatal("ループバックへのリクエストはエラーになるべき")
	}
}

func TestValidateEndpoint(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{"NDLサーチ", "https://ndlsearch.ndl.go.jp/api/sru", false},
		{"Google Books", "https://www.googleapis.com/books/v1/volumes", false},
		{"空文字列", "", true},
		{"ftpスキーム", "ftp://example.com/", true},
		{"ホストなし", "https://", true},
		{"プライベートIP", "http://192.168.1.10/api", true},
		{"ループバック", "http://127.0.0.1:8080/", true},
		{"メタデータIP", "http://169.254.169.254/latest/meta-data/", true},
		{"IPv6ループバック", "http://[::1]/", true},
		{"localhost", "http://LOCALHOST/api", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEndpoint(tt.url)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateEndpoint(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
		})
	}
}

func TestTextSanitizer_Sanitize(t *testing.T) {
	s := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"空文字列", "", ""},
		{"プレーンテキスト", "読みやすいコードを書くための本", "読みやすいコードを書くための本"},
		{"タグの除去", "<p>読みやすい<b>コード</b></p>", "読みやすいコード"},
		{"改行タグは空白", "1行目<br>2行目", "1行目 2行目"},
		{"scriptの除去", `説明<script>alert("xss")</script>`, "説明"},
		{"実体参照", "A &amp; B", "A & B"},
		{"空白の正規化", "  前後\n\tの空白  ", "前後 の空白"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeImageURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"http://books.google.com/books/content?id=abc&printsec=frontcover&img=1", "https://books.google.com/books/content?id=abc&printsec=frontcover&img=1"},
		{"https://example.com/cover.jpg", "https://example.com/cover.jpg"},
		{"javascript:alert(1)", ""},
		{"data:image/png;base64,AAAA", ""},
		{"", ""},
		{"/relative/path.jpg", ""},
	}
	for _, tt := range tests {
		if got := NormalizeImageURL(tt.input); got != tt.want {
			t.Errorf("NormalizeImageURL(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
