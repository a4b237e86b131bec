package middleware

import (
	"net/http"
	"strings"
)

// NewCORSMiddleware はCORSミドルウェアを返す。
// allowedOriginsはカンマ区切りで複数指定でき、"*"はすべてのオリジンを許可する。
// リクエストのOriginが許可リストにある場合のみ、そのOriginを返す。
// 書誌情報APIは参照と登録のみのため、GET・POST・OPTIONSだけを許可する。
func NewCORSMiddleware(allowedOrigins string) func(next http.Handler) http.Handler {
	allowed := parseOrigins(allowedOrigins)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Add("Vary", "Origin")

			origin := r.Header.Get("Origin")
			if allowOrigin, ok := allowed.match(origin); ok {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", allowOrigin)
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type")
				h.Set("Access-Control-Expose-Headers", "Retry-After")
				h.Set("Access-Control-Max-Age", "86400")
			}

			// プリフライトはOriginの許可に関わらずハンドラーまで到達させない
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type originList struct {
	any     bool
	origins map[string]struct{}
}

func parseOrigins(s string) originList {
	list := originList{origins: map[string]struct{}{}}
	for _, o := range strings.Split(s, ",") {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		switch o {
		case "":
		case "*":
			list.any = true
		default:
			list.origins[o] = struct{}{}
		}
	}
	return list
}

// match はOriginに対して返すAccess-Control-Allow-Originの値を返す。
func (l originList) match(origin string) (string, bool) {
	if origin == "" {
		return "", false
	}
	if l.any {
		return "*", true
	}
	if _, ok := l.origins[origin]; ok {
		return origin, true
	}
	return "", false
}
