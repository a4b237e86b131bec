// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder はメトリクス収集のインターフェース。
// 書誌情報の解決処理とHTTPハンドラーから利用する。
type Recorder interface {
	RecordResolution(outcome string)
	RecordSourceResult(source, outcome string)
	RecordSourceLatency(source string, duration time.Duration)
	RecordCacheHit()
	RecordCacheMiss()
	RecordBreakerState(source string, state int)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	resolutions   *prometheus.CounterVec
	sourceResults *prometheus.CounterVec
	sourceLatency *prometheus.HistogramVec
	cacheHits     prometheus.Counter
	cacheMisses   prometheus.Counter
	breakerState  *prometheus.GaugeVec
	httpStatus    *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_resolutions_total",
			Help: "書誌情報の解決結果別の件数",
		}, []string{"outcome"}),
		sourceResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_source_results_total",
			Help: "取得元ごとの検索結果別の件数",
		}, []string{"source", "outcome"}),
		sourceLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bookshelf_source_latency_seconds",
			Help:    "取得元ごとの検索レイテンシ（秒、リトライを含む）",
			Buckets: prometheus.DefBuckets,
		}, []string{"source"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookshelf_cache_hits_total",
			Help: "キャッシュヒットの合計数",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bookshelf_cache_misses_total",
			Help: "キャッシュミスの合計数",
		}),
		breakerState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bookshelf_circuit_breaker_state",
			Help: "サーキットブレーカーの状態（0=CLOSED, 1=OPEN, 2=HALF_OPEN）",
		}, []string{"source"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bookshelf_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.resolutions,
		c.sourceResults,
		c.sourceLatency,
		c.cacheHits,
		c.cacheMisses,
		c.breakerState,
		c.httpStatus,
	)

	return c
}

// RecordResolution は解決結果（found, not_found, invalid, cache_hit）を記録する。
func (c *Collector) RecordResolution(outcome string) {
	c.resolutions.WithLabelValues(outcome).Inc()
}

// RecordSourceResult は取得元ごとの検索結果を記録する。
func (c *Collector) RecordSourceResult(source, outcome string) {
	c.sourceResults.WithLabelValues(source, outcome).Inc()
}

// RecordSourceLatency は取得元ごとの検索レイテンシを記録する。
func (c *Collector) RecordSourceLatency(source string, duration time.Duration) {
	c.sourceLatency.WithLabelValues(source).Observe(duration.Seconds())
}

// RecordCacheHit はキャッシュヒットを記録する。
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Inc()
}

// RecordCacheMiss はキャッシュミスを記録する。
func (c *Collector) RecordCacheMiss() {
	c.cacheMisses.Inc()
}

// RecordBreakerState はサーキットブレーカーの状態を記録する。
func (c *Collector) RecordBreakerState(source string, state int) {
	c.breakerState.WithLabelValues(source).Set(float64(state))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop は何も記録しないRecorder。メトリクスが不要なコマンドやテストで使う。
type Nop struct{}

func (Nop) RecordResolution(string)                   {}
func (Nop) RecordSourceResult(string, string)         {}
func (Nop) RecordSourceLatency(string, time.Duration) {}
func (Nop) RecordCacheHit()                           {}
func (Nop) RecordCacheMiss()                          {}
func (Nop) RecordBreakerState(string, int)            {}
func (Nop) RecordHTTPStatus(int)                      {}
