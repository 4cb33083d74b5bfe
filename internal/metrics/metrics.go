// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// ワーカーやサービス層から利用する。
type MetricsCollector interface {
	RecordHTTPStatus(statusCode int)
	RecordRequestLatency(duration time.Duration)
	RecordSeedCycleSuccess()
	RecordSeedCycleFailure()
	RecordSeedsInserted(count int)
	RecordDigestSent(category string)
	RecordDigestFailure(category string)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	httpStatus       *prometheus.CounterVec
	requestLatency   prometheus.Histogram
	seedCycleSuccess prometheus.Counter
	seedCycleFail    prometheus.Counter
	seedsInserted    prometheus.Counter
	digestSent       *prometheus.CounterVec
	digestFail       *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodsave_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodsave_request_latency_seconds",
			Help:    "HTTPリクエストのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		seedCycleSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodsave_seed_cycle_success_total",
			Help: "チャットシードサイクル成功の合計数",
		}),
		seedCycleFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodsave_seed_cycle_fail_total",
			Help: "チャットシードサイクル失敗の合計数",
		}),
		seedsInserted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodsave_seeds_inserted_total",
			Help: "挿入されたチャットシード行の合計数",
		}),
		digestSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodsave_digest_sent_total",
			Help: "送信されたダイジェストメールの種別ごとの合計数",
		}, []string{"category"}),
		digestFail: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodsave_digest_fail_total",
			Help: "送信に失敗したダイジェストメールの種別ごとの合計数",
		}, []string{"category"}),
	}

	reg.MustRegister(
		c.httpStatus,
		c.requestLatency,
		c.seedCycleSuccess,
		c.seedCycleFail,
		c.seedsInserted,
		c.digestSent,
		c.digestFail,
	)

	return c
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はHTTPリクエストのレイテンシを記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// RecordSeedCycleSuccess はシードサイクル成功を記録する。
func (c *Collector) RecordSeedCycleSuccess() {
	c.seedCycleSuccess.Inc()
}

// RecordSeedCycleFailure はシードサイクル失敗を記録する。
func (c *Collector) RecordSeedCycleFailure() {
	c.seedCycleFail.Inc()
}

// RecordSeedsInserted は挿入されたシード行数を記録する。
func (c *Collector) RecordSeedsInserted(count int) {
	c.seedsInserted.Add(float64(count))
}

// RecordDigestSent はダイジェストメール送信を記録する。
func (c *Collector) RecordDigestSent(category string) {
	c.digestSent.WithLabelValues(category).Inc()
}

// RecordDigestFailure はダイジェストメール送信失敗を記録する。
func (c *Collector) RecordDigestFailure(category string) {
	c.digestFail.WithLabelValues(category).Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute は/metricsエンドポイントを提供するHTTPハンドラーを返す。
// Prometheusスクレイプに対応する。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	return Handler(gatherer)
}
