// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics はジャーナル処理パイプラインのPrometheusメトリクスを収集する。
type Metrics struct {
	pipelineSuccess prometheus.Counter
	pipelineSkip    prometheus.Counter
	pipelineFail    prometheus.Counter
	batchUsers      prometheus.Counter
	batchDuration   prometheus.Histogram
}

// New は新しいMetricsを生成し、指定されたレジストリにメトリクスを登録する。
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		pipelineSuccess: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jurnal_pipeline_success_total",
			Help: "メール送信まで完了したユーザー処理の合計数",
		}),
		pipelineSkip: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jurnal_pipeline_skip_total",
			Help: "連携なしまたはエントリなしでスキップされたユーザー処理の合計数",
		}),
		pipelineFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jurnal_pipeline_fail_total",
			Help: "エラーまたはpanicで失敗したユーザー処理の合計数",
		}),
		batchUsers: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "jurnal_batch_users_total",
			Help: "バッチ処理の対象となったユーザーの合計数",
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "jurnal_batch_duration_seconds",
			Help:    "バッチ処理1サイクルの所要時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		m.pipelineSuccess,
		m.pipelineSkip,
		m.pipelineFail,
		m.batchUsers,
		m.batchDuration,
	)

	return m
}

// IncPipelineSuccess はユーザー処理成功を記録する。
func (m *Metrics) IncPipelineSuccess() {
	m.pipelineSuccess.Inc()
}

// IncPipelineSkip はユーザー処理スキップを記録する。
func (m *Metrics) IncPipelineSkip() {
	m.pipelineSkip.Inc()
}

// IncPipelineFailure はユーザー処理失敗を記録する。
func (m *Metrics) IncPipelineFailure() {
	m.pipelineFail.Inc()
}

// ObserveBatchRun はバッチ処理1サイクルの対象ユーザー数と所要時間を記録する。
func (m *Metrics) ObserveBatchRun(userCount int, duration time.Duration) {
	m.batchUsers.Add(float64(userCount))
	m.batchDuration.Observe(duration.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
