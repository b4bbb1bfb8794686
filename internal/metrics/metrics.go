// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はwebhook処理のメトリクスを収集する。
type Collector struct {
	webhookReceived  prometheus.Counter
	webhookFailed    prometheus.Counter
	userCreated      prometheus.Counter
	talkRoomCreated  prometheus.Counter
	eventAppended    prometheus.Counter
	docStoreLatency  *prometheus.HistogramVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		webhookReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talkroom_webhook_received_total",
			Help: "受信したwebhookイベントの合計数",
		}),
		webhookFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talkroom_webhook_failed_total",
			Help: "処理に失敗したwebhookイベントの合計数",
		}),
		userCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talkroom_user_created_total",
			Help: "新規作成されたユーザーの合計数",
		}),
		talkRoomCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talkroom_talk_room_created_total",
			Help: "新規作成されたtalk roomの合計数",
		}),
		eventAppended: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "talkroom_event_appended_total",
			Help: "既存talk roomへ追記されたイベントの合計数",
		}),
		docStoreLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "talkroom_docstore_latency_seconds",
			Help:    "ドキュメントストア呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}

	reg.MustRegister(
		c.webhookReceived,
		c.webhookFailed,
		c.userCreated,
		c.talkRoomCreated,
		c.eventAppended,
		c.docStoreLatency,
	)

	return c
}

// RecordWebhookReceived はwebhookイベントの受信を記録する。
func (c *Collector) RecordWebhookReceived() {
	c.webhookReceived.Inc()
}

// RecordWebhookFailed はwebhookイベントの処理失敗を記録する。
func (c *Collector) RecordWebhookFailed() {
	c.webhookFailed.Inc()
}

// RecordUserCreated はユーザーの新規作成を記録する。
func (c *Collector) RecordUserCreated() {
	c.userCreated.Inc()
}

// RecordTalkRoomCreated はtalk roomの新規作成を記録する。
func (c *Collector) RecordTalkRoomCreated() {
	c.talkRoomCreated.Inc()
}

// RecordEventAppended はイベントの追記を記録する。
func (c *Collector) RecordEventAppended() {
	c.eventAppended.Inc()
}

// RecordDocStoreLatency はドキュメントストア呼び出しのレイテンシを記録する。
func (c *Collector) RecordDocStoreLatency(operation string, d time.Duration) {
	c.docStoreLatency.WithLabelValues(operation).Observe(d.Seconds())
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
