package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"photocull-api/preview"
)

var (
	extractions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "photocull",
		Name:      "extractions_total",
		Help:      "Preview extractions by operation and result.",
	}, []string{"op", "result"})

	extractionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "photocull",
		Name:      "extraction_duration_seconds",
		Help:      "Time spent extracting previews.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"op"})

	decodesInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "photocull",
		Name:      "decodes_in_flight",
		Help:      "Full decodes currently holding a semaphore slot.",
	})

	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "photocull",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "photocull",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})
)

// Result は err を集計用のラベルに変換する
func Result(err error) string {
	if err == nil {
		return "ok"
	}
	return strings.ReplaceAll(preview.KindOf(err).String(), " ", "_")
}

// ObserveExtraction は抽出 1 回分の結果と所要時間を記録する
func ObserveExtraction(op string, err error, d time.Duration) {
	extractions.WithLabelValues(op, Result(err)).Inc()
	extractionDuration.WithLabelValues(op).Observe(d.Seconds())
}

// DecodeStarted / DecodeFinished はセマフォ取得中のデコード数を増減する
func DecodeStarted()  { decodesInFlight.Inc() }
func DecodeFinished() { decodesInFlight.Dec() }

// ObserveRequest は HTTP リクエスト 1 件を記録する
func ObserveRequest(route, method, status string, d time.Duration) {
	httpRequests.WithLabelValues(route, method, status).Inc()
	httpDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
