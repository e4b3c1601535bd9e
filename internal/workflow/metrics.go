package workflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Traffic: подачи на согласование по исходам
	SubmitTotal *prometheus.CounterVec

	// Traffic: решения по действиям
	DecisionsTotal *prometheus.CounterVec

	// Latency: обработка решения, включая транзакцию журнала
	DecideDuration *prometheus.HistogramVec

	// Errors: отказы в полномочиях
	AuthDenied prometheus.Counter

	// Ops: шаги без единого активного согласующего
	ConfigGaps prometheus.Counter

	// Saturation: очередь уведомлений (backpressure)
	NotifyBufferFill prometheus.Gauge
	NotifyFailures   prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	// Null Object Pattern — если рег не передан, используем локальный,
	// который никуда не подключен
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		SubmitTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "approval_submit_total",
			Help: "Total number of workflow submissions by outcome.",
		}, []string{"document_type", "result"}),

		DecisionsTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "approval_decisions_total",
			Help: "Total number of recorded decisions by action.",
		}, []string{"document_type", "action"}),

		DecideDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "approval_decide_duration_seconds",
			Help:    "Histogram of decision processing latencies.",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"action", "status"}),

		AuthDenied: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "approval_authorization_denied_total",
			Help: "Total number of denied authority checks.",
		}),

		ConfigGaps: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "approval_configuration_gaps_total",
			Help: "Total number of steps resolved to an empty approver set.",
		}),

		NotifyBufferFill: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "approval_notify_buffer_utilization",
			Help: "Current number of notifications in the dispatch buffer.",
		}),

		NotifyFailures: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "approval_notify_failures_total",
			Help: "Total number of dropped or failed notifications.",
		}),
	}
}
