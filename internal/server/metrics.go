package server

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// metrics are registered on a per-Server registry.
type metrics struct {
	registry *prometheus.Registry

	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec

	datasetRows    prometheus.Gauge
	datasetMissing prometheus.Gauge
	modelR2        prometheus.Gauge
	trainings      *prometheus.CounterVec
	predictions    *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabfit",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tabfit",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		datasetRows: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tabfit",
			Name:      "dataset_rows",
			Help:      "Rows of the current dataset.",
		}),
		datasetMissing: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tabfit",
			Name:      "dataset_missing_cells",
			Help:      "Missing cells of the current dataset before imputation.",
		}),
		modelR2: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "tabfit",
			Name:      "model_r2_score",
			Help:      "In-sample R² of the current model.",
		}),
		trainings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabfit",
			Name:      "trainings_total",
			Help:      "Training runs by result.",
		}, []string{"result"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tabfit",
			Name:      "predictions_total",
			Help:      "Prediction requests by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests, m.duration,
		m.datasetRows, m.datasetMissing, m.modelR2,
		m.trainings, m.predictions,
	)
	return m
}

func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *metrics) observeRequest(method, route string, status int, seconds float64) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(method, route).Observe(seconds)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
