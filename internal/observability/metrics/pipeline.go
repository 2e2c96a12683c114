package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/retrodocs/digitizer/internal/core/domain"
)

type PipelineMetrics struct {
	registry *prometheus.Registry

	stageTotal     *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	stageInFlight  prometheus.Gauge
	imagesAnalyzed prometheus.Counter
	llmCalls       prometheus.Counter
}

func NewPipelineMetrics(service string) *PipelineMetrics {
	registry := prometheus.NewRegistry()

	stageTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "digitizer",
			Subsystem: "pipeline",
			Name:      "stage_total",
			Help:      "Terminal stage outcomes by stage and status.",
		},
		[]string{"service", "stage", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "digitizer",
			Subsystem: "pipeline",
			Name:      "stage_duration_seconds",
			Help:      "Stage execution duration in seconds by stage and status.",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"service", "stage", "status"},
	)
	stageInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "digitizer",
			Subsystem: "pipeline",
			Name:      "stage_in_flight",
			Help:      "Number of documents currently inside a stage.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	imagesAnalyzed := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "digitizer",
			Subsystem: "pipeline",
			Name:      "images_analyzed_total",
			Help:      "Images successfully analyzed by the vision model.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	llmCalls := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "digitizer",
			Subsystem: "pipeline",
			Name:      "llm_calls_total",
			Help:      "Successful model invocations across all stages.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)

	registry.MustRegister(stageTotal, stageDuration, stageInFlight, imagesAnalyzed, llmCalls)

	return &PipelineMetrics{
		registry:       registry,
		stageTotal:     stageTotal,
		stageDuration:  stageDuration,
		stageInFlight:  stageInFlight,
		imagesAnalyzed: imagesAnalyzed,
		llmCalls:       llmCalls,
	}
}

func (m *PipelineMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *PipelineMetrics) StartDocument() {
	m.stageInFlight.Inc()
}

func (m *PipelineMetrics) FinishDocument(service string, stage domain.Stage, detail domain.DocumentDetail, duration time.Duration) {
	m.stageInFlight.Dec()
	m.stageTotal.WithLabelValues(service, string(stage), string(detail.Status)).Inc()
	m.stageDuration.WithLabelValues(service, string(stage), string(detail.Status)).Observe(duration.Seconds())
	m.imagesAnalyzed.Add(float64(detail.ImagesAnalyzed))
	m.llmCalls.Add(float64(detail.APICalls))
}
