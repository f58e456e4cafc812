package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	predictions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "emotion_predictions_total",
		Help: "Predictions served, by modality and outcome",
	}, []string{"modality", "outcome"})

	inferenceLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "emotion_inference_latency_seconds",
		Help:    "Latency of external classifier calls",
		Buckets: prometheus.DefBuckets,
	}, []string{"modality"})
)

func init() {
	prometheus.MustRegister(predictions, inferenceLatency)
}

// 输入模态，对应各指标的 modality 标签。
const (
	ModalityText  = "text"
	ModalityAudio = "audio"
)

// 结果分类，对应 emotion_predictions_total 的 outcome 标签。
const (
	OutcomeOK      = "ok"
	OutcomeMissing = "missing_input"
	OutcomeError   = "error"
)

// ObservePrediction counts one served prediction.
func ObservePrediction(modality, outcome string) {
	predictions.WithLabelValues(modality, outcome).Inc()
}

// ObserveInference records how long a classifier call took.
func ObserveInference(modality string, started time.Time) {
	inferenceLatency.WithLabelValues(modality).Observe(time.Since(started).Seconds())
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
