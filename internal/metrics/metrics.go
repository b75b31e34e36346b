package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Result labels
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	once sync.Once

	// AnalysesTotal counts finished analyses by outcome.
	AnalysesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ckdscan",
		Name:      "analyses_total",
		Help:      "Total number of label analyses, labeled by result.",
	}, []string{"result"})

	// FailuresTotal counts failed analyses by the step that failed.
	FailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "ckdscan",
		Name:      "analysis_failures_total",
		Help:      "Total number of failed label analyses, labeled by failing step.",
	}, []string{"step"})

	// AnalysisDurationSeconds is the end-to-end time of one analysis including the model call.
	AnalysisDurationSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "ckdscan",
		Name:      "analysis_duration_seconds",
		Help:      "End-to-end time of one label analysis.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 60, 120},
	}, []string{"result"})

	// ImageBytes is the size of uploaded images.
	ImageBytes = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "ckdscan",
		Name:      "image_bytes",
		Help:      "Size of images submitted for analysis.",
		Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 10),
	})
)

// MustRegister registers all collectors with the default registry once.
func MustRegister() {
	once.Do(func() {
		prometheus.MustRegister(
			AnalysesTotal,
			FailuresTotal,
			AnalysisDurationSeconds,
			ImageBytes,
		)
	})
}

// ObserveAnalysis records one finished analysis. step is empty on success.
func ObserveAnalysis(step string, imageSize int, elapsed time.Duration) {
	result := ResultSuccess
	if step != "" {
		result = ResultFailure
		FailuresTotal.WithLabelValues(step).Inc()
	}
	AnalysesTotal.WithLabelValues(result).Inc()
	AnalysisDurationSeconds.WithLabelValues(result).Observe(elapsed.Seconds())
	ImageBytes.Observe(float64(imageSize))
}
