package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	conversions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ocrstudio",
			Name:      "conversions_total",
			Help:      "Total conversion attempts by result (success, failure)",
		},
		[]string{"result"},
	)

	conversionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "ocrstudio",
			Name:      "conversion_duration_seconds",
			Help:      "Wall-clock duration of engine conversion calls",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	ocrPages = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ocrstudio",
			Name:      "ocr_pages_total",
			Help:      "Total pages that went through the OCR fallback",
		},
	)

	uploads = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ocrstudio",
			Name:      "uploads_total",
			Help:      "Total accepted document uploads",
		},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(conversions, conversionDuration, ocrPages, uploads)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveConversion(result string, dur time.Duration, ocrPageCount int) {
	conversions.WithLabelValues(result).Inc()
	conversionDuration.Observe(dur.Seconds())
	ocrPages.Add(float64(ocrPageCount))
}

func IncUpload() { uploads.Inc() }
