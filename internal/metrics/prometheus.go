package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	DetectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artikel_detections_total",
			Help: "Total detections by winning cascade rule",
		},
		[]string{"rule"},
	)

	DetectionConfidence = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artikel_detection_confidence",
			Help:    "Confidence of detection verdicts",
			Buckets: []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 1.0},
		},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artikel_cache_hits_total",
			Help: "Total cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artikel_cache_misses_total",
			Help: "Total cache misses",
		},
		[]string{"cache_type"},
	)

	IngestionRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artikel_ingestion_runs_total",
			Help: "Total dataset ingestion runs",
		},
		[]string{"status"},
	)

	IngestionRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artikel_ingestion_rows_total",
			Help: "Total dataset rows by parse outcome",
		},
		[]string{"outcome"},
	)

	IngestionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "artikel_ingestion_duration_seconds",
			Help:    "Dataset refresh duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60},
		},
	)

	LexiconSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "artikel_lexicon_size",
			Help: "Entries in the current lexicon generation",
		},
	)

	CorrectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "artikel_corrections_total",
			Help: "Total user correction submissions",
		},
	)
)

func Init() {
	prometheus.MustRegister(DetectionsTotal)
	prometheus.MustRegister(DetectionConfidence)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(IngestionRuns)
	prometheus.MustRegister(IngestionRows)
	prometheus.MustRegister(IngestionDuration)
	prometheus.MustRegister(LexiconSize)
	prometheus.MustRegister(CorrectionsTotal)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
