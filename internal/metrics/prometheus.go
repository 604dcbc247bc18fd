package metrics

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RunDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "truststack_run_duration_seconds",
			Help:    "Scoring run duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)

	ItemsGated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truststack_items_gated_total",
			Help: "Items rejected by the content gate, by reason",
		},
		[]string{"reason"},
	)

	ItemsTriaged = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truststack_items_triaged_total",
			Help: "Items partitioned by the triage filter",
		},
		[]string{"decision"},
	)

	ItemsScored = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truststack_items_scored_total",
			Help: "Items fully scored, by final label",
		},
		[]string{"label"},
	)

	CompositeScore = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "truststack_composite_score",
			Help:    "Composite score distribution",
			Buckets: []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)

	DetectorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truststack_detector_failures_total",
			Help: "Attribute detector failures, by attribute",
		},
		[]string{"attribute_id"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truststack_cache_hits_total",
			Help: "Classification cache hits",
		},
		[]string{"cache_type"},
	)

	CacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "truststack_cache_misses_total",
			Help: "Classification cache misses",
		},
		[]string{"cache_type"},
	)

	LLMCalls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "truststack_llm_calls_total",
			Help: "External classification calls issued",
		},
	)

	LLMFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "truststack_llm_fallbacks_total",
			Help: "Classifications resolved by the score-based fallback",
		},
	)

	AuthenticityRatio = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "truststack_authenticity_ratio_pct",
			Help: "Authenticity ratio of the most recent run, by brand",
		},
		[]string{"brand", "variant"},
	)
)

func Init() {
	prometheus.MustRegister(RunDuration)
	prometheus.MustRegister(ItemsGated)
	prometheus.MustRegister(ItemsTriaged)
	prometheus.MustRegister(ItemsScored)
	prometheus.MustRegister(CompositeScore)
	prometheus.MustRegister(DetectorFailures)
	prometheus.MustRegister(CacheHits)
	prometheus.MustRegister(CacheMisses)
	prometheus.MustRegister(LLMCalls)
	prometheus.MustRegister(LLMFallbacks)
	prometheus.MustRegister(AuthenticityRatio)
}

func MetricsHandler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.Handler())
}
