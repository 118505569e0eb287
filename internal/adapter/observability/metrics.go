package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		},
		[]string{"route", "method"},
	)

	JudgeRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "judge_requests_total",
			Help: "Total number of judge requests by outcome",
		},
		[]string{"outcome"},
	)
	JudgeRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "judge_request_duration_seconds",
			Help:    "Judge request duration in seconds",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
	)
	JudgeFallbacks = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "judge_fallbacks_total",
			Help: "Total number of analyses scored by the deterministic fallback",
		},
	)

	AnalysesEnqueuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analyses_enqueued_total",
			Help: "Total number of analyses enqueued",
		},
	)
	AnalysesProcessing = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "analyses_processing",
			Help: "Number of analyses currently processing",
		},
	)
	AnalysesCompletedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analyses_completed_total",
			Help: "Total number of analyses completed",
		},
	)
	AnalysesFailedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analyses_failed_total",
			Help: "Total number of analyses failed",
		},
	)
	CacheHitsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "analysis_cache_hits_total",
			Help: "Total number of analyses served from the result cache",
		},
	)

	// Score outcome distributions
	OverallScoreHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_overall_score",
			Help:    "Distribution of the aggregated percentage score ([0,100])",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
	JDMatchHistogram = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "analysis_jd_match",
			Help:    "Distribution of the JD match percentage ([0,100])",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		},
	)
)

func InitMetrics() {
	prometheus.MustRegister(HTTPRequestsTotal)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(JudgeRequestsTotal)
	prometheus.MustRegister(JudgeRequestDuration)
	prometheus.MustRegister(JudgeFallbacks)
	prometheus.MustRegister(AnalysesEnqueuedTotal)
	prometheus.MustRegister(AnalysesProcessing)
	prometheus.MustRegister(AnalysesCompletedTotal)
	prometheus.MustRegister(AnalysesFailedTotal)
	prometheus.MustRegister(CacheHitsTotal)
	prometheus.MustRegister(OverallScoreHistogram)
	prometheus.MustRegister(JDMatchHistogram)
}

// HTTPMetricsMiddleware records Prometheus metrics for each request.
func HTTPMetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		dur := time.Since(start).Seconds()
		// Route pattern may be unavailable outside a chi router; guard nil.
		var route string
		if rc := chi.RouteContext(r.Context()); rc != nil {
			route = rc.RoutePattern()
		}
		if route == "" {
			route = r.URL.Path
		}
		method := r.Method
		status := ww.Status()
		HTTPRequestsTotal.WithLabelValues(route, method, http.StatusText(status)).Inc()
		HTTPRequestDuration.WithLabelValues(route, method).Observe(dur)
	})
}

// ObserveJudgeRequest records one outbound judge call.
func ObserveJudgeRequest(ok bool, dur time.Duration) {
	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	JudgeRequestsTotal.WithLabelValues(outcome).Inc()
	JudgeRequestDuration.Observe(dur.Seconds())
}

func EnqueueAnalysis() {
	AnalysesEnqueuedTotal.Inc()
}

func StartProcessingAnalysis() {
	AnalysesProcessing.Inc()
}

func CompleteAnalysis() {
	AnalysesProcessing.Dec()
	AnalysesCompletedTotal.Inc()
}

func FailAnalysis() {
	AnalysesProcessing.Dec()
	AnalysesFailedTotal.Inc()
}

// ObserveScores records the score outcomes of a completed analysis.
func ObserveScores(overall, jdMatch float64) {
	if overall >= 0 && overall <= 100 {
		OverallScoreHistogram.Observe(overall)
	}
	if jdMatch >= 0 && jdMatch <= 100 {
		JDMatchHistogram.Observe(jdMatch)
	}
}
