package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"SmartFolio/internal/domain/models"
)

// Recorder implements the engine's Metrics port on Prometheus.
type Recorder struct {
	advisorFetches   *prometheus.CounterVec
	advisorLatency   *prometheus.HistogramVec
	cacheHits        *prometheus.CounterVec
	sessionsFinished *prometheus.CounterVec
	sessionDuration  prometheus.Histogram
	recommendations  *prometheus.CounterVec
}

func NewRecorder() *Recorder {
	return &Recorder{
		advisorFetches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "smartfolio_advisor_fetches_total",
			Help: "Advisor fetch attempts by advisor and outcome.",
		}, []string{"advisor", "outcome"}),
		advisorLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "smartfolio_advisor_fetch_seconds",
			Help:    "Advisor fetch latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"advisor"}),
		cacheHits: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "smartfolio_signal_cache_hits_total",
			Help: "Signal cache hits by layer (run or reuse).",
		}, []string{"layer"}),
		sessionsFinished: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "smartfolio_sessions_finished_total",
			Help: "Finished analysis sessions by status.",
		}, []string{"status"}),
		sessionDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "smartfolio_session_duration_seconds",
			Help:    "End to end analysis session duration.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}),
		recommendations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "smartfolio_recommendations_total",
			Help: "Recommendations produced by action.",
		}, []string{"action"}),
	}
}

func (r *Recorder) AdvisorFetch(advisor models.AdvisorType, outcome string, duration time.Duration) {
	r.advisorFetches.WithLabelValues(string(advisor), outcome).Inc()
	r.advisorLatency.WithLabelValues(string(advisor)).Observe(duration.Seconds())
}

func (r *Recorder) SignalCacheHit(layer string) {
	r.cacheHits.WithLabelValues(layer).Inc()
}

func (r *Recorder) SessionFinished(status models.SessionStatus, duration time.Duration) {
	r.sessionsFinished.WithLabelValues(string(status)).Inc()
	r.sessionDuration.Observe(duration.Seconds())
}

func (r *Recorder) RecommendationsProduced(action models.ActionType, n int) {
	r.recommendations.WithLabelValues(string(action)).Add(float64(n))
}
