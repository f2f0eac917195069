package obvy

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// StatsInternal is the attached prometheus registry for Attento
type StatsInternal struct {
	Registry    *prometheus.Registry
	WWW         *prometheus.CounterVec
	Frames      prometheus.Counter
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
	AlertsFired *prometheus.CounterVec
	SweepTimer  prometheus.Histogram
}

// NewStatsInternal registers every internal metric on a
// private registry so tests never collide on the global one
func NewStatsInternal() *StatsInternal {
	reg := prometheus.NewRegistry()

	s := &StatsInternal{
		Registry: reg,
		WWW: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attento_http_requests_total",
			Help: "HTTP requests served, by status code and method",
		}, []string{"code", "method"}),
		Frames: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attento_frames_analyzed_total",
			Help: "Snapshots run through the full pipeline",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attento_frame_cache_hits_total",
			Help: "Analyses served from the frame cache",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "attento_frame_cache_misses_total",
			Help: "Analyses that had to invoke the detector",
		}),
		AlertsFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "attento_alerts_fired_total",
			Help: "Alerts fired, by severity",
		}, []string{"severity"}),
		SweepTimer: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "attento_sweep_duration_seconds",
			Help:    "Wall time of one full room sweep",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(s.WWW, s.Frames, s.CacheHits, s.CacheMisses, s.AlertsFired, s.SweepTimer)

	return s
}

// Handler serves this registry on /metrics
func (s *StatsInternal) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})
}

// RecWWW counts one served HTTP request
func (s *StatsInternal) RecWWW(code, method string) {
	s.WWW.WithLabelValues(code, method).Inc()
}

// RecFrame counts one analysis and its cache outcome
func (s *StatsInternal) RecFrame(cached bool) {
	if cached {
		s.CacheHits.Inc()
		return
	}
	s.CacheMisses.Inc()
	s.Frames.Inc()
}

// RecAlert counts one fired alert by severity
func (s *StatsInternal) RecAlert(severity string) {
	s.AlertsFired.WithLabelValues(severity).Inc()
}

// RecPollTimer records the duration of one sweep pass
func (s *StatsInternal) RecPollTimer(seconds float64) {
	s.SweepTimer.Observe(seconds)
}
