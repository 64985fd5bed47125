package metrics

import "github.com/prometheus/client_golang/prometheus"

// LeadMetrics exposes counters/histograms for the intake pipeline.
type LeadMetrics struct {
	submissionsTotal *prometheus.CounterVec
	scoredTotal      *prometheus.CounterVec
	dispatchTotal    *prometheus.CounterVec
	dispatchLatency  *prometheus.HistogramVec
	rateLimitedTotal prometheus.Counter
}

// NewLeadMetrics registers the lead metrics on reg, or the default registerer when nil.
func NewLeadMetrics(reg prometheus.Registerer) *LeadMetrics {
	m := &LeadMetrics{
		submissionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foreclosure",
			Subsystem: "leads",
			Name:      "submissions_total",
			Help:      "Intake requests by outcome",
		}, []string{"status"}),
		scoredTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foreclosure",
			Subsystem: "leads",
			Name:      "scored_total",
			Help:      "Accepted leads by priority tier",
		}, []string{"priority"}),
		dispatchTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "foreclosure",
			Subsystem: "dispatch",
			Name:      "outcomes_total",
			Help:      "Dispatch channel outcomes",
		}, []string{"channel", "status"}),
		dispatchLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "foreclosure",
			Subsystem: "dispatch",
			Name:      "channel_duration_seconds",
			Help:      "Latency of each dispatch channel",
			Buckets:   prometheus.DefBuckets,
		}, []string{"channel"}),
		rateLimitedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "foreclosure",
			Subsystem: "leads",
			Name:      "rate_limited_total",
			Help:      "Intake requests rejected by the rate limiter",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.submissionsTotal, m.scoredTotal, m.dispatchTotal, m.dispatchLatency, m.rateLimitedTotal)
	return m
}

// ObserveSubmission counts one intake request with its final status (accepted, invalid, bad_request, error).
func (m *LeadMetrics) ObserveSubmission(status string) {
	if m == nil {
		return
	}
	m.submissionsTotal.WithLabelValues(status).Inc()
}

func (m *LeadMetrics) ObserveScored(priority string) {
	if m == nil {
		return
	}
	m.scoredTotal.WithLabelValues(priority).Inc()
}

// ObserveDispatch records one channel outcome. status is success, failed or skipped.
func (m *LeadMetrics) ObserveDispatch(channel, status string, seconds float64) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(channel, status).Inc()
	m.dispatchLatency.WithLabelValues(channel).Observe(seconds)
}

func (m *LeadMetrics) ObserveRateLimited() {
	if m == nil {
		return
	}
	m.rateLimitedTotal.Inc()
}
