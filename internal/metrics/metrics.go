// Package metrics exposes the crawler's Prometheus metric surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Request outcome labels for crawl_requests_total.
const (
	StatusSuccess       = "success"
	StatusError         = "error"
	StatusTimeout       = "timeout"
	StatusBlocked       = "blocked"
	StatusNotFound      = "404"
	StatusNonHTML       = "non-html"
	StatusRobotsBlocked = "robots-blocked"
	StatusCaptcha       = "captcha"
)

// Contact type labels for contacts_found_total.
const (
	ContactEmail  = "email"
	ContactPhone  = "phone"
	ContactSocial = "social"
)

// Metrics holds all Prometheus collectors for the crawler.
type Metrics struct {
	RequestsTotal *prometheus.CounterVec
	CrawlDuration prometheus.Histogram
	ActiveJobs    prometheus.Gauge
	ContactsFound *prometheus.CounterVec
	RobotsBlocked *prometheus.CounterVec
}

// durationBuckets covers sub-second cache hits up to minute-long stalls.
var durationBuckets = []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60}

// New creates and registers the crawler metrics. A nil registerer uses the
// default registry.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "crawl_requests_total",
				Help: "Crawl page requests by outcome and host",
			},
			[]string{"status", "host"},
		),
		CrawlDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "crawl_duration_seconds",
				Help:    "Duration of successful page fetches in seconds",
				Buckets: durationBuckets,
			},
		),
		ActiveJobs: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "crawl_active_jobs",
				Help: "Enrichment jobs currently being processed",
			},
		),
		ContactsFound: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "contacts_found_total",
				Help: "Contacts discovered by type",
			},
			[]string{"type"},
		),
		RobotsBlocked: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "robots_blocked_total",
				Help: "Fetches denied by robots.txt per host",
			},
			[]string{"host"},
		),
	}
}

// RecordRequest counts one page request outcome.
func (m *Metrics) RecordRequest(status, host string) {
	m.RequestsTotal.WithLabelValues(status, host).Inc()
}

// ObserveDuration records a successful fetch duration in seconds.
func (m *Metrics) ObserveDuration(seconds float64) {
	m.CrawlDuration.Observe(seconds)
}

// JobStarted increments the active-jobs gauge.
func (m *Metrics) JobStarted() {
	m.ActiveJobs.Inc()
}

// JobFinished decrements the active-jobs gauge.
func (m *Metrics) JobFinished() {
	m.ActiveJobs.Dec()
}

// RecordContact counts a discovered contact of the given type.
func (m *Metrics) RecordContact(contactType string) {
	m.ContactsFound.WithLabelValues(contactType).Inc()
}

// RecordRobotsBlocked counts a robots denial for a host and mirrors it into
// the request outcome counter.
func (m *Metrics) RecordRobotsBlocked(host string) {
	m.RobotsBlocked.WithLabelValues(host).Inc()
	m.RequestsTotal.WithLabelValues(StatusRobotsBlocked, host).Inc()
}
