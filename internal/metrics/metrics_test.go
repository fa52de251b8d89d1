package metrics_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jonesrussell/contactcrawl/internal/metrics"
)

func TestRecordRequest(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.RecordRequest(metrics.StatusSuccess, "acme.se")
	m.RecordRequest(metrics.StatusSuccess, "acme.se")
	m.RecordRequest(metrics.StatusCaptcha, "acme.se")

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(metrics.StatusSuccess, "acme.se"))
	if got != 2 {
		t.Errorf("success count = %v, want 2", got)
	}

	got = testutil.ToFloat64(m.RequestsTotal.WithLabelValues(metrics.StatusCaptcha, "acme.se"))
	if got != 1 {
		t.Errorf("captcha count = %v, want 1", got)
	}
}

func TestRecordRobotsBlocked_MirrorsRequestCounter(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.RecordRobotsBlocked("blocked.se")

	if got := testutil.ToFloat64(m.RobotsBlocked.WithLabelValues("blocked.se")); got != 1 {
		t.Errorf("robots_blocked_total = %v, want 1", got)
	}

	got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(metrics.StatusRobotsBlocked, "blocked.se"))
	if got != 1 {
		t.Errorf("crawl_requests_total{robots-blocked} = %v, want 1", got)
	}
}

func TestActiveJobsGauge(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.JobStarted()
	m.JobStarted()
	m.JobFinished()

	if got := testutil.ToFloat64(m.ActiveJobs); got != 1 {
		t.Errorf("crawl_active_jobs = %v, want 1", got)
	}
}
