// Package metrics exposes Prometheus counters for submissions, uploads,
// profile lookups and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	OutcomeSuccess      = "success"
	OutcomeUnauthorized = "unauthenticated"
	OutcomeInvalid      = "invalid"
	OutcomeUploadFailed = "upload_failed"
	OutcomeWriteFailed  = "write_failed"
	OutcomeNotFound     = "not_found"
	OutcomeError        = "error"
	OutcomeSkipped      = "skipped"
)

// Recorder is what services report to.
type Recorder interface {
	RecordSubmission(outcome string)
	RecordUpload(outcome string, duration time.Duration)
	RecordProfileLookup(outcome string)
	RecordFeedAssembly(duration time.Duration, entries int)
	RecordSessionEvent(kind string)
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordSubmission(string)               {}
func (Nop) RecordUpload(string, time.Duration)    {}
func (Nop) RecordProfileLookup(string)            {}
func (Nop) RecordFeedAssembly(time.Duration, int) {}
func (Nop) RecordSessionEvent(string)             {}

type Collector struct {
	submissions    *prometheus.CounterVec
	uploads        *prometheus.CounterVec
	uploadLatency  prometheus.Histogram
	profileLookups *prometheus.CounterVec
	feedLatency    prometheus.Histogram
	feedEntries    prometheus.Histogram
	sessionEvents  *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpLatency    prometheus.Histogram
}

// NewCollector creates the collector and registers it on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "theoryboard_submissions_total",
			Help: "Theory submissions by outcome.",
		}, []string{"outcome"}),
		uploads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "theoryboard_uploads_total",
			Help: "Media uploads by outcome.",
		}, []string{"outcome"}),
		uploadLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "theoryboard_upload_latency_seconds",
			Help:    "Media upload round trip latency.",
			Buckets: prometheus.DefBuckets,
		}),
		profileLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "theoryboard_profile_lookups_total",
			Help: "Author profile lookups during feed assembly by outcome.",
		}, []string{"outcome"}),
		feedLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "theoryboard_feed_assembly_seconds",
			Help:    "Time to assemble the feed.",
			Buckets: prometheus.DefBuckets,
		}),
		feedEntries: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "theoryboard_feed_entries",
			Help:    "Number of entries in an assembled feed.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
		sessionEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "theoryboard_session_events_total",
			Help: "Session changes by kind.",
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "theoryboard_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "theoryboard_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.submissions,
		c.uploads,
		c.uploadLatency,
		c.profileLookups,
		c.feedLatency,
		c.feedEntries,
		c.sessionEvents,
		c.httpRequests,
		c.httpLatency,
	)

	return c
}

func (c *Collector) RecordSubmission(outcome string) {
	c.submissions.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordUpload(outcome string, duration time.Duration) {
	c.uploads.WithLabelValues(outcome).Inc()
	c.uploadLatency.Observe(duration.Seconds())
}

func (c *Collector) RecordProfileLookup(outcome string) {
	c.profileLookups.WithLabelValues(outcome).Inc()
}

func (c *Collector) RecordFeedAssembly(duration time.Duration, entries int) {
	c.feedLatency.Observe(duration.Seconds())
	c.feedEntries.Observe(float64(entries))
}

func (c *Collector) RecordSessionEvent(kind string) {
	c.sessionEvents.WithLabelValues(kind).Inc()
}

func (c *Collector) RecordHTTPRequest(method string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.Observe(duration.Seconds())
}

// Handler serves the registry for Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
