package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FormSessionsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "form_sessions_created_total",
			Help: "Total number of application form sessions started",
		},
	)

	FormEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_events_total",
			Help: "Total number of form events processed",
		},
		[]string{"event", "outcome"},
	)

	FormSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "form_submissions_total",
			Help: "Total number of submit attempts by result",
		},
		[]string{"result"},
	)

	FormEventDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "form_event_duration_seconds",
			Help:    "Duration of form event processing in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"event"},
	)

	HTTPRateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_rate_limited_total",
			Help: "Total number of requests rejected by the rate limiter",
		},
		[]string{"route"},
	)

	UploadScans = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "upload_scans_total",
			Help: "Total number of upload malware scans by scanner and result",
		},
		[]string{"scanner", "result"},
	)

	SinkDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "submission_sink_deliveries_total",
			Help: "Total number of application deliveries by sink and outcome",
		},
		[]string{"sink", "outcome"},
	)
)

// Submission results
const (
	SubmissionAccepted = "accepted"
	SubmissionBlocked  = "blocked"
	SubmissionFailed   = "failed"
)

// Scan results
const (
	ScanClean    = "clean"
	ScanInfected = "infected"
	ScanFailed   = "error"
)
