package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlspress_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	VideoUploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hlspress_video_uploads_total",
			Help: "Total number of video uploads",
		},
	)

	// Job metrics
	JobsCompletedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlspress_jobs_completed_total",
			Help: "Total number of finished transcoding jobs",
		},
		[]string{"status"},
	)

	JobsInProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hlspress_jobs_in_progress",
			Help: "Number of jobs currently being processed",
		},
	)

	JobsQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hlspress_jobs_queue_depth",
			Help: "Number of jobs waiting in queue",
		},
	)

	JobDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hlspress_job_duration_seconds",
			Help:    "Job processing duration in seconds",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~1 hour
		},
	)

	RenditionsEncodedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hlspress_renditions_encoded_total",
			Help: "Total number of encoded renditions",
		},
		[]string{"quality"},
	)
)
