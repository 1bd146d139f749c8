// Package queue implements the in-process transcoding job queue:
// strict FIFO, one job at a time, durable by replay from the video
// store rather than by persisting jobs themselves.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/opentracing/opentracing-go"

	"github.com/hlspress/hlspress/internal/events"
	"github.com/hlspress/hlspress/internal/logging"
	"github.com/hlspress/hlspress/internal/metrics"
	"github.com/hlspress/hlspress/pkg/models"
)

// Runner executes a single job to completion. The transcoding pipeline
// is the production implementation.
type Runner interface {
	Run(ctx context.Context, job *models.Job) error
}

// Store is the slice of the video repository the queue needs
type Store interface {
	GetVideo(ctx context.Context, id int64) (*models.Video, error)
	GetVideosByStatus(ctx context.Context, statuses ...string) ([]*models.Video, error)
	PatchVideo(ctx context.Context, id int64, patch models.VideoPatch) error
	ListVideos(ctx context.Context) ([]*models.Video, error)
}

// Queue owns the pending job sequence and the drain loop. The slice
// and the draining flag are the only mutable shared state; both are
// guarded by mu so two drains can never run concurrently.
type Queue struct {
	runner Runner
	store  Store
	events events.Sink
	log    *logging.Logger

	mu       sync.Mutex
	jobs     []*models.Job
	draining bool
	started  bool
	wg       sync.WaitGroup
}

// New creates a stopped queue
func New(runner Runner, store Store, sink events.Sink, log *logging.Logger) *Queue {
	return &Queue{
		runner: runner,
		store:  store,
		events: sink,
		log:    log,
	}
}

// Start allows the queue to drain. Jobs enqueued before Start stay
// pending until it is called.
func (q *Queue) Start() {
	q.mu.Lock()
	q.started = true
	kick := len(q.jobs) > 0 && !q.draining
	if kick {
		q.draining = true
		q.wg.Add(1)
	}
	q.mu.Unlock()

	if kick {
		go q.drain()
	}
}

// Stop prevents further jobs from being popped and waits for the
// in-flight job, if any, to finish. Running jobs are never cancelled.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.started = false
	q.mu.Unlock()
	q.wg.Wait()
}

// Enqueue appends a job to the tail of the sequence and ensures a
// drain is in progress. It never blocks the caller.
func (q *Queue) Enqueue(job *models.Job) {
	q.mu.Lock()
	q.jobs = append(q.jobs, job)
	metrics.JobsQueueDepth.Set(float64(len(q.jobs)))
	kick := q.started && !q.draining
	if kick {
		q.draining = true
		q.wg.Add(1)
	}
	q.mu.Unlock()

	if kick {
		go q.drain()
	}
}

// Depth returns the number of jobs waiting, not counting a running one
func (q *Queue) Depth() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.jobs)
}

// drain pops and executes jobs head-first until the sequence is empty
// or the queue is stopped. Exactly one drain runs at a time.
func (q *Queue) drain() {
	defer q.wg.Done()
	for {
		q.mu.Lock()
		if !q.started || len(q.jobs) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		job := q.jobs[0]
		q.jobs = q.jobs[1:]
		metrics.JobsQueueDepth.Set(float64(len(q.jobs)))
		q.mu.Unlock()

		q.runJob(job)
	}
}

// runJob wraps one pipeline run with the status transitions and events
// the queue owes its observers. A job failure is contained here so the
// drain always continues with the next job.
func (q *Queue) runJob(job *models.Job) {
	span := opentracing.StartSpan("queue.job")
	span.SetTag("video_id", job.VideoID)
	defer span.Finish()
	ctx := opentracing.ContextWithSpan(context.Background(), span)

	log := q.log.WithVideoID(job.VideoID)
	start := time.Now()
	metrics.JobsInProgress.Inc()
	defer metrics.JobsInProgress.Dec()

	processing := models.VideoStatusProcessing
	if err := q.store.PatchVideo(ctx, job.VideoID, models.VideoPatch{Status: &processing}); err != nil {
		log.WithError(err).Error("failed to mark video processing")
	}
	if video, err := q.store.GetVideo(ctx, job.VideoID); err == nil {
		q.events.Emit(events.EventVideoUpdated, video)
	}

	log.Info("job started")
	err := q.runner.Run(ctx, job)
	metrics.JobDuration.Observe(time.Since(start).Seconds())

	if err == nil {
		metrics.JobsCompletedTotal.WithLabelValues(models.VideoStatusCompleted).Inc()
		return
	}

	// The pipeline may have died anywhere; force the terminal state
	// here so no single job can brick the queue.
	log.WithError(err).Error("job failed")
	span.SetTag("error", true)
	metrics.JobsCompletedTotal.WithLabelValues(models.VideoStatusFailed).Inc()

	failed := models.VideoStatusFailed
	if patchErr := q.store.PatchVideo(ctx, job.VideoID, models.VideoPatch{Status: &failed}); patchErr != nil {
		log.WithError(patchErr).Error("failed to mark video failed")
	}
	q.events.Emit(events.EventJobFailed, events.FailurePayload{
		JobID: job.VideoID,
		Error: err.Error(),
	})
	q.broadcastVideoList(ctx)
}

func (q *Queue) broadcastVideoList(ctx context.Context) {
	videos, err := q.store.ListVideos(ctx)
	if err != nil {
		q.log.WithError(err).Error("failed to load video list for broadcast")
		return
	}
	q.events.Emit(events.EventVideoList, videos)
}
