// Package api is the HTTP boundary: upload intake, transcode requests
// and the video listing. All transcoding work happens behind the job
// queue; handlers only validate, persist and enqueue.
package api

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/hlspress/hlspress/internal/database"
	"github.com/hlspress/hlspress/internal/events"
	"github.com/hlspress/hlspress/internal/logging"
	"github.com/hlspress/hlspress/internal/metrics"
	"github.com/hlspress/hlspress/internal/transcoder"
	"github.com/hlspress/hlspress/pkg/models"
)

// Store is the slice of the video repository the API needs
type Store interface {
	CreateVideo(ctx context.Context, video *models.Video) error
	GetVideo(ctx context.Context, id int64) (*models.Video, error)
	ListVideos(ctx context.Context) ([]*models.Video, error)
	UpdateSelection(ctx context.Context, id int64, qualities models.QualityList) error
}

// Prober extracts source properties from an uploaded file
type Prober interface {
	Probe(ctx context.Context, filePath string) (*transcoder.ProbeResult, error)
}

// Enqueuer accepts jobs for background processing
type Enqueuer interface {
	Enqueue(job *models.Job)
}

// Uploads is the slice of local storage the API needs
type Uploads interface {
	Store(r io.Reader, originalName string) (string, error)
	InputPath(storedFile string) string
	EnsureOutputDir(videoID int64) (string, error)
}

// ListCache caches the video listing between mutations
type ListCache interface {
	GetVideoList(ctx context.Context) ([]*models.Video, error)
	SetVideoList(ctx context.Context, videos []*models.Video) error
	InvalidateVideoList(ctx context.Context) error
}

// API holds the handler dependencies
type API struct {
	store   Store
	prober  Prober
	queue   Enqueuer
	uploads Uploads
	cache   ListCache
	events  events.Sink
	log     *logging.Logger
}

// New creates the API
func New(store Store, prober Prober, queue Enqueuer, uploads Uploads, cache ListCache, sink events.Sink, log *logging.Logger) *API {
	return &API{
		store:   store,
		prober:  prober,
		queue:   queue,
		uploads: uploads,
		cache:   cache,
		events:  sink,
		log:     log,
	}
}

// uploadVideo receives a multipart upload, stores it content-addressed,
// probes it and creates the pending video record. A file that cannot be
// probed as video is rejected outright: no record is created.
func (api *API) uploadVideo(c *gin.Context) {
	fileHeader, err := c.FormFile("video")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No video file uploaded"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read uploaded file"})
		return
	}
	defer file.Close()

	storedFile, err := api.uploads.Store(file, fileHeader.Filename)
	if err != nil {
		api.log.WithError(err).Error("failed to store upload")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded file"})
		return
	}

	probe, err := api.prober.Probe(c.Request.Context(), api.uploads.InputPath(storedFile))
	if err != nil {
		api.log.WithError(err).Warn("upload rejected, probe failed")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to probe video file"})
		return
	}

	video := &models.Video{
		StoredFile:   storedFile,
		OriginalName: fileHeader.Filename,
		Qualities:    transcoder.AllowedQualities(probe.Width),
		Status:       models.VideoStatusPending,
		Width:        probe.Width,
		Height:       probe.Height,
		Duration:     probe.Duration,
	}

	if err := api.store.CreateVideo(c.Request.Context(), video); err != nil {
		api.log.WithError(err).Error("failed to create video record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create video record"})
		return
	}

	metrics.VideoUploadsTotal.Inc()
	api.invalidateList(c.Request.Context())
	api.events.Emit(events.EventVideoAdded, video)

	c.JSON(http.StatusOK, gin.H{
		"fileId":           video.ID,
		"width":            probe.Width,
		"height":           probe.Height,
		"duration":         probe.Duration,
		"allowedQualities": video.Qualities,
	})
}

// startTranscode narrows the quality selection, marks the video queued
// and hands a job to the queue.
func (api *API) startTranscode(c *gin.Context) {
	var req struct {
		FileID    int64    `json:"fileId" binding:"required"`
		Qualities []string `json:"qualities" binding:"required,min=1"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request, missing fileId or qualities"})
		return
	}

	video, err := api.store.GetVideo(c.Request.Context(), req.FileID)
	if errors.Is(err, database.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "File not found"})
		return
	}
	if err != nil {
		api.log.WithError(err).Error("failed to load video record")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load video record"})
		return
	}

	// The status field is what guarantees at most one job per video.
	if video.Status == models.VideoStatusQueued || video.Status == models.VideoStatusProcessing {
		c.JSON(http.StatusConflict, gin.H{"error": "Transcoding already in progress"})
		return
	}

	selected := video.Qualities.Intersect(models.QualityList(req.Qualities))
	if len(selected) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No valid quality options selected"})
		return
	}

	if err := api.store.UpdateSelection(c.Request.Context(), video.ID, selected); err != nil {
		api.log.WithError(err).Error("failed to update quality selection")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update video record"})
		return
	}

	outputDir, err := api.uploads.EnsureOutputDir(video.ID)
	if err != nil {
		api.log.WithError(err).Error("failed to create output directory")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to prepare output directory"})
		return
	}

	api.queue.Enqueue(&models.Job{
		VideoID:    video.ID,
		StoredFile: video.StoredFile,
		Qualities:  selected,
		InputPath:  api.uploads.InputPath(video.StoredFile),
		OutputDir:  outputDir,
		Duration:   video.Duration,
	})
	api.invalidateList(c.Request.Context())

	c.JSON(http.StatusOK, gin.H{"jobId": video.ID})
}

// listVideos returns all videos, newest first, served from cache when
// fresh.
func (api *API) listVideos(c *gin.Context) {
	ctx := c.Request.Context()

	if cached, err := api.cache.GetVideoList(ctx); err == nil && cached != nil {
		c.JSON(http.StatusOK, cached)
		return
	} else if err != nil {
		api.log.WithError(err).Warn("video list cache read failed")
	}

	videos, err := api.store.ListVideos(ctx)
	if err != nil {
		api.log.WithError(err).Error("failed to list videos")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list videos"})
		return
	}
	if videos == nil {
		videos = []*models.Video{}
	}

	if err := api.cache.SetVideoList(ctx, videos); err != nil {
		api.log.WithError(err).Warn("video list cache write failed")
	}

	c.JSON(http.StatusOK, videos)
}

func (api *API) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (api *API) invalidateList(ctx context.Context) {
	if err := api.cache.InvalidateVideoList(ctx); err != nil {
		api.log.WithError(err).Warn("video list cache invalidation failed")
	}
}
