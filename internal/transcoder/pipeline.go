package transcoder

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/opentracing/opentracing-go"

	"github.com/hlspress/hlspress/internal/events"
	"github.com/hlspress/hlspress/internal/logging"
	"github.com/hlspress/hlspress/internal/metrics"
	"github.com/hlspress/hlspress/pkg/models"
)

// Encoder is the subprocess boundary the pipeline drives. *FFmpeg is
// the production implementation; tests substitute a fake.
type Encoder interface {
	RunWithProgress(ctx context.Context, args []string, totalDuration float64, progress ProgressFunc) error
	ExtractFrame(ctx context.Context, inputPath, outputPath string, atSeconds float64) error
	RenderTileSheet(ctx context.Context, inputPath, outputPath string, layout StoryboardLayout) error
}

// Store is the slice of the video repository the pipeline needs
type Store interface {
	PatchVideo(ctx context.Context, id int64, patch models.VideoPatch) error
	ListVideos(ctx context.Context) ([]*models.Video, error)
}

// Service drives one transcoding job from its selected qualities to a
// complete set of streaming artifacts.
type Service struct {
	encoder     Encoder
	store       Store
	events      events.Sink
	log         *logging.Logger
	segmentTime int
	publicURL   string
}

// NewService creates a pipeline service
func NewService(encoder Encoder, store Store, sink events.Sink, log *logging.Logger, segmentTime int, publicURL string) *Service {
	return &Service{
		encoder:     encoder,
		store:       store,
		events:      sink,
		log:         log,
		segmentTime: segmentTime,
		publicURL:   publicURL,
	}
}

// Run executes the pipeline for a single job. Every step is a hard
// dependency on the previous one succeeding, except the blurhash
// computation, which degrades to an empty placeholder. On error the
// caller marks the job failed; partial renditions are left on disk for
// inspection.
func (s *Service) Run(ctx context.Context, job *models.Job) error {
	log := s.log.WithVideoID(job.VideoID)

	// Renditions, sequentially, in requested order.
	for _, quality := range job.Qualities {
		if err := s.encodeRendition(ctx, job, quality); err != nil {
			return fmt.Errorf("rendition %s: %w", quality, err)
		}
		metrics.RenditionsEncodedTotal.WithLabelValues(quality).Inc()
		log.WithQuality(quality).Info("rendition complete")
	}

	// Master playlist.
	if err := WriteMasterPlaylist(filepath.Join(job.OutputDir, "master.m3u8"), job.Qualities); err != nil {
		return err
	}

	// Cover thumbnail at 10% of the source duration.
	thumbnailPath := filepath.Join(job.OutputDir, "thumbnail.jpg")
	if err := s.extractThumbnail(ctx, job, thumbnailPath); err != nil {
		return err
	}

	// Blurhash placeholder. A failure here is not worth failing the
	// whole job over: persist an empty hash and move on.
	hash, err := ComputeBlurhash(thumbnailPath)
	if err != nil {
		log.WithError(err).Warn("blurhash computation failed, storing empty placeholder")
		hash = ""
	}

	// Storyboard and cue sheet.
	if err := s.generateStoryboard(ctx, job); err != nil {
		return err
	}

	// Finalize.
	playlistURL := s.artifactURL(job.VideoID, "master.m3u8")
	thumbnailURL := s.artifactURL(job.VideoID, "thumbnail.jpg")

	patch := models.VideoPatch{
		Status:       models.StringPtr(models.VideoStatusCompleted),
		OutputDir:    models.StringPtr(job.OutputDir),
		PlaylistURL:  models.StringPtr(playlistURL),
		ThumbnailURL: models.StringPtr(thumbnailURL),
		Blurhash:     models.StringPtr(hash),
	}
	if err := s.store.PatchVideo(ctx, job.VideoID, patch); err != nil {
		return fmt.Errorf("failed to finalize video %d: %w", job.VideoID, err)
	}

	s.events.Emit(events.EventJobComplete, events.CompletePayload{
		JobID:        job.VideoID,
		PlaylistURL:  playlistURL,
		ThumbnailURL: thumbnailURL,
	})
	s.BroadcastVideoList(ctx)

	log.Info("job complete")
	return nil
}

// encodeRendition produces one quality-specific HLS output, reporting
// fractional progress through the event sink.
func (s *Service) encodeRendition(ctx context.Context, job *models.Job, quality string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "transcode.rendition")
	span.SetTag("video_id", job.VideoID)
	span.SetTag("quality", quality)
	defer span.Finish()

	preset, ok := LookupPreset(quality)
	if !ok {
		return fmt.Errorf("no preset for quality %q", quality)
	}

	outputPath := filepath.Join(job.OutputDir, quality+".m3u8")
	args := []string{
		"-y",
		"-i", job.InputPath,
		"-reset_timestamps", "1",
		"-c:v", "libx264",
		"-preset", "fast",
		"-b:v", preset.Bitrate,
		"-vf", "scale=" + preset.Scale,
		"-c:a", "aac",
		"-f", "hls",
		"-hls_time", strconv.Itoa(s.segmentTime),
		"-hls_playlist_type", "vod",
		outputPath,
	}

	return s.encoder.RunWithProgress(ctx, args, job.Duration, func(percent float64) {
		s.events.Emit(events.EventJobProgress, events.ProgressPayload{
			JobID:   job.VideoID,
			Quality: quality,
			Percent: percent,
		})
	})
}

func (s *Service) extractThumbnail(ctx context.Context, job *models.Job, outputPath string) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "transcode.thumbnail")
	span.SetTag("video_id", job.VideoID)
	defer span.Finish()

	return s.encoder.ExtractFrame(ctx, job.InputPath, outputPath, job.Duration*0.1)
}

func (s *Service) generateStoryboard(ctx context.Context, job *models.Job) error {
	span, ctx := opentracing.StartSpanFromContext(ctx, "transcode.storyboard")
	span.SetTag("video_id", job.VideoID)
	defer span.Finish()

	layout := ComputeStoryboardLayout(job.Duration)
	storyboardPath := filepath.Join(job.OutputDir, "storyboard.jpg")

	if err := s.encoder.RenderTileSheet(ctx, job.InputPath, storyboardPath, layout); err != nil {
		return err
	}
	return WriteCueSheet(filepath.Join(job.OutputDir, "thumbnails.vtt"), "storyboard.jpg", layout)
}

// BroadcastVideoList pushes the full refreshed video list to observers
func (s *Service) BroadcastVideoList(ctx context.Context) {
	videos, err := s.store.ListVideos(ctx)
	if err != nil {
		s.log.WithError(err).Error("failed to load video list for broadcast")
		return
	}
	s.events.Emit(events.EventVideoList, videos)
}

func (s *Service) artifactURL(videoID int64, name string) string {
	return fmt.Sprintf("%s/%d/%s", s.publicURL, videoID, name)
}
