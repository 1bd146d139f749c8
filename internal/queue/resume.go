package queue

import (
	"context"

	"github.com/hlspress/hlspress/pkg/models"
)

// PathResolver recomputes job paths from configuration during resume
type PathResolver interface {
	InputPath(storedFile string) string
	EnsureOutputDir(videoID int64) (string, error)
}

// ResumePending rehydrates jobs for videos left in queued or
// processing state by a previous run and re-enqueues them in store
// order. A video found in processing state implies a crash mid-job; it
// is restarted from the beginning, overwriting any partial artifacts.
//
// Must run before the process accepts new transcode requests, so
// resumed jobs keep their place at the head of the queue.
func (q *Queue) ResumePending(ctx context.Context, paths PathResolver) error {
	videos, err := q.store.GetVideosByStatus(ctx, models.VideoStatusQueued, models.VideoStatusProcessing)
	if err != nil {
		return err
	}

	for _, video := range videos {
		log := q.log.WithVideoID(video.ID)

		outputDir, err := paths.EnsureOutputDir(video.ID)
		if err != nil {
			// One broken record must not keep the rest from resuming.
			log.WithError(err).Error("failed to prepare output directory, skipping resume")
			continue
		}

		q.Enqueue(&models.Job{
			VideoID:    video.ID,
			StoredFile: video.StoredFile,
			Qualities:  video.Qualities,
			InputPath:  paths.InputPath(video.StoredFile),
			OutputDir:  outputDir,
			Duration:   video.Duration,
		})
		log.Info("resumed pending job")
	}

	return nil
}
