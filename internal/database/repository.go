package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/hlspress/hlspress/pkg/models"
)

// ErrNotFound is returned when a video record does not exist
var ErrNotFound = errors.New("video not found")

const videoColumns = `id, stored_file, original_name, qualities,
	COALESCE(output_dir, ''), COALESCE(playlist_url, ''),
	COALESCE(thumbnail_url, ''), COALESCE(blurhash, ''),
	status, width, height, duration, created_at`

// Repository provides video record persistence
type Repository struct {
	db *DB
}

// NewRepository creates a new repository
func NewRepository(db *DB) *Repository {
	return &Repository{db: db}
}

// EnsureSchema creates the videos table if it does not exist
func (r *Repository) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS videos (
			id            BIGSERIAL PRIMARY KEY,
			stored_file   TEXT NOT NULL,
			original_name TEXT NOT NULL,
			qualities     TEXT NOT NULL DEFAULT '',
			output_dir    TEXT,
			playlist_url  TEXT,
			thumbnail_url TEXT,
			blurhash      TEXT,
			status        TEXT NOT NULL DEFAULT 'pending',
			width         INTEGER NOT NULL DEFAULT 0,
			height        INTEGER NOT NULL DEFAULT 0,
			duration      DOUBLE PRECISION NOT NULL DEFAULT 0,
			created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
		);
		CREATE INDEX IF NOT EXISTS idx_videos_status ON videos (status);
	`
	if _, err := r.db.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

// CreateVideo inserts a new video record and fills in its assigned
// identifier and creation timestamp.
func (r *Repository) CreateVideo(ctx context.Context, video *models.Video) error {
	query := `
		INSERT INTO videos (stored_file, original_name, qualities, status, width, height, duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		video.StoredFile, video.OriginalName, video.Qualities.Join(), video.Status,
		video.Width, video.Height, video.Duration,
	).Scan(&video.ID, &video.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}
	return nil
}

// GetVideo retrieves a video by ID
func (r *Repository) GetVideo(ctx context.Context, id int64) (*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE id = $1`

	video, err := scanVideo(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get video: %w", err)
	}
	return video, nil
}

// ListVideos retrieves all videos, newest first
func (r *Repository) ListVideos(ctx context.Context) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer rows.Close()

	return scanVideos(rows)
}

// GetVideosByStatus retrieves videos in any of the given statuses, in
// identifier order. Resume relies on this ordering.
func (r *Repository) GetVideosByStatus(ctx context.Context, statuses ...string) ([]*models.Video, error) {
	query := `SELECT ` + videoColumns + ` FROM videos WHERE status = ANY($1) ORDER BY id ASC`

	rows, err := r.db.Pool.Query(ctx, query, statuses)
	if err != nil {
		return nil, fmt.Errorf("failed to get videos by status: %w", err)
	}
	defer rows.Close()

	return scanVideos(rows)
}

// UpdateSelection narrows a video's quality list to the selected
// subset and moves it to queued state, the transcode-start transition.
func (r *Repository) UpdateSelection(ctx context.Context, id int64, qualities models.QualityList) error {
	query := `UPDATE videos SET qualities = $2, status = $3 WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, id, qualities.Join(), models.VideoStatusQueued)
	if err != nil {
		return fmt.Errorf("failed to update selection: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// PatchVideo applies a partial update. Only the typed patch fields can
// ever be written through this path.
func (r *Repository) PatchVideo(ctx context.Context, id int64, patch models.VideoPatch) error {
	var sets []string
	args := []interface{}{id}

	add := func(column string, value string) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Status != nil {
		add("status", *patch.Status)
	}
	if patch.OutputDir != nil {
		add("output_dir", *patch.OutputDir)
	}
	if patch.PlaylistURL != nil {
		add("playlist_url", *patch.PlaylistURL)
	}
	if patch.ThumbnailURL != nil {
		add("thumbnail_url", *patch.ThumbnailURL)
	}
	if patch.Blurhash != nil {
		add("blurhash", *patch.Blurhash)
	}

	if len(sets) == 0 {
		return nil
	}

	query := `UPDATE videos SET ` + strings.Join(sets, ", ") + ` WHERE id = $1`
	tag, err := r.db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to patch video: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanVideo(row rowScanner) (*models.Video, error) {
	var video models.Video
	var qualities string

	err := row.Scan(
		&video.ID, &video.StoredFile, &video.OriginalName, &qualities,
		&video.OutputDir, &video.PlaylistURL, &video.ThumbnailURL, &video.Blurhash,
		&video.Status, &video.Width, &video.Height, &video.Duration, &video.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	video.Qualities = models.ParseQualityList(qualities)
	return &video, nil
}

func scanVideos(rows pgx.Rows) ([]*models.Video, error) {
	var videos []*models.Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		videos = append(videos, video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read videos: %w", err)
	}
	return videos, nil
}
