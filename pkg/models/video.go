package models

import (
	"strings"
	"time"
)

// Video represents an uploaded video and its transcoding state
type Video struct {
	ID           int64       `json:"id" db:"id"`
	StoredFile   string      `json:"stored_file" db:"stored_file"`
	OriginalName string      `json:"original_name" db:"original_name"`
	Qualities    QualityList `json:"qualities" db:"qualities"`
	OutputDir    string      `json:"output_dir,omitempty" db:"output_dir"`
	PlaylistURL  string      `json:"playlist_url,omitempty" db:"playlist_url"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty" db:"thumbnail_url"`
	Blurhash     string      `json:"blurhash,omitempty" db:"blurhash"`
	Status       string      `json:"status" db:"status"`
	Width        int         `json:"width" db:"width"`
	Height       int         `json:"height" db:"height"`
	Duration     float64     `json:"duration" db:"duration"`
	CreatedAt    time.Time   `json:"created_at" db:"created_at"`
}

// QualityList is an ordered set of quality labels. It is stored as a
// single comma-joined column, so labels must never contain commas.
type QualityList []string

// Join renders the list in its storage form.
func (q QualityList) Join() string {
	return strings.Join(q, ",")
}

// ParseQualityList parses the comma-joined storage form.
func ParseQualityList(s string) QualityList {
	if s == "" {
		return nil
	}
	return QualityList(strings.Split(s, ","))
}

// Contains reports whether the list includes the given label.
func (q QualityList) Contains(label string) bool {
	for _, v := range q {
		if v == label {
			return true
		}
	}
	return false
}

// Intersect returns the labels of other that are also present in q,
// preserving the order of other.
func (q QualityList) Intersect(other QualityList) QualityList {
	var out QualityList
	for _, v := range other {
		if q.Contains(v) {
			out = append(out, v)
		}
	}
	return out
}

// VideoStatus constants
const (
	VideoStatusPending    = "pending"
	VideoStatusQueued     = "queued"
	VideoStatusProcessing = "processing"
	VideoStatusCompleted  = "completed"
	VideoStatusFailed     = "failed"
)

// VideoPatch is a partial update of a video record. It enumerates
// exactly the fields the transcoding pipeline is allowed to write; a
// nil field is left untouched.
type VideoPatch struct {
	Status       *string
	OutputDir    *string
	PlaylistURL  *string
	ThumbnailURL *string
	Blurhash     *string
}

// StringPtr is a convenience helper for building patches.
func StringPtr(s string) *string {
	return &s
}
