package models

// Job is a transient transcoding task owned by the job queue. It is
// never persisted on its own: it is built from a fresh transcode
// request or reconstructed from a Video record during resume, and its
// only identity is the video it belongs to.
type Job struct {
	VideoID    int64
	StoredFile string
	Qualities  QualityList
	InputPath  string
	OutputDir  string
	Duration   float64
}
