// Package events defines the named events the pipeline emits and a
// fan-out bus carrying them to live-update observers.
package events

import (
	"sync"
)

// Event names. These are part of the contract with clients.
const (
	EventVideoAdded   = "video-added"
	EventVideoUpdated = "video-updated"
	EventVideoList    = "videos"
	EventJobProgress  = "job-progress"
	EventJobComplete  = "job-complete"
	EventJobFailed    = "job-failed"
)

// ProgressPayload reports fractional encode progress for one rendition
type ProgressPayload struct {
	JobID   int64   `json:"jobId"`
	Quality string  `json:"quality"`
	Percent float64 `json:"percent"`
}

// CompletePayload announces a finished job and its artifact URLs
type CompletePayload struct {
	JobID        int64  `json:"jobId"`
	PlaylistURL  string `json:"playlistUrl"`
	ThumbnailURL string `json:"thumbnailUrl"`
}

// FailurePayload announces a failed job with its error message
type FailurePayload struct {
	JobID int64  `json:"jobId"`
	Error string `json:"error"`
}

// Sink receives emitted events. Implementations must not block: the
// emitting side runs on the transcoding path.
type Sink interface {
	Emit(event string, payload interface{})
}

// Bus fans events out to all registered sinks. It is itself a Sink, so
// components depend only on the interface.
type Bus struct {
	mu    sync.RWMutex
	sinks []Sink
}

// NewBus creates an empty event bus
func NewBus() *Bus {
	return &Bus{}
}

// Register adds a sink to the bus
func (b *Bus) Register(sink Sink) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sinks = append(b.sinks, sink)
}

// Emit delivers an event to every registered sink in registration order
func (b *Bus) Emit(event string, payload interface{}) {
	b.mu.RLock()
	sinks := make([]Sink, len(b.sinks))
	copy(sinks, b.sinks)
	b.mu.RUnlock()

	for _, sink := range sinks {
		sink.Emit(event, payload)
	}
}
