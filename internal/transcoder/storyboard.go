package transcoder

import (
	"fmt"
	"math"
	"os"
	"strings"
)

// Storyboard geometry. The serving layer addresses tiles by pixel
// rectangle, so these values are part of the output contract.
const (
	StoryboardInterval   = 2 // seconds between sampled frames
	StoryboardTileWidth  = 180
	StoryboardTileHeight = 101
	StoryboardColumns    = 8
)

// StoryboardLayout is the deterministic grid layout for a storyboard
// image: Count sampled frames arranged row-major into Columns columns.
type StoryboardLayout struct {
	Interval   int
	TileWidth  int
	TileHeight int
	Columns    int
	Count      int
	Rows       int
}

// ComputeStoryboardLayout derives the storyboard grid for a source of
// the given duration. Sources shorter than one interval still get a
// single-cell storyboard rather than an empty one.
func ComputeStoryboardLayout(duration float64) StoryboardLayout {
	count := int(math.Floor(duration / StoryboardInterval))
	if count < 1 {
		count = 1
	}
	rows := (count + StoryboardColumns - 1) / StoryboardColumns

	return StoryboardLayout{
		Interval:   StoryboardInterval,
		TileWidth:  StoryboardTileWidth,
		TileHeight: StoryboardTileHeight,
		Columns:    StoryboardColumns,
		Count:      count,
		Rows:       rows,
	}
}

// TileRect returns the pixel rectangle of the i-th sampled frame
// within the storyboard image.
func (l StoryboardLayout) TileRect(i int) (x, y, width, height int) {
	row := i / l.Columns
	col := i % l.Columns
	return col * l.TileWidth, row * l.TileHeight, l.TileWidth, l.TileHeight
}

// WriteCueSheet writes the WebVTT cue file mapping each sampled time
// range to its tile rectangle in imageName.
func WriteCueSheet(path, imageName string, layout StoryboardLayout) error {
	var b strings.Builder
	b.WriteString("WEBVTT\n\n")

	for i := 0; i < layout.Count; i++ {
		start := formatTimestamp(float64(i * layout.Interval))
		end := formatTimestamp(float64((i + 1) * layout.Interval))
		x, y, w, h := layout.TileRect(i)

		b.WriteString(start + " --> " + end + "\n")
		fmt.Fprintf(&b, "%s#xywh=%d,%d,%d,%d\n\n", imageName, x, y, w, h)
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write cue sheet: %w", err)
	}
	return nil
}

// formatTimestamp renders seconds as a WebVTT HH:MM:SS.mmm timestamp.
func formatTimestamp(seconds float64) string {
	ms := int64(math.Round(seconds * 1000))
	h := ms / 3600000
	m := (ms % 3600000) / 60000
	s := (ms % 60000) / 1000
	ms = ms % 1000
	return fmt.Sprintf("%02d:%02d:%02d.%03d", h, m, s, ms)
}
