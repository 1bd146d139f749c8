package transcoder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeStoryboardLayout(t *testing.T) {
	tests := []struct {
		name      string
		duration  float64
		wantCount int
		wantRows  int
	}{
		{name: "twelve seconds", duration: 12, wantCount: 6, wantRows: 1},
		{name: "partial trailing interval floors", duration: 13.9, wantCount: 6, wantRows: 1},
		{name: "exactly one row", duration: 16, wantCount: 8, wantRows: 1},
		{name: "wraps to second row", duration: 18, wantCount: 9, wantRows: 2},
		{name: "one minute", duration: 60, wantCount: 30, wantRows: 4},
		{name: "shorter than one interval still gets a cell", duration: 0.5, wantCount: 1, wantRows: 1},
		{name: "zero duration", duration: 0, wantCount: 1, wantRows: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := ComputeStoryboardLayout(tt.duration)
			assert.Equal(t, tt.wantCount, layout.Count)
			assert.Equal(t, tt.wantRows, layout.Rows)
			assert.Equal(t, 2, layout.Interval)
			assert.Equal(t, 180, layout.TileWidth)
			assert.Equal(t, 101, layout.TileHeight)
			assert.Equal(t, 8, layout.Columns)
		})
	}
}

func TestTileRect(t *testing.T) {
	layout := ComputeStoryboardLayout(60) // 30 tiles, 4 rows

	x, y, w, h := layout.TileRect(0)
	assert.Equal(t, []int{0, 0, 180, 101}, []int{x, y, w, h})

	x, y, w, h = layout.TileRect(7)
	assert.Equal(t, []int{7 * 180, 0, 180, 101}, []int{x, y, w, h})

	// tile 8 wraps to the second row
	x, y, w, h = layout.TileRect(8)
	assert.Equal(t, []int{0, 101, 180, 101}, []int{x, y, w, h})

	x, y, w, h = layout.TileRect(29)
	assert.Equal(t, []int{5 * 180, 3 * 101, 180, 101}, []int{x, y, w, h})
}

func TestWriteCueSheet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thumbnails.vtt")

	require.NoError(t, WriteCueSheet(path, "storyboard.jpg", ComputeStoryboardLayout(20)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(raw)

	assert.True(t, strings.HasPrefix(content, "WEBVTT\n\n"))
	assert.Contains(t, content, "00:00:00.000 --> 00:00:02.000\nstoryboard.jpg#xywh=0,0,180,101")
	assert.Contains(t, content, "00:00:02.000 --> 00:00:04.000\nstoryboard.jpg#xywh=180,0,180,101")
	assert.Contains(t, content, "00:00:18.000 --> 00:00:20.000")

	// 10 cues for a 20s source
	assert.Equal(t, 10, strings.Count(content, " --> "))
}

func TestWriteCueSheetWrapsColumns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "thumbnails.vtt")

	// 9 tiles: the ninth sits at the start of row two
	require.NoError(t, WriteCueSheet(path, "storyboard.jpg", ComputeStoryboardLayout(18)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)

	assert.Contains(t, string(raw), "00:00:16.000 --> 00:00:18.000\nstoryboard.jpg#xywh=0,101,180,101")
}

func TestFormatTimestamp(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "00:00:00.000"},
		{2, "00:00:02.000"},
		{62.5, "00:01:02.500"},
		{3661.25, "01:01:01.250"},
		{0.0014, "00:00:00.001"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, formatTimestamp(tt.seconds))
	}
}
