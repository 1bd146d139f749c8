package transcoder

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hlspress/hlspress/pkg/models"
)

func TestBuildMasterPlaylist(t *testing.T) {
	content, err := BuildMasterPlaylist(models.QualityList{"360p", "720p"})
	require.NoError(t, err)

	want := "#EXTM3U\n" +
		"#EXT-X-VERSION:3\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=800000,RESOLUTION=640x360\n" +
		"360p.m3u8\n" +
		"#EXT-X-STREAM-INF:BANDWIDTH=3000000,RESOLUTION=1280x720\n" +
		"720p.m3u8\n"
	assert.Equal(t, want, content)
}

func TestBuildMasterPlaylistPreservesOrder(t *testing.T) {
	content, err := BuildMasterPlaylist(models.QualityList{"1080p", "144p"})
	require.NoError(t, err)

	// entries follow the requested order, not the ladder order
	assert.Less(t, strings.Index(content, "1080p.m3u8"), strings.Index(content, "144p.m3u8"))
}

func TestBuildMasterPlaylistUnknownQuality(t *testing.T) {
	_, err := BuildMasterPlaylist(models.QualityList{"360p", "999p"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "999p")
}

func TestWriteMasterPlaylist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.m3u8")

	require.NoError(t, WriteMasterPlaylist(path, models.QualityList{"480p"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "BANDWIDTH=1500000,RESOLUTION=854x480")
}
