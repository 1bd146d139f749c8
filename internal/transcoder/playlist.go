package transcoder

import (
	"fmt"
	"os"
	"strings"

	"github.com/hlspress/hlspress/pkg/models"
)

// BuildMasterPlaylist renders the adaptive-selection manifest listing
// one rendition per quality label, in the order the qualities were
// requested. Rendition playlists are referenced by their relative
// filename so the manifest can be served from any path.
func BuildMasterPlaylist(qualities models.QualityList) (string, error) {
	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")

	for _, label := range qualities {
		preset, ok := LookupPreset(label)
		if !ok {
			return "", fmt.Errorf("unknown quality %q", label)
		}
		fmt.Fprintf(&b, "#EXT-X-STREAM-INF:BANDWIDTH=%d,RESOLUTION=%s\n", preset.Bandwidth, preset.Resolution)
		b.WriteString(label + ".m3u8\n")
	}

	return b.String(), nil
}

// WriteMasterPlaylist writes the master playlist to path.
func WriteMasterPlaylist(path string, qualities models.QualityList) error {
	content, err := BuildMasterPlaylist(qualities)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write master playlist: %w", err)
	}
	return nil
}
