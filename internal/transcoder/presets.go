package transcoder

import (
	"github.com/hlspress/hlspress/pkg/models"
)

// Preset defines the encode parameters for a quality label
type Preset struct {
	Label      string // quality label, e.g. "720p"
	Scale      string // ffmpeg scale filter argument, e.g. "1280:-2"
	Bitrate    string // target video bitrate, e.g. "3000k"
	Bandwidth  int    // master playlist BANDWIDTH in bits/sec
	Width      int    // display width in pixels
	Resolution string // master playlist RESOLUTION attribute
}

// Presets is the fixed quality ladder, ordered lowest to highest. It is
// loaded once and shared read-only by all jobs.
var Presets = []Preset{
	{Label: "144p", Scale: "256:-2", Bitrate: "200k", Bandwidth: 200000, Width: 256, Resolution: "256x144"},
	{Label: "240p", Scale: "426:-2", Bitrate: "400k", Bandwidth: 400000, Width: 426, Resolution: "426x240"},
	{Label: "360p", Scale: "640:-2", Bitrate: "800k", Bandwidth: 800000, Width: 640, Resolution: "640x360"},
	{Label: "480p", Scale: "854:-2", Bitrate: "1500k", Bandwidth: 1500000, Width: 854, Resolution: "854x480"},
	{Label: "720p", Scale: "1280:-2", Bitrate: "3000k", Bandwidth: 3000000, Width: 1280, Resolution: "1280x720"},
	{Label: "1080p", Scale: "1920:-2", Bitrate: "6000k", Bandwidth: 6000000, Width: 1920, Resolution: "1920x1080"},
	{Label: "1440p", Scale: "2560:-2", Bitrate: "12000k", Bandwidth: 12000000, Width: 2560, Resolution: "2560x1440"},
	{Label: "2160p", Scale: "3840:-2", Bitrate: "24000k", Bandwidth: 24000000, Width: 3840, Resolution: "3840x2160"},
}

// LookupPreset returns the preset for a quality label.
func LookupPreset(label string) (Preset, bool) {
	for _, p := range Presets {
		if p.Label == label {
			return p, true
		}
	}
	return Preset{}, false
}

// AllowedQualities returns the quality labels whose display width does
// not exceed the source width, in ladder order.
func AllowedQualities(sourceWidth int) models.QualityList {
	var out models.QualityList
	for _, p := range Presets {
		if p.Width <= sourceWidth {
			out = append(out, p.Label)
		}
	}
	return out
}
