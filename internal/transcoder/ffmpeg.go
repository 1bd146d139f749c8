package transcoder

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/hlspress/hlspress/internal/logging"
)

// FFmpeg wraps the external ffmpeg and ffprobe tools. It knows nothing
// about jobs or queueing; callers hand it arguments and a progress
// callback.
type FFmpeg struct {
	ffmpegPath  string
	ffprobePath string
	log         *logging.Logger
}

// NewFFmpeg creates a new FFmpeg adapter
func NewFFmpeg(ffmpegPath, ffprobePath string, log *logging.Logger) *FFmpeg {
	return &FFmpeg{
		ffmpegPath:  ffmpegPath,
		ffprobePath: ffprobePath,
		log:         log,
	}
}

// ProgressFunc receives encode progress as a percentage in [0, 100].
type ProgressFunc func(percent float64)

// ProbeResult holds the source properties the pipeline needs
type ProbeResult struct {
	Width    int
	Height   int
	Duration float64
}

// RunWithProgress runs ffmpeg with the given arguments plus machine
// readable progress reporting on stdout. Each out_time_ms line (a
// microsecond counter, despite the name) is converted to a percentage
// of totalDuration and reported through progress; the reported value
// never decreases and is clamped to [0, 100]. Diagnostic output on
// stderr is logged, not parsed. A zero exit reports a final 100.
func (f *FFmpeg) RunWithProgress(ctx context.Context, args []string, totalDuration float64, progress ProgressFunc) error {
	cmd := exec.CommandContext(ctx, f.ffmpegPath, append(args, "-progress", "pipe:1")...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to create stdout pipe: %w", err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			f.log.Debugf("ffmpeg: %s", scanner.Text())
		}
	}()

	last := -1.0
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		// Lines other than the elapsed-time counter are auxiliary
		// output, not part of the stable contract; ignore them.
		elapsedUs, ok := parseProgressLine(scanner.Text())
		if !ok {
			continue
		}
		percent := progressPercent(elapsedUs, totalDuration)
		if percent <= last {
			continue
		}
		last = percent
		if progress != nil {
			progress(percent)
		}
	}

	if err := cmd.Wait(); err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return fmt.Errorf("ffmpeg exited with code %d", exitErr.ExitCode())
		}
		return fmt.Errorf("ffmpeg failed: %w", err)
	}

	if progress != nil {
		progress(100)
	}

	return nil
}

// parseProgressLine extracts the microsecond elapsed-time counter from
// one line of ffmpeg -progress output.
func parseProgressLine(line string) (int64, bool) {
	value, found := strings.CutPrefix(line, "out_time_ms=")
	if !found {
		return 0, false
	}
	elapsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, false
	}
	return elapsed, true
}

// progressPercent converts a microsecond elapsed time to a percentage
// of the total duration, clamped to [0, 100].
func progressPercent(elapsedUs int64, totalDuration float64) float64 {
	if totalDuration <= 0 {
		return 0
	}
	percent := float64(elapsedUs) / (totalDuration * 1e6) * 100
	if percent > 100 {
		percent = 100
	}
	if percent < 0 {
		percent = 0
	}
	return percent
}

type probeOutput struct {
	Format  probeFormat  `json:"format"`
	Streams []probeStream `json:"streams"`
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeStream struct {
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Probe extracts the width, height and container duration of a video
// file using ffprobe.
func (f *FFmpeg) Probe(ctx context.Context, filePath string) (*ProbeResult, error) {
	args := []string{
		"-v", "error",
		"-analyzeduration", "100M",
		"-probesize", "100M",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		filePath,
	}

	cmd := exec.CommandContext(ctx, f.ffprobePath, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	var probe probeOutput
	if err := json.Unmarshal(output, &probe); err != nil {
		return nil, fmt.Errorf("failed to parse ffprobe output: %w", err)
	}

	if len(probe.Streams) == 0 {
		return nil, fmt.Errorf("no streams found in %s", filePath)
	}

	var video *probeStream
	for i := range probe.Streams {
		if probe.Streams[i].CodecType == "video" {
			video = &probe.Streams[i]
			break
		}
	}
	if video == nil {
		return nil, fmt.Errorf("no video stream found in %s", filePath)
	}

	duration, err := strconv.ParseFloat(probe.Format.Duration, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid duration %q: %w", probe.Format.Duration, err)
	}

	return &ProbeResult{
		Width:    video.Width,
		Height:   video.Height,
		Duration: duration,
	}, nil
}

// ExtractFrame extracts a single frame at the given time into a still
// image.
func (f *FFmpeg) ExtractFrame(ctx context.Context, inputPath, outputPath string, atSeconds float64) error {
	args := []string{
		"-y",
		"-ss", fmt.Sprintf("%.2f", atSeconds),
		"-i", inputPath,
		"-vframes", "1",
		"-q:v", "2",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to extract frame: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

// RenderTileSheet samples one frame per layout interval and tiles the
// samples into a single grid image.
func (f *FFmpeg) RenderTileSheet(ctx context.Context, inputPath, outputPath string, layout StoryboardLayout) error {
	filter := fmt.Sprintf("fps=1/%d,scale=%d:%d,tile=%dx%d",
		layout.Interval, layout.TileWidth, layout.TileHeight, layout.Columns, layout.Rows)

	args := []string{
		"-y",
		"-i", inputPath,
		"-vf", filter,
		"-frames:v", "1",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, f.ffmpegPath, args...)
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to render tile sheet: %w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
