package transcoder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	ffmpeg "github.com/u2takey/ffmpeg-go"

	"video-platform/internal/apperr"
	"video-platform/internal/logging"
	"video-platform/internal/metrics"
)

// Normalized output target.
const (
	TargetHeight     = 480
	TargetFrameRate  = 30
	TargetVideoCodec = "libx264"
	TargetPreset     = "medium"
	TargetCRF        = 23
	TargetAudioCodec = "aac"
	TargetAudioRate  = "128k"

	probeTimeout = 30 * time.Second
)

var log = logging.For("transcoder")

// Transcoder normalizes raw uploads into a single playable rendition.
type Transcoder struct {
	ffmpegPath string
	timeout    time.Duration
	processes  map[string]*exec.Cmd
	processMu  sync.Mutex
	probe      func(path string) (string, error)
}

// VideoInfo contains information about a video file.
type VideoInfo struct {
	Duration float64 `json:"duration"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
	Codec    string  `json:"codec"`
}

// New creates a Transcoder. A zero timeout means no per-job deadline.
func New(timeout time.Duration) *Transcoder {
	return &Transcoder{
		ffmpegPath: "ffmpeg",
		timeout:    timeout,
		processes:  make(map[string]*exec.Cmd),
		probe: func(path string) (string, error) {
			return ffmpeg.ProbeWithTimeout(path, probeTimeout, ffmpeg.KwArgs{})
		},
	}
}

// BuildArgs returns the ffmpeg arguments that transcode input into a 480-line,
// 30 fps H.264/AAC MP4 with the moov atom up front.
func BuildArgs(input, output string) []string {
	return ffmpeg.
		Input(input, ffmpeg.KwArgs{"hide_banner": ""}).
		Output(output, ffmpeg.KwArgs{
			"c:v":      TargetVideoCodec,
			"preset":   TargetPreset,
			"crf":      TargetCRF,
			"vf":       fmt.Sprintf("scale=-2:%d", TargetHeight),
			"r":        TargetFrameRate,
			"c:a":      TargetAudioCodec,
			"b:a":      TargetAudioRate,
			"movflags": "+faststart",
		}).
		OverWriteOutput().
		GetArgs()
}

// Transcode runs ffmpeg on input and writes output. Failures are wrapped with
// apperr.ErrTranscode; a partially written output is removed.
func (t *Transcoder) Transcode(ctx context.Context, input, output string) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	metrics.TranscodesInFlight.Inc()
	defer metrics.TranscodesInFlight.Dec()

	err := t.run(ctx, input, output)
	if err == nil {
		err = t.verify(output)
	}

	status := "success"
	if err != nil {
		status = "failure"
		if rmErr := os.Remove(output); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			log.Warn("failed to remove partial output %s: %v", output, rmErr)
		}
	}
	metrics.TranscodesTotal.WithLabelValues(status).Inc()
	metrics.TranscodeDuration.WithLabelValues(status).Observe(time.Since(start).Seconds())

	if err != nil {
		return fmt.Errorf("%w: %s: %w", apperr.ErrTranscode, input, err)
	}
	log.Info("Transcoded %s -> %s in %v", input, output, time.Since(start).Round(time.Millisecond))
	return nil
}

func (t *Transcoder) run(ctx context.Context, input, output string) error {
	cmd := exec.CommandContext(ctx, t.ffmpegPath, BuildArgs(input, output)...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	// Track the process
	t.processMu.Lock()
	t.processes[input] = cmd
	t.processMu.Unlock()

	defer func() {
		t.processMu.Lock()
		delete(t.processes, input)
		t.processMu.Unlock()
	}()

	log.Debug("Running %s %s", t.ffmpegPath, strings.Join(cmd.Args[1:], " "))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Error("FFmpeg stderr for %s: %s", input, lastLines(stderr.String(), 10))
		return fmt.Errorf("ffmpeg: %w", err)
	}
	return nil
}

// verify checks that the output carries a video stream at the target height.
func (t *Transcoder) verify(output string) error {
	info, err := t.Probe(output)
	if err != nil {
		return err
	}
	if info.Height != TargetHeight {
		return fmt.Errorf("unexpected output height %d", info.Height)
	}
	return nil
}

// Probe reads codec, dimensions and duration of a media file.
func (t *Transcoder) Probe(path string) (*VideoInfo, error) {
	out, err := t.probe(path)
	if err != nil {
		return nil, fmt.Errorf("ffprobe error: %w", err)
	}
	return parseProbe(out)
}

type probeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		CodecName string `json:"codec_name"`
		Width     int    `json:"width,omitempty"`
		Height    int    `json:"height,omitempty"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbe(raw string) (*VideoInfo, error) {
	var out probeOutput
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("invalid ffprobe output: %w", err)
	}

	info := &VideoInfo{}
	info.Duration, _ = strconv.ParseFloat(out.Format.Duration, 64)
	for _, s := range out.Streams {
		if s.CodecType == "video" {
			info.Codec = s.CodecName
			info.Width = s.Width
			info.Height = s.Height
			return info, nil
		}
	}
	return nil, errors.New("no video stream")
}

// Active returns the number of running ffmpeg processes.
func (t *Transcoder) Active() int {
	t.processMu.Lock()
	defer t.processMu.Unlock()
	return len(t.processes)
}

// Cleanup stops all active transcoding processes.
func (t *Transcoder) Cleanup() {
	t.processMu.Lock()
	defer t.processMu.Unlock()

	for path, cmd := range t.processes {
		if cmd.Process != nil {
			log.Info("Killing transcoding process for: %s", path)
			if err := cmd.Process.Kill(); err != nil {
				log.Warn("failed to kill transcoding process for %s: %v", path, err)
			}
		}
	}
}

func lastLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
