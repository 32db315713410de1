// Package videometa reads frame rate and frame count from video files.
package videometa

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog/log"
)

// Stats describes a video. The zero value means unknown.
type Stats struct {
	FPS    float64 `json:"fps"`
	Frames int     `json:"frames"`
}

// Known reports whether a frame rate is available.
func (s Stats) Known() bool {
	return s.FPS > 0
}

// Provider returns video statistics for a path.
type Provider interface {
	Probe(ctx context.Context, path string) (Stats, error)
}

// StatsOrZero probes path and swallows failures, which are logged.
func StatsOrZero(ctx context.Context, p Provider, path string) Stats {
	if p == nil || path == "" {
		return Stats{}
	}
	s, err := p.Probe(ctx, path)
	if err != nil {
		log.Warn().Err(err).Str("video", path).Msg("video metadata unavailable, using defaults")
		return Stats{}
	}
	return s
}

type runFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRun(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// FFProbe shells out to the ffprobe binary.
type FFProbe struct {
	Binary string
	run    runFunc
}

// NewFFProbe uses the ffprobe found on PATH.
func NewFFProbe() *FFProbe {
	return &FFProbe{Binary: "ffprobe", run: execRun}
}

type ffprobeOutput struct {
	Streams []struct {
		AvgFrameRate string `json:"avg_frame_rate"`
		RFrameRate   string `json:"r_frame_rate"`
		NbFrames     string `json:"nb_frames"`
	} `json:"streams"`
}

// Probe reads the first video stream's frame rate and frame count.
func (f *FFProbe) Probe(ctx context.Context, path string) (Stats, error) {
	run := f.run
	if run == nil {
		run = execRun
	}

	out, err := run(ctx, f.Binary, "-v", "error", "-select_streams", "v:0",
		"-show_entries", "stream=avg_frame_rate,r_frame_rate,nb_frames", "-of", "json", path)
	if err != nil {
		return Stats{}, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	return parseProbe(out)
}

func parseProbe(out []byte) (Stats, error) {
	var res ffprobeOutput
	if err := sonic.Unmarshal(out, &res); err != nil {
		return Stats{}, fmt.Errorf("ffprobe json: %w", err)
	}
	if len(res.Streams) == 0 {
		return Stats{}, fmt.Errorf("ffprobe: no video stream")
	}

	stream := res.Streams[0]
	var s Stats
	for _, rate := range []string{stream.AvgFrameRate, stream.RFrameRate} {
		if fps, ok := parseRate(rate); ok {
			s.FPS = fps
			break
		}
	}
	if n, err := strconv.Atoi(stream.NbFrames); err == nil && n > 0 {
		s.Frames = n
	}
	return s, nil
}

// parseRate reads "30000/1001" or "25".
func parseRate(rate string) (float64, bool) {
	num, den, hasDen := strings.Cut(rate, "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	d := 1.0
	if hasDen {
		if d, err = strconv.ParseFloat(den, 64); err != nil || d == 0 {
			return 0, false
		}
	}
	if n <= 0 {
		return 0, false
	}
	return n / d, true
}
